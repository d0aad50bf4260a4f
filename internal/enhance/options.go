package enhance

import (
	"fmt"

	"github.com/dgallion1/pagekit/internal/assets"
	"github.com/dgallion1/pagekit/internal/config"
	"github.com/dgallion1/pagekit/internal/links"
	"github.com/dgallion1/pagekit/internal/outline"
	"github.com/dgallion1/pagekit/internal/style"
)

var (
	defaultTOCStyle = style.MustParse(`
		background: #f5f3ff; border: 1px solid #e5e7eb;
		border-radius: 8px; padding: 20px; margin: 24px 0;
	`)
	defaultProgressStyle = style.MustParse(`
		position: fixed; top: 0; left: 0; height: 3px;
		background: #6366f1; z-index: 9999; transition: width 0.1s;
	`)
)

const (
	defaultProgressColor = "#6366f1"
	defaultLinkColor     = "#6366f1"
)

// FromConfig derives page options from the service configuration.
func FromConfig(cfg config.Config) (Options, error) {
	tocOverride, err := style.Parse(cfg.TOCStyle)
	if err != nil {
		return Options{}, fmt.Errorf("TOC_STYLE: %w", err)
	}

	progress := defaultProgressStyle
	if cfg.ProgressColor != "" {
		progress = style.Merge(progress, style.Declarations{{Property: "background", Value: cfg.ProgressColor}})
	}

	linkColor := defaultLinkColor
	if cfg.TOCLinkColor != "" {
		linkColor = cfg.TOCLinkColor
	}

	var affs []links.Affiliate
	for _, pair := range cfg.AffiliateLinks {
		af, err := links.ParseAffiliate(pair)
		if err != nil {
			return Options{}, fmt.Errorf("AFFILIATE_LINKS: %w", err)
		}
		affs = append(affs, af)
	}
	limit := cfg.AffiliateLimit
	if limit <= 0 {
		limit = links.DefaultAffiliateLimit
	}

	return Options{
		SiteHost:        cfg.SiteHost,
		MarkExternal:    cfg.MarkExternalLinks,
		Affiliates:      affs,
		AffiliateLimit:  limit,
		TableOfContents: cfg.TOCEnabled,
		Outline: outline.Options{
			Selector:       cfg.ContentSelector,
			IDPrefix:       cfg.TOCIDPrefix,
			Title:          cfg.TOCTitle,
			MinHeadings:    cfg.TOCMinHeadings,
			ContainerStyle: style.Merge(defaultTOCStyle, tocOverride).String(),
			LinkColor:      linkColor,
		},
		Assets: assets.Options{
			SmoothScroll:  cfg.SmoothScroll,
			ProgressBar:   cfg.ProgressBar,
			ProgressStyle: progress.String(),
			Analytics:     cfg.Analytics,
			AnalyticsID:   cfg.AnalyticsID,
		},
	}, nil
}

// DefaultOptions is FromConfig applied to built-in defaults only.
func DefaultOptions() Options {
	opts, _ := FromConfig(config.Config{
		MarkExternalLinks: true,
		TOCEnabled:        true,
		ContentSelector:   outline.DefaultSelector,
		TOCTitle:          outline.DefaultTitle,
		TOCIDPrefix:       outline.DefaultIDPrefix,
		TOCMinHeadings:    outline.DefaultMinHeadings,
		SmoothScroll:      true,
		ProgressBar:       true,
		ProgressColor:     defaultProgressColor,
		TOCLinkColor:      defaultLinkColor,
		Analytics:         true,
	})
	return opts
}

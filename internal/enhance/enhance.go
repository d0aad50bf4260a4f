package enhance

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/pagekit/internal/assets"
	"github.com/dgallion1/pagekit/internal/links"
	"github.com/dgallion1/pagekit/internal/outline"
	"golang.org/x/net/html"
)

// Options configures every page behavior.
type Options struct {
	SiteHost        string // Links to other hosts are marked external.
	MarkExternal    bool
	Affiliates      []links.Affiliate // Keywords linked in the content region.
	AffiliateLimit  int
	TableOfContents bool
	Outline         outline.Options
	Assets          assets.Options
}

// Result is the outcome of processing one page.
type Result struct {
	HTML          []byte          `json:"-"`
	Outline       []outline.Entry `json:"outline"`
	ExternalLinks int             `json:"external_links"`
	Affiliates    int             `json:"affiliate_links,omitempty"`
	Collisions    []string        `json:"id_collisions,omitempty"`
	Script        bool            `json:"script"`
}

// Enhancer applies the page behaviors to HTML documents.
type Enhancer struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options, log *slog.Logger) *Enhancer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Enhancer{opts: opts, log: log}
}

// Options returns the enhancer configuration.
func (e *Enhancer) Options() Options {
	return e.opts
}

// Process parses a full HTML document, applies the page behaviors once and
// renders the result.
func (e *Enhancer) Process(r io.Reader) (*Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	res := e.Apply(doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	res.HTML = buf.Bytes()
	return res, nil
}

// Apply mutates doc in place. The table of contents is built at most once
// per call, so callers must not apply the same document twice.
func (e *Enhancer) Apply(doc *html.Node) *Result {
	res := &Result{}

	// Before marking, so inserted links get rel="nofollow" too.
	if len(e.opts.Affiliates) > 0 {
		region := outline.FindRegion(doc, e.opts.Outline.Selector)
		res.Affiliates = links.InsertAffiliates(region, e.opts.Affiliates, e.opts.AffiliateLimit)
	}

	if e.opts.MarkExternal {
		res.ExternalLinks = links.Annotate(doc, e.opts.SiteHost)
	}

	if e.opts.TableOfContents {
		region := outline.FindRegion(doc, e.opts.Outline.Selector)
		toc := outline.Insert(region, e.opts.Outline)
		res.Outline = toc.Entries
		res.Collisions = toc.Collisions
		if len(toc.Collisions) > 0 {
			e.log.Warn("generated heading ids collide with existing ids", "ids", toc.Collisions)
		}
	}

	assetOpts := e.opts.Assets
	if assetOpts.SmoothScroll && len(res.Outline) == 0 && links.InPageAnchors(doc) == 0 {
		// Nothing on the page to scroll to.
		assetOpts.SmoothScroll = false
	}
	res.Script = assets.Inject(doc, assetOpts)

	e.log.Debug("page enhanced",
		"outline_entries", len(res.Outline),
		"external_links", res.ExternalLinks,
		"affiliate_links", res.Affiliates,
		"script", res.Script,
	)
	return res
}

// Outline returns the table of contents entries for a document without
// changing it.
func (e *Enhancer) Outline(r io.Reader) ([]outline.Entry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	region := outline.FindRegion(doc, e.opts.Outline.Selector)
	return outline.Build(region, e.opts.Outline), nil
}

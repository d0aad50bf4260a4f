package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/pagekit/internal/config"
	"github.com/dgallion1/pagekit/internal/enhance"
	"github.com/dgallion1/pagekit/internal/page"
	"github.com/dgallion1/pagekit/internal/parser"
)

// Converter turns one article source into an enhanced page.
type Converter struct {
	enhancer  *enhance.Enhancer
	parseOpts parser.Options
	site      page.SiteInfo
	stats     *Stats
}

func NewConverter(e *enhance.Enhancer, parseOpts parser.Options, site page.SiteInfo) *Converter {
	return &Converter{enhancer: e, parseOpts: parseOpts, site: site, stats: NewStats(time.Hour)}
}

// Stats returns conversions from the last hour.
func (c *Converter) Stats() *Stats {
	return c.stats
}

// ConverterFromConfig wires a converter from service settings.
func ConverterFromConfig(cfg config.Config, log *slog.Logger) (*Converter, error) {
	opts, err := enhance.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	codeStyle := cfg.CodeStyle
	if strings.EqualFold(codeStyle, "none") {
		codeStyle = ""
	}
	return NewConverter(
		enhance.New(opts, log),
		parser.Options{
			ContentSelector:   cfg.ContentSelector,
			FallbackPdftotext: cfg.PDFFallbackPdftotext,
			CodeStyle:         codeStyle,
		},
		page.SiteInfo{
			Title:       cfg.SiteTitle,
			Host:        cfg.SiteHost,
			Description: cfg.SiteDescription,
		},
	), nil
}

// Site returns the site pages are rendered for.
func (c *Converter) Site() page.SiteInfo {
	return c.site
}

// Enhancer returns the enhancer applied to rendered pages.
func (c *Converter) Enhancer() *enhance.Enhancer {
	return c.enhancer
}

// PhaseFunc is told when a conversion enters a new phase.
type PhaseFunc func(status JobStatus)

// Convert parses, renders and enhances a single source file and returns its
// summary along with the finished page.
func (c *Converter) Convert(name string, data []byte, phase PhaseFunc) (res *FileResult, out []byte, err error) {
	if phase == nil {
		phase = func(JobStatus) {}
	}
	start := time.Now()
	defer func() {
		c.stats.Record(name, time.Since(start), err != nil)
	}()

	phase(StatusParsing)
	p, err := parser.ForFile(name, c.parseOpts)
	if err != nil {
		return nil, nil, err
	}
	a, err := p.Parse(bytes.NewReader(data), name)
	if err != nil {
		return nil, nil, fmt.Errorf("parse: %w", err)
	}
	if strings.TrimSpace(a.BodyHTML) == "" {
		return nil, nil, fmt.Errorf("parse: no extractable content")
	}

	phase(StatusRendering)
	doc, err := page.Render(a, c.site)
	if err != nil {
		return nil, nil, err
	}

	phase(StatusEnhancing)
	enhanced, err := c.enhancer.Process(bytes.NewReader(doc))
	if err != nil {
		return nil, nil, fmt.Errorf("enhance: %w", err)
	}

	slug := a.Slug
	if slug == "" {
		slug = page.Slug(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	}
	if slug == "" {
		slug = "page"
	}
	return &FileResult{
		Name:          name,
		Output:        slug + ".html",
		Title:         a.Title,
		Description:   a.Description,
		Date:          a.Date,
		Tags:          a.Tags,
		ContentHash:   ContentHashHex(data),
		Outline:       enhanced.Outline,
		ExternalLinks: enhanced.ExternalLinks,
	}, enhanced.HTML, nil
}

// Worker processes conversion jobs.
type Worker struct {
	conv *Converter
	log  *slog.Logger
}

func NewWorker(conv *Converter, log *slog.Logger) *Worker {
	return &Worker{conv: conv, log: log}
}

// Process converts every file of a job. One failing file does not stop the
// rest; the job ends partial when some files converted and failed when none did.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)
	files := job.Files()
	defer job.releaseFiles()

	used := make(map[string]bool, len(files))
	converted := 0
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			job.AddError(fmt.Sprintf("%s: %s", f.Name, err))
			job.AddResult(&FileResult{Name: f.Name, Error: err.Error()})
			continue
		}

		phaseName := fmt.Sprintf("file %d/%d", i+1, len(files))
		res, out, err := w.conv.Convert(f.Name, f.Data, func(s JobStatus) {
			job.SetStatus(s, phaseName)
		})
		if err != nil {
			log.Error("conversion failed", "file", f.Name, "error", err)
			job.AddError(fmt.Sprintf("%s: %s", f.Name, err))
			job.AddResult(&FileResult{Name: f.Name, Error: err.Error()})
			continue
		}

		res.Output = uniqueName(res.Output, used)
		res.html = out
		job.AddResult(res)
		converted++
		log.Info("converted", "file", f.Name, "output", res.Output,
			"outline_entries", len(res.Outline), "external_links", res.ExternalLinks)
	}

	switch {
	case converted == len(files):
		job.SetStatus(StatusCompleted, "done")
	case converted > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "done")
	}
}

// uniqueName suffixes name until it is not in used, then claims it.
func uniqueName(name string, used map[string]bool) string {
	base := strings.TrimSuffix(name, ".html")
	for n := 2; used[name]; n++ {
		name = base + "-" + strconv.Itoa(n) + ".html"
	}
	used[name] = true
	return name
}

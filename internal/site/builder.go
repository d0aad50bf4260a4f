// Package site builds enhanced pages from source files on disk.
package site

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/dgallion1/pagekit/internal/pipeline"
	"github.com/dgallion1/pagekit/internal/progress"
	"golang.org/x/sync/errgroup"
)

// Source is one input file.
type Source struct {
	Path string // As found on disk.
	Rel  string // Slash-separated, relative to its root.
}

// Page is the outcome of building one source.
type Page struct {
	Source        Source
	Output        string // Path written, relative to the output directory.
	Title         string // Empty for pages kept in their own layout.
	Description   string
	Date          string
	Tags          []string
	Outline       int
	ExternalLinks int
	Err           error
}

// Builder writes enhanced pages into an output directory.
type Builder struct {
	conv   *pipeline.Converter
	outDir string
	log    *slog.Logger

	// KeepLayout enhances HTML sources in their own markup instead of
	// re-rendering their content in the article template.
	KeepLayout bool
	// Concurrency bounds the sources Build converts at once. Values below
	// one mean one.
	Concurrency int

	mu        sync.Mutex
	outputs   map[string]string // Source path to output name.
	claimed   map[string]bool
	built     map[string]Page // Source path to its last successful build.
	ownsIndex bool
}

func NewBuilder(conv *pipeline.Converter, outDir string, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		conv:    conv,
		outDir:  outDir,
		log:     log,
		outputs: make(map[string]string),
		claimed: make(map[string]bool),
		built:   make(map[string]Page),
	}
}

// OutDir returns the output directory.
func (b *Builder) OutDir() string {
	return b.outDir
}

// Build converts sources and returns one page per source, in source order.
// Up to Concurrency sources are converted at once; output names are claimed
// and files written in source order, so name collisions resolve the same
// way on every run. Sources not yet started when ctx is cancelled are left
// out of the result.
func (b *Builder) Build(ctx context.Context, sources []Source, rep progress.Reporter) []Page {
	rep.Start(len(sources))
	defer rep.Finish()

	results := make([]rendered, len(sources))
	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.Concurrency, 1))
	for i, src := range sources {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			r := b.render(src)
			results[i] = r

			msg := src.Rel
			if r.page.Err != nil {
				msg += ": " + r.page.Err.Error()
			}
			mu.Lock()
			done++
			rep.Update(done, msg)
			mu.Unlock()
			return nil
		})
	}
	// Failures are carried on each page, never returned.
	_ = g.Wait()

	pages := make([]Page, 0, len(sources))
	for _, r := range results {
		if !r.ok {
			continue
		}
		pages = append(pages, b.write(r))
	}
	return pages
}

// BuildFile converts one source and writes it. Rebuilding a source reuses
// the output name it was first given.
func (b *Builder) BuildFile(src Source) Page {
	return b.write(b.render(src))
}

// rendered is a converted page waiting for its output name.
type rendered struct {
	page Page
	out  []byte
	name string // Proposed output name.
	ok   bool   // Conversion was attempted.
}

func (b *Builder) render(src Source) rendered {
	r := rendered{page: Page{Source: src}, ok: true}
	data, err := os.ReadFile(src.Path)
	if err != nil {
		r.page.Err = err
		return r
	}

	if b.KeepLayout && isHTML(src.Path) {
		res, err := b.conv.Enhancer().Process(bytes.NewReader(data))
		if err != nil {
			r.page.Err = err
			return r
		}
		r.out, r.name = res.HTML, src.Rel
		r.page.Outline, r.page.ExternalLinks = len(res.Outline), res.ExternalLinks
		return r
	}

	res, html, err := b.conv.Convert(filepath.Base(src.Path), data, nil)
	if err != nil {
		r.page.Err = err
		return r
	}
	r.out, r.name = html, res.Output
	if dir := path.Dir(src.Rel); dir != "." {
		r.name = path.Join(dir, r.name)
	}
	r.page.Title, r.page.Description = res.Title, res.Description
	r.page.Date, r.page.Tags = res.Date, res.Tags
	r.page.Outline, r.page.ExternalLinks = len(res.Outline), res.ExternalLinks
	return r
}

func (b *Builder) write(r rendered) Page {
	p := r.page
	if p.Err != nil {
		return p
	}
	p.Output = b.claim(p.Source.Path, r.name)
	if err := b.writeOut(p.Output, r.out); err != nil {
		p.Err = err
		return p
	}
	b.mu.Lock()
	b.built[p.Source.Path] = p
	b.mu.Unlock()
	b.log.Debug("page written", "source", p.Source.Path, "output", p.Output, "outline_entries", p.Outline)
	return p
}

// writeOut writes data to a slash-separated path under the output directory.
func (b *Builder) writeOut(name string, data []byte) error {
	dst := filepath.Join(b.outDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

// Pages returns the last successful build of every source, by output name.
func (b *Builder) Pages() []Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	pages := make([]Page, 0, len(b.built))
	for _, p := range b.built {
		pages = append(pages, p)
	}
	slices.SortFunc(pages, func(x, y Page) int { return strings.Compare(x.Output, y.Output) })
	return pages
}

// claim assigns a unique output name to a source.
func (b *Builder) claim(srcPath, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.outputs[srcPath]; ok {
		return prev
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; b.claimed[name]; n++ {
		name = base + "-" + strconv.Itoa(n) + ext
	}
	b.claimed[name] = true
	b.outputs[srcPath] = name
	return name
}

func isHTML(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	return ext == ".html" || ext == ".htm"
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/dgallion1/pagekit/internal/pipeline"
	"github.com/dgallion1/pagekit/internal/progress"
	"github.com/dgallion1/pagekit/internal/site"
	"github.com/spf13/cobra"
)

// buildFlags are shared by enhance and watch.
type buildFlags struct {
	out        string
	include    []string
	exclude    []string
	keepLayout bool
	jobs       int
	index      bool
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.out, "out", "o", "_site", "output directory")
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "only build sources matching these globs (** supported)")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "skip sources matching these globs")
	cmd.Flags().BoolVar(&f.keepLayout, "keep-layout", false, "enhance HTML sources in place instead of re-rendering them")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", runtime.NumCPU(), "sources converted in parallel")
	cmd.Flags().BoolVar(&f.index, "index", true, "write index.html listing the pages, and sitemap.xml when SITE_HOST is set")
}

func (f *buildFlags) builder(conv *pipeline.Converter, log *slog.Logger) *site.Builder {
	b := site.NewBuilder(conv, f.out, log)
	b.KeepLayout = f.keepLayout
	b.Concurrency = f.jobs
	return b
}

func (f *buildFlags) filter() (site.Filter, error) {
	flt := site.Filter{Include: f.include, Exclude: f.exclude}
	return flt, flt.Validate()
}

var enhanceFlags buildFlags

var enhanceCmd = &cobra.Command{
	Use:   "enhance <dir|file>...",
	Short: "Build enhanced pages from article sources",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEnhance,
}

func init() {
	enhanceFlags.register(enhanceCmd)
	rootCmd.AddCommand(enhanceCmd)
}

func runEnhance(cmd *cobra.Command, args []string) error {
	flt, err := enhanceFlags.filter()
	if err != nil {
		return err
	}
	log := newLogger()
	conv, err := loadConverter(log)
	if err != nil {
		return err
	}

	sources, err := site.Collect(args, flt, enhanceFlags.out)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No sources found")
		return nil
	}

	b := enhanceFlags.builder(conv, log)
	pages := b.Build(cmd.Context(), sources, progress.NewReporter(cmd.ErrOrStderr()))
	if enhanceFlags.index {
		if err := writeIndex(cmd.OutOrStdout(), b); err != nil {
			return err
		}
	}
	return summarize(cmd.OutOrStdout(), pages, enhanceFlags.out)
}

// writeIndex writes the site index and sitemap and says what was written.
func writeIndex(w io.Writer, b *site.Builder) error {
	idx, err := b.WriteIndex()
	if err != nil {
		return fmt.Errorf("site index: %w", err)
	}
	if idx.Index != "" {
		fmt.Fprintf(w, "%s lists %d pages\n", idx.Index, idx.Posts)
	}
	if idx.Sitemap != "" {
		fmt.Fprintf(w, "%s written\n", idx.Sitemap)
	}
	return nil
}

// summarize prints one line per failure and a total, and fails when any
// page failed.
func summarize(w io.Writer, pages []site.Page, out string) error {
	failed := 0
	outline := 0
	for _, p := range pages {
		if p.Err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %v\n", p.Source.Rel, p.Err)
			continue
		}
		if p.Outline > 0 {
			outline++
		}
	}
	fmt.Fprintf(w, "%d pages written to %s (%d with a table of contents)\n", len(pages)-failed, out, outline)
	if failed > 0 {
		return fmt.Errorf("%d of %d pages failed", failed, len(pages))
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgallion1/pagekit/internal/parser"
	"github.com/dgallion1/pagekit/internal/progress"
	"github.com/dgallion1/pagekit/internal/site"
	"github.com/dgallion1/pagekit/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchFlags    buildFlags
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Build pages, then rebuild sources as they change",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchFlags.register(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a changed file is rebuilt")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := args[0]
	flt, err := watchFlags.filter()
	if err != nil {
		return err
	}
	log := newLogger()
	conv, err := loadConverter(log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := watchFlags.builder(conv, log)

	sources, err := site.Collect([]string{root}, flt, watchFlags.out)
	if err != nil {
		return err
	}
	pages := b.Build(ctx, sources, progress.NewReporter(cmd.ErrOrStderr()))
	// Initial failures are reported but do not stop watching.
	_ = summarize(cmd.OutOrStdout(), pages, watchFlags.out)
	if watchFlags.index {
		if err := writeIndex(cmd.OutOrStdout(), b); err != nil {
			return err
		}
	}

	outAbs, _ := filepath.Abs(watchFlags.out)
	w, err := watch.New(root, watch.Options{
		Accept: func(path string) bool {
			rel, err := filepath.Rel(root, path)
			return err == nil && parser.IsSupportedExtension(path) && flt.Match(rel)
		},
		SkipDir: func(path string) bool {
			abs, _ := filepath.Abs(path)
			return abs == outAbs || site.IsExcludedDir(filepath.Base(path))
		},
		Debounce: watchDebounce,
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", root)
	err = w.Run(ctx, func(path string) {
		rel, _ := filepath.Rel(root, path)
		p := b.BuildFile(site.Source{Path: path, Rel: filepath.ToSlash(rel)})
		if p.Err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", p.Source.Rel, p.Err)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "built %s -> %s\n", p.Source.Rel, p.Output)
		if watchFlags.index {
			if err := writeIndex(io.Discard, b); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL %v\n", err)
			}
		}
	})
	if err == context.Canceled {
		return nil
	}
	return err
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/pagekit/internal/config"
	"github.com/dgallion1/pagekit/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	siteHost string
	selector string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "pagekit",
	Short: "Add a table of contents, link policy and reading aids to article pages",
	Long: `pagekit turns article sources (Markdown, HTML, DOCX, PDF, text) into
static pages with a generated table of contents, external links marked
nofollow, and a small script for smooth scrolling, a reading progress bar
and analytics.

Page options come from the same environment variables as the server
(SITE_HOST, CONTENT_SELECTOR, TOC_MIN_HEADINGS, ...). Flags override them.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&siteHost, "site-host", "", "site host; links elsewhere are marked external (overrides SITE_HOST)")
	rootCmd.PersistentFlags().StringVar(&selector, "selector", "", "content region selector (overrides CONTENT_SELECTOR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger writes text logs to stderr so stdout stays clean for output.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConverter builds a converter from the environment and global flags.
func loadConverter(log *slog.Logger) (*pipeline.Converter, error) {
	_ = godotenv.Load()
	cfg := config.Load()
	if siteHost != "" {
		cfg.SiteHost = siteHost
	}
	if selector != "" {
		cfg.ContentSelector = selector
	}
	conv, err := pipeline.ConverterFromConfig(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("page options: %w", err)
	}
	return conv, nil
}

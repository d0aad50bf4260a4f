package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/pagekit/internal/outline"
	"github.com/spf13/cobra"
)

var outlineCmd = &cobra.Command{
	Use:   "outline <file>",
	Short: "Print the table of contents a page would get, as JSON",
	Long: `Prints the outline entries for a source file without writing anything.
HTML files are read as finished pages; other sources are converted first.
An empty list means the page has too few headings for a table of contents.`,
	Args: cobra.ExactArgs(1),
	RunE: runOutline,
}

func init() {
	rootCmd.AddCommand(outlineCmd)
}

func runOutline(cmd *cobra.Command, args []string) error {
	conv, err := loadConverter(newLogger())
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	var entries []outline.Entry
	switch strings.ToLower(filepath.Ext(args[0])) {
	case ".html", ".htm":
		entries, err = conv.Enhancer().Outline(bytes.NewReader(data))
	default:
		res, _, cerr := conv.Convert(filepath.Base(args[0]), data, nil)
		if cerr == nil {
			entries = res.Outline
		}
		err = cerr
	}
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []outline.Entry{}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

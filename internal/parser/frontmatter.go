package parser

import (
	"bytes"
	"fmt"

	"github.com/dgallion1/pagekit/internal/article"
	"gopkg.in/yaml.v3"
)

// frontMatter is the YAML block a Markdown source may open with.
type frontMatter struct {
	Title           string   `yaml:"title"`
	Description     string   `yaml:"description"`
	MetaDescription string   `yaml:"meta_description"`
	Slug            string   `yaml:"slug"`
	Tags            []string `yaml:"tags"`
	Date            string   `yaml:"date"`
}

// splitFrontMatter separates a leading "---" delimited block from the body.
// Sources without one are returned unchanged with a nil block.
func splitFrontMatter(src []byte) (block, body []byte) {
	rest, ok := cutLine(src, "---")
	if !ok {
		return nil, src
	}
	for off := 0; off < len(rest); {
		line := rest[off:]
		if end, ok := cutLine(line, "---"); ok {
			return rest[:off], end
		}
		nl := bytes.IndexByte(line, '\n')
		if nl < 0 {
			break
		}
		off += nl + 1
	}
	return nil, src
}

// cutLine reports whether b starts with a line equal to want and returns
// what follows it.
func cutLine(b []byte, want string) ([]byte, bool) {
	line, rest, found := bytes.Cut(b, []byte("\n"))
	if string(bytes.TrimRight(line, " \t\r")) != want {
		return nil, false
	}
	if !found {
		return nil, true
	}
	return rest, true
}

// apply decodes block and copies its fields over a.
func (fm *frontMatter) apply(block []byte, a *article.Article) error {
	if err := yaml.Unmarshal(block, fm); err != nil {
		return fmt.Errorf("front matter: %w", err)
	}
	if fm.Title != "" {
		a.Title = fm.Title
	}
	switch {
	case fm.Description != "":
		a.Description = fm.Description
	case fm.MetaDescription != "":
		a.Description = fm.MetaDescription
	}
	a.Slug = fm.Slug
	a.Tags = fm.Tags
	a.Date = fm.Date
	return nil
}

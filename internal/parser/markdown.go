package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/pagekit/internal/article"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const maxDescriptionRunes = 160

// MarkdownParser handles Markdown files using goldmark. Sources may open
// with a YAML front matter block naming the title, description, slug, tags
// and date.
type MarkdownParser struct {
	// CodeStyle is the chroma style for fenced code blocks. Empty leaves
	// code unhighlighted.
	CodeStyle string
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*article.Article, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	a := &article.Article{Title: titleFromFilename(filename)}
	block, src := splitFrontMatter(raw)
	var fm frontMatter
	if block != nil {
		if err := fm.apply(block, a); err != nil {
			return nil, err
		}
	}

	exts := []goldmark.Extender{extension.GFM}
	if p.CodeStyle != "" {
		exts = append(exts, highlighting.NewHighlighting(highlighting.WithStyle(p.CodeStyle)))
	}
	md := goldmark.New(goldmark.WithExtensions(exts...))
	doc := md.Parser().Parse(text.NewReader(src))

	// A leading level-1 heading is the title, not part of the body.
	if h, ok := doc.FirstChild().(*ast.Heading); ok && h.Level == 1 {
		if t := strings.TrimSpace(extractText(h, src)); t != "" && fm.Title == "" {
			a.Title = t
		}
		doc.RemoveChild(doc, h)
	}

	if a.Description == "" {
		for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
			if para, ok := n.(*ast.Paragraph); ok {
				a.Description = truncateRunes(extractText(para, src), maxDescriptionRunes)
				break
			}
		}
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	a.BodyHTML = buf.String()
	return a, nil
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			// Recurse for nested inlines.
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	cut := string(r[:max])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}

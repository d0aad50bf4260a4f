package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/dgallion1/pagekit/internal/article"
	"github.com/dgallion1/pagekit/internal/assets"
	"github.com/dgallion1/pagekit/internal/outline"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser handles HTML files. When ContentSelector matches, only that
// region's children become the article body; otherwise the body is used
// with page chrome removed.
type HTMLParser struct {
	ContentSelector string
}

var (
	titleSel       = cascadia.MustCompile("title")
	bodySel        = cascadia.MustCompile("body")
	descriptionSel = cascadia.MustCompile(`meta[name="description"]`)
	firstH1Sel     = cascadia.MustCompile("h1")

	// Markup this tool adds to pages. A page built earlier and used as a
	// source would otherwise get a second outline.
	generatedSel = cascadia.MustCompile("div." + outline.ContainerClass +
		", script[" + assets.MarkerAttr + "], div.reading-progress")
)

func (p *HTMLParser) Parse(r io.Reader, filename string) (*article.Article, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	a := &article.Article{Title: titleFromFilename(filename)}

	// Extract title from <title> tag if present.
	if n := cascadia.Query(doc, titleSel); n != nil {
		if t := strings.TrimSpace(textContent(n)); t != "" {
			a.Title = t
		}
	}
	if n := cascadia.Query(doc, descriptionSel); n != nil {
		a.Description = strings.TrimSpace(getAttr(n, "content"))
	}

	content := findContent(doc, p.ContentSelector)
	if content == nil {
		return a, nil
	}
	if content.DataAtom == atom.Body {
		stripChrome(content)
	}
	stripGenerated(content)
	// A leading h1 duplicates the page title.
	if h1 := cascadia.Query(content, firstH1Sel); h1 != nil && firstElement(content) == h1 {
		if t := strings.TrimSpace(textContent(h1)); t != "" {
			a.Title = t
		}
		h1.Parent.RemoveChild(h1)
	}

	var buf strings.Builder
	for c := content.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return nil, fmt.Errorf("render html: %w", err)
		}
	}
	a.BodyHTML = strings.TrimSpace(buf.String())
	return a, nil
}

func findContent(doc *html.Node, selector string) *html.Node {
	if selector != "" {
		if sel, err := cascadia.Compile(selector); err == nil {
			if n := cascadia.Query(doc, sel); n != nil {
				return n
			}
		}
	}
	return cascadia.Query(doc, bodySel)
}

// stripChrome removes non-content elements.
func stripChrome(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.ElementNode {
			switch c.DataAtom {
			case atom.Script, atom.Style, atom.Nav, atom.Footer, atom.Header:
				n.RemoveChild(c)
				continue
			}
			stripChrome(c)
		}
	}
}

func stripGenerated(n *html.Node) {
	for _, g := range cascadia.QueryAll(n, generatedSel) {
		if g.Parent != nil {
			g.Parent.RemoveChild(g)
		}
	}
}

func firstElement(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

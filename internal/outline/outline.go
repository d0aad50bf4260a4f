package outline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Level is the outline depth of a heading.
type Level int

const (
	Section    Level = iota + 1 // h2
	Subsection                  // h3
)

func (l Level) String() string {
	switch l {
	case Section:
		return "section"
	case Subsection:
		return "subsection"
	}
	return "unknown"
}

func (l Level) MarshalText() ([]byte, error) {
	if l != Section && l != Subsection {
		return nil, fmt.Errorf("invalid outline level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	switch string(b) {
	case "section":
		*l = Section
	case "subsection":
		*l = Subsection
	default:
		return fmt.Errorf("invalid outline level %q", string(b))
	}
	return nil
}

// Entry is one line of a table of contents.
type Entry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Level Level  `json:"level"`
}

// Defaults used when the corresponding Options field is zero.
const (
	DefaultSelector    = ".article-content"
	DefaultIDPrefix    = "heading-"
	DefaultTitle       = "Table of Contents"
	DefaultMinHeadings = 3
)

// Options controls where the outline is built from and how it is rendered.
type Options struct {
	Selector       string // Content region selector.
	IDPrefix       string // Prefix for generated anchor ids.
	Title          string // Label rendered above the list.
	MinHeadings    int    // Fewer qualifying headings than this produce no outline.
	ContainerStyle string // Inline style of the container element.
	LinkColor      string
}

func (o Options) withDefaults() Options {
	if o.Selector == "" {
		o.Selector = DefaultSelector
	}
	if o.IDPrefix == "" {
		o.IDPrefix = DefaultIDPrefix
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.MinHeadings <= 0 {
		o.MinHeadings = DefaultMinHeadings
	}
	return o
}

var headingSel = cascadia.MustCompile("h2, h3")

// FindRegion returns the first element matching selector below doc, or nil.
// An invalid selector is treated the same as a missing region.
func FindRegion(doc *html.Node, selector string) *html.Node {
	if doc == nil {
		return nil
	}
	if selector == "" {
		selector = DefaultSelector
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	return cascadia.Query(doc, sel)
}

// Headings returns the h2 and h3 elements inside region in document order.
func Headings(region *html.Node) []*html.Node {
	if region == nil {
		return nil
	}
	return cascadia.QueryAll(region, headingSel)
}

// Build derives the outline entries for region without modifying it.
// It returns nil when region is nil or holds fewer than opts.MinHeadings
// qualifying headings.
func Build(region *html.Node, opts Options) []Entry {
	opts = opts.withDefaults()
	headings := Headings(region)
	if len(headings) < opts.MinHeadings {
		return nil
	}
	entries := make([]Entry, len(headings))
	for i, h := range headings {
		entries[i] = Entry{
			ID:    opts.IDPrefix + strconv.Itoa(i),
			Label: TextContent(h),
			Level: levelOf(h),
		}
	}
	return entries
}

func levelOf(n *html.Node) Level {
	if n.DataAtom == atom.H3 {
		return Subsection
	}
	return Section
}

// TextContent concatenates every text node below n, untrimmed.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

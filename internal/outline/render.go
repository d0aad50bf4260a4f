package outline

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ContainerClass is the class of the element Render produces.
const ContainerClass = "toc-container"

const subsectionIndent = "16px"

// Result describes what Insert did to the document.
type Result struct {
	Entries []Entry
	// Collisions lists generated ids that were already used by some other
	// element of the document.
	Collisions []string
}

// Inserted reports whether an outline was added.
func (r Result) Inserted() bool {
	return len(r.Entries) > 0
}

// Render builds a detached table of contents element for entries.
func Render(entries []Entry, opts Options) *html.Node {
	opts = opts.withDefaults()

	container := element(atom.Div, attr("class", ContainerClass))
	if opts.ContainerStyle != "" {
		container.Attr = append(container.Attr, attr("style", opts.ContainerStyle))
	}

	title := element(atom.H4)
	title.AppendChild(text(opts.Title))
	container.AppendChild(title)

	list := element(atom.Ul)
	for _, e := range entries {
		indent := "0"
		if e.Level == Subsection {
			indent = subsectionIndent
		}
		li := element(atom.Li, attr("style", "margin-left: "+indent))
		a := element(atom.A, attr("href", "#"+e.ID))
		if opts.LinkColor != "" {
			a.Attr = append(a.Attr, attr("style", "color: "+opts.LinkColor))
		}
		a.AppendChild(text(e.Label))
		li.AppendChild(a)
		list.AppendChild(li)
	}
	container.AppendChild(list)
	return container
}

// Insert builds the outline for region, gives each qualifying heading its
// anchor id and inserts the rendered outline as the first child of region.
//
// Insert is not idempotent: calling it again on the same region adds a
// second outline and renumbers the headings from zero.
func Insert(region *html.Node, opts Options) Result {
	opts = opts.withDefaults()
	entries := Build(region, opts)
	if len(entries) == 0 {
		return Result{}
	}

	headings := Headings(region)
	for i, h := range headings {
		setAttr(h, "id", entries[i].ID)
	}

	region.InsertBefore(Render(entries, opts), region.FirstChild)

	return Result{
		Entries:    entries,
		Collisions: collisions(root(region), headings, entries),
	}
}

func collisions(doc *html.Node, headings []*html.Node, entries []Entry) []string {
	own := make(map[*html.Node]bool, len(headings))
	for _, h := range headings {
		own[h] = true
	}
	generated := make(map[string]bool, len(entries))
	for _, e := range entries {
		generated[e.ID] = true
	}

	var out []string
	seen := map[string]bool{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && !own[n] {
			if id := getAttr(n, "id"); generated[id] && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func root(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, attr(key, val))
}

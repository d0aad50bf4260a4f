package article

import (
	"html"
	"strings"
)

// Article is a piece of long-form content ready to be placed in a page.
type Article struct {
	Title       string // Page title (from metadata, first h1 or filename)
	Description string // Meta description, may be empty
	Slug        string // URL slug; derived from Title when empty
	BodyHTML    string // Article body markup, without the title heading
	Tags        []string
	Date        string // Publication date as written in the source
}

// Builder accumulates escaped article markup.
type Builder struct {
	sb strings.Builder
}

// Heading writes an h1..h6 element; out-of-range levels are clamped.
func (b *Builder) Heading(level int, text string) {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	tag := "h" + string(rune('0'+level))
	b.sb.WriteString("<" + tag + ">" + html.EscapeString(text) + "</" + tag + ">\n")
}

// Paragraph writes a p element. Single newlines become line breaks.
func (b *Builder) Paragraph(text string) {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	b.sb.WriteString("<p>" + strings.Join(lines, "<br>") + "</p>\n")
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int {
	return b.sb.Len()
}

func (b *Builder) String() string {
	return b.sb.String()
}

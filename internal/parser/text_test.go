package parser

import (
	"strings"
	"testing"
)

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	a, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", a.Title)
	}
	want := "<p>First paragraph line one.<br>First paragraph line two.</p>\n" +
		"<p>Second paragraph.</p>\n" +
		"<p>Third paragraph.</p>\n"
	if a.BodyHTML != want {
		t.Errorf("expected body %q, got %q", want, a.BodyHTML)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	a, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", a.Title)
	}
	if a.BodyHTML != "" {
		t.Errorf("expected empty body, got %q", a.BodyHTML)
	}
}

func TestTextParser_EscapesMarkup(t *testing.T) {
	p := &TextParser{}
	a, err := p.Parse(strings.NewReader("a <b> & c"), "x.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.BodyHTML != "<p>a &lt;b&gt; &amp; c</p>\n" {
		t.Errorf("unexpected body %q", a.BodyHTML)
	}
}

func TestTextParser_MultipleBlankLines(t *testing.T) {
	// Multiple consecutive blank lines should not produce empty paragraphs.
	input := "Para one.\n\n\n\nPara two."
	p := &TextParser{}
	a, err := p.Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := strings.Count(a.BodyHTML, "<p>"); n != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", n)
	}
}

func TestTextParser_WhitespaceOnlyLines(t *testing.T) {
	// Lines with only whitespace should be treated as blank.
	input := "Para one.\n   \nPara two."
	p := &TextParser{}
	a, err := p.Parse(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := strings.Count(a.BodyHTML, "<p>"); n != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", n)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		wantErr  bool
	}{
		{"post.md", false},
		{"POST.MARKDOWN", false},
		{"page.htm", false},
		{"report.pdf", false},
		{"draft.docx", false},
		{"notes.txt", false},
		{"data.csv", true},
		{"noext", true},
	}
	for _, tt := range tests {
		_, err := ForFile(tt.filename, Options{})
		if (err != nil) != tt.wantErr {
			t.Errorf("ForFile(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
		}
		if IsSupportedExtension(tt.filename) == tt.wantErr {
			t.Errorf("IsSupportedExtension(%q) disagrees with ForFile", tt.filename)
		}
	}
}

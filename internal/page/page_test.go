package page

import (
	"strings"
	"testing"

	"github.com/dgallion1/pagekit/internal/article"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Best AI Writing Tools in 2026!", "best-ai-writing-tools-in-2026"},
		{"  Jasper  vs.  Writesonic  ", "jasper-vs-writesonic"},
		{"Surfer SEO -- Review", "surfer-seo-review"},
		{"Café & Co", "caf-co"},
		{strings.Repeat("word ", 20), strings.Repeat("word-", 12)},
	}
	for _, tt := range tests {
		if got := Slug(tt.title); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestReadMinutes(t *testing.T) {
	if got := ReadMinutes(""); got != 1 {
		t.Errorf("expected minimum of 1, got %d", got)
	}
	body := "<p>" + strings.Repeat("word ", 401) + "</p>"
	if got := ReadMinutes(body); got != 3 {
		t.Errorf("expected 3 minutes, got %d", got)
	}
}

func TestRender(t *testing.T) {
	a := &article.Article{
		Title:       "Jasper vs Writesonic",
		Description: "Which one <wins>?",
		BodyHTML:    "<h2>Intro</h2><p>Hello</p>",
	}
	out, err := Render(a, SiteInfo{Title: "AI Tools Hub", Host: "aitoolshub.github.io"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(out)
	for _, want := range []string{
		"<title>Jasper vs Writesonic | AI Tools Hub</title>",
		`<meta name="description" content="Which one &lt;wins&gt;?">`,
		`<link rel="canonical" href="https://aitoolshub.github.io/posts/jasper-vs-writesonic.html">`,
		"<div class=\"article-content\">\n<h2>Intro</h2><p>Hello</p>\n</div>",
		"<h1>Jasper vs Writesonic</h1>",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in page:\n%s", want, s)
		}
	}
	if a.Slug != "jasper-vs-writesonic" {
		t.Errorf("expected slug to be filled in, got %q", a.Slug)
	}
}

func TestRender_NoHost(t *testing.T) {
	out, err := Render(&article.Article{Title: "T"}, SiteInfo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(out), "canonical") {
		t.Error("expected no canonical link without a host")
	}
}

func TestRender_SiteDescriptionFallback(t *testing.T) {
	site := SiteInfo{Title: "Hub", Description: "Reviews of AI tools"}

	out, err := Render(&article.Article{Title: "T"}, site)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(out), `<meta name="description" content="Reviews of AI tools">`) {
		t.Errorf("expected site description fallback:\n%s", out)
	}

	out, err = Render(&article.Article{Title: "T", Description: "Own summary"}, site)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(out), "Reviews of AI tools") {
		t.Errorf("article description must win:\n%s", out)
	}
}

func TestRender_TagsAndDate(t *testing.T) {
	a := &article.Article{Title: "T", Tags: []string{"ai", "writing tools"}, Date: "2024-05-01"}
	out, err := Render(a, SiteInfo{Title: "Hub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		`<meta name="keywords" content="ai, writing tools">`,
		`<meta property="article:published_time" content="2024-05-01">`,
		`<time datetime="2024-05-01">2024-05-01</time> <span class="read-time">`,
	} {
		if !strings.Contains(string(out), want) {
			t.Errorf("expected %q in page:\n%s", want, out)
		}
	}

	out, _ = Render(&article.Article{Title: "T"}, SiteInfo{})
	if strings.Contains(string(out), "keywords") || strings.Contains(string(out), "<time") {
		t.Errorf("unexpected tag or date markup:\n%s", out)
	}
}

func TestRender_NormalizesGivenSlug(t *testing.T) {
	a := &article.Article{Title: "Title", Slug: "../../Etc Passwd"}
	if _, err := Render(a, SiteInfo{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Slug != "etc-passwd" {
		t.Errorf("slug = %q, want etc-passwd", a.Slug)
	}
}

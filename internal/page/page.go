package page

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/dgallion1/pagekit/internal/article"
	"golang.org/x/net/html"
)

// SiteInfo describes the site a page belongs to.
type SiteInfo struct {
	Title       string
	Host        string // Used for canonical URLs; may be empty.
	Description string // Meta description for articles without one.
}

const wordsPerMinute = 200

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Article.Title}}{{if .Site.Title}} | {{.Site.Title}}{{end}}</title>
{{- if .Description}}
<meta name="description" content="{{.Description}}">
<meta property="og:description" content="{{.Description}}">
{{- end}}
{{- if .Keywords}}
<meta name="keywords" content="{{.Keywords}}">
{{- end}}
<meta property="og:title" content="{{.Article.Title}}">
<meta property="og:type" content="article">
{{- if .Article.Date}}
<meta property="article:published_time" content="{{.Article.Date}}">
{{- end}}
{{- if .Canonical}}
<link rel="canonical" href="{{.Canonical}}">
{{- end}}
</head>
<body>
<header><nav><a href="/" class="logo">{{.Site.Title}}</a></nav></header>
<main class="article-container">
<article>
<header class="article-header">
<div class="article-meta">
{{- if .Article.Date}}<time datetime="{{.Article.Date}}">{{.Article.Date}}</time> {{end -}}
<span class="read-time">{{.ReadMinutes}} min read</span></div>
<h1>{{.Article.Title}}</h1>
{{- if .Article.Description}}
<p class="article-description">{{.Article.Description}}</p>
{{- end}}
</header>
<div class="article-content">
{{.Body}}
</div>
</article>
</main>
<footer class="site-footer"><p>&copy; {{.Site.Title}}</p></footer>
</body>
</html>
`))

type pageData struct {
	Article     *article.Article
	Site        SiteInfo
	Description string
	Keywords    string
	Body        template.HTML
	Canonical   string
	ReadMinutes int
}

// Render wraps an article body in a full page whose body markup sits inside
// the content region.
func Render(a *article.Article, site SiteInfo) ([]byte, error) {
	// Slugs from source metadata are normalized too; they become file names.
	if a.Slug != "" {
		a.Slug = Slug(a.Slug)
	}
	if a.Slug == "" {
		a.Slug = Slug(a.Title)
	}
	data := pageData{
		Article:     a,
		Site:        site,
		Description: a.Description,
		Keywords:    strings.Join(a.Tags, ", "),
		Body:        template.HTML(a.BodyHTML),
		ReadMinutes: ReadMinutes(a.BodyHTML),
	}
	if data.Description == "" {
		data.Description = site.Description
	}
	if site.Host != "" && a.Slug != "" {
		data.Canonical = fmt.Sprintf("https://%s/posts/%s.html", site.Host, a.Slug)
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
	dashes       = regexp.MustCompile(`-+`)
)

const maxSlugLen = 60

// Slug turns a title into a URL path segment.
func Slug(title string) string {
	s := strings.ToLower(title)
	s = nonSlugChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(strings.TrimSpace(s), "-")
	s = dashes.ReplaceAllString(s, "-")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	return s
}

// ReadMinutes estimates reading time of body markup, at least one minute.
func ReadMinutes(bodyHTML string) int {
	words := 0
	z := html.NewTokenizer(strings.NewReader(bodyHTML))
	for {
		switch z.Next() {
		case html.ErrorToken:
			m := (words + wordsPerMinute - 1) / wordsPerMinute
			if m < 1 {
				m = 1
			}
			return m
		case html.TextToken:
			words += len(strings.Fields(string(z.Text())))
		}
	}
}

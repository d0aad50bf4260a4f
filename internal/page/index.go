package page

import (
	"bytes"
	"fmt"
	"html/template"
)

// Post is one entry of the site index.
type Post struct {
	Title       string
	Description string
	Date        string
	Tags        []string
	Href        string // Relative to the index page.
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Site.Title}}</title>
{{- if .Site.Description}}
<meta name="description" content="{{.Site.Description}}">
{{- end}}
{{- if .Canonical}}
<link rel="canonical" href="{{.Canonical}}">
{{- end}}
</head>
<body>
<header><nav><a href="/" class="logo">{{.Site.Title}}</a></nav></header>
<div class="post-list">
<h1>{{.Site.Title}}</h1>
{{- if .Site.Description}}
<p class="site-description">{{.Site.Description}}</p>
{{- end}}
{{- range .Posts}}
<article class="post-card">
<h2><a href="{{.Href}}">{{.Title}}</a></h2>
{{- if .Description}}
<p>{{.Description}}</p>
{{- end}}
<div class="post-meta">
{{- if .Date}}<time datetime="{{.Date}}">{{.Date}}</time>{{end}}
{{- range .Tags}} <span class="tag">{{.}}</span>{{end -}}
</div>
</article>
{{- else}}
<p>No posts yet.</p>
{{- end}}
</div>
<footer class="site-footer"><p>&copy; {{.Site.Title}}</p></footer>
</body>
</html>
`))

// RenderIndex lists posts, in the order given, on the site's home page.
func RenderIndex(site SiteInfo, posts []Post) ([]byte, error) {
	data := struct {
		Site      SiteInfo
		Posts     []Post
		Canonical string
	}{Site: site, Posts: posts}
	if site.Host != "" {
		data.Canonical = fmt.Sprintf("https://%s/", site.Host)
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	return buf.Bytes(), nil
}

package site

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/dgallion1/pagekit/internal/page"
)

const (
	IndexName   = "index.html"
	SitemapName = "sitemap.xml"
)

// Index reports what WriteIndex wrote.
type Index struct {
	Index   string // Empty when a built page already owns index.html.
	Posts   int
	Sitemap string // Empty when the site has no host.
}

// WriteIndex writes the home page listing every titled page built so far
// and, when the site has a host, a sitemap of every built page. It can be
// called again after later builds.
func (b *Builder) WriteIndex() (Index, error) {
	var idx Index
	pages := b.Pages()
	info := b.conv.Site()

	if b.claimIndex() {
		posts := Posts(pages)
		doc, err := page.RenderIndex(info, posts)
		if err != nil {
			return idx, err
		}
		res, err := b.conv.Enhancer().Process(bytes.NewReader(doc))
		if err != nil {
			return idx, fmt.Errorf("enhance index: %w", err)
		}
		if err := b.writeOut(IndexName, res.HTML); err != nil {
			return idx, err
		}
		idx.Index, idx.Posts = IndexName, len(posts)
	} else {
		b.log.Warn("a built page is named index.html, site index not written")
	}

	if info.Host == "" {
		return idx, nil
	}
	data, err := Sitemap(info.Host, pages)
	if err != nil {
		return idx, err
	}
	if err := b.writeOut(SitemapName, data); err != nil {
		return idx, err
	}
	idx.Sitemap = SitemapName
	b.log.Debug("site index written", "posts", idx.Posts, "sitemap", idx.Sitemap != "")
	return idx, nil
}

// claimIndex reserves index.html for the site index unless a source got it
// first.
func (b *Builder) claimIndex() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ownsIndex {
		return true
	}
	if b.claimed[IndexName] {
		return false
	}
	b.claimed[IndexName] = true
	b.ownsIndex = true
	return true
}

// Posts lists the titled pages newest first. Pages without a readable date
// follow the dated ones; ties go by title.
func Posts(pages []Page) []page.Post {
	type dated struct {
		post page.Post
		at   time.Time
		ok   bool
	}
	var all []dated
	for _, p := range pages {
		if p.Err != nil || p.Title == "" || p.Output == IndexName {
			continue
		}
		at, ok := ParseDate(p.Date)
		all = append(all, dated{
			post: page.Post{Title: p.Title, Description: p.Description, Date: p.Date, Tags: p.Tags, Href: p.Output},
			at:   at,
			ok:   ok,
		})
	}
	slices.SortStableFunc(all, func(x, y dated) int {
		switch {
		case x.ok && y.ok:
			if c := y.at.Compare(x.at); c != 0 {
				return c
			}
		case x.ok != y.ok:
			if x.ok {
				return -1
			}
			return 1
		}
		return cmp.Or(strings.Compare(x.post.Title, y.post.Title), strings.Compare(x.post.Href, y.post.Href))
	})

	posts := make([]page.Post, len(all))
	for i, d := range all {
		posts[i] = d.post
	}
	return posts
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.DateTime,
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseDate reads a publication date as authors usually write it.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Sitemap lists the home page and every built page under host. Pages carry
// their date as lastmod when it can be read; the home page takes the newest.
func Sitemap(host string, pages []Page) ([]byte, error) {
	base, err := siteURL(host)
	if err != nil {
		return nil, err
	}

	home := sitemapURL{Loc: base.String(), ChangeFreq: "daily", Priority: "1.0"}
	set := urlSet{XMLNS: sitemapNS, URLs: []sitemapURL{home}}
	var newest time.Time
	for _, p := range pages {
		if p.Err != nil || p.Output == "" || p.Output == IndexName {
			continue
		}
		u := sitemapURL{Loc: base.JoinPath(p.Output).String(), ChangeFreq: "monthly", Priority: "0.8"}
		if at, ok := ParseDate(p.Date); ok {
			u.LastMod = at.Format(time.DateOnly)
			if at.After(newest) {
				newest = at
			}
		}
		set.URLs = append(set.URLs, u)
	}
	if !newest.IsZero() {
		set.URLs[0].LastMod = newest.Format(time.DateOnly)
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// siteURL turns a configured host, with or without scheme and path, into
// the site's root URL.
func siteURL(host string) (*url.URL, error) {
	host = strings.TrimSpace(host)
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	u, err := url.Parse(host)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("site host %q is not a host name", host)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery, u.Fragment = "", ""
	return u, nil
}

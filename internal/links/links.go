package links

import (
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Values applied to links that leave the site.
const (
	ExternalRel    = "nofollow noopener"
	ExternalTarget = "_blank"
)

var (
	absoluteSel = cascadia.MustCompile(`a[href^="http"]`)
	inPageSel   = cascadia.MustCompile(`a[href^="#"]`)
)

// Annotate marks every absolute link that points outside siteHost with
// rel="nofollow noopener" and target="_blank". Subdomains of siteHost count
// as internal. With an empty siteHost every absolute link is external.
// It returns the number of links marked.
func Annotate(doc *html.Node, siteHost string) int {
	if doc == nil {
		return 0
	}
	site := normalizeHost(siteHost)
	marked := 0
	for _, a := range cascadia.QueryAll(doc, absoluteSel) {
		if !IsExternal(getAttr(a, "href"), site) {
			continue
		}
		setAttr(a, "rel", ExternalRel)
		setAttr(a, "target", ExternalTarget)
		marked++
	}
	return marked
}

// IsExternal reports whether href leaves siteHost.
func IsExternal(href, siteHost string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || u.Host == "" {
		// Unparseable absolute hrefs are treated as foreign.
		return err != nil
	}
	site := normalizeHost(siteHost)
	if site == "" {
		return true
	}
	host := normalizeHost(u.Hostname())
	return host != site && !strings.HasSuffix(host, "."+site)
}

// InPageAnchors counts links that target an element of the same page.
func InPageAnchors(doc *html.Node) int {
	if doc == nil {
		return 0
	}
	return len(cascadia.QueryAll(doc, inPageSel))
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if strings.Contains(h, "://") {
		if u, err := url.Parse(h); err == nil {
			h = u.Hostname()
		}
	}
	return strings.TrimPrefix(h, "www.")
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
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

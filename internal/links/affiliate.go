package links

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultAffiliateLimit is how many mentions of one keyword get linked.
const DefaultAffiliateLimit = 2

// Affiliate links mentions of Keyword to URL.
type Affiliate struct {
	Keyword string
	URL     string
}

// ParseAffiliate reads a "Keyword=URL" pair.
func ParseAffiliate(pair string) (Affiliate, error) {
	kw, u, ok := strings.Cut(pair, "=")
	kw, u = strings.TrimSpace(kw), strings.TrimSpace(u)
	if !ok || kw == "" || !strings.HasPrefix(u, "http") {
		return Affiliate{}, &AffiliateError{Pair: pair}
	}
	return Affiliate{Keyword: kw, URL: u}, nil
}

// AffiliateError reports a malformed keyword pair.
type AffiliateError struct {
	Pair string
}

func (e *AffiliateError) Error() string {
	return fmt.Sprintf("invalid affiliate link %q, want Keyword=https://...", e.Pair)
}

// Text under these elements is never rewritten.
var affiliateSkip = map[atom.Atom]bool{
	atom.A: true, atom.Script: true, atom.Style: true, atom.Code: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// InsertAffiliates turns the first limit whole-word mentions of each keyword
// in region's text into links, keywords taken in order. Matching is case
// sensitive. It returns the number of links added.
func InsertAffiliates(region *html.Node, affs []Affiliate, limit int) int {
	if region == nil || limit <= 0 {
		return 0
	}
	added := 0
	for _, af := range affs {
		re := keywordPattern(af.Keyword)
		if re == nil || af.URL == "" {
			continue
		}
		n := 0
		for _, t := range textNodes(region) {
			for n < limit {
				loc := re.FindStringIndex(t.Data)
				if loc == nil {
					break
				}
				t = linkMatch(t, loc, af.URL)
				n++
			}
			if n >= limit {
				break
			}
		}
		added += n
	}
	return added
}

func keywordPattern(kw string) *regexp.Regexp {
	kw = strings.TrimSpace(kw)
	if kw == "" {
		return nil
	}
	expr := regexp.QuoteMeta(kw)
	if isWordByte(kw[0]) {
		expr = `\b` + expr
	}
	if isWordByte(kw[len(kw)-1]) {
		expr += `\b`
	}
	return regexp.MustCompile(expr)
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func textNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				out = append(out, c)
			case c.Type == html.ElementNode && !affiliateSkip[c.DataAtom]:
				walk(c)
			}
		}
	}
	walk(n)
	return out
}

// linkMatch wraps t.Data[loc[0]:loc[1]] in a link and returns the text node
// holding what followed the match.
func linkMatch(t *html.Node, loc []int, href string) *html.Node {
	parent := t.Parent
	text := t.Data

	a := &html.Node{Type: html.ElementNode, DataAtom: atom.A, Data: "a",
		Attr: []html.Attribute{{Key: "href", Val: href}}}
	a.AppendChild(&html.Node{Type: html.TextNode, Data: text[loc[0]:loc[1]]})
	after := &html.Node{Type: html.TextNode, Data: text[loc[1]:]}

	parent.InsertBefore(a, t.NextSibling)
	parent.InsertBefore(after, a.NextSibling)
	if t.Data = text[:loc[0]]; t.Data == "" {
		parent.RemoveChild(t)
	}
	return after
}

package assets

import (
	_ "embed"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

//go:embed enhance.js
var script string

// Script returns the client script that provides smooth scrolling, the
// reading progress bar and the analytics bootstrap.
func Script() string {
	return script
}

// MarkerAttr identifies the injected script element.
const MarkerAttr = "data-pagekit"

// Options selects which client behaviors the injected script turns on.
type Options struct {
	SmoothScroll  bool
	ProgressBar   bool
	ProgressStyle string // Inline style of the progress bar.
	Analytics     bool
	AnalyticsID   string // Measurement id; empty bootstraps dataLayer only.
}

// Enabled reports whether any behavior is on.
func (o Options) Enabled() bool {
	return o.SmoothScroll || o.ProgressBar || o.Analytics
}

var bodySel = cascadia.MustCompile("body")

// Inject appends the client script to the document body. It does nothing
// and returns false when no behavior is enabled or the document has no body.
func Inject(doc *html.Node, opts Options) bool {
	if doc == nil || !opts.Enabled() {
		return false
	}
	body := cascadia.Query(doc, bodySel)
	if body == nil {
		return false
	}

	el := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Script,
		Data:     "script",
		Attr: []html.Attribute{
			{Key: MarkerAttr, Val: ""},
			{Key: "data-smooth-scroll", Val: onOff(opts.SmoothScroll)},
			{Key: "data-progress", Val: onOff(opts.ProgressBar)},
			{Key: "data-analytics", Val: onOff(opts.Analytics)},
		},
	}
	if opts.ProgressBar && opts.ProgressStyle != "" {
		el.Attr = append(el.Attr, html.Attribute{Key: "data-progress-style", Val: opts.ProgressStyle})
	}
	if opts.Analytics && opts.AnalyticsID != "" {
		el.Attr = append(el.Attr, html.Attribute{Key: "data-analytics-id", Val: opts.AnalyticsID})
	}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: script})
	body.AppendChild(el)
	return true
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

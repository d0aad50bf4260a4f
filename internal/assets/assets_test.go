package assets

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func renderDoc(t *testing.T, doc *html.Node) string {
	t.Helper()
	var buf strings.Builder
	if err := html.Render(&buf, doc); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestScriptEmbedded(t *testing.T) {
	s := Script()
	for _, want := range []string{"scrollIntoView", "dataLayer", "scrollHeight"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected script to contain %q", want)
		}
	}
}

func TestInject(t *testing.T) {
	doc, _ := html.Parse(strings.NewReader(`<html><body><p>hi</p></body></html>`))
	ok := Inject(doc, Options{
		SmoothScroll:  true,
		ProgressBar:   true,
		ProgressStyle: "height: 3px",
		Analytics:     true,
		AnalyticsID:   "G-TEST",
	})
	if !ok {
		t.Fatal("expected script to be injected")
	}
	out := renderDoc(t, doc)
	for _, want := range []string{
		`data-smooth-scroll="on"`,
		`data-progress="on"`,
		`data-progress-style="height: 3px"`,
		`data-analytics-id="G-TEST"`,
		"scrollIntoView",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output", want)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "</script></body></html>") {
		t.Errorf("expected script at end of body")
	}
}

func TestInject_AnalyticsWithoutID(t *testing.T) {
	doc, _ := html.Parse(strings.NewReader(`<p>x</p>`))
	Inject(doc, Options{Analytics: true})
	out := renderDoc(t, doc)
	if strings.Contains(out, "data-analytics-id") {
		t.Error("expected no analytics id attribute")
	}
	if !strings.Contains(out, `data-analytics="on"`) {
		t.Error("expected analytics bootstrap to be on")
	}
}

func TestInject_Disabled(t *testing.T) {
	doc, _ := html.Parse(strings.NewReader(`<p>x</p>`))
	if Inject(doc, Options{}) {
		t.Error("expected no injection with every behavior off")
	}
	if strings.Contains(renderDoc(t, doc), "<script") {
		t.Error("unexpected script element")
	}
}

func TestInject_NoBody(t *testing.T) {
	if Inject(&html.Node{Type: html.DocumentNode}, Options{ProgressBar: true}) {
		t.Error("expected no injection without a body")
	}
}

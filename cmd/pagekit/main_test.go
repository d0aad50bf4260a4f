package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/pagekit/internal/outline"
	"github.com/dgallion1/pagekit/internal/site"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CI", "true")
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestOutlineCommand(t *testing.T) {
	src := filepath.Join(t.TempDir(), "page.html")
	os.WriteFile(src, []byte(`<div class="article-content"><h2>Intro</h2><h3>Background</h3><h2>Method</h2></div>`), 0o644)

	out, err := run(t, "outline", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var entries []outline.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(entries) != 3 || entries[1].Level != outline.Subsection {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestOutlineCommand_TooFewHeadings(t *testing.T) {
	src := filepath.Join(t.TempDir(), "short.md")
	os.WriteFile(src, []byte("# Short\n\n## Intro\n\n## Conclusion\n"), 0o644)

	out, err := run(t, "outline", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("expected empty list, got %q", out)
	}
}

func TestEnhanceCommand(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "posts"), 0o755)
	os.WriteFile(filepath.Join(dir, "posts", "guide.md"), []byte("# Guide\n\n## A\n\n## B\n\n## C\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "posts", "skip.md"), []byte("# Skip\n\nText.\n"), 0o644)
	outDir := filepath.Join(t.TempDir(), "site")
	t.Setenv("SITE_HOST", "example.com")

	out, err := run(t, "enhance", dir, "--out", outDir, "--exclude", "skip.md", "--index=true")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 pages written") {
		t.Errorf("unexpected summary %q", out)
	}
	page, err := os.ReadFile(filepath.Join(outDir, "posts", "guide.html"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(page), "toc-container") {
		t.Errorf("expected table of contents:\n%s", page)
	}
	if _, err := os.Stat(filepath.Join(outDir, "posts", "skip.html")); err == nil {
		t.Error("excluded source was built")
	}

	if !strings.Contains(out, "index.html lists 1 pages") || !strings.Contains(out, "sitemap.xml written") {
		t.Errorf("expected index and sitemap reported, got %q", out)
	}
	home, err := os.ReadFile(filepath.Join(outDir, "index.html"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if !strings.Contains(string(home), `<a href="posts/guide.html">Guide</a>`) {
		t.Errorf("expected guide listed:\n%s", home)
	}
	sitemap, _ := os.ReadFile(filepath.Join(outDir, "sitemap.xml"))
	if !strings.Contains(string(sitemap), "<loc>https://example.com/posts/guide.html</loc>") {
		t.Errorf("expected guide in sitemap:\n%s", sitemap)
	}
}

func TestSummarize(t *testing.T) {
	var buf bytes.Buffer
	err := summarize(&buf, []site.Page{
		{Source: site.Source{Rel: "a.md"}, Output: "a.html", Outline: 4},
		{Source: site.Source{Rel: "b.pdf"}, Err: errors.New("parse: bad pdf")},
	}, "_site")
	if err == nil {
		t.Error("expected error when a page failed")
	}
	want := "FAIL b.pdf: parse: bad pdf\n1 pages written to _site (1 with a table of contents)\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

package preview

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"mdsync/config"
	"mdsync/dom"
)

const testTemplate = `<html><head><meta name="generator" content="{{ .Generator }} {{ date "2006-01-02" .Generated }}"><title>{{ .Title | html }}</title><style>{{ .CSS }}</style>{{ if .Highlight }}<style id="hl">{{ .Highlight }}</style>{{ end }}</head><body>{{ .Body }}</body></html>`

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(&config.PreviewConfig{Title: "A & B", PageTemplate: testTemplate})
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	r.now = func() time.Time { return time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC) }
	return r
}

func TestRenderer(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Render(Page{Generator: "gen", CSS: "p{}", Body: "<p>x</p>"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := `<html><head><meta name="generator" content="gen 2024-05-06"><title>A &amp; B</title><style>p{}</style></head><body><p>x</p></body></html>`
	if string(out) != want {
		t.Errorf("Render() =\n%s\nwant\n%s", out, want)
	}
}

func TestRenderer_TemplateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.tmpl")
	if err := os.WriteFile(path, []byte("{{ .Body | upper }}"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := NewRenderer(&config.PreviewConfig{TemplatePath: path, PageTemplate: "ignored"})
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	out, err := r.Render(Page{Body: "abc"})
	if err != nil || string(out) != "ABC" {
		t.Errorf("Render() = %q, %v", out, err)
	}

	if _, err := NewRenderer(&config.PreviewConfig{PageTemplate: "{{ .Body "}); err == nil {
		t.Error("NewRenderer() with broken template expected error")
	}
}

func TestHeadless_Select(t *testing.T) {
	h := NewHeadless(zaptest.NewLogger(t))
	h.Render(`<section id="s"><h2 class="title">T</h2></section>`, "h2 {}")

	if _, err := h.Select("section > h2", nil, ""); err == nil {
		t.Error("Select() outside of selection mode expected error")
	}
	h.SetSelectionModeEnabled(true)

	sel, err := h.Select("section h2", map[string]string{"color": "#000"}, "")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if sel.Selector() != "section#s > h2.title" || sel.Computed["color"] != "#000" {
		t.Errorf("Select() = %+v", sel)
	}
	if _, err := h.Select("article", nil, ""); !errors.Is(err, dom.ErrSelectorNotFound) {
		t.Errorf("Select(missing) error = %v", err)
	}
}

func TestFile_Render(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.html")
	f := NewFile(path, newRenderer(t), ".chroma{}", zaptest.NewLogger(t))
	f.Render("<p>one</p>", "p { color: red; }")
	f.Render("<p>two</p>", "p { color: blue; }")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	page := string(data)
	for _, want := range []string{"<p>two</p>", "color: blue", `<style id="hl">.chroma{}</style>`} {
		if !strings.Contains(page, want) {
			t.Errorf("page does not contain %q:\n%s", want, page)
		}
	}
	if f.Renders() != 2 {
		t.Errorf("Renders() = %d", f.Renders())
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left: %d entries", len(entries))
	}
}

// Package preview renders documents into standalone pages and implements
// preview collaborators which do not need a browser.
package preview

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"

	"mdsync/config"
	"mdsync/misc"
)

// Page holds values available to page template.
type Page struct {
	Generator string
	Generated time.Time
	Title     string
	CSS       string
	Overlay   string
	Highlight string
	Body      string
}

// Renderer expands page template.
type Renderer struct {
	title string
	tmpl  *template.Template
	now   func() time.Time
}

// NewRenderer prepares page template from configuration. Template file,
// when configured, takes precedence over inline template.
func NewRenderer(cfg *config.PreviewConfig) (*Renderer, error) {
	text := cfg.PageTemplate
	if cfg.TemplatePath != "" {
		data, err := os.ReadFile(cfg.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("unable to read page template: %w", err)
		}
		text = string(data)
	}
	tmpl, err := template.New(string(config.PageTemplateFieldName)).Funcs(sprig.FuncMap()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("unable to parse template field %s: %w", config.PageTemplateFieldName, err)
	}
	return &Renderer{title: cfg.Title, tmpl: tmpl, now: time.Now}, nil
}

// Render expands template for body and stylesheet. Empty title is replaced
// with configured one.
func (r *Renderer) Render(p Page) ([]byte, error) {
	if p.Title == "" {
		p.Title = r.title
	}
	if p.Generator == "" {
		p.Generator = misc.GetAppName() + " " + misc.GetVersion()
	}
	if p.Generated.IsZero() {
		p.Generated = r.now()
	}
	buf := new(bytes.Buffer)
	if err := r.tmpl.Execute(buf, p); err != nil {
		return nil, fmt.Errorf("unable to expand page template: %w", err)
	}
	return buf.Bytes(), nil
}

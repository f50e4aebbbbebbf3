// Package convert translates documents between Markdown and HTML keeping
// element identity ({#id .class} annotations) and fenced blocks intact.
package convert

import (
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"mdsync/config"
)

const (
	toHTML     = "html"
	toMarkdown = "md"
)

// Converter is safe for concurrent use.
type Converter struct {
	log     *zap.Logger
	md      goldmark.Markdown
	diagram string
	autoIDs bool
	hl      *highlighter
	memo    *memo
}

// New creates converter configured by the document section of
// configuration.
func New(cfg *config.DocumentConfig, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Converter{
		log:     log.Named("converter"),
		md:      newMarkdown(),
		diagram: cfg.DiagramLanguage,
		autoIDs: cfg.AutoHeadingIDs,
	}
	if cfg.Highlight.Enable {
		c.hl = newHighlighter(cfg.Highlight.Style, c.log)
	}
	if cfg.Cache.Enable {
		c.memo = newMemo(cfg.Cache.Expiration, cfg.Cache.Cleanup)
	}
	return c
}

// DiagramLanguage returns fence language treated as diagram.
func (c *Converter) DiagramLanguage() string {
	return c.diagram
}

// HighlightCSS returns stylesheet for highlighted code blocks, empty when
// highlighting is off.
func (c *Converter) HighlightCSS() (string, error) {
	return c.hl.CSS()
}

// MarkdownToHTML converts Markdown to HTML fragment. On failure original
// text is returned together with error wrapping ErrConversionDegraded.
func (c *Converter) MarkdownToHTML(md string) (out string, err error) {
	if v, ok := c.memo.get(toHTML, md); ok {
		return v, nil
	}
	defer c.guard(md, &out, &err)

	if out, err = c.markdownToHTML(md); err != nil {
		return md, degraded(err)
	}
	c.memo.set(toHTML, md, out)
	return out, nil
}

// HTMLToMarkdown converts HTML (fragment or full document) to Markdown. On
// failure original text is returned together with error wrapping
// ErrConversionDegraded.
func (c *Converter) HTMLToMarkdown(html string) (out string, err error) {
	if v, ok := c.memo.get(toMarkdown, html); ok {
		return v, nil
	}
	defer c.guard(html, &out, &err)

	if out, err = c.htmlToMarkdown(html); err != nil {
		return html, degraded(err)
	}
	c.memo.set(toMarkdown, html, out)
	return out, nil
}

// guard turns panic inside of conversion into degraded result.
func (c *Converter) guard(in string, out *string, err *error) {
	if r := recover(); r != nil {
		c.log.Debug("Conversion panicked", zap.Any("panic", r))
		*out, *err = in, fmt.Errorf("%w: panic: %v", ErrConversionDegraded, r)
	}
}

func degraded(err error) error {
	if errors.Is(err, ErrConversionDegraded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrConversionDegraded, err)
}

package convert

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"go.uber.org/zap"
)

// highlighter produces class based markup, actual colours come from the
// stylesheet generated by CSS.
type highlighter struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
	log       *zap.Logger
}

func newHighlighter(style string, log *zap.Logger) *highlighter {
	return &highlighter{
		formatter: chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true)),
		style:     styles.Get(style),
		log:       log,
	}
}

// highlight returns highlighted body, false when highlighting is disabled,
// language is unknown or anything goes wrong. Caller falls back to plain
// escaped text.
func (h *highlighter) highlight(lang, body string) (string, bool) {
	if h == nil || lang == "" || strings.TrimSpace(body) == "" {
		return "", false
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return "", false
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, body)
	if err != nil {
		h.log.Debug("Unable to tokenise code block", zap.String("lang", lang), zap.Error(err))
		return "", false
	}
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, it); err != nil {
		h.log.Debug("Unable to format code block", zap.String("lang", lang), zap.Error(err))
		return "", false
	}
	return buf.String(), true
}

// CSS returns stylesheet for highlighted blocks.
func (h *highlighter) CSS() (string, error) {
	if h == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := h.formatter.WriteCSS(&buf, h.style); err != nil {
		return "", err
	}
	return buf.String(), nil
}

package convert

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// inlineAnnotations moves "{#id .class}" written right after emphasis, code
// span, link, image or strikethrough into attributes of that node. Text
// segments still hold source with backslash escapes, so "\{.x\}" stays text.
type inlineAnnotations struct{}

func (inlineAnnotations) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	var targets []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Emphasis, *ast.CodeSpan, *ast.Link, *ast.Image, *extast.Strikethrough:
			targets = append(targets, n)
		}
		return ast.WalkContinue, nil
	})
	for _, n := range targets {
		attachInline(n, source)
	}
}

func attachInline(n ast.Node, source []byte) {
	// delimiter processing may leave text split into adjacent segments
	var (
		texts []*ast.Text
		raw   []byte
	)
	for s := n.NextSibling(); s != nil; s = s.NextSibling() {
		t, ok := s.(*ast.Text)
		if !ok || t.IsRaw() {
			break
		}
		if len(texts) > 0 && texts[len(texts)-1].Segment.Stop != t.Segment.Start {
			break
		}
		texts = append(texts, t)
		raw = append(raw, t.Segment.Value(source)...)
		if bytes.IndexByte(raw, '}') >= 0 || bytes.IndexByte(raw, '\n') >= 0 {
			break
		}
	}
	m := reInlinePrefix.Find(raw)
	if m == nil {
		return
	}
	a, ok := ParseAnnotation(string(m))
	if !ok {
		return
	}
	if a.ID != "" {
		n.SetAttributeString("id", []byte(a.ID))
	}
	if len(a.Classes) > 0 {
		n.SetAttributeString("class", []byte(strings.Join(a.Classes, " ")))
	}
	rest := len(m)
	for _, t := range texts {
		take := min(rest, t.Segment.Len())
		t.Segment = t.Segment.WithStart(t.Segment.Start + take)
		if rest -= take; rest == 0 {
			break
		}
	}
}

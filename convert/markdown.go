package convert

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	"go.uber.org/zap"

	"mdsync/dom"
)

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(inlineAnnotations{}, 500)),
		),
		goldmark.WithRendererOptions(
			// single newline is a line break, raw html is passed through
			gmhtml.WithHardWraps(),
			gmhtml.WithUnsafe(),
		),
	)
}

func (c *Converter) render(src string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (c *Converter) markdownToHTML(src string) (string, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")

	text, blocks := c.protect(src)
	text, annotations, err := c.extractAnnotations(text)
	if err != nil {
		return "", err
	}

	out, err := c.render(text)
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	if out, err = c.resolve(out, blocks); err != nil {
		return "", err
	}

	doc, err := dom.Parse(out)
	if err != nil {
		return "", err
	}
	c.attachBlockAnnotations(doc, annotations)
	if c.autoIDs {
		assignHeadingIDs(doc)
	}
	return doc.BodyHTML()
}

// extractAnnotations strips block annotations from source and computes
// their keys. Every top level construct takes part in occurrence counting,
// annotated or not.
func (c *Converter) extractAnnotations(src string) (string, []blockAnnotation, error) {
	lines := strings.Split(src, "\n")
	constructs := scanConstructs(lines)

	annotated := false
	for _, con := range constructs {
		if con.annotation != nil {
			annotated = true
			break
		}
	}
	if !annotated {
		return src, nil, nil
	}

	var (
		res  []blockAnnotation
		seen = make(map[[2]string]int)
	)
	for _, con := range constructs {
		end := con.end
		if con.tag != "p" && end < len(lines) && reSetext.MatchString(lines[end]) {
			// keep setext underline
			end++
		}
		snippet := strings.Join(lines[con.start:end], "\n")
		text, err := c.snippetText(snippet)
		if err != nil {
			return "", nil, err
		}
		k := [2]string{con.tag, text}
		key := blockKey{tag: con.tag, text: text, index: seen[k]}
		seen[k]++
		if con.annotation != nil {
			res = append(res, blockAnnotation{key: key, annotation: *con.annotation})
		}
	}
	return strings.Join(lines, "\n"), res, nil
}

func (c *Converter) snippetText(snippet string) (string, error) {
	out, err := c.render(snippet)
	if err != nil {
		return "", fmt.Errorf("unable to render markdown fragment: %w", err)
	}
	d, err := dom.Parse(out)
	if err != nil {
		return "", err
	}
	return normalizeText(d.TextContent(d.Body())), nil
}

// attachBlockAnnotations sets identity of top level elements. Candidate at
// occurrence index wins when not yet claimed, then first unclaimed
// candidate in document order, otherwise annotation is dropped.
func (c *Converter) attachBlockAnnotations(d *dom.Document, annotations []blockAnnotation) {
	if len(annotations) == 0 {
		return
	}
	type candidate struct {
		id      dom.NodeID
		claimed bool
	}
	candidates := make(map[[2]string][]*candidate)
	for _, id := range d.ElementChildren(d.Body()) {
		k := [2]string{d.Tag(id), normalizeText(d.TextContent(id))}
		candidates[k] = append(candidates[k], &candidate{id: id})
	}

	for _, ba := range annotations {
		list := candidates[[2]string{ba.key.tag, ba.key.text}]
		var picked *candidate
		if ba.key.index < len(list) && !list[ba.key.index].claimed {
			picked = list[ba.key.index]
		} else {
			for _, cand := range list {
				if !cand.claimed {
					picked = cand
					break
				}
			}
		}
		if picked == nil {
			c.log.Warn("Annotation dropped",
				zap.String("tag", ba.key.tag),
				zap.String("text", ba.key.text),
				zap.Stringer("annotation", ba.annotation),
				zap.Error(fmt.Errorf("%d candidates: %w", len(list), ErrSelectorResolutionAmbiguous)))
			continue
		}
		picked.claimed = true
		ba.annotation.apply(d, picked.id)
	}
}

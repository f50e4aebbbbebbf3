package convert

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"
)

type blockKind int

const (
	kindCode blockKind = iota
	kindDiagram
)

func (k blockKind) String() string {
	if k == kindDiagram {
		return "diagram"
	}
	return "code"
}

// protectedBlock is a fenced block taken out of Markdown before rendering,
// so its body is never reflowed or escaped twice.
type protectedBlock struct {
	token string
	kind  blockKind
	lang  string
	body  string
}

var (
	reFenceOpen  = regexp.MustCompile("^( {0,3})(`{3,}|~{3,})(.*)$")
	reFenceClose = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})[ \t]*$")
)

type fence struct {
	indent int
	marker string
	lang   string
}

func openFence(line string) (fence, bool) {
	m := reFenceOpen.FindStringSubmatch(line)
	if m == nil {
		return fence{}, false
	}
	// backtick fence info string cannot contain backticks
	if m[2][0] == '`' && strings.Contains(m[3], "`") {
		return fence{}, false
	}
	f := fence{indent: len(m[1]), marker: m[2]}
	if fields := strings.Fields(m[3]); len(fields) > 0 {
		f.lang = fields[0]
	}
	return f, true
}

func (f fence) closedBy(line string) bool {
	m := reFenceClose.FindStringSubmatch(line)
	return m != nil && m[1][0] == f.marker[0] && len(m[1]) >= len(f.marker)
}

// unindent removes up to n leading spaces, as fenced content is relative to
// the opening fence.
func unindent(line string, n int) string {
	i := 0
	for i < n && i < len(line) && line[i] == ' ' {
		i++
	}
	return line[i:]
}

// newToken returns alphanumeric placeholder which does not occur in text.
func newToken(text string) string {
	for {
		token := "MDSYNC" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
		if !strings.Contains(text, token) {
			return token
		}
	}
}

// protect replaces closed fenced blocks with placeholder paragraphs. Blocks
// tagged with diagram language become diagrams, everything else is code.
// Scanning is fence aware: diagram fence inside of a longer code fence
// stays code. Unclosed fence runs to the end of the document and is left to
// Markdown renderer.
func (c *Converter) protect(src string) (string, []protectedBlock) {
	lines := strings.Split(src, "\n")

	var (
		out    = make([]string, 0, len(lines))
		blocks []protectedBlock
	)
	for i := 0; i < len(lines); i++ {
		f, ok := openFence(lines[i])
		if !ok {
			out = append(out, lines[i])
			continue
		}
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if f.closedBy(lines[j]) {
				end = j
				break
			}
		}
		if end < 0 {
			out = append(out, lines[i:]...)
			break
		}

		b := protectedBlock{token: newToken(src), lang: f.lang}
		if c.diagram != "" && strings.EqualFold(f.lang, c.diagram) {
			b.kind = kindDiagram
		}
		var body strings.Builder
		for _, l := range lines[i+1 : end] {
			body.WriteString(unindent(l, f.indent))
			body.WriteByte('\n')
		}
		b.body = body.String()
		blocks = append(blocks, b)

		out = append(out, "", strings.Repeat(" ", f.indent)+b.token, "")
		i = end
	}
	return strings.Join(out, "\n"), blocks
}

// resolve puts rendered blocks in place of placeholders. Every placeholder
// must be found, otherwise output cannot be trusted.
func (c *Converter) resolve(out string, blocks []protectedBlock) (string, error) {
	for _, b := range blocks {
		rendered := c.renderBlock(b)
		para := "<p>" + b.token + "</p>"
		switch {
		case strings.Contains(out, para):
			out = strings.Replace(out, para, rendered, 1)
		case strings.Contains(out, b.token):
			out = strings.Replace(out, b.token, rendered, 1)
		default:
			return "", fmt.Errorf("placeholder for %s block left unresolved: %w", b.kind, ErrConversionDegraded)
		}
	}
	return out, nil
}

func (c *Converter) renderBlock(b protectedBlock) string {
	var sb strings.Builder
	if b.kind == kindDiagram {
		sb.WriteString(`<div class="diagram">`)
		sb.WriteString(html.EscapeString(b.body))
		sb.WriteString(`</div>`)
		return sb.String()
	}

	sb.WriteString("<pre><code")
	if b.lang != "" {
		sb.WriteString(` class="language-`)
		sb.WriteString(html.EscapeString(b.lang))
		sb.WriteString(`"`)
	}
	sb.WriteString(">")
	if code, ok := c.hl.highlight(b.lang, b.body); ok {
		sb.WriteString(code)
	} else {
		sb.WriteString(html.EscapeString(b.body))
	}
	sb.WriteString("</code></pre>")
	return sb.String()
}

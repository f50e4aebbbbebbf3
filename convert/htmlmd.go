package convert

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"mdsync/dom"
)

func (c *Converter) htmlToMarkdown(src string) (string, error) {
	d, err := dom.Parse(src)
	if err != nil {
		return "", err
	}
	w := &mdWriter{d: d, diagram: c.diagram, log: c.log}
	blocks := w.blocks(d.Body())
	if len(blocks) == 0 {
		return "", nil
	}
	return strings.Join(blocks, "\n\n") + "\n", nil
}

type mdWriter struct {
	d       *dom.Document
	diagram string
	log     *zap.Logger
}

var (
	headings   = []string{"h1", "h2", "h3", "h4", "h5", "h6"}
	containers = []string{"div", "section", "article", "aside", "nav", "header", "footer", "main", "figure"}
	blockTags  = slices.Concat([]string{"p", "pre", "blockquote", "ul", "ol", "hr", "table", "dl", "details", "form", "address"}, headings, containers)
)

// blocks converts children of a container element into Markdown blocks.
// Runs of inline content outside of any block become paragraphs.
func (w *mdWriter) blocks(parent dom.NodeID) []string {
	var (
		res    []string
		inline []dom.NodeID
	)
	flush := func() {
		if len(inline) == 0 {
			return
		}
		if p := w.paragraph(inline); p != "" {
			res = append(res, p)
		}
		inline = nil
	}
	for _, id := range w.d.Children(parent) {
		switch {
		case w.d.IsElement(id, blockTags...):
			flush()
			if b := w.block(id); b != "" {
				res = append(res, b)
			}
		case w.d.IsElement(id, "script", "style", "head", "title", "meta", "link"):
		case w.d.IsText(id) || w.d.IsElement(id):
			inline = append(inline, id)
		}
	}
	flush()
	return res
}

func (w *mdWriter) block(id dom.NodeID) string {
	d := w.d
	tag := d.Tag(id)
	a := annotationOf(d, id)
	switch {
	case !a.writable(false) && !d.IsElement(id, containers...),
		!a.IsEmpty() && d.IsElement(id, "pre", "blockquote", "ul", "ol", "table", "hr"):
		// identity Markdown cannot carry
		return w.raw(id)

	case d.IsElement(id, headings...):
		level, _ := strconv.Atoi(tag[1:])
		text := w.paragraph(d.Children(id))
		// headings are single line
		text = strings.ReplaceAll(text, "\n", " ")
		return withSuffix(strings.Repeat("#", level)+" "+text, a)

	case tag == "p":
		return withSuffix(w.paragraph(d.Children(id)), a)

	case tag == "pre":
		return w.code(id)

	case tag == "hr":
		return "---"

	case tag == "blockquote":
		return prefixLines(strings.Join(w.blocks(id), "\n\n"), "> ", ">")

	case tag == "ul" || tag == "ol":
		return w.list(id)

	case tag == "table":
		return w.table(id)

	case d.HasClass(id, "diagram") || d.HasClass(id, "mermaid"):
		return fenced(w.diagram, d.TextContent(id))

	case d.IsElement(id, containers...):
		inner := strings.Join(w.blocks(id), "\n\n")
		if a.IsEmpty() {
			return inner
		}
		// no Markdown construct for containers, keep them as raw html
		open := openTag(tag, a)
		if inner == "" {
			return open + "</" + tag + ">"
		}
		return open + "\n\n" + inner + "\n\n</" + tag + ">"
	}

	return w.raw(id)
}

// raw keeps element as html, Markdown passes it through.
func (w *mdWriter) raw(id dom.NodeID) string {
	out, err := w.d.Render(id)
	if err != nil {
		w.log.Debug("Unable to render element", zap.String("tag", w.d.Tag(id)), zap.Error(err))
		return ""
	}
	return out
}

// paragraph renders inline content, each line trimmed, Markdown block
// markers at line start escaped.
func (w *mdWriter) paragraph(ids []dom.NodeID) string {
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(w.inline(id))
	}
	lines := strings.Split(sb.String(), "\n")
	res := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			res = append(res, escapeLineStart(l))
		}
	}
	return strings.Join(res, "\n")
}

func (w *mdWriter) inlineChildren(id dom.NodeID) string {
	var sb strings.Builder
	for _, c := range w.d.Children(id) {
		sb.WriteString(w.inline(c))
	}
	return sb.String()
}

func (w *mdWriter) inline(id dom.NodeID) string {
	d := w.d
	n := d.Node(id)
	switch n.Type {
	case html.TextNode:
		return escapeText(collapseWhitespace(n.Data))
	case html.ElementNode:
	default:
		return ""
	}

	a := annotationOf(d, id)
	if !a.IsEmpty() && !a.writable(true) && !d.IsElement(id, "span", "br", "input") && !d.IsElement(id, blockTags...) {
		return w.raw(id)
	}
	var out string
	switch d.Tag(id) {
	case "br":
		return "\n"
	case "strong", "b":
		out = wrapInline(w.inlineChildren(id), "**")
	case "em", "i":
		out = wrapInline(w.inlineChildren(id), "*")
	case "del", "s", "strike":
		out = wrapInline(w.inlineChildren(id), "~~")
	case "code":
		out = codeSpan(d.TextContent(id))
	case "a":
		href, _ := d.Attr(id, "href")
		title, _ := d.Attr(id, "title")
		out = "[" + w.inlineChildren(id) + "](" + destination(href) + linkTitle(title) + ")"
	case "img":
		src, _ := d.Attr(id, "src")
		alt, _ := d.Attr(id, "alt")
		title, _ := d.Attr(id, "title")
		out = "![" + escapeText(alt) + "](" + destination(src) + linkTitle(title) + ")"
	case "input":
		if v, _ := d.Attr(id, "type"); v == "checkbox" {
			if _, checked := d.Attr(id, "checked"); checked {
				return "[x]"
			}
			return "[ ]"
		}
		return ""
	case "span":
		if a.IsEmpty() {
			return w.inlineChildren(id)
		}
		return openTag("span", a) + w.inlineChildren(id) + "</span>"
	default:
		if d.IsElement(id, blockTags...) {
			// block inside of inline context (list items, table cells)
			return strings.Join(w.blocks(id), "\n")
		}
		raw, err := d.Render(id)
		if err != nil {
			return ""
		}
		return raw
	}
	if !a.IsEmpty() {
		// inline annotation sticks to the construct
		out += a.String()
	}
	return out
}

func (w *mdWriter) code(id dom.NodeID) string {
	d := w.d
	lang := ""
	for _, c := range d.ElementChildren(id) {
		if d.IsElement(c, "code") {
			for _, cls := range d.Classes(c) {
				if l, ok := strings.CutPrefix(cls, "language-"); ok {
					lang = l
					break
				}
			}
		}
	}
	return fenced(lang, d.TextContent(id))
}

func (w *mdWriter) list(id dom.NodeID) string {
	d := w.d
	ordered := d.IsElement(id, "ol")
	num := 1
	if v, ok := d.Attr(id, "start"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			num = n
		}
	}

	items := d.ElementChildren(id)
	loose := false
	for _, li := range items {
		for _, c := range d.ElementChildren(li) {
			if d.IsElement(c, "p") {
				loose = true
			}
		}
	}

	var res []string
	for _, li := range items {
		if !d.IsElement(li, "li") {
			continue
		}
		marker := "- "
		if ordered {
			marker = strconv.Itoa(num) + ". "
			num++
		}
		sep := "\n"
		if loose {
			sep = "\n\n"
		}
		body := strings.Join(w.blocks(li), sep)
		res = append(res, marker+indentLines(body, strings.Repeat(" ", len(marker))))
	}
	if loose {
		return strings.Join(res, "\n\n")
	}
	return strings.Join(res, "\n")
}

func (w *mdWriter) table(id dom.NodeID) string {
	d := w.d
	var rows [][]dom.NodeID
	d.Walk(id, func(n dom.NodeID) bool {
		if n != id && d.IsElement(n, "table") {
			return false
		}
		if d.IsElement(n, "tr") {
			var cells []dom.NodeID
			for _, c := range d.ElementChildren(n) {
				if d.IsElement(c, "th", "td") {
					cells = append(cells, c)
				}
			}
			rows = append(rows, cells)
			return false
		}
		return true
	})
	if len(rows) == 0 {
		return ""
	}

	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	row := func(cells []dom.NodeID) string {
		parts := make([]string, cols)
		for i := range parts {
			if i < len(cells) {
				parts[i] = strings.ReplaceAll(w.paragraph(d.Children(cells[i])), "\n", " ")
			}
		}
		return "| " + strings.Join(parts, " | ") + " |"
	}

	lines := []string{row(rows[0])}
	delim := make([]string, cols)
	for i := range delim {
		align := ""
		if i < len(rows[0]) {
			align = cellAlign(d, rows[0][i])
		}
		switch align {
		case "left":
			delim[i] = ":--"
		case "center":
			delim[i] = ":-:"
		case "right":
			delim[i] = "--:"
		default:
			delim[i] = "---"
		}
	}
	lines = append(lines, "| "+strings.Join(delim, " | ")+" |")
	for _, r := range rows[1:] {
		lines = append(lines, row(r))
	}
	return strings.Join(lines, "\n")
}

var reTextAlign = regexp.MustCompile(`text-align:\s*(left|center|right)`)

func cellAlign(d *dom.Document, cell dom.NodeID) string {
	if v, ok := d.Attr(cell, "align"); ok {
		return strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := d.Attr(cell, "style"); ok {
		if m := reTextAlign.FindStringSubmatch(v); m != nil {
			return m[1]
		}
	}
	return ""
}

func withSuffix(text string, a Annotation) string {
	if a.IsEmpty() {
		return text
	}
	return text + " " + a.String()
}

func openTag(tag string, a Annotation) string {
	var sb strings.Builder
	sb.WriteString("<" + tag)
	if a.ID != "" {
		sb.WriteString(` id="` + html.EscapeString(a.ID) + `"`)
	}
	if len(a.Classes) > 0 {
		sb.WriteString(` class="` + html.EscapeString(strings.Join(a.Classes, " ")) + `"`)
	}
	sb.WriteString(">")
	return sb.String()
}

// fenced builds code fence long enough to contain any backtick run of the
// body.
func fenced(lang, body string) string {
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	n := max(3, longestRun(body, '`')+1)
	fence := strings.Repeat("`", n)
	return fence + lang + "\n" + body + fence
}

func codeSpan(text string) string {
	n := longestRun(text, '`') + 1
	fence := strings.Repeat("`", n)
	if strings.HasPrefix(text, "`") || strings.HasSuffix(text, "`") {
		text = " " + text + " "
	}
	return fence + text + fence
}

func longestRun(s string, c byte) int {
	best, cur := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			cur++
			best = max(best, cur)
		} else {
			cur = 0
		}
	}
	return best
}

// wrapInline puts emphasis markers around content, whitespace is moved
// outside so markers stay flanking.
func wrapInline(s, marker string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	lead := s[:strings.Index(s, trimmed)]
	trail := s[len(lead)+len(trimmed):]
	return lead + marker + trimmed + marker + trail
}

func destination(url string) string {
	if url == "" {
		return "<>"
	}
	if strings.ContainsAny(url, " ()<>") {
		return "<" + strings.NewReplacer("<", "%3C", ">", "%3E").Replace(url) + ">"
	}
	return url
}

func linkTitle(title string) string {
	if title == "" {
		return ""
	}
	return ` "` + strings.ReplaceAll(title, `"`, `\"`) + `"`
}

func collapseWhitespace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				sb.WriteByte(' ')
			}
			space = true
		default:
			sb.WriteRune(r)
			space = false
		}
	}
	return sb.String()
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `{`, `\{`, `}`, `\}`,
	`[`, `\[`, `]`, `\]`, `<`, `\<`, `>`, `\>`, `#`, `\#`, `!`, `\!`,
	`|`, `\|`, `~`, `\~`, `&`, `\&`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

var reLineStart = regexp.MustCompile(`^(?:(=+|-+|\+)|(\d+)([.)]))(\s|$)`)

// escapeLineStart escapes characters which would turn line into list item,
// thematic break or setext underline.
func escapeLineStart(line string) string {
	m := reLineStart.FindStringSubmatchIndex(line)
	if m == nil {
		return line
	}
	if m[2] >= 0 {
		return `\` + line
	}
	// ordered list marker, escape delimiter
	return line[:m[6]] + `\` + line[m[6]:]
}

func indentLines(s, indent string) string {
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func prefixLines(s, prefix, empty string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = empty
		} else {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

package convert

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"mdsync/dom"
)

// Annotation is "{#id .class}" attribute syntax attached to a Markdown
// construct.
type Annotation struct {
	ID      string
	Classes []string
}

var (
	// "#" or "." and a name of anything but whitespace, braces and backslash
	reAnnotationToken = regexp.MustCompile(`^[#.][^\s{}\\]+$`)
	// block suffix: whitespace, then braces at the very end of the line
	reBlockSuffix = regexp.MustCompile(`^(.*\S)[ \t]+(\{[^{}\n]*\})[ \t]*$`)
	// inline: braces at the very beginning of text following the construct
	reInlinePrefix = regexp.MustCompile(`^\{[^{}\n]*\}`)
)

// ParseAnnotation parses "{#id .a .b}". Every token must be a valid id or
// class, first id wins, repeated classes are ignored.
func ParseAnnotation(s string) (Annotation, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return Annotation{}, false
	}
	fields := strings.Fields(s[1 : len(s)-1])
	if len(fields) == 0 {
		return Annotation{}, false
	}
	var a Annotation
	for _, f := range fields {
		if !reAnnotationToken.MatchString(f) {
			return Annotation{}, false
		}
		name := f[1:]
		switch f[0] {
		case '#':
			if a.ID == "" {
				a.ID = name
			}
		case '.':
			if !slices.Contains(a.Classes, name) {
				a.Classes = append(a.Classes, name)
			}
		}
	}
	return a, true
}

// String formats annotation back to Markdown syntax, empty for empty one.
func (a Annotation) String() string {
	if a.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, len(a.Classes)+1)
	if a.ID != "" {
		parts = append(parts, "#"+a.ID)
	}
	for _, c := range a.Classes {
		parts = append(parts, "."+c)
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func (a Annotation) IsEmpty() bool {
	return a.ID == "" && len(a.Classes) == 0
}

// inlineSyntax lists characters inline Markdown parsing would interpret
// inside of annotation following an inline construct.
const inlineSyntax = "*`~[]<>&!"

// writable reports whether annotation written as Markdown reads back
// unchanged. Element which fails this is kept as raw html.
func (a Annotation) writable(inline bool) bool {
	tokens := make([]string, 0, len(a.Classes)+1)
	if a.ID != "" {
		tokens = append(tokens, "#"+a.ID)
	}
	for _, c := range a.Classes {
		tokens = append(tokens, "."+c)
	}
	for _, t := range tokens {
		if !reAnnotationToken.MatchString(t) {
			return false
		}
		if inline && strings.ContainsAny(t, inlineSyntax) {
			return false
		}
	}
	return true
}

// annotationOf reads identity of an element as annotation.
func annotationOf(d *dom.Document, id dom.NodeID) Annotation {
	return Annotation{ID: d.ID(id), Classes: d.Classes(id)}
}

// apply merges annotation into element attributes: id is replaced when
// present, classes are appended.
func (a Annotation) apply(d *dom.Document, id dom.NodeID) {
	cur := annotationOf(d, id)
	if a.ID != "" {
		cur.ID = a.ID
	}
	for _, c := range a.Classes {
		if !slices.Contains(cur.Classes, c) {
			cur.Classes = append(cur.Classes, c)
		}
	}
	d.SetIdentity(id, cur.ID, cur.Classes)
}

// splitSuffix cuts trailing block annotation from a line.
func splitSuffix(line string) (string, Annotation, bool) {
	m := reBlockSuffix.FindStringSubmatch(line)
	if m == nil {
		return line, Annotation{}, false
	}
	a, ok := ParseAnnotation(m[2])
	if !ok {
		return line, Annotation{}, false
	}
	return m[1], a, true
}

// normalizeText makes text comparable between separately rendered
// fragments.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

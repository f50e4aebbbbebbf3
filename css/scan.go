package css

import (
	"errors"
	"strings"
)

// block is a top level chunk of a stylesheet: "prelude { body }" or a
// statement "prelude;".
type block struct {
	text      string
	prelude   string
	body      string
	statement bool
	err       error
}

// stripComments removes /* */ comments outside of strings. Unterminated
// comment runs to the end of input.
func stripComments(s string) string {
	var (
		sb    strings.Builder
		quote byte
	)
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			sb.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				sb.WriteByte(s[i])
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			sb.WriteByte(c)
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return sb.String()
			}
			i += end + 3
			sb.WriteByte(' ')
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// splitBlocks cuts stylesheet into top level blocks so that a malformed one
// never affects its neighbours.
func splitBlocks(s string) []block {
	var (
		res   []block
		start int
		open  = -1
		depth int
		quote byte
	)
	emit := func(end int) {
		text := strings.TrimSpace(s[start:end])
		start = end
		if text == "" {
			return
		}
		b := block{text: text}
		if i := strings.IndexByte(text, '{'); i >= 0 && strings.HasSuffix(text, "}") {
			b.prelude = collapseSpace(text[:i])
			b.body = text[i+1 : len(text)-1]
			if b.prelude == "" {
				b.err = skipped("", errors.New("block without selector"))
			}
		} else {
			b.prelude = collapseSpace(strings.TrimSuffix(text, ";"))
			b.statement = true
			if !strings.HasPrefix(b.prelude, "@") || b.prelude == "@" {
				b.err = skipped(b.prelude, errors.New("stray text outside of rule"))
			}
		}
		res = append(res, b)
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			if depth == 0 {
				open = i
			}
			depth++
		case '}':
			if depth == 0 {
				// stray brace, drop everything up to it
				if text := strings.TrimSpace(s[start:i]); text != "" {
					res = append(res, block{text: text, err: skipped(collapseSpace(text), errors.New("unbalanced braces"))})
				}
				start = i + 1
				continue
			}
			depth--
			if depth == 0 {
				emit(i + 1)
			}
		case ';':
			if depth == 0 {
				emit(i + 1)
			}
		}
	}
	if depth > 0 {
		text := collapseSpace(s[start:open])
		res = append(res, block{text: s[start:], err: skipped(text, errors.New("unterminated block"))})
	} else {
		emit(len(s))
	}
	return res
}

// hasBlock reports whether body contains nested blocks (top level braces).
func hasBlock(body string) bool {
	var quote byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '{':
			return true
		}
	}
	return false
}

// rawDeclaration is one "property: value" of a declaration block as written,
// whitespace runs collapsed.
type rawDeclaration struct {
	property string
	value    string
}

// splitDeclarations cuts declaration block on top level semicolons, quoted
// strings and parenthesized groups (url(a;b)) are kept whole.
func splitDeclarations(body string) []rawDeclaration {
	var (
		res   []rawDeclaration
		start int
		depth int
		quote byte
	)
	emit := func(end int) {
		part := body[start:end]
		start = end + 1
		i := strings.IndexByte(part, ':')
		if i < 0 {
			return
		}
		prop := strings.TrimSpace(part[:i])
		if prop == "" {
			return
		}
		res = append(res, rawDeclaration{property: prop, value: collapseSpace(part[i+1:])})
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 {
				emit(i)
			}
		}
	}
	if start < len(body) {
		emit(len(body))
	}
	return res
}

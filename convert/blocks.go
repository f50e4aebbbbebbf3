package convert

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reATX        = regexp.MustCompile(`^( {0,3})(#{1,6})(?:[ \t]+(.*?))?[ \t]*$`)
	reATXClosing = regexp.MustCompile(`(?:^|[ \t]+)#+$`)
	reSetext     = regexp.MustCompile(`^ {0,3}(=+|-+)[ \t]*$`)
	reListItem   = regexp.MustCompile(`^ {0,3}(?:[-+*]|\d{1,9}[.)])(?:[ \t]|$)`)
	reQuote      = regexp.MustCompile(`^ {0,3}>`)
	reThematic   = regexp.MustCompile(`^ {0,3}(?:(?:-[ \t]*){3,}|(?:_[ \t]*){3,}|(?:\*[ \t]*){3,})$`)
	reHTMLBlock  = regexp.MustCompile(`^ {0,3}<[A-Za-z/!?]`)
	reTableDelim = regexp.MustCompile(`^ {0,3}\|?[ \t]*:?-+:?[ \t]*(?:\|[ \t]*:?-+:?[ \t]*)*\|?[ \t]*$`)
)

// construct is a top level heading or paragraph of the Markdown source.
type construct struct {
	tag        string
	start, end int // lines [start, end) without setext underline
	annotation *Annotation
}

// blockKey identifies top level construct independently of its position
// in the source: tag, normalized text and number of earlier constructs with
// the same tag and text.
type blockKey struct {
	tag   string
	text  string
	index int
}

type blockAnnotation struct {
	key        blockKey
	annotation Annotation
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func indentOf(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4 - n%4
		default:
			return n
		}
	}
	return n
}

// interrupts reports whether line starts new block and so ends a paragraph.
func interrupts(line string) bool {
	if _, ok := openFence(line); ok {
		return true
	}
	if reATX.MatchString(line) || reQuote.MatchString(line) || reThematic.MatchString(line) || reHTMLBlock.MatchString(line) {
		return true
	}
	// only lists starting with 1 may interrupt paragraph
	if m := reListItem.FindString(line); m != "" {
		m = strings.TrimSpace(m)
		if n, err := strconv.Atoi(strings.TrimRight(m, ".)")); err == nil {
			return n == 1
		}
		return true
	}
	return false
}

// scanConstructs finds top level headings and paragraphs, stripping block
// annotations in place. Lines belonging to lists and block quotes, including
// lazy continuation lines, are not top level.
func scanConstructs(lines []string) []construct {
	var (
		res       []construct
		container bool
	)
	for i := 0; i < len(lines); {
		line := lines[i]
		if isBlank(line) {
			i++
			continue
		}
		prevBlank := i == 0 || isBlank(lines[i-1])
		if container {
			if !prevBlank || indentOf(line) >= 2 || reListItem.MatchString(line) || reQuote.MatchString(line) {
				i++
				continue
			}
			container = false
		}

		switch {
		case reListItem.MatchString(line) && !reThematic.MatchString(line), reQuote.MatchString(line):
			container = true
			i++
			continue
		case reThematic.MatchString(line):
			i++
			continue
		case indentOf(line) >= 4:
			// indented code
			i++
			continue
		case reHTMLBlock.MatchString(line):
			for i < len(lines) && !isBlank(lines[i]) {
				i++
			}
			continue
		}
		if _, ok := openFence(line); ok {
			// unclosed fence, everything after it is code
			return res
		}

		if m := reATX.FindStringSubmatch(line); m != nil {
			c := construct{tag: "h" + strconv.Itoa(len(m[2])), start: i, end: i + 1}
			text := reATXClosing.ReplaceAllString(m[3], "")
			if stripped, a, ok := splitSuffix(text); ok {
				lines[i] = m[1] + m[2] + " " + stripped
				c.annotation = &a
			}
			res = append(res, c)
			i++
			continue
		}

		// paragraph, possibly setext heading or table
		c := construct{tag: "p", start: i}
		j := i + 1
		for ; j < len(lines) && !isBlank(lines[j]); j++ {
			if m := reSetext.FindStringSubmatch(lines[j]); m != nil {
				if m[1][0] == '=' {
					c.tag = "h1"
				} else {
					c.tag = "h2"
				}
				break
			}
			if interrupts(lines[j]) {
				break
			}
		}
		c.end = j
		next := j
		if c.tag != "p" {
			next = j + 1
		}
		if c.tag == "p" && j-i > 1 && strings.Contains(lines[i], "|") && reTableDelim.MatchString(lines[i+1]) {
			i = next
			continue
		}
		if stripped, a, ok := splitSuffix(lines[c.end-1]); ok {
			lines[c.end-1] = stripped
			c.annotation = &a
		}
		res = append(res, c)
		i = next
	}
	return res
}

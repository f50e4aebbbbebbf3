package css

import (
	"strings"

	"go.uber.org/multierr"
)

const indent = "  "

// Serialize prints rule set in canonical layout: one block per rule,
// declarations in insertion order, blocks separated by blank line. Rules
// without declarations are omitted and importance is never written.
func (rs *RuleSet) Serialize() string {
	return rs.serialize(false)
}

// Pretty is like Serialize but keeps importance of declarations.
func (rs *RuleSet) Pretty() string {
	return rs.serialize(true)
}

// Err combines all parse warnings into single error, nil when stylesheet was
// parsed cleanly.
func (rs *RuleSet) Err() error {
	if rs == nil {
		return nil
	}
	return multierr.Combine(rs.warnings...)
}

func (rs *RuleSet) serialize(important bool) string {
	if rs == nil {
		return ""
	}
	blocks := make([]string, 0, len(rs.rules))
	for _, r := range rs.rules {
		if b := r.format(important); b != "" {
			blocks = append(blocks, b)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (r Rule) format(important bool) string {
	if r.IsEmpty() {
		return ""
	}
	if r.Statement {
		return r.Selector
	}

	var sb strings.Builder
	sb.WriteString(r.Selector)
	sb.WriteString(" {\n")
	if r.Nested != nil {
		for line := range strings.SplitSeq(r.Nested.serialize(important), "\n") {
			if line != "" {
				sb.WriteString(indent)
				sb.WriteString(line)
			}
			sb.WriteByte('\n')
		}
	} else {
		writeDeclarations(&sb, r.Declarations, func(d Declaration) bool { return important && d.Important })
	}
	sb.WriteByte('}')
	return sb.String()
}

func writeDeclarations(sb *strings.Builder, decls []Declaration, important func(Declaration) bool) {
	for _, d := range decls {
		if d.Value == "" {
			continue
		}
		sb.WriteString(indent)
		sb.WriteString(d.Property)
		sb.WriteString(": ")
		sb.WriteString(d.Value)
		if important(d) {
			sb.WriteString(" !important")
		}
		sb.WriteString(";\n")
	}
}

// SerializeOverlay prints single rule with every declaration marked
// !important, so it wins over the stylesheet in preview. Returns empty string
// when there is nothing to print.
func SerializeOverlay(selector string, decls []Declaration) string {
	selector = collapseSpace(selector)
	r := Rule{Selector: selector}
	r.merge(decls)
	if selector == "" || r.IsEmpty() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(selector)
	sb.WriteString(" {\n")
	writeDeclarations(&sb, r.Declarations, func(Declaration) bool { return true })
	sb.WriteByte('}')
	return sb.String()
}

package css

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrParseSkipped marks a rule block which could not be interpreted and was
// left out of the rule set. Parsing always continues with the next block.
var ErrParseSkipped = errors.New("css rule block skipped")

// Declaration is a single "property: value" pair. Important is kept as a
// flag and is never part of Value.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Decl is a shortcut for building declarations.
func Decl(property, value string) Declaration {
	return Declaration{Property: property, Value: value}
}

// ParseAssignment reads "property=value" or "property: value" as typed on
// command line. Empty value is allowed and means removal.
func ParseAssignment(s string) (Declaration, error) {
	i := strings.IndexAny(s, "=:")
	if i < 0 {
		return Declaration{}, fmt.Errorf("bad declaration %q, expected property=value", s)
	}
	d := Declaration{
		Property: strings.ToLower(strings.TrimSpace(s[:i])),
		Value:    strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s[i+1:]), ";")),
	}
	if strings.HasPrefix(d.Property, "--") {
		d.Property = strings.TrimSpace(s[:i])
	}
	if d.Property == "" {
		return Declaration{}, fmt.Errorf("bad declaration %q, empty property", s)
	}
	if loc := reImportant.FindStringIndex(d.Value); loc != nil {
		d.Important = true
		d.Value = strings.TrimSpace(d.Value[:loc[0]])
	}
	return d, nil
}

// Rule is one selector with its declarations. At-rules are kept as rules
// too: conditional group rules (@media, @supports...) carry Nested rule set
// and use their prelude as Selector, statement at-rules (@import...) are
// stored verbatim in Selector with Statement set.
type Rule struct {
	Selector     string
	Declarations []Declaration
	Nested       *RuleSet
	Statement    bool
}

// Get returns value of the property.
func (r Rule) Get(property string) (Declaration, bool) {
	for _, d := range r.Declarations {
		if d.Property == property {
			return d, true
		}
	}
	return Declaration{}, false
}

// IsEmpty reports whether rule has nothing to serialize.
func (r Rule) IsEmpty() bool {
	switch {
	case r.Statement:
		return r.Selector == ""
	case r.Nested != nil:
		for _, nr := range r.Nested.rules {
			if !nr.IsEmpty() {
				return false
			}
		}
		return true
	}
	for _, d := range r.Declarations {
		if d.Value != "" {
			return false
		}
	}
	return true
}

func (r Rule) clone() Rule {
	c := r
	c.Declarations = slices.Clone(r.Declarations)
	if r.Nested != nil {
		c.Nested = r.Nested.clone()
	}
	return c
}

// merge applies declarations in order, last write per property wins, empty
// value removes the property. New properties are appended.
func (r *Rule) merge(decls []Declaration) {
	for _, d := range decls {
		d.Property = strings.TrimSpace(d.Property)
		d.Value = strings.TrimSpace(d.Value)
		if d.Property == "" {
			continue
		}
		i := slices.IndexFunc(r.Declarations, func(e Declaration) bool { return e.Property == d.Property })
		switch {
		case d.Value == "" && i >= 0:
			r.Declarations = slices.Delete(r.Declarations, i, i+1)
		case d.Value == "":
		case i >= 0:
			r.Declarations[i] = d
		default:
			r.Declarations = append(r.Declarations, d)
		}
	}
}

// RuleSet is an ordered mapping selector -> declarations. Selector lookup is
// exact string match after whitespace is collapsed, grouped selectors such as
// "h1, h2" are a single key.
type RuleSet struct {
	rules    []Rule
	warnings []error
}

// NewRuleSet returns empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{}
}

// Len returns number of top level rules, including at-rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Rules returns copy of the top level rules in order.
func (rs *RuleSet) Rules() []Rule {
	if rs == nil {
		return nil
	}
	res := make([]Rule, 0, len(rs.rules))
	for _, r := range rs.rules {
		res = append(res, r.clone())
	}
	return res
}

// Rule returns rule for the selector.
func (rs *RuleSet) Rule(selector string) (Rule, bool) {
	if i := rs.index(collapseSpace(selector)); i >= 0 {
		return rs.rules[i].clone(), true
	}
	return Rule{}, false
}

// Warnings returns problems found during parsing, each wraps ErrParseSkipped.
func (rs *RuleSet) Warnings() []error {
	if rs == nil {
		return nil
	}
	return slices.Clone(rs.warnings)
}

func (rs *RuleSet) index(selector string) int {
	if rs == nil {
		return -1
	}
	// at-rules are never addressable by selector
	if selector == "" || strings.HasPrefix(selector, "@") {
		return -1
	}
	return slices.IndexFunc(rs.rules, func(r Rule) bool {
		return r.Selector == selector
	})
}

func (rs *RuleSet) clone() *RuleSet {
	c := &RuleSet{rules: make([]Rule, 0, len(rs.rules)+1)}
	for _, r := range rs.rules {
		c.rules = append(c.rules, r.clone())
	}
	return c
}

// Upsert returns new rule set with declarations merged into the rule for
// selector (exact match) or with new rule appended at the end when there is
// no such selector yet. Receiver is not modified. At-rules cannot be
// upserted, such calls return unchanged copy.
func (rs *RuleSet) Upsert(selector string, decls ...Declaration) *RuleSet {
	var res *RuleSet
	if rs == nil {
		res = NewRuleSet()
	} else {
		res = rs.clone()
	}
	selector = collapseSpace(selector)
	if selector == "" || strings.HasPrefix(selector, "@") {
		return res
	}
	if i := res.index(selector); i >= 0 {
		res.rules[i].merge(decls)
		return res
	}
	r := Rule{Selector: selector}
	r.merge(decls)
	res.rules = append(res.rules, r)
	return res
}

// Remove returns new rule set without the rule for selector.
func (rs *RuleSet) Remove(selector string) *RuleSet {
	res := NewRuleSet()
	if rs == nil {
		return res
	}
	res = rs.clone()
	if i := res.index(collapseSpace(selector)); i >= 0 {
		res.rules = slices.Delete(res.rules, i, i+1)
	}
	return res
}

// Equal reports whether both sets serialize to the same stylesheet.
func (rs *RuleSet) Equal(other *RuleSet) bool {
	return rs.Serialize() == other.Serialize()
}

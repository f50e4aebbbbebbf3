package style

import (
	"slices"
	"strings"
)

// Kind tells editor which control a property needs.
type Kind int

const (
	KindColor Kind = iota
	KindNumber
	KindSelect
)

// Property describes one entry of the style editor.
type Property struct {
	Name    string
	Kind    Kind
	Unit    string
	Options []string
}

// Properties is the list of properties style editor offers, in display
// order.
var Properties = []Property{
	{Name: "color", Kind: KindColor},
	{Name: "background-color", Kind: KindColor},
	{Name: "font-size", Kind: KindNumber, Unit: "px"},
	{Name: "font-weight", Kind: KindSelect, Options: []string{"normal", "bold", "100", "200", "300", "400", "500", "600", "700", "800", "900"}},
	{Name: "margin-top", Kind: KindNumber, Unit: "px"},
	{Name: "margin-right", Kind: KindNumber, Unit: "px"},
	{Name: "margin-bottom", Kind: KindNumber, Unit: "px"},
	{Name: "margin-left", Kind: KindNumber, Unit: "px"},
	{Name: "padding", Kind: KindNumber, Unit: "px"},
	{Name: "border-radius", Kind: KindNumber, Unit: "px"},
	{Name: "text-align", Kind: KindSelect, Options: []string{"left", "center", "right", "justify"}},
	{Name: "position", Kind: KindSelect, Options: []string{"static", "relative", "absolute", "fixed"}},
	{Name: "display", Kind: KindSelect, Options: []string{"block", "inline", "inline-block", "flex", "grid", "none"}},
}

// Lookup finds property description by name.
func Lookup(name string) (Property, bool) {
	i := slices.IndexFunc(Properties, func(p Property) bool { return p.Name == name })
	if i < 0 {
		return Property{}, false
	}
	return Properties[i], true
}

var keywordDefaults = map[string][]string{
	"font-weight": {"normal", "400"},
	"text-align":  {"start"},
	"position":    {"static"},
}

var zeroDefaults = []string{
	"margin-top",
	"margin-right",
	"margin-bottom",
	"margin-left",
	"padding",
	"border-radius",
}

var inlineTags = []string{
	"a", "abbr", "b", "bdi", "bdo", "br", "cite", "code", "data", "del", "dfn",
	"em", "i", "img", "input", "ins", "kbd", "label", "mark", "q", "s", "samp",
	"small", "span", "strong", "sub", "sup", "time", "u", "var",
}

var displayDefaults = map[string]string{
	"li":       "list-item",
	"table":    "table",
	"caption":  "table-caption",
	"thead":    "table-header-group",
	"tbody":    "table-row-group",
	"tfoot":    "table-footer-group",
	"tr":       "table-row",
	"td":       "table-cell",
	"th":       "table-cell",
	"colgroup": "table-column-group",
	"col":      "table-column",
}

// DefaultDisplay returns user agent display value for the tag.
func DefaultDisplay(tag string) string {
	tag = strings.ToLower(tag)
	if d, ok := displayDefaults[tag]; ok {
		return d
	}
	if slices.Contains(inlineTags, tag) {
		return "inline"
	}
	return "block"
}

// IsDefault reports whether value is what the element would have without
// any styling. Such values are suppressed from overlay and commit.
func IsDefault(tag, property, value string) bool {
	property = strings.ToLower(strings.TrimSpace(property))
	value = strings.ToLower(strings.TrimSpace(value))
	switch property {
	case "color", "background-color":
		c, err := NormalizeColor(value)
		if err != nil {
			return false
		}
		if property == "color" {
			return c == "#000000"
		}
		return c == ""
	case "display":
		return value == DefaultDisplay(tag)
	}
	if vals, ok := keywordDefaults[property]; ok {
		return slices.Contains(vals, value)
	}
	if slices.Contains(zeroDefaults, property) {
		// shorthand such as "0px 0px" is default when every part is zero
		parts := strings.Fields(value)
		if len(parts) == 0 {
			return false
		}
		for _, p := range parts {
			n, ok := ParseNumeric(p)
			if !ok || !n.IsZero() {
				return false
			}
		}
		return true
	}
	return false
}

package viewsync

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"mdsync/dom"
)

// DefaultMarker is class preview puts on elements while selection mode is
// on. It never becomes part of selector.
const DefaultMarker = "selection-mode"

// ComputedProperties is the allow-list of computed style properties captured
// with selection.
var ComputedProperties = []string{
	"color",
	"background-color",
	"font-weight",
	"font-size",
	"margin-top",
	"margin-right",
	"margin-bottom",
	"margin-left",
	"padding",
	"border-radius",
	"text-align",
	"position",
	"display",
}

// Selection is an element picked in preview: its path from body and the
// snapshot of its computed styles.
type Selection struct {
	Path     dom.SelectorPath
	Computed map[string]string
}

// Selector returns path in CSS selector form.
func (s Selection) Selector() string {
	return s.Path.String()
}

// Tag returns tag name of selected element.
func (s Selection) Tag() string {
	seg, _ := s.Path.Target()
	return seg.Tag
}

// IsZero reports whether nothing is selected.
func (s Selection) IsZero() bool {
	return len(s.Path) == 0
}

// ElementClicked is the message preview sends when element is clicked in
// selection mode.
type ElementClicked struct {
	Path   string            `json:"path"`
	Styles map[string]string `json:"styles,omitempty"`
}

// BuildSelection walks from target up to body. Marker class is excluded
// from segments, computed styles are filtered by ComputedProperties.
func BuildSelection(d *dom.Document, target dom.NodeID, computed map[string]string, marker string) (Selection, error) {
	path := d.PathOf(target, markerOrDefault(marker))
	if len(path) == 0 {
		return Selection{}, fmt.Errorf("node %d is not inside of body: %w", target, dom.ErrSelectorNotFound)
	}
	return Selection{Path: path, Computed: filterComputed(computed)}, nil
}

// FromMessage normalizes selection reported by preview the same way
// BuildSelection does.
func FromMessage(msg ElementClicked, marker string) (Selection, error) {
	path, err := dom.ParseSelectorPath(msg.Path)
	if err != nil {
		return Selection{}, err
	}
	marker = markerOrDefault(marker)
	for i := range path {
		path[i].Classes = slices.DeleteFunc(path[i].Classes, func(c string) bool { return c == marker })
	}
	return Selection{Path: path, Computed: filterComputed(msg.Styles)}, nil
}

func markerOrDefault(marker string) string {
	if marker == "" {
		return DefaultMarker
	}
	return marker
}

func filterComputed(computed map[string]string) map[string]string {
	res := make(map[string]string, len(ComputedProperties))
	for k, v := range computed {
		k = strings.ToLower(strings.TrimSpace(k))
		if slices.Contains(ComputedProperties, k) {
			res[k] = strings.TrimSpace(v)
		}
	}
	return res
}

// Clone returns deep copy of the selection.
func (s Selection) Clone() Selection {
	c := Selection{Computed: maps.Clone(s.Computed)}
	for _, seg := range s.Path {
		seg.Classes = slices.Clone(seg.Classes)
		c.Path = append(c.Path, seg)
	}
	return c
}

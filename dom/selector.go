package dom

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrSelectorNotFound is returned when a path does not resolve to any
// element of the current document.
var ErrSelectorNotFound = errors.New("selector not found")

// PathSeparator joins segments of a selector path. Child combinator keeps
// the path exact when used as CSS selector.
const PathSeparator = " > "

// Segment identifies one element on a path: tag, optional id and optional
// ordered list of classes.
type Segment struct {
	Tag     string
	ID      string
	Classes []string
}

func (s Segment) String() string {
	var sb strings.Builder
	sb.WriteString(s.Tag)
	if s.ID != "" {
		sb.WriteByte('#')
		sb.WriteString(s.ID)
	}
	for _, c := range s.Classes {
		sb.WriteByte('.')
		sb.WriteString(c)
	}
	return sb.String()
}

// Matches reports whether element satisfies the segment: same tag, same id
// when segment has one and all segment classes present.
func (s Segment) Matches(d *Document, id NodeID) bool {
	if !d.IsElement(id) {
		return false
	}
	if s.Tag != "" && s.Tag != "*" && d.Tag(id) != s.Tag {
		return false
	}
	if s.ID != "" && d.ID(id) != s.ID {
		return false
	}
	if len(s.Classes) > 0 {
		have := d.Classes(id)
		for _, c := range s.Classes {
			if !slices.Contains(have, c) {
				return false
			}
		}
	}
	return true
}

// SelectorPath is a sequence of segments from body (excluded) to the target.
type SelectorPath []Segment

// String returns the path in a form usable verbatim as a CSS selector.
func (p SelectorPath) String() string {
	parts := make([]string, 0, len(p))
	for _, s := range p {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, PathSeparator)
}

// Target returns last segment of the path.
func (p SelectorPath) Target() (Segment, bool) {
	if len(p) == 0 {
		return Segment{}, false
	}
	return p[len(p)-1], true
}

// ParseSelectorPath parses "div#main > p.note.big" style paths. Plain
// whitespace between segments is accepted as well.
func ParseSelectorPath(s string) (SelectorPath, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty selector path")
	}
	var path SelectorPath
	for _, part := range strings.Fields(strings.ReplaceAll(s, ">", " ")) {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("bad selector path %q: %w", s, err)
		}
		path = append(path, seg)
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("bad selector path %q: no segments", s)
	}
	return path, nil
}

func parseSegment(s string) (Segment, error) {
	var (
		seg  Segment
		i    int
		kind byte
	)
	for i < len(s) && s[i] != '#' && s[i] != '.' {
		i++
	}
	seg.Tag = strings.ToLower(s[:i])
	for i < len(s) {
		kind = s[i]
		i++
		start := i
		for i < len(s) && s[i] != '#' && s[i] != '.' {
			i++
		}
		name := s[start:i]
		if name == "" {
			return Segment{}, fmt.Errorf("empty name in segment %q", s)
		}
		switch kind {
		case '#':
			if seg.ID != "" {
				return Segment{}, fmt.Errorf("more than one id in segment %q", s)
			}
			seg.ID = name
		case '.':
			if !slices.Contains(seg.Classes, name) {
				seg.Classes = append(seg.Classes, name)
			}
		}
	}
	if seg.Tag == "" && seg.ID == "" && len(seg.Classes) == 0 {
		return Segment{}, fmt.Errorf("empty segment %q", s)
	}
	return seg, nil
}

// SegmentOf builds a segment for element. Classes listed in exclude (for
// example transient selection markers) are left out.
func (d *Document) SegmentOf(id NodeID, exclude ...string) Segment {
	seg := Segment{Tag: d.Tag(id), ID: d.ID(id)}
	for _, c := range d.Classes(id) {
		if !slices.Contains(exclude, c) {
			seg.Classes = append(seg.Classes, c)
		}
	}
	return seg
}

// PathOf walks from the element up to body and builds its selector path.
// Returns nil for nodes outside of body.
func (d *Document) PathOf(id NodeID, exclude ...string) SelectorPath {
	// text nodes are represented by their element
	for id != None && !d.IsElement(id) {
		id = d.Parent(id)
	}
	var path SelectorPath
	for cur := id; cur != d.body; cur = d.Parent(cur) {
		if cur == None || cur == d.root {
			return nil
		}
		path = append(path, d.SegmentOf(cur, exclude...))
	}
	slices.Reverse(path)
	return path
}

// Resolve finds the first element in document order whose chain of
// ancestors below body matches the path.
func (d *Document) Resolve(path SelectorPath) (NodeID, error) {
	if len(path) == 0 {
		return None, fmt.Errorf("empty path: %w", ErrSelectorNotFound)
	}
	if id := d.resolve(d.body, path); id != None {
		return id, nil
	}
	return None, fmt.Errorf("%s: %w", path, ErrSelectorNotFound)
}

func (d *Document) resolve(parent NodeID, path SelectorPath) NodeID {
	for _, c := range d.ElementChildren(parent) {
		if !path[0].Matches(d, c) {
			continue
		}
		if len(path) == 1 {
			return c
		}
		if found := d.resolve(c, path[1:]); found != None {
			return found
		}
	}
	return None
}

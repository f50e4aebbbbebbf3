// Package style composes live preview of style edits for a selected element
// and turns them into stylesheet declarations on commit.
package style

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"mdsync/css"
	"mdsync/viewsync"
)

// Session accumulates edits of a single selected element. Edits are kept in
// the order properties were first touched.
type Session struct {
	log   *zap.Logger
	sel   viewsync.Selection
	edits []css.Declaration
}

// Option configures Session.
type Option func(*Session)

// WithLogger sets logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log.Named("style")
		}
	}
}

// NewSession opens editing session for the selection.
func NewSession(target viewsync.Selection, opts ...Option) *Session {
	s := &Session{
		log: zap.NewNop(),
		sel: target.Clone(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Selection returns element being edited.
func (s *Session) Selection() viewsync.Selection {
	return s.sel
}

// Selector returns CSS selector edits are committed under.
func (s *Session) Selector() string {
	return s.sel.Selector()
}

// Dirty reports whether anything was edited.
func (s *Session) Dirty() bool {
	return len(s.edits) > 0
}

// Set records property value, empty value removes the property on commit.
func (s *Session) Set(property, value string) {
	property = strings.ToLower(strings.TrimSpace(property))
	if property == "" {
		return
	}
	d := css.Decl(property, strings.TrimSpace(value))
	if i := slices.IndexFunc(s.edits, func(e css.Declaration) bool { return e.Property == property }); i >= 0 {
		s.edits[i] = d
	} else {
		s.edits = append(s.edits, d)
	}
	s.log.Debug("Style edited", zap.String("selector", s.Selector()), zap.String("property", property), zap.String("value", d.Value))
}

// SetNumber records numeric property.
func (s *Session) SetNumber(property string, n Numeric) {
	s.Set(property, n.String())
}

// SetColor records colour property after normalization. Transparent colours
// unset the property.
func (s *Session) SetColor(property, value string) error {
	c, err := NormalizeColor(value)
	if err != nil {
		return fmt.Errorf("unable to set %s: %w", property, err)
	}
	s.Set(property, c)
	return nil
}

// Current returns value to show in editor: edited one when property was
// touched, computed snapshot otherwise. Colours are normalized.
func (s *Session) Current(property string) string {
	property = strings.ToLower(strings.TrimSpace(property))
	if i := slices.IndexFunc(s.edits, func(e css.Declaration) bool { return e.Property == property }); i >= 0 {
		return s.edits[i].Value
	}
	v := s.sel.Computed[property]
	if p, ok := Lookup(property); ok && p.Kind == KindColor {
		if c, err := NormalizeColor(v); err == nil {
			return c
		}
	}
	return v
}

// Edited returns copy of recorded edits.
func (s *Session) Edited() []css.Declaration {
	return slices.Clone(s.edits)
}

func (s *Session) suppressed(d css.Declaration) bool {
	return d.Value == "" || IsDefault(s.sel.Tag(), d.Property, d.Value)
}

// Overlay returns stylesheet fragment preview shows on top of the document
// stylesheet while editing. Empty when there is nothing to show.
func (s *Session) Overlay() string {
	var decls []css.Declaration
	for _, d := range s.edits {
		if !s.suppressed(d) {
			decls = append(decls, d)
		}
	}
	return css.SerializeOverlay(s.Selector(), decls)
}

// Commit returns declarations to upsert. Suppressed properties come with
// empty values so that previously committed declarations are removed.
func (s *Session) Commit() (string, []css.Declaration) {
	decls := make([]css.Declaration, 0, len(s.edits))
	for _, d := range s.edits {
		if s.suppressed(d) {
			d.Value = ""
		}
		d.Important = false
		decls = append(decls, d)
	}
	return s.Selector(), decls
}

// Apply upserts committed declarations into rule set and returns the result.
func (s *Session) Apply(rs *css.RuleSet) *css.RuleSet {
	selector, decls := s.Commit()
	if selector == "" || len(decls) == 0 {
		return rs
	}
	if _, ok := rs.Rule(selector); !ok && !slices.ContainsFunc(decls, func(d css.Declaration) bool { return d.Value != "" }) {
		// nothing would be written
		return rs
	}
	return rs.Upsert(selector, decls...)
}

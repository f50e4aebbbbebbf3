package document

import (
	"go.uber.org/zap"

	"mdsync/common"
	"mdsync/style"
	"mdsync/viewsync"
)

// SetSelectionMode toggles element picking in preview. Leaving selection
// mode discards unapplied style edits.
func (c *Coordinator) SetSelectionMode(enabled bool) {
	c.dispatch("selection-mode", func() {
		c.selecting = enabled
		if c.preview != nil {
			c.preview.SetSelectionModeEnabled(enabled)
		}
		if c.session != nil {
			c.session = nil
			c.render()
		}
	})
}

// SelectionMode reports whether element picking is on.
func (c *Coordinator) SelectionMode() bool {
	return c.selecting
}

// SelectionMarker returns class preview marks selectable elements with.
func (c *Coordinator) SelectionMarker() string {
	return c.marker
}

// ElementClicked opens style session for element picked in preview. Any
// overlay of previous selection is discarded.
func (c *Coordinator) ElementClicked(sel viewsync.Selection) error {
	if !c.selecting {
		return ErrSelectionDisabled
	}
	return c.dispatch("element-clicked", func() {
		if sel.IsZero() {
			return
		}
		c.session = style.NewSession(sel, style.WithLogger(c.log))
		c.log.Debug("Element selected", zap.String("selector", sel.Selector()))
		c.render()
	})
}

// StyleSession returns open style session or nil.
func (c *Coordinator) StyleSession() *style.Session {
	return c.session
}

// EditStyle changes property of selected element, preview shows the
// change immediately.
func (c *Coordinator) EditStyle(property, value string) error {
	return c.editStyle(func(s *style.Session) error {
		s.Set(property, value)
		return nil
	})
}

// EditNumber changes numeric property of selected element.
func (c *Coordinator) EditNumber(property string, n style.Numeric) error {
	return c.editStyle(func(s *style.Session) error {
		s.SetNumber(property, n)
		return nil
	})
}

// EditColor changes colour property of selected element.
func (c *Coordinator) EditColor(property, value string) error {
	return c.editStyle(func(s *style.Session) error {
		return s.SetColor(property, value)
	})
}

func (c *Coordinator) editStyle(fn func(*style.Session) error) error {
	if c.session == nil {
		return ErrNoSelection
	}
	var res error
	if err := c.dispatch("edit-style", func() {
		if res = fn(c.session); res == nil {
			c.render()
		}
	}); err != nil {
		return err
	}
	return res
}

// ApplyStyle commits style edits into the stylesheet. Selection and
// overlay are cleared.
func (c *Coordinator) ApplyStyle() error {
	if c.session == nil {
		return ErrNoSelection
	}
	return c.dispatch("apply-style", func() {
		s := c.session
		c.session = nil
		rules := s.Apply(c.rules)
		if rules == c.rules {
			c.render()
			return
		}
		text := rules.Serialize()
		if text == c.reps[common.ModeCSS].Text {
			c.render()
			return
		}
		c.apply(common.ModeCSS, text, sourceTool)
	})
}

// CancelStyle discards style edits.
func (c *Coordinator) CancelStyle() {
	c.dispatch("cancel-style", func() {
		if c.session != nil {
			c.session = nil
			c.render()
		}
	})
}

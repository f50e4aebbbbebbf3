// Package viewsync keeps editor and preview panes in step: proportional
// scrolling without feedback loops and element selection snapshots.
package viewsync

import (
	"sync"
	"time"
)

// ScrollState is what panes exchange, percentage in [0,1] of the scrollable
// range.
type ScrollState struct {
	Percentage float64 `json:"percentage"`
}

// Percentage converts absolute scroll position to the wire value. When the
// content fits into the viewport there is nothing to scroll and 0 is
// returned.
func Percentage(scrollTop, scrollHeight, viewportHeight float64) float64 {
	rng := scrollHeight - viewportHeight
	if rng <= 0 {
		return 0
	}
	return clamp(scrollTop / rng)
}

// Offset is the inverse of Percentage.
func Offset(p, scrollHeight, viewportHeight float64) float64 {
	return clamp(p) * max(scrollHeight-viewportHeight, 0)
}

func clamp(p float64) float64 {
	switch {
	case p != p: // NaN
		return 0
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Pane identifies side of the link.
type Pane int

const (
	PaneEditor Pane = iota
	PanePreview
)

func (p Pane) other() Pane {
	if p == PaneEditor {
		return PanePreview
	}
	return PaneEditor
}

func (p Pane) String() string {
	if p == PaneEditor {
		return "editor"
	}
	return "preview"
}

// DefaultLockWindow is how long pane which was scrolled programmatically
// ignores its own scroll reports.
const DefaultLockWindow = 120 * time.Millisecond

// Link couples editor and preview scrolling. Percentage reported by one pane
// is applied to the other, which then stays locked for a window so the
// scroll event caused by applying it is not sent back.
type Link struct {
	mu       sync.Mutex
	window   time.Duration
	now      func() time.Time
	apply    [2]func(float64)
	locked   [2]time.Time
	disabled bool
}

// LinkOption configures Link.
type LinkOption func(*Link)

// WithClock replaces time source, used by tests.
func WithClock(now func() time.Time) LinkOption {
	return func(l *Link) {
		l.now = now
	}
}

// NewLink creates link, setEditor and setPreview move corresponding panes.
func NewLink(window time.Duration, setEditor, setPreview func(float64), opts ...LinkOption) *Link {
	if window <= 0 {
		window = DefaultLockWindow
	}
	l := &Link{
		window: window,
		now:    time.Now,
		apply:  [2]func(float64){setEditor, setPreview},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// SetEnabled turns synchronization on and off. Stylesheet editor has no
// meaningful relation to preview position, so link is disabled while it is
// shown.
func (l *Link) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disabled = !enabled
}

// Enabled reports whether link is active.
func (l *Link) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.disabled
}

// Report handles scroll event of a pane. Returns true when position was
// propagated, false when report was an echo or link is disabled.
func (l *Link) Report(from Pane, p float64) bool {
	l.mu.Lock()
	if l.disabled {
		l.mu.Unlock()
		return false
	}
	now := l.now()
	if now.Before(l.locked[from]) {
		l.mu.Unlock()
		return false
	}
	to := from.other()
	l.locked[to] = now.Add(l.window)
	apply := l.apply[to]
	l.mu.Unlock()

	if apply != nil {
		apply(clamp(p))
	}
	return true
}

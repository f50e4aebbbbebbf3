package preview

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"mdsync/dom"
	"mdsync/viewsync"
)

// Headless is a preview without display. It keeps parsed document of the
// last render so elements can be selected by path.
type Headless struct {
	log       *zap.Logger
	mu        sync.Mutex
	html      string
	css       string
	doc       *dom.Document
	scroll    float64
	selecting bool
	renders   int
}

// NewHeadless creates headless preview.
func NewHeadless(log *zap.Logger) *Headless {
	if log == nil {
		log = zap.NewNop()
	}
	return &Headless{log: log.Named("preview")}
}

// Render implements document.Preview.
func (h *Headless) Render(html, css string) {
	d, err := dom.Parse(html)
	if err != nil {
		h.log.Warn("Unable to parse rendered html", zap.Error(err))
		d = nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.html, h.css, h.doc = html, css, d
	h.renders++
}

// SetScrollPercentage implements document.Preview.
func (h *Headless) SetScrollPercentage(p float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scroll = p
}

// SetSelectionModeEnabled implements document.Preview.
func (h *Headless) SetSelectionModeEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selecting = enabled
}

// Content returns last rendered html and stylesheet.
func (h *Headless) Content() (string, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.html, h.css
}

// ScrollPercentage returns position set by coordinator.
func (h *Headless) ScrollPercentage() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scroll
}

// Renders returns number of renders so far.
func (h *Headless) Renders() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.renders
}

// Select emulates click on the first element matching path while selection
// mode is on. Computed styles are supplied by caller since there is no
// layout engine.
func (h *Headless) Select(path string, computed map[string]string, marker string) (viewsync.Selection, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.selecting {
		return viewsync.Selection{}, errors.New("selection mode is off")
	}
	if h.doc == nil {
		return viewsync.Selection{}, fmt.Errorf("nothing rendered: %w", dom.ErrSelectorNotFound)
	}
	p, err := dom.ParseSelectorPath(path)
	if err != nil {
		return viewsync.Selection{}, err
	}
	id, err := h.doc.Resolve(p)
	if err != nil {
		return viewsync.Selection{}, err
	}
	return viewsync.BuildSelection(h.doc, id, computed, marker)
}

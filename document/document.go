// Package document coordinates markdown, html and stylesheet
// representations of a document with editor, preview and transport.
package document

import (
	"encoding/json"
	"errors"
	"fmt"

	"mdsync/common"
)

// ErrNoSelection is returned by style operations when no element is
// selected.
var ErrNoSelection = errors.New("no element selected")

// ErrBusy is returned when an event arrives while another one is being
// processed and reentry policy drops it.
var ErrBusy = errors.New("conversion in progress, event dropped")

// ErrSelectionDisabled is returned when an element is picked while
// selection mode is off.
var ErrSelectionDisabled = errors.New("selection mode is off")

// Representation is one textual form of the document. Revision grows with
// every change of the text.
type Representation struct {
	Mode     common.Mode
	Text     string
	Revision uint64
}

// Editor is the text editing widget. It shows one representation at a time.
type Editor interface {
	Text() string
	SetText(text string)
	ScrollPercentage() float64
	SetScrollPercentage(p float64)
	SetLanguageMode(mode common.Mode)
}

// Preview renders html with stylesheet in a sandbox.
type Preview interface {
	Render(html, css string)
	SetScrollPercentage(p float64)
	SetSelectionModeEnabled(enabled bool)
}

// Transport relays content changes between peers. Handlers may be called on
// any goroutine.
type Transport interface {
	Send(event string, payload []byte) error
	Subscribe(event string, handler func(payload []byte)) (unsubscribe func(), err error)
}

// Converter keeps markdown and html representations in step.
type Converter interface {
	MarkdownToHTML(md string) (string, error)
	HTMLToMarkdown(html string) (string, error)
}

// Observer is notified after representation changed and preview was
// rendered.
type Observer func(rep Representation)

// ContentChange is the transport payload.
type ContentChange struct {
	Mode    common.Mode `json:"mode"`
	Content string      `json:"content"`
	Origin  string      `json:"origin,omitempty"`
}

// Marshal encodes payload.
func (c ContentChange) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// ParseContentChange decodes payload received from transport.
func ParseContentChange(data []byte) (ContentChange, error) {
	var c ContentChange
	if err := json.Unmarshal(data, &c); err != nil {
		return ContentChange{}, fmt.Errorf("bad content change payload: %w", err)
	}
	return c, nil
}

// Snapshot is what is persisted between sessions.
type Snapshot struct {
	Markdown string
	HTML     string
	CSS      string
	Active   common.Mode
}

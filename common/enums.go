// Package common holds enums shared by configuration, the coordinator and
// the wire payloads, so none of them has to import the others.
package common

//go:generate go tool go-enum --marshal --names --values

// Textual representation of a document.
// ENUM(markdown, html, css)
type Mode int

// Language mode editors should switch to for the representation.
func (m Mode) Language() string {
	switch m {
	case ModeMarkdown:
		return "markdown"
	case ModeHTML:
		return "html"
	case ModeCSS:
		return "css"
	default:
		return "plaintext"
	}
}

// Ext returns file extension used for the representation on disk.
func (m Mode) Ext() string {
	switch m {
	case ModeMarkdown:
		return ".md"
	case ModeHTML:
		return ".html"
	case ModeCSS:
		return ".css"
	default:
		// this should never happen
		panic("unsupported representation requested")
	}
}

// What to do with an edit arriving while a conversion is in flight.
// ENUM(drop, queue)
type ReentryPolicy int

// Real-time transport used to relay content changes between peers.
// ENUM(none, memory, nats, redis)
type TransportKind int

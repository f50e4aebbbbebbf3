package document

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mdsync/common"
	"mdsync/config"
	"mdsync/css"
	"mdsync/dom"
	"mdsync/style"
	"mdsync/viewsync"
)

// State of the coordinator.
type State int

const (
	StateIdle State = iota
	StateConverting
)

func (s State) String() string {
	if s == StateConverting {
		return "converting"
	}
	return "idle"
}

// source of a change decides whether it is broadcast and whether editor
// has to be refreshed.
type source int

const (
	sourceEditor source = iota
	sourceRemote
	sourceTool
)

// Coordinator owns the representations. It is single threaded: all methods
// must be called from one goroutine (see Loop).
type Coordinator struct {
	log     *zap.Logger
	conv    Converter
	parser  *css.Parser
	editor  Editor
	preview Preview
	tr      Transport
	post    func(func())

	channel string
	origin  string
	policy  common.ReentryPolicy
	marker  string

	reps      [3]Representation
	rules     *css.RuleSet
	active    common.Mode
	state     State
	queue     []func()
	session   *style.Session
	selecting bool

	link        *viewsync.Link
	linkOpts    []viewsync.LinkOption
	observers   []Observer
	unsubscribe func()
}

// Option configures Coordinator.
type Option func(*Coordinator)

// WithEditor attaches editor.
func WithEditor(e Editor) Option {
	return func(c *Coordinator) {
		c.editor = e
	}
}

// WithPreview attaches preview.
func WithPreview(p Preview) Option {
	return func(c *Coordinator) {
		c.preview = p
	}
}

// WithTransport attaches transport, content changes are relayed over it
// after Start.
func WithTransport(t Transport) Option {
	return func(c *Coordinator) {
		c.tr = t
	}
}

// WithObserver adds observer.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		c.observers = append(c.observers, o)
	}
}

// WithOrigin sets identity used to recognize own transport messages.
func WithOrigin(origin string) Option {
	return func(c *Coordinator) {
		c.origin = origin
	}
}

// WithPoster routes transport callbacks, normally Loop.Post.
func WithPoster(post func(func())) Option {
	return func(c *Coordinator) {
		c.post = post
	}
}

// WithLinkOptions passes options to scroll link.
func WithLinkOptions(opts ...viewsync.LinkOption) Option {
	return func(c *Coordinator) {
		c.linkOpts = append(c.linkOpts, opts...)
	}
}

// New creates coordinator with initial documents from configuration. Html
// representation is derived from initial markdown.
func New(cfg *config.Config, conv Converter, log *zap.Logger, opts ...Option) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Coordinator{
		log:     log.Named("coordinator"),
		conv:    conv,
		parser:  css.NewParser(log),
		channel: cfg.Transport.Channel,
		policy:  cfg.Session.Reentry,
		marker:  cfg.Session.SelectionMarker,
		active:  common.ModeMarkdown,
		post:    func(fn func()) { fn() },
	}
	for _, o := range opts {
		o(c)
	}
	if c.origin == "" {
		c.origin = uuid.NewString()
	}
	c.link = viewsync.NewLink(cfg.Session.ScrollLock,
		func(p float64) {
			if c.editor != nil {
				c.editor.SetScrollPercentage(p)
			}
		},
		func(p float64) {
			if c.preview != nil {
				c.preview.SetScrollPercentage(p)
			}
		},
		c.linkOpts...)

	for _, m := range common.ModeValues() {
		c.reps[m].Mode = m
	}
	c.set(common.ModeMarkdown, cfg.Document.Initial.Markdown)
	c.set(common.ModeCSS, cfg.Document.Initial.CSS)
	c.derive(common.ModeMarkdown)
	c.rules = c.parser.Parse(c.reps[common.ModeCSS].Text, "initial")
	return c
}

// Start subscribes to transport, shows active representation in editor and
// renders preview.
func (c *Coordinator) Start() error {
	if c.tr != nil {
		unsub, err := c.tr.Subscribe(c.channel, func(payload []byte) {
			c.post(func() { c.HandleRemote(payload) })
		})
		if err != nil {
			return fmt.Errorf("unable to subscribe to %q: %w", c.channel, err)
		}
		c.unsubscribe = unsub
	}
	c.showActive()
	c.render()
	return nil
}

// Close stops listening for remote changes.
func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// Origin returns identity stamped on outgoing content changes.
func (c *Coordinator) Origin() string {
	return c.origin
}

// State returns current state.
func (c *Coordinator) State() State {
	return c.state
}

// Active returns representation shown in editor.
func (c *Coordinator) Active() common.Mode {
	return c.active
}

// Representation returns copy of the representation.
func (c *Coordinator) Representation(mode common.Mode) Representation {
	return c.reps[mode]
}

// Rules returns current rule store.
func (c *Coordinator) Rules() *css.RuleSet {
	return c.rules
}

// HandleEdit processes local edit of a representation.
func (c *Coordinator) HandleEdit(mode common.Mode, text string) {
	c.dispatch("edit", func() {
		c.apply(mode, text, sourceEditor)
	})
}

// HandleRemote processes content change received from transport. Own
// messages are ignored.
func (c *Coordinator) HandleRemote(payload []byte) {
	msg, err := ParseContentChange(payload)
	if err != nil {
		c.log.Warn("Ignoring remote change", zap.Error(err))
		return
	}
	if msg.Origin != "" && msg.Origin == c.origin {
		return
	}
	c.dispatch("remote", func() {
		c.apply(msg.Mode, msg.Content, sourceRemote)
	})
}

// Activate switches editor to representation.
func (c *Coordinator) Activate(mode common.Mode) {
	c.dispatch("activate", func() {
		c.active = mode
		c.showActive()
	})
}

func (c *Coordinator) showActive() {
	// stylesheet position has nothing to do with preview position
	c.link.SetEnabled(c.active != common.ModeCSS)
	if c.editor == nil {
		return
	}
	c.editor.SetLanguageMode(c.active)
	c.editor.SetText(c.reps[c.active].Text)
}

// UpdateElement replaces id and classes of element addressed by path in
// html representation. Markdown is regenerated.
func (c *Coordinator) UpdateElement(path, id, classes string) error {
	var res error
	if err := c.dispatch("update-element", func() {
		res = c.updateElement(path, id, classes)
	}); err != nil {
		return err
	}
	return res
}

func (c *Coordinator) updateElement(path, id, classes string) error {
	p, err := dom.ParseSelectorPath(path)
	if err != nil {
		return err
	}
	d, err := dom.Parse(c.reps[common.ModeHTML].Text)
	if err != nil {
		return err
	}
	node, err := d.Resolve(p)
	if err != nil {
		c.log.Warn("Element update skipped", zap.String("path", path), zap.Error(err))
		return err
	}
	d.SetIdentity(node, id, strings.Fields(classes))
	out, err := d.BodyHTML()
	if err != nil {
		return err
	}
	c.apply(common.ModeHTML, out, sourceTool)
	return nil
}

// EditorScrolled reports editor scroll position.
func (c *Coordinator) EditorScrolled(p float64) {
	c.link.Report(viewsync.PaneEditor, p)
}

// PreviewScrolled reports preview scroll position.
func (c *Coordinator) PreviewScrolled(p float64) {
	c.link.Report(viewsync.PanePreview, p)
}

// dispatch runs event unless conversion is already in progress, in which
// case event is dropped (ErrBusy) or queued according to policy. Queued
// events are replayed in order once current one completes.
func (c *Coordinator) dispatch(name string, fn func()) error {
	if c.state == StateConverting {
		if c.policy == common.ReentryPolicyQueue {
			c.log.Debug("Event queued", zap.String("event", name))
			c.queue = append(c.queue, fn)
			return nil
		}
		c.log.Debug("Event dropped", zap.String("event", name))
		return ErrBusy
	}
	c.process(name, fn)
	for len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]
		c.process(name, next)
	}
	return nil
}

func (c *Coordinator) process(name string, fn func()) {
	c.state = StateConverting
	defer func() {
		c.state = StateIdle
		if r := recover(); r != nil {
			c.log.Error("Event handler failed", zap.String("event", name), zap.Any("panic", r))
		}
	}()
	fn()
}

// set updates representation text, returns false when text is unchanged.
func (c *Coordinator) set(mode common.Mode, text string) bool {
	r := &c.reps[mode]
	if r.Text == text {
		return false
	}
	r.Text = text
	r.Revision++
	return true
}

// derive regenerates the other side of markdown/html pair. On degraded
// conversion derived representation keeps its text.
func (c *Coordinator) derive(from common.Mode) (common.Mode, bool) {
	var (
		to  common.Mode
		out string
		err error
	)
	switch from {
	case common.ModeMarkdown:
		to = common.ModeHTML
		out, err = c.conv.MarkdownToHTML(c.reps[from].Text)
	case common.ModeHTML:
		to = common.ModeMarkdown
		out, err = c.conv.HTMLToMarkdown(c.reps[from].Text)
	default:
		return from, false
	}
	if err != nil {
		c.log.Warn("Conversion failed, keeping previous text", zap.Stringer("from", from), zap.Stringer("to", to), zap.Error(err))
		return to, false
	}
	return to, c.set(to, out)
}

func (c *Coordinator) apply(mode common.Mode, text string, src source) {
	if !mode.IsValid() {
		c.log.Warn("Unknown representation", zap.Stringer("mode", mode))
		return
	}
	if !c.set(mode, text) {
		return
	}
	changed := []common.Mode{mode}
	switch mode {
	case common.ModeCSS:
		c.rules = c.parser.Parse(text, "stylesheet")
		for _, w := range c.rules.Warnings() {
			c.log.Debug("Stylesheet block skipped", zap.Error(w))
		}
	default:
		if to, ok := c.derive(mode); ok {
			changed = append(changed, to)
		}
	}
	if src != sourceRemote {
		c.broadcast(mode, text)
	}
	c.render()
	for _, m := range changed {
		c.notify(c.reps[m])
	}
	if c.editor != nil && (src != sourceEditor || c.active != mode) && c.editorStale() {
		c.editor.SetText(c.reps[c.active].Text)
	}
}

func (c *Coordinator) editorStale() bool {
	return c.editor.Text() != c.reps[c.active].Text
}

func (c *Coordinator) broadcast(mode common.Mode, text string) {
	if c.tr == nil {
		return
	}
	payload, err := ContentChange{Mode: mode, Content: text, Origin: c.origin}.Marshal()
	if err != nil {
		c.log.Warn("Unable to encode content change", zap.Error(err))
		return
	}
	if err := c.tr.Send(c.channel, payload); err != nil {
		c.log.Warn("Unable to send content change", zap.Stringer("mode", mode), zap.Error(err))
	}
}

// stylesheet returns what preview gets: document stylesheet with live
// overlay appended.
func (c *Coordinator) stylesheet() string {
	sheet := c.reps[common.ModeCSS].Text
	if c.session == nil {
		return sheet
	}
	overlay := c.session.Overlay()
	if overlay == "" {
		return sheet
	}
	if sheet == "" {
		return overlay
	}
	return sheet + "\n\n" + overlay
}

func (c *Coordinator) render() {
	if c.preview != nil {
		c.preview.Render(c.reps[common.ModeHTML].Text, c.stylesheet())
	}
}

func (c *Coordinator) notify(rep Representation) {
	for _, o := range c.observers {
		o(rep)
	}
}

// Snapshot returns representations for persistence.
func (c *Coordinator) Snapshot() Snapshot {
	return Snapshot{
		Markdown: c.reps[common.ModeMarkdown].Text,
		HTML:     c.reps[common.ModeHTML].Text,
		CSS:      c.reps[common.ModeCSS].Text,
		Active:   c.active,
	}
}

// Restore replaces representations with snapshot. Nothing is broadcast.
func (c *Coordinator) Restore(s Snapshot) {
	c.dispatch("restore", func() {
		for m, text := range map[common.Mode]string{
			common.ModeMarkdown: s.Markdown,
			common.ModeHTML:     s.HTML,
			common.ModeCSS:      s.CSS,
		} {
			c.set(m, text)
		}
		c.rules = c.parser.Parse(s.CSS, "snapshot")
		if s.Active.IsValid() {
			c.active = s.Active
		}
		c.session = nil
		c.showActive()
		c.render()
	})
}

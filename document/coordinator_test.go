package document_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"mdsync/common"
	"mdsync/config"
	"mdsync/convert"
	"mdsync/document"
	"mdsync/dom"
	"mdsync/viewsync"
)

type fakeEditor struct {
	text   string
	lang   common.Mode
	scroll float64
	sets   int
	onSet  func(string)
}

func (e *fakeEditor) Text() string { return e.text }
func (e *fakeEditor) ScrollPercentage() float64 { return e.scroll }
func (e *fakeEditor) SetScrollPercentage(p float64) { e.scroll = p }
func (e *fakeEditor) SetLanguageMode(m common.Mode) { e.lang = m }

func (e *fakeEditor) SetText(text string) {
	e.text = text
	e.sets++
	if fn := e.onSet; fn != nil {
		e.onSet = nil
		fn(text)
	}
}

type fakePreview struct {
	html, css string
	renders   int
	scroll    float64
	selecting bool
}

func (p *fakePreview) Render(html, css string) {
	p.html, p.css = html, css
	p.renders++
}
func (p *fakePreview) SetScrollPercentage(v float64) { p.scroll = v }
func (p *fakePreview) SetSelectionModeEnabled(on bool) { p.selecting = on }

type fakeTransport struct {
	sent     []document.ContentChange
	handlers map[string]func([]byte)
}

func (t *fakeTransport) Send(event string, payload []byte) error {
	msg, err := document.ParseContentChange(payload)
	if err != nil {
		return err
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *fakeTransport) Subscribe(event string, handler func([]byte)) (func(), error) {
	if t.handlers == nil {
		t.handlers = make(map[string]func([]byte))
	}
	t.handlers[event] = handler
	return func() { delete(t.handlers, event) }, nil
}

func (ft *fakeTransport) deliver(t *testing.T, event string, msg document.ContentChange) {
	t.Helper()
	h, ok := ft.handlers[event]
	if !ok {
		t.Fatalf("no subscription for %q", event)
	}
	payload, err := msg.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	h(payload)
}

// stubConverter fails or panics on demand, otherwise wraps text.
type stubConverter struct{}

func (stubConverter) MarkdownToHTML(md string) (string, error) {
	switch {
	case strings.Contains(md, "boom"):
		panic("boom")
	case strings.Contains(md, "bad"):
		return md, fmt.Errorf("%w: broken", convert.ErrConversionDegraded)
	}
	return "<p>" + md + "</p>", nil
}

func (stubConverter) HTMLToMarkdown(html string) (string, error) {
	return strings.TrimSuffix(strings.TrimPrefix(html, "<p>"), "</p>"), nil
}

func testConfig(policy common.ReentryPolicy) *config.Config {
	return &config.Config{
		Document: config.DocumentConfig{
			DiagramLanguage: "mermaid",
			Initial: config.InitialConfig{
				Markdown: "# Hello",
				CSS:      "body {\n  margin: 0;\n}",
			},
		},
		Session: config.SessionConfig{
			Reentry:         policy,
			ScrollLock:      120 * time.Millisecond,
			SelectionMarker: viewsync.DefaultMarker,
		},
		Transport: config.TransportConfig{Channel: "content-change"},
	}
}

type harness struct {
	c       *document.Coordinator
	editor  *fakeEditor
	preview *fakePreview
	tr      *fakeTransport
	changes []document.Representation
}

func newHarness(t *testing.T, cfg *config.Config, conv document.Converter, opts ...document.Option) *harness {
	t.Helper()
	h := &harness{editor: &fakeEditor{}, preview: &fakePreview{}, tr: &fakeTransport{}}
	if conv == nil {
		conv = convert.New(&cfg.Document, zaptest.NewLogger(t))
	}
	opts = append([]document.Option{
		document.WithEditor(h.editor),
		document.WithPreview(h.preview),
		document.WithTransport(h.tr),
		document.WithOrigin("local"),
		document.WithObserver(func(r document.Representation) { h.changes = append(h.changes, r) }),
	}, opts...)
	h.c = document.New(cfg, conv, zaptest.NewLogger(t), opts...)
	if err := h.c.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(h.c.Close)
	return h
}

func TestNew_InitialDocuments(t *testing.T) {
	h := newHarness(t, testConfig(common.ReentryPolicyDrop), nil)

	if got := h.c.Representation(common.ModeHTML).Text; !strings.Contains(got, "<h1>Hello</h1>") {
		t.Errorf("initial html = %q", got)
	}
	if h.editor.text != "# Hello" || h.editor.lang != common.ModeMarkdown {
		t.Errorf("editor shows %q in %s", h.editor.text, h.editor.lang)
	}
	if h.preview.renders != 1 || !strings.Contains(h.preview.css, "margin: 0") {
		t.Errorf("preview renders = %d, css = %q", h.preview.renders, h.preview.css)
	}
	if _, ok := h.c.Rules().Rule("body"); !ok {
		t.Error("initial stylesheet not parsed")
	}
}

func TestHandleEdit_Markdown(t *testing.T) {
	h := newHarness(t, testConfig(common.ReentryPolicyDrop), nil)
	sets := h.editor.sets
	rev := h.c.Representation(common.ModeHTML).Revision

	h.c.HandleEdit(common.ModeMarkdown, "## Changed")

	html := h.c.Representation(common.ModeHTML)
	if !strings.Contains(html.Text, "<h2>Changed</h2>") || html.Revision != rev+1 {
		t.Errorf("html = %+v", html)
	}
	if h.preview.html != html.Text {
		t.Errorf("preview html = %q", h.preview.html)
	}
	if len(h.tr.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(h.tr.sent))
	}
	if msg := h.tr.sent[0]; msg.Mode != common.ModeMarkdown || msg.Content != "## Changed" || msg.Origin != "local" {
		t.Errorf("sent %+v", msg)
	}
	if len(h.changes) != 2 || h.changes[0].Mode != common.ModeMarkdown || h.changes[1].Mode != common.ModeHTML {
		t.Errorf("observer got %+v", h.changes)
	}
	if h.editor.sets != sets {
		t.Error("editor showing authored representation was rewritten")
	}
	if h.c.State() != document.StateIdle {
		t.Errorf("State() = %s", h.c.State())
	}
}

func TestHandleEdit_SameTextIsNoop(t *testing.T) {
	h := newHarness(t, testConfig(common.ReentryPolicyDrop), nil)
	renders := h.preview.renders

	h.c.HandleEdit(common.ModeMarkdown, "# Hello")

	if h.preview.renders != renders || len(h.tr.sent) != 0 || len(h.changes) != 0 {
		t.Errorf("no-op edit caused renders=%d sent=%d changes=%d", h.preview.renders-renders, len(h.tr.sent), len(h.changes))
	}
}

func TestHandleEdit_CSS(t *testing.T) {
	h := newHarness(t, testConfig(common.ReentryPolicyDrop), nil)
	h.c.HandleEdit(common.ModeCSS, "h1 { color: red; }\n\nbroken")

	if _, ok := h.c.Rules().Rule("h1"); !ok {
		t.Error("stylesheet edit not parsed")
	}
	if len(h.c.Rules().Warnings()) == 0 {
		t.Error("malformed block not reported")
	}
	if !strings.Contains(h.preview.css, "color: red") {
		t.Errorf("preview css = %q", h.preview.css)
	}
	if md := h.c.Representation(common.ModeMarkdown); md.Text != "# Hello" {
		t.Errorf("markdown changed by stylesheet edit: %q", md.Text)
	}
}

func TestHandleRemote(t *testing.T) {
	h := newHarness(t, testConfig(common.ReentryPolicyDrop), nil)

	h.tr.deliver(t, "content-change", document.ContentChange{Mode: common.ModeMarkdown, Content: "own", Origin: "local"})
	if h.c.Representation(common.ModeMarkdown).Text != "# Hello" {
		t.Fatal("own echo applied")
	}

	h.tr.deliver(t, "content-change", document.ContentChange{Mode: common.ModeHTML, Content: "<p>remote <em>text</em></p>", Origin: "peer"})
	md := h.c.Representation(common.ModeMarkdown).Text
	if strings.TrimSpace(md) != "remote *text*" {
		t.Errorf("markdown = %q", md)
	}
	if len(h.tr.sent) != 0 {
		t.Errorf("remote change re-broadcast: %+v", h.tr.sent)
	}
	// editor shows markdown which is derived here
	if h.editor.text != md {
		t.Errorf("editor text = %q, want %q", h.editor.text, md)
	}

	h.c.Close()
	if len(h.tr.handlers) != 0 {
		t.Error("Close() did not unsubscribe")
	}
}

func TestHandleRemote_BadPayload(t *testing.T) {
	h := newHarness(t, testConfig(common.ReentryPolicyDrop), nil)
	h.c.HandleRemote([]byte(`{"mode":"rtf","content":"x"}`))
	h.c.HandleRemote([]byte(`not json`))
	if h.c.Representation(common.ModeMarkdown).Text != "# Hello" {
		t.Error("bad payload changed document")
	}
}

func TestReentry(t *testing.T) {
	tests := []struct {
		name     string
		policy   common.ReentryPolicy
		wantHTML string
	}{
		{"drop", common.ReentryPolicyDrop, "<p>## Changed</p>"},
		{"queue", common.ReentryPolicyQueue, "<p>echo</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, testConfig(tt.policy), stubConverter{})
			h.c.Activate(common.ModeHTML)

			// editor reports programmatic update as an edit while the
			// markdown edit is still being processed
			h.editor.onSet = func(string) {
				h.c.HandleEdit(common.ModeHTML, "<p>echo</p>")
			}
			h.c.HandleEdit(common.ModeMarkdown, "## Changed")

			if got := h.c.Representation(common.ModeHTML).Text; got != tt.wantHTML {
				t.Errorf("html = %q, want %q", got, tt.wantHTML)
			}
			if h.c.State() != document.StateIdle {
				t.Errorf("State() = %s", h.c.State())
			}
		})
	}
}

func TestHandleEdit_DegradedKeepsDerived(t *testing.T) {
	h := newHarness(t, testConfig(common.ReentryPolicyDrop), stubConverter{})
	before := h.c.Representation(common.ModeHTML)

	h.c.HandleEdit(common.ModeMarkdown, "bad input")

	if got := h.c.Representation(common.ModeMarkdown).Text; got != "bad input" {
		t.Errorf("markdown = %q", got)
	}
	if got := h.c.Representation(common.ModeHTML); got != before {
		t.Errorf("html = %+v, want unchanged %+v", got, before)
	}
}

func TestHandleEdit_PanicReleasesState(t *testing.T) {
	h := newHarness(t, testConfig(common.ReentryPolicyDrop), stubConverter{})

	h.c.HandleEdit(common.ModeMarkdown, "boom")
	if h.c.State() != document.StateIdle {
		t.Fatalf("State() = %s after panic", h.c.State())
	}
	h.c.HandleEdit(common.ModeMarkdown, "fine")
	if got := h.c.Representation(common.ModeHTML).Text; got != "<p>fine</p>" {
		t.Errorf("html = %q", got)
	}
}

func selection(t *testing.T, path string, computed map[string]string) viewsync.Selection {
	t.Helper()
	sel, err := viewsync.FromMessage(viewsync.ElementClicked{Path: path, Styles: computed}, "")
	if err != nil {
		t.Fatal(err)
	}
	return sel
}

func TestStyleFlow(t *testing.T) {
	h := newHarness(t, testConfig(common.ReentryPolicyDrop), nil)

	if err := h.c.EditStyle("color", "red"); !errors.Is(err, document.ErrNoSelection) {
		t.Errorf("EditStyle() without selection error = %v", err)
	}

	h.c.SetSelectionMode(true)
	if !h.preview.selecting || !h.c.SelectionMode() {
		t.Fatal("selection mode not enabled")
	}
	if err := h.c.ElementClicked(selection(t, "h2.title.selection-mode", map[string]string{"color": "rgb(0, 0, 0)"})); err != nil {
		t.Fatalf("ElementClicked() error = %v", err)
	}
	if err := h.c.EditColor("color", "rgb(255, 0, 0)"); err != nil {
		t.Fatalf("EditColor() error = %v", err)
	}
	if err := h.c.EditStyle("display", "block"); err != nil {
		t.Fatalf("EditStyle() error = %v", err)
	}
	if !strings.Contains(h.preview.css, "h2.title {\n  color: #ff0000 !important;\n}") {
		t.Errorf("preview css has no overlay:\n%s", h.preview.css)
	}
	if strings.Contains(h.c.Representation(common.ModeCSS).Text, "#ff0000") {
		t.Error("overlay leaked into stylesheet before apply")
	}

	if err := h.c.ApplyStyle(); err != nil {
		t.Fatalf("ApplyStyle() error = %v", err)
	}
	want := "body {\n  margin: 0;\n}\n\nh2.title {\n  color: #ff0000;\n}"
	if got := h.c.Representation(common.ModeCSS).Text; got != want {
		t.Errorf("stylesheet =\n%s\nwant\n%s", got, want)
	}
	if h.preview.css != want {
		t.Errorf("preview css =\n%s\nwant\n%s", h.preview.css, want)
	}
	if h.c.StyleSession() != nil {
		t.Error("style session not cleared")
	}
	if n := len(h.tr.sent); n != 1 || h.tr.sent[0].Mode != common.ModeCSS {
		t.Errorf("sent %+v", h.tr.sent)
	}
	if err := h.c.ApplyStyle(); !errors.Is(err, document.ErrNoSelection) {
		t.Errorf("second ApplyStyle() error = %v", err)
	}
}

func TestStyleFlow_CancelAndSelectionMode(t *testing.T) {
	h := newHarness(t, testConfig(common.ReentryPolicyDrop), nil)
	base := h.preview.css

	h.c.SetSelectionMode(true)
	_ = h.c.ElementClicked(selection(t, "p", nil))
	_ = h.c.EditStyle("font-size", "20px")
	if h.preview.css == base {
		t.Fatal("overlay not rendered")
	}
	h.c.CancelStyle()
	if h.preview.css != base || h.c.StyleSession() != nil {
		t.Error("CancelStyle() did not clear overlay")
	}

	_ = h.c.ElementClicked(selection(t, "p", nil))
	_ = h.c.EditStyle("font-size", "20px")
	h.c.SetSelectionMode(false)
	if h.preview.css != base || h.c.StyleSession() != nil {
		t.Error("leaving selection mode did not clear overlay")
	}
}

func TestStyleFlow_NestedSelector(t *testing.T) {
	cfg := testConfig(common.ReentryPolicyDrop)
	cfg.Document.Initial.CSS = "div > p.note {\n  font-family: Arial, sans-serif;\n}"
	h := newHarness(t, cfg, nil)
	h.c.SetSelectionMode(true)

	edit := func(value string) {
		t.Helper()
		if err := h.c.ElementClicked(selection(t, "div > p.note.selection-mode", nil)); err != nil {
			t.Fatalf("ElementClicked() error = %v", err)
		}
		if err := h.c.EditStyle("color", value); err != nil {
			t.Fatalf("EditStyle() error = %v", err)
		}
		if err := h.c.ApplyStyle(); err != nil {
			t.Fatalf("ApplyStyle() error = %v", err)
		}
	}

	edit("red")
	edit("red")
	want := "div > p.note {\n  font-family: Arial, sans-serif;\n  color: red;\n}"
	if got := h.c.Representation(common.ModeCSS).Text; got != want {
		t.Errorf("stylesheet after repeated apply =\n%s\nwant\n%s", got, want)
	}
	if n := h.c.Rules().Len(); n != 1 {
		t.Errorf("Rules().Len() = %d, want 1", n)
	}

	edit("")
	want = "div > p.note {\n  font-family: Arial, sans-serif;\n}"
	if got := h.c.Representation(common.ModeCSS).Text; got != want {
		t.Errorf("stylesheet after removal =\n%s\nwant\n%s", got, want)
	}
}

func TestElementClicked_RequiresSelectionMode(t *testing.T) {
	h := newHarness(t, testConfig(common.ReentryPolicyDrop), nil)

	if err := h.c.ElementClicked(selection(t, "p", nil)); !errors.Is(err, document.ErrSelectionDisabled) {
		t.Errorf("ElementClicked() error = %v, want ErrSelectionDisabled", err)
	}
	if h.c.StyleSession() != nil {
		t.Error("style session opened with selection mode off")
	}
}

func TestUpdateElement_DroppedWhileBusy(t *testing.T) {
	cfg := testConfig(common.ReentryPolicyDrop)
	cfg.Document.Initial.Markdown = "## Title"
	h := newHarness(t, cfg, nil)
	h.c.Activate(common.ModeHTML)

	var busy error
	h.editor.onSet = func(string) {
		busy = h.c.UpdateElement("h2", "x", "")
	}
	h.c.HandleEdit(common.ModeMarkdown, "## Other")

	if !errors.Is(busy, document.ErrBusy) {
		t.Errorf("UpdateElement() during conversion error = %v, want ErrBusy", busy)
	}
	if got := h.c.Representation(common.ModeHTML).Text; strings.Contains(got, `id="x"`) {
		t.Errorf("dropped update was applied: %q", got)
	}
}

func TestUpdateElement(t *testing.T) {
	cfg := testConfig(common.ReentryPolicyDrop)
	cfg.Document.Initial.Markdown = "## Title\n\ntext"
	h := newHarness(t, cfg, nil)

	if err := h.c.UpdateElement("h2", "sec1", "big  wide"); err != nil {
		t.Fatalf("UpdateElement() error = %v", err)
	}
	if got := h.c.Representation(common.ModeHTML).Text; !strings.Contains(got, `<h2 id="sec1" class="big wide">Title</h2>`) {
		t.Errorf("html = %q", got)
	}
	if got := h.c.Representation(common.ModeMarkdown).Text; !strings.Contains(got, "## Title {#sec1 .big .wide}") {
		t.Errorf("markdown = %q", got)
	}

	before := h.c.Snapshot()
	if err := h.c.UpdateElement("section > h2", "x", ""); !errors.Is(err, dom.ErrSelectorNotFound) {
		t.Errorf("UpdateElement() error = %v, want ErrSelectorNotFound", err)
	}
	if h.c.Snapshot() != before {
		t.Error("failed update changed document")
	}
}

func TestScrollSync(t *testing.T) {
	now := time.Unix(100, 0)
	h := newHarness(t, testConfig(common.ReentryPolicyDrop), nil,
		document.WithLinkOptions(viewsync.WithClock(func() time.Time { return now })))

	h.c.EditorScrolled(0.5)
	if h.preview.scroll != 0.5 {
		t.Errorf("preview scroll = %v, want 0.5", h.preview.scroll)
	}
	// echo of programmatic preview scroll
	h.c.PreviewScrolled(0.4)
	if h.editor.scroll != 0 {
		t.Errorf("editor scroll = %v, echo was not suppressed", h.editor.scroll)
	}

	now = now.Add(time.Second)
	h.c.Activate(common.ModeCSS)
	h.c.EditorScrolled(0.9)
	if h.preview.scroll != 0.5 {
		t.Errorf("stylesheet editor scroll moved preview to %v", h.preview.scroll)
	}
	if h.editor.lang != common.ModeCSS || h.editor.text != h.c.Representation(common.ModeCSS).Text {
		t.Error("Activate() did not switch editor")
	}
}

func TestSnapshotRestore(t *testing.T) {
	h := newHarness(t, testConfig(common.ReentryPolicyDrop), nil)
	snap := document.Snapshot{
		Markdown: "restored",
		HTML:     "<p>restored</p>",
		CSS:      "p {\n  color: blue;\n}",
		Active:   common.ModeHTML,
	}
	h.c.Restore(snap)

	if got := h.c.Snapshot(); got != snap {
		t.Errorf("Snapshot() = %+v, want %+v", got, snap)
	}
	if h.editor.text != snap.HTML || h.editor.lang != common.ModeHTML {
		t.Errorf("editor shows %q", h.editor.text)
	}
	if h.preview.html != snap.HTML || h.preview.css != snap.CSS {
		t.Error("preview not refreshed on restore")
	}
	if len(h.tr.sent) != 0 {
		t.Error("restore was broadcast")
	}
}

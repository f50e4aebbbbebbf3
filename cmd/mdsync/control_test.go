package main

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"mdsync/common"
	"mdsync/config"
	"mdsync/convert"
	"mdsync/document"
	"mdsync/preview"
)

func newTestController(t *testing.T) (*controller, *preview.Headless, *bytes.Buffer) {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Document.Initial.Markdown = "# Title\n\nSome text."
	cfg.Document.Initial.CSS = "body {\n  margin: 0;\n}"

	log := zaptest.NewLogger(t)
	pv := preview.NewHeadless(log)
	coord := document.New(cfg, convert.New(&cfg.Document, log), log, document.WithPreview(pv))
	if err := coord.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	var out bytes.Buffer
	return &controller{coord: coord, picker: pv, out: &out}, pv, &out
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"", nil, false},
		{"  apply ", []string{"apply"}, false},
		{`select "body > h1" color=red`, []string{"select", "body > h1", "color=red"}, false},
		{`id h1 "" lead`, []string{"id", "h1", "", "lead"}, false},
		{`set "font-size`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitCommand(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("splitCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestController_StyleFlow(t *testing.T) {
	ctl, pv, out := newTestController(t)

	if err := ctl.exec("select h1"); err == nil {
		t.Fatal("select with selection mode off expected to fail")
	}
	for _, line := range []string{
		"selection on",
		"select h1 color=rgb(0,0,0) display=block",
		"color color #ff0000",
		"set font-size 24px",
	} {
		if err := ctl.exec(line); err != nil {
			t.Fatalf("exec(%q) error = %v", line, err)
		}
	}
	if !strings.Contains(out.String(), "selected h1") {
		t.Errorf("select output = %q", out.String())
	}
	if _, css := pv.Content(); !strings.Contains(css, "font-size: 24px !important") {
		t.Errorf("preview stylesheet lacks overlay:\n%s", css)
	}

	if err := ctl.exec("apply"); err != nil {
		t.Fatalf("apply error = %v", err)
	}
	got := ctl.coord.Representation(common.ModeCSS).Text
	for _, want := range []string{"h1 {", "color: #ff0000;", "font-size: 24px;"} {
		if !strings.Contains(got, want) {
			t.Errorf("stylesheet lacks %q:\n%s", want, got)
		}
	}
	if err := ctl.exec("apply"); err == nil {
		t.Error("apply without selection expected to fail")
	}
}

func TestController_Commands(t *testing.T) {
	ctl, _, out := newTestController(t)

	if err := ctl.exec(`id h1 intro lead big`); err != nil {
		t.Fatalf("id error = %v", err)
	}
	md := ctl.coord.Representation(common.ModeMarkdown).Text
	if !strings.Contains(md, "# Title {#intro .lead .big}") {
		t.Errorf("markdown after id = %q", md)
	}

	if err := ctl.exec("activate css"); err != nil {
		t.Fatalf("activate error = %v", err)
	}
	if ctl.coord.Active() != common.ModeCSS {
		t.Errorf("Active() = %s, want css", ctl.coord.Active())
	}

	if err := ctl.exec("scroll preview 0.5"); err != nil {
		t.Fatalf("scroll error = %v", err)
	}

	if err := ctl.exec("status"); err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out.String(), "active: css") {
		t.Errorf("status output = %q", out.String())
	}

	for _, bad := range []string{"bogus", "activate pdf", "scroll left 1", "selection maybe", "set color"} {
		if err := ctl.exec(bad); err == nil {
			t.Errorf("exec(%q) expected error", bad)
		}
	}
}

func TestWriteOutput(t *testing.T) {
	name := filepath.Join(t.TempDir(), "sub", "out.html")
	if err := writeOutput(name, []byte("one"), false); err != nil {
		t.Fatalf("writeOutput() error = %v", err)
	}
	if err := writeOutput(name, []byte("two"), false); err == nil {
		t.Error("writeOutput() without overwrite expected to fail")
	}
	if err := writeOutput(name, []byte("two"), true); err != nil {
		t.Fatalf("writeOutput() with overwrite error = %v", err)
	}
	data, _ := os.ReadFile(name)
	if string(data) != "two" {
		t.Errorf("file content = %q", data)
	}
}

func TestModeOf(t *testing.T) {
	for name, want := range map[string]common.Mode{
		"a.md":       common.ModeMarkdown,
		"b.MARKDOWN": common.ModeMarkdown,
		"c.htm":      common.ModeHTML,
		"d.css":      common.ModeCSS,
	} {
		got, err := modeOf(name)
		if err != nil || got != want {
			t.Errorf("modeOf(%q) = %s, %v, want %s", name, got, err, want)
		}
	}
	if _, err := modeOf("e.txt"); err == nil {
		t.Error("modeOf(e.txt) expected error")
	}
}

func TestPageTitle(t *testing.T) {
	if got := pageTitle("", "<p>x</p><h2>Second  <em>part</em></h2>"); got != "Second part" {
		t.Errorf("pageTitle() = %q", got)
	}
	if got := pageTitle("Given", "<h1>Ignored</h1>"); got != "Given" {
		t.Errorf("pageTitle() = %q", got)
	}
}

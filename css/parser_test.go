package css

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestParse_Basic(t *testing.T) {
	p := NewParser(zaptest.NewLogger(t))
	rs := p.Parse(`/* Add your styles here */

body {
  font-family: Arial, sans-serif;
}

h1,   h2
{ color: #ff0000; margin: 0 auto }`)

	if rs.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", rs.Len())
	}
	if err := rs.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}

	body, ok := rs.Rule("body")
	if !ok {
		t.Fatal("rule for body not found")
	}
	if d, _ := body.Get("font-family"); d.Value != "Arial, sans-serif" {
		t.Errorf("font-family = %q", d.Value)
	}

	group, ok := rs.Rule("h1, h2")
	if !ok {
		t.Fatal("grouped selector should be single key with collapsed whitespace")
	}
	if len(group.Declarations) != 2 {
		t.Fatalf("declarations = %v", group.Declarations)
	}
	if d := group.Declarations[1]; d.Property != "margin" || d.Value != "0 auto" {
		t.Errorf("second declaration = %+v", d)
	}
}

func TestParse_Important(t *testing.T) {
	rs := NewParser(nil).Parse(`p { color: red !important; font-weight: bold }`)

	r, _ := rs.Rule("p")
	d, ok := r.Get("color")
	if !ok {
		t.Fatal("color not parsed")
	}
	if d.Value != "red" || !d.Important {
		t.Errorf("color = %+v, want red with Important", d)
	}
	if strings.Contains(rs.Serialize(), "important") {
		t.Errorf("Serialize() must not write importance:\n%s", rs.Serialize())
	}
}

func TestParse_CommentsIgnored(t *testing.T) {
	rs := NewParser(nil).Parse(`/* a { color: red } */ b { /* inner */ color: blue; content: "/* not a comment */" }`)

	if rs.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", rs.Len())
	}
	r, ok := rs.Rule("b")
	if !ok {
		t.Fatal("rule b not found")
	}
	if d, _ := r.Get("content"); d.Value != `"/* not a comment */"` {
		t.Errorf("content = %q", d.Value)
	}
}

func TestParse_MalformedSkipped(t *testing.T) {
	rs := NewParser(zaptest.NewLogger(t)).Parse(`a { color: red } junk } .b { margin: 0 } {color: green} .c { color: blue`)

	if _, ok := rs.Rule("a"); !ok {
		t.Error("rule a should survive")
	}
	if _, ok := rs.Rule(".b"); !ok {
		t.Error("rule .b should survive")
	}
	if _, ok := rs.Rule(".c"); ok {
		t.Error("unterminated rule .c must be skipped")
	}

	warnings := rs.Warnings()
	if len(warnings) != 3 {
		t.Fatalf("Warnings() = %v, want 3", warnings)
	}
	for _, w := range warnings {
		if !errors.Is(w, ErrParseSkipped) {
			t.Errorf("warning %v does not wrap ErrParseSkipped", w)
		}
	}
	if !errors.Is(rs.Err(), ErrParseSkipped) {
		t.Errorf("Err() = %v", rs.Err())
	}
}

func TestParse_EmptyBlockSkipped(t *testing.T) {
	rs := NewParser(nil).Parse(`a {} b { color: red }`)
	if rs.Len() != 1 {
		t.Errorf("Len() = %d, want 1", rs.Len())
	}
	if len(rs.Warnings()) != 1 {
		t.Errorf("Warnings() = %v", rs.Warnings())
	}
}

func TestParse_DuplicateSelectorsMerged(t *testing.T) {
	rs := NewParser(nil).Parse(`a { color: red; margin: 0 } a { color: blue }`)
	want := "a {\n  color: blue;\n  margin: 0;\n}"
	if got := rs.Serialize(); got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}

func TestParse_AtRules(t *testing.T) {
	rs := NewParser(nil).Parse(`@import url("base.css");
@media print {
  .a { color: red }
  .b { color: blue }
}
@font-face { font-family: "Mono"; src: url(mono.woff) }
.a { color: green }`)

	if rs.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", rs.Len())
	}
	rules := rs.Rules()
	if !rules[0].Statement || rules[0].Selector != `@import url("base.css");` {
		t.Errorf("import = %+v", rules[0])
	}
	if rules[1].Nested == nil || rules[1].Nested.Len() != 2 {
		t.Errorf("media = %+v", rules[1])
	}
	if d, _ := rules[2].Get("font-family"); d.Value != `"Mono"` {
		t.Errorf("font-face family = %q", d.Value)
	}

	// nested rule does not shadow top level one
	a, _ := rs.Rule(".a")
	if d, _ := a.Get("color"); d.Value != "green" {
		t.Errorf(".a color = %q, want green", d.Value)
	}

	want := `@import url("base.css");

@media print {
  .a {
    color: red;
  }

  .b {
    color: blue;
  }
}

@font-face {
  font-family: "Mono";
  src: url(mono.woff);
}

.a {
  color: green;
}`
	if got := rs.Serialize(); got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormat_KeepsImportant(t *testing.T) {
	got := NewParser(nil).Format(`p{color:red!important;margin:0}`)
	want := "p {\n  color: red !important;\n  margin: 0;\n}"
	if got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a/*x*/b", "a b"},
		{`"/*"b`, `"/*"b`},
		{"a /* unterminated", "a "},
		{`'it\'s /* x */'`, `'it\'s /* x */'`},
	}
	for _, tt := range tests {
		if got := stripComments(tt.in); got != tt.want {
			t.Errorf("stripComments(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParse_SourceSpacingKept(t *testing.T) {
	rs := NewParser(zaptest.NewLogger(t)).Parse(`div > p.note ~ span, ul  +  li {
  font-family: "Helvetica Neue", Arial,  sans-serif;
  background: url(a;b.png) no-repeat;
  --gap : 1px / 2;
}`)

	if rs.Len() != 1 {
		t.Fatalf("Len() = %d, want 1: %v", rs.Len(), rs.Warnings())
	}
	r, ok := rs.Rule("div > p.note ~ span, ul + li")
	if !ok {
		t.Fatalf("rule not found, have %q", rs.Rules()[0].Selector)
	}
	tests := []struct {
		prop string
		want string
	}{
		{"font-family", `"Helvetica Neue", Arial, sans-serif`},
		{"background", "url(a;b.png) no-repeat"},
		{"--gap", "1px / 2"},
	}
	for _, tt := range tests {
		if d, _ := r.Get(tt.prop); d.Value != tt.want {
			t.Errorf("%s = %q, want %q", tt.prop, d.Value, tt.want)
		}
	}
}

func TestUpsert_AfterReparse(t *testing.T) {
	p := NewParser(nil)
	const selector = "div > p.note"

	rs := NewRuleSet().Upsert(selector, Decl("color", "red"))
	for i := range 3 {
		rs = p.Parse(rs.Serialize()).Upsert(selector, Decl("color", "red"))
		if rs.Len() != 1 {
			t.Fatalf("pass %d: Len() = %d\n%s", i, rs.Len(), rs.Serialize())
		}
	}
	rs = p.Parse(rs.Serialize()).Upsert(selector, Decl("color", ""))
	if got := rs.Serialize(); got != "" {
		t.Errorf("Serialize() after removal = %q, want empty", got)
	}
}

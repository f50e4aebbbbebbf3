package css

import (
	"strings"
	"testing"
)

func TestUpsert_Scenario(t *testing.T) {
	rs := NewRuleSet().Upsert("body", Decl("font-family", "Arial"))
	rs = rs.Upsert(".title", Decl("color", "#ff0000"))

	want := "body {\n  font-family: Arial;\n}\n\n.title {\n  color: #ff0000;\n}"
	if got := rs.Serialize(); got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	base := NewParser(nil).Parse("a { color: red }\n\nb { margin: 0 }")
	decls := []Declaration{Decl("color", "blue"), Decl("padding", "4px")}

	once := base.Upsert("a", decls...)
	twice := once.Upsert("a", decls...)
	if !once.Equal(twice) {
		t.Errorf("upsert is not idempotent:\n%s\n---\n%s", once.Serialize(), twice.Serialize())
	}

	// receiver is untouched
	if r, _ := base.Rule("a"); len(r.Declarations) != 1 || r.Declarations[0].Value != "red" {
		t.Errorf("original rule set modified: %+v", r)
	}

	r, _ := once.Rule("a")
	want := []Declaration{Decl("color", "blue"), Decl("padding", "4px")}
	if len(r.Declarations) != len(want) {
		t.Fatalf("declarations = %+v", r.Declarations)
	}
	for i := range want {
		if r.Declarations[i] != want[i] {
			t.Errorf("declaration %d = %+v, want %+v", i, r.Declarations[i], want[i])
		}
	}
}

func TestUpsert_EmptyValueRemoves(t *testing.T) {
	rs := NewRuleSet().Upsert("p", Decl("color", "red"), Decl("margin", "0"))
	rs = rs.Upsert("p", Decl("color", ""))

	r, _ := rs.Rule("p")
	if _, ok := r.Get("color"); ok {
		t.Error("color should be removed")
	}
	if got := rs.Serialize(); got != "p {\n  margin: 0;\n}" {
		t.Errorf("Serialize() = %q", got)
	}

	// rule without declarations disappears from output
	rs = rs.Upsert("p", Decl("margin", ""))
	if got := rs.Serialize(); got != "" {
		t.Errorf("Serialize() = %q, want empty", got)
	}
}

func TestUpsert_ExactSelector(t *testing.T) {
	rs := NewRuleSet().Upsert("div > p", Decl("color", "red"))
	rs = rs.Upsert("div  >   p", Decl("margin", "0"))
	rs = rs.Upsert("div p", Decl("padding", "0"))

	if rs.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (descendant and child selectors differ)", rs.Len())
	}
}

func TestUpsert_AtRuleRejected(t *testing.T) {
	rs := NewRuleSet().Upsert("@media print", Decl("color", "red"))
	if rs.Len() != 0 {
		t.Errorf("Len() = %d, want 0", rs.Len())
	}
}

func TestRemove(t *testing.T) {
	rs := NewRuleSet().Upsert("a", Decl("color", "red")).Upsert("b", Decl("color", "blue"))
	got := rs.Remove("a")
	if got.Len() != 1 || rs.Len() != 2 {
		t.Errorf("Remove() lengths = %d/%d, want 1/2", got.Len(), rs.Len())
	}
}

func TestSerializeOverlay(t *testing.T) {
	got := SerializeOverlay("div#main > p", []Declaration{Decl("color", "#ff0000"), Decl("margin-top", "")})
	want := "div#main > p {\n  color: #ff0000 !important;\n}"
	if got != want {
		t.Errorf("SerializeOverlay() =\n%s\nwant\n%s", got, want)
	}
	if got := SerializeOverlay("p", nil); got != "" {
		t.Errorf("SerializeOverlay() without declarations = %q", got)
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	src := "body {\n  font-family: Arial, sans-serif;\n}\n\n.title {\n  color: #ff0000;\n}"
	rs := NewParser(nil).Parse(src)
	if got := rs.Serialize(); got != src {
		t.Errorf("Serialize(Parse()) =\n%s\nwant\n%s", got, src)
	}
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in      string
		want    Declaration
		wantErr bool
	}{
		{"color=red", Declaration{Property: "color", Value: "red"}, false},
		{"Margin-Top: 4px;", Declaration{Property: "margin-top", Value: "4px"}, false},
		{"color=", Declaration{Property: "color"}, false},
		{"color = red !important", Declaration{Property: "color", Value: "red", Important: true}, false},
		{"--Main-Color=#fff", Declaration{Property: "--Main-Color", Value: "#fff"}, false},
		{"color", Declaration{}, true},
		{"=red", Declaration{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAssignment(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAssignment() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAssignment() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPretty_KeepsImportant(t *testing.T) {
	rs := NewRuleSet().Upsert("p", Declaration{Property: "color", Value: "red", Important: true})
	if got, want := rs.Pretty(), "p {\n  color: red !important;\n}"; got != want {
		t.Errorf("Pretty() = %q, want %q", got, want)
	}
	if strings.Contains(rs.Serialize(), "important") {
		t.Error("Serialize() wrote importance")
	}
}

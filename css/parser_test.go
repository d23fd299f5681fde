package css_test

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"atomcss/css"
)

func TestParser_PlainRule(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`.hello { width: 10px; height : 20px }`))
	if len(sheet.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", sheet.Errors)
	}
	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}

	rule := sheet.Rules[0]
	if rule.Kind != css.KindRule {
		t.Errorf("expected rule kind, got %s", rule.Kind)
	}
	if len(rule.Selectors) != 1 || rule.Selectors[0] != ".hello" {
		t.Errorf("unexpected selectors %q", rule.Selectors)
	}
	if len(rule.Declarations) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(rule.Declarations))
	}
	if v, ok := rule.Declaration("height"); !ok || v != "20px" {
		t.Errorf("expected height 20px, got %q", v)
	}
}

func TestParser_SelectorList(t *testing.T) {
	p := css.NewParser(nil)

	sheet := p.Parse([]byte(`.a, .b > p,  :not(.c, .d) { color: red }`))
	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}

	want := []string{".a", ".b>p", ":not(.c,.d)"}
	got := sheet.Rules[0].Selectors
	if len(got) != len(want) {
		t.Fatalf("expected selectors %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("selector %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestParser_Important(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`.hello{width:10px !important}`))
	v, ok := sheet.Rules[0].Declaration("width")
	if !ok {
		t.Fatal("expected width declaration")
	}
	if v != "10px !important" {
		t.Errorf("expected value with important marker, got %q", v)
	}

	sheet = p.Parse([]byte(`.hello{height:5px!important}`))
	v, ok = sheet.Rules[0].Declaration("height")
	if !ok {
		t.Fatal("expected height declaration")
	}
	if v != "5px !important" {
		t.Errorf("expected separated important marker, got %q", v)
	}
}

func TestParser_Media(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`
		@media screen and (max-width: 600px) {
			.a { width: 10px }
			.b { height: 20px }
		}
		.c { color: blue }
	`))
	if len(sheet.Rules) != 2 {
		t.Fatalf("expected 2 top-level rules, got %d", len(sheet.Rules))
	}

	media := sheet.Rules[0]
	if media.Kind != css.KindMedia {
		t.Fatalf("expected media rule, got %s", media.Kind)
	}
	if media.Prelude != "screen and (max-width:600px)" {
		t.Errorf("unexpected media prelude %q", media.Prelude)
	}
	if len(media.Rules) != 2 {
		t.Errorf("expected 2 nested rules, got %d", len(media.Rules))
	}
	if sheet.Rules[1].Selectors[0] != ".c" {
		t.Errorf("expected .c after media block, got %q", sheet.Rules[1].Selectors)
	}
}

func TestParser_DocumentVendorPrefix(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`@-moz-document url-prefix() { .a { color: red } }`))
	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	doc := sheet.Rules[0]
	if doc.Kind != css.KindDocument {
		t.Errorf("expected document kind, got %s", doc.Kind)
	}
	if doc.Name != "@-moz-document" {
		t.Errorf("expected name to be kept as written, got %q", doc.Name)
	}
	if len(doc.Rules) != 1 {
		t.Errorf("expected nested rule, got %d", len(doc.Rules))
	}
}

func TestParser_FontFace(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`@font-face {
		font-family: FontFamilyName;
		font-weight: 300;
		src: local(Arial);
	}`))
	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	ff := sheet.Rules[0]
	if ff.Kind != css.KindFontFace {
		t.Fatalf("expected font-face, got %s", ff.Kind)
	}
	if v, _ := ff.Declaration("src"); v != "local(Arial)" {
		t.Errorf("unexpected src %q", v)
	}
	if v, _ := ff.Declaration("font-family"); v != "FontFamilyName" {
		t.Errorf("unexpected font-family %q", v)
	}
}

func TestParser_SimpleAtRules(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`@charset "utf-8"; @import url(a.css); @keyframes spin { from { top: 0 } to { top: 10px } } .a{b:c}`))
	kinds := []css.RuleKind{css.KindCharset, css.KindImport, css.KindKeyframes, css.KindRule}
	if len(sheet.Rules) != len(kinds) {
		t.Fatalf("expected %d rules, got %d", len(kinds), len(sheet.Rules))
	}
	for i, k := range kinds {
		if sheet.Rules[i].Kind != k {
			t.Errorf("rule %d: expected %s, got %s", i, k, sheet.Rules[i].Kind)
		}
	}
	if n := len(sheet.Rules[2].Rules); n != 2 {
		t.Errorf("expected 2 keyframe blocks, got %d", n)
	}
}

func TestParser_CustomProperty(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`.a { --main-color: #06c; color: var(--main-color) }`))
	rule := sheet.Rules[0]
	if _, ok := rule.Declaration("--main-color"); !ok {
		t.Error("expected custom property to be kept")
	}
	if v, _ := rule.Declaration("color"); v != "var(--main-color)" {
		t.Errorf("unexpected color value %q", v)
	}
}

func TestParser_Errors(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`.a { width: 10px } } .b { height: 5px }`))
	if len(sheet.Errors) == 0 {
		t.Fatal("expected parse errors to be reported")
	}
}

func TestStylesheet_String(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`@media print{.a{width:1px}}.b,.c{color:red}`))
	out := sheet.String()

	for _, want := range []string{"@media print {", "  .a {", "    width: 1px;", ".b, .c {", "  color: red;"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

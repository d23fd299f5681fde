package css_test

import (
	"testing"

	"atomcss/css"
)

func kinds(parts []css.Part) []css.PartKind {
	out := make([]css.PartKind, len(parts))
	for i, p := range parts {
		out[i] = p.Kind
	}
	return out
}

func sameKinds(a, b []css.PartKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		name  string
		input string
		raw   string
		kinds []css.PartKind
	}{
		{"class", ".hello", ".hello", []css.PartKind{css.PartClass}},
		{"descendant", ".hello  div", ".hello div", []css.PartKind{css.PartClass, css.PartSpacing, css.PartElement}},
		{"child", ".a > b", ".a > b", []css.PartKind{css.PartClass, css.PartOperator, css.PartElement}},
		{"tight child", ".a>b", ".a>b", []css.PartKind{css.PartClass, css.PartOperator, css.PartElement}},
		{"id and element", "div#main", "div#main", []css.PartKind{css.PartElement, css.PartID}},
		{"universal", "* + p", "* + p", []css.PartKind{css.PartUniversal, css.PartOperator, css.PartElement}},
		{"pseudo class", ".a:hover", ".a:hover", []css.PartKind{css.PartClass, css.PartPseudoClass}},
		{"pseudo element", ".a::after", ".a::after", []css.PartKind{css.PartClass, css.PartPseudoElement}},
		{"legacy pseudo element", "p:before", "p:before", []css.PartKind{css.PartElement, css.PartPseudoElement}},
		{"vendor pseudo", ".a::-webkit-input-placeholder", ".a::-webkit-input-placeholder", []css.PartKind{css.PartClass, css.PartPseudoElement}},
		{"functional pseudo", "li:nth-child(2n+1)", "li:nth-child(2n+1)", []css.PartKind{css.PartElement, css.PartPseudoClass}},
		{"nested pseudo", ":not(.a, .b)", ":not(.a, .b)", []css.PartKind{css.PartNestedPseudoClass}},
		{"attribute", "input[type=text]", "input[type=text]", []css.PartKind{css.PartElement, css.PartAttribute}},
		{"comment", ".a/*x*/", ".a/*x*/", []css.PartKind{css.PartClass, css.PartComment}},
		{"trimmed", "  .a  ", ".a", []css.PartKind{css.PartClass}},
		{"invalid", ".a{", ".a{", []css.PartKind{css.PartClass, css.PartInvalid}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := css.ParseSelector(tt.input)
			if sel.Raw != tt.raw {
				t.Errorf("expected raw %q, got %q", tt.raw, sel.Raw)
			}
			if got := kinds(sel.Parts); !sameKinds(got, tt.kinds) {
				t.Errorf("expected kinds %v, got %v", tt.kinds, got)
			}
		})
	}
}

func TestParseSelector_Empty(t *testing.T) {
	sel := css.ParseSelector("   ")
	if len(sel.Parts) != 0 {
		t.Errorf("expected no parts, got %v", kinds(sel.Parts))
	}
}

func TestParseSelector_NestedSelectors(t *testing.T) {
	sel := css.ParseSelector(".x:not(.a, p > .b)")
	if len(sel.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(sel.Parts))
	}
	nested := sel.Parts[1]
	if nested.Name != "not" {
		t.Errorf("expected not, got %q", nested.Name)
	}
	if len(nested.Nested) != 2 {
		t.Fatalf("expected 2 nested selectors, got %d", len(nested.Nested))
	}
	if nested.Nested[1].Raw != "p > .b" {
		t.Errorf("unexpected nested selector %q", nested.Nested[1].Raw)
	}
}

func TestSelector_Class(t *testing.T) {
	if name, ok := css.ParseSelector(".hello div").Class(); !ok || name != "hello" {
		t.Errorf("expected class hello, got %q (%v)", name, ok)
	}
	if _, ok := css.ParseSelector("div .hello").Class(); ok {
		t.Error("element anchored selector must not report class")
	}
}

func TestSelector_Suffix(t *testing.T) {
	tests := map[string]string{
		".a":                   "",
		".a div":               " div",
		".a::-moz-placeholder": "::-moz-placeholder",
		".a > .b:hover":        " > .b:hover",
		".a:not(.b)::after":    ":not(.b)::after",
	}
	for in, want := range tests {
		if got := css.ParseSelector(in).Suffix(); got != want {
			t.Errorf("%q: expected suffix %q, got %q", in, want, got)
		}
	}
}

func TestSelector_Clone(t *testing.T) {
	orig := css.ParseSelector(".a:not(.b)")
	clone := orig.Clone()

	clone.Parts[0].Name = "changed"
	clone.Parts[1].Nested[0].Raw = "changed"

	if orig.Parts[0].Name != "a" {
		t.Error("clone shares parts with original")
	}
	if orig.Parts[1].Nested[0].Raw != ".b" {
		t.Error("clone shares nested selectors with original")
	}
}

func TestSplitSelectors(t *testing.T) {
	sels := css.SplitSelectors(".a, .b:not(.c, .d), , [data-x=\",\"]")
	want := []string{".a", ".b:not(.c, .d)", "[data-x=\",\"]"}
	if len(sels) != len(want) {
		t.Fatalf("expected %d selectors, got %d", len(want), len(sels))
	}
	for i := range want {
		if sels[i].Raw != want[i] {
			t.Errorf("selector %d: expected %q, got %q", i, want[i], sels[i].Raw)
		}
	}
}

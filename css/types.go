package css

import (
	"fmt"
	"io"
	"strings"
)

// RuleKind identifies the kind of a top-level or nested stylesheet rule.
type RuleKind int

const (
	KindRule      RuleKind = iota // selectors { declarations }
	KindMedia                     // @media
	KindDocument                  // @document, @-moz-document
	KindFontFace                  // @font-face
	KindKeyframes                 // @keyframes and vendor variants
	KindSupports                  // @supports
	KindPage                      // @page
	KindLayer                     // @layer
	KindImport                    // @import
	KindCharset                   // @charset
	KindNamespace                 // @namespace
	KindUnknown                   // any other at-rule
)

var ruleKindNames = [...]string{
	KindRule:      "rule",
	KindMedia:     "media",
	KindDocument:  "document",
	KindFontFace:  "font-face",
	KindKeyframes: "keyframes",
	KindSupports:  "supports",
	KindPage:      "page",
	KindLayer:     "layer",
	KindImport:    "import",
	KindCharset:   "charset",
	KindNamespace: "namespace",
	KindUnknown:   "unknown",
}

// String returns the CSS name of the rule kind.
func (k RuleKind) String() string {
	if k >= 0 && int(k) < len(ruleKindNames) {
		return ruleKindNames[k]
	}
	return fmt.Sprintf("RuleKind(%d)", int(k))
}

// ruleKindFromAtKeyword maps lowercased at-keyword (without '@' and vendor
// prefix) to a rule kind.
func ruleKindFromAtKeyword(name string) RuleKind {
	switch name {
	case "media":
		return KindMedia
	case "document":
		return KindDocument
	case "font-face":
		return KindFontFace
	case "keyframes":
		return KindKeyframes
	case "supports":
		return KindSupports
	case "page":
		return KindPage
	case "layer":
		return KindLayer
	case "import":
		return KindImport
	case "charset":
		return KindCharset
	case "namespace":
		return KindNamespace
	default:
		return KindUnknown
	}
}

// Declaration is a single "property: value" pair. Value is kept as written
// (normalized whitespace), including any trailing "!important".
type Declaration struct {
	Property string
	Value    string
}

// Rule is a single node of the stylesheet tree.
type Rule struct {
	Kind         RuleKind
	Name         string        // at-keyword as written, e.g. "@media", "@-moz-document"; empty for plain rules
	Prelude      string        // at-rule prelude: media query, document condition, keyframes name...
	Selectors    []string      // KindRule: comma separated selectors in source order
	Declarations []Declaration // KindRule, KindFontFace, KindPage
	Rules        []*Rule       // nested rules of block at-rules
}

// Declaration returns the last declared value for property, if any.
func (r *Rule) Declaration(property string) (string, bool) {
	for i := len(r.Declarations) - 1; i >= 0; i-- {
		if r.Declarations[i].Property == property {
			return r.Declarations[i].Value, true
		}
	}
	return "", false
}

// Stylesheet is a parsed CSS stylesheet.
type Stylesheet struct {
	Rules  []*Rule // top-level rules in source order
	Errors []error // parse errors reported by the tokenizer, in order
}

// WriteTo writes the stylesheet to w in source order using indented
// formatting, implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, rule := range s.Rules {
		n, err := writeRule(w, rule, 0)
		total += int64(n)
		if err != nil {
			return total, err
		}
		// Add blank line between items (except after last)
		if i < len(s.Rules)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

func writeRule(w io.Writer, rule *Rule, depth int) (int, error) {
	indent := strings.Repeat("  ", depth)

	var head string
	switch rule.Kind {
	case KindRule:
		head = strings.Join(rule.Selectors, ", ")
	default:
		head = rule.Name
		if rule.Prelude != "" {
			head += " " + rule.Prelude
		}
	}

	if rule.Kind == KindImport || rule.Kind == KindCharset || rule.Kind == KindNamespace ||
		(rule.Kind == KindUnknown && len(rule.Declarations) == 0 && len(rule.Rules) == 0) {
		return fmt.Fprintf(w, "%s%s;\n", indent, head)
	}

	var total int
	n, err := fmt.Fprintf(w, "%s%s {\n", indent, head)
	total += n
	if err != nil {
		return total, err
	}
	for _, d := range rule.Declarations {
		n, err = fmt.Fprintf(w, "%s  %s: %s;\n", indent, d.Property, d.Value)
		total += n
		if err != nil {
			return total, err
		}
	}
	for _, nested := range rule.Rules {
		n, err = writeRule(w, nested, depth+1)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = fmt.Fprintf(w, "%s}\n", indent)
	total += n
	return total, err
}

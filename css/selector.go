package css

import (
	"fmt"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// PartKind is the kind of a single selector node.
type PartKind int

const (
	PartElement PartKind = iota
	PartID
	PartClass
	PartOperator
	PartPseudoElement
	PartPseudoClass
	PartSpacing
	PartAttribute
	PartUniversal
	PartComment
	PartNestedPseudoClass
	PartInvalid
)

var partKindNames = [...]string{
	PartElement:           "element",
	PartID:                "id",
	PartClass:             "class",
	PartOperator:          "operator",
	PartPseudoElement:     "pseudo-element",
	PartPseudoClass:       "pseudo-class",
	PartSpacing:           "spacing",
	PartAttribute:         "attribute",
	PartUniversal:         "universal",
	PartComment:           "comment",
	PartNestedPseudoClass: "nested-pseudo-class",
	PartInvalid:           "invalid",
}

func (k PartKind) String() string {
	if k >= 0 && int(k) < len(partKindNames) {
		return partKindNames[k]
	}
	return fmt.Sprintf("PartKind(%d)", int(k))
}

// Part is a single selector node.
type Part struct {
	Kind PartKind
	// Name holds element, class and id names (without '.' or '#'), the
	// operator character, pseudo names (without colons) and attribute names.
	Name string
	// Content is the argument of functional pseudo classes and the body of
	// attribute selectors (without brackets).
	Content string
	// Before and After keep whitespace around operators.
	Before, After string
	// Nested holds parsed selectors of :not(), :is() and friends.
	Nested []Selector
	// Text is the normalized source text of the node.
	Text string
}

// Selector is a single (non-compound) CSS selector: `.a > b:hover`.
type Selector struct {
	Raw   string
	Parts []Part
}

// Class returns the class name when selector is class-anchored (its first
// node is a class).
func (s Selector) Class() (string, bool) {
	if len(s.Parts) == 0 || s.Parts[0].Kind != PartClass {
		return "", false
	}
	return s.Parts[0].Name, true
}

// Suffix returns text of everything following the first node.
func (s Selector) Suffix() string {
	if len(s.Parts) < 2 {
		return ""
	}
	return Stringify(s.Parts[1:])
}

// Clone returns a deep copy of the selector.
func (s Selector) Clone() Selector {
	out := Selector{Raw: s.Raw}
	if s.Parts != nil {
		out.Parts = make([]Part, len(s.Parts))
		for i, p := range s.Parts {
			out.Parts[i] = p.clone()
		}
	}
	return out
}

func (p Part) clone() Part {
	if p.Nested != nil {
		nested := make([]Selector, len(p.Nested))
		for i, s := range p.Nested {
			nested[i] = s.Clone()
		}
		p.Nested = nested
	}
	return p
}

func (s Selector) String() string {
	return s.Raw
}

// Stringify serializes selector nodes back to CSS text.
func Stringify(parts []Part) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// nestedPseudo lists functional pseudo classes whose argument is a selector
// list.
var nestedPseudo = map[string]bool{
	"not":         true,
	"is":          true,
	"where":       true,
	"has":         true,
	"matches":     true,
	"-moz-any":    true,
	"-webkit-any": true,
}

// legacyPseudoElements may be written with a single colon.
var legacyPseudoElements = map[string]bool{
	"before":       true,
	"after":        true,
	"first-line":   true,
	"first-letter": true,
}

// SplitSelectors splits selector list text on top-level commas and parses
// every selector. Empty selectors are dropped.
func SplitSelectors(text string) []Selector {
	var (
		out   []Selector
		level int
		start int
	)
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(', '[':
			level++
		case ')', ']':
			level--
		case '\\':
			i++
		case ',':
			if level == 0 {
				if sel := ParseSelector(text[start:i]); len(sel.Parts) > 0 {
					out = append(out, sel)
				}
				start = i + 1
			}
		}
	}
	if sel := ParseSelector(text[start:]); len(sel.Parts) > 0 {
		out = append(out, sel)
	}
	return out
}

// ParseSelector tokenizes a single selector. Input which cannot be
// recognized produces PartInvalid nodes, empty input produces no nodes.
func ParseSelector(text string) Selector {
	tokens := lexSelector(text)
	parts := make([]Part, 0, len(tokens))

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch t.TokenType {
		case css.WhitespaceToken:
			parts = append(parts, Part{Kind: PartSpacing, Text: " "})

		case css.CommentToken:
			parts = append(parts, Part{Kind: PartComment, Text: string(t.Data)})

		case css.IdentToken:
			parts = append(parts, Part{Kind: PartElement, Name: string(t.Data), Text: string(t.Data)})

		case css.HashToken:
			name := string(t.Data[1:])
			parts = append(parts, Part{Kind: PartID, Name: name, Text: "#" + name})

		case css.DelimToken:
			switch c := t.Data[0]; c {
			case '.':
				if i+1 < len(tokens) && tokens[i+1].TokenType == css.IdentToken {
					i++
					name := string(tokens[i].Data)
					parts = append(parts, Part{Kind: PartClass, Name: name, Text: "." + name})
					continue
				}
				parts = append(parts, Part{Kind: PartInvalid, Text: "."})
			case '*':
				parts = append(parts, Part{Kind: PartUniversal, Name: "*", Text: "*"})
			case '>', '+', '~':
				parts = appendOperator(parts, string(c))
			default:
				parts = append(parts, Part{Kind: PartInvalid, Text: string(t.Data)})
			}

		case css.LeftBracketToken:
			end := matching(tokens, i, css.LeftBracketToken, css.RightBracketToken)
			content := joinRaw(tokens[i+1 : end])
			part := Part{Kind: PartAttribute, Content: content, Text: "[" + content + "]"}
			for _, at := range tokens[i+1 : end] {
				if at.TokenType == css.IdentToken {
					part.Name = string(at.Data)
					break
				}
			}
			if end == len(tokens) {
				part.Kind = PartInvalid
				part.Text = "[" + content
			}
			parts = append(parts, part)
			i = end

		case css.ColonToken:
			var part Part
			part, i = pseudo(tokens, i)
			parts = append(parts, part)

		default:
			parts = append(parts, Part{Kind: PartInvalid, Text: string(t.Data)})
		}
	}

	parts = trimSpacing(parts)
	return Selector{Raw: Stringify(parts), Parts: parts}
}

// appendOperator folds whitespace preceding the combinator into it. The
// whitespace following it is attached later by trimSpacing.
func appendOperator(parts []Part, op string) []Part {
	before := ""
	if n := len(parts); n > 0 && parts[n-1].Kind == PartSpacing {
		before = " "
		parts = parts[:n-1]
	}
	return append(parts, Part{Kind: PartOperator, Name: op, Before: before, Text: before + op})
}

// trimSpacing drops leading and trailing spacing and moves spacing which
// follows an operator into the operator's After.
func trimSpacing(parts []Part) []Part {
	out := parts[:0]
	for _, p := range parts {
		if p.Kind == PartSpacing {
			if len(out) == 0 {
				continue
			}
			if prev := &out[len(out)-1]; prev.Kind == PartOperator {
				prev.After = " "
				prev.Text = prev.Before + prev.Name + prev.After
				continue
			}
		}
		out = append(out, p)
	}
	if n := len(out); n > 0 && out[n-1].Kind == PartSpacing {
		out = out[:n-1]
	}
	return out
}

// pseudo handles pseudo classes and pseudo elements starting at the colon
// token at position i. It returns the produced node and the index of the
// last consumed token.
func pseudo(tokens []css.Token, i int) (Part, int) {
	colons := ":"
	if i+1 < len(tokens) && tokens[i+1].TokenType == css.ColonToken {
		colons = "::"
		i++
	}
	if i+1 >= len(tokens) {
		return Part{Kind: PartInvalid, Text: colons}, i
	}
	i++
	t := tokens[i]
	switch t.TokenType {
	case css.IdentToken:
		name := string(t.Data)
		kind := PartPseudoClass
		if colons == "::" || legacyPseudoElements[strings.ToLower(name)] {
			kind = PartPseudoElement
		}
		return Part{Kind: kind, Name: name, Text: colons + name}, i

	case css.FunctionToken:
		name := strings.TrimSuffix(string(t.Data), "(")
		end := matching(tokens, i, css.FunctionToken, css.RightParenthesisToken)
		content := joinRaw(tokens[i+1 : end])
		part := Part{Kind: PartPseudoClass, Name: name, Content: content, Text: colons + name + "(" + content + ")"}
		if colons == "::" {
			part.Kind = PartPseudoElement
		} else if nestedPseudo[strings.ToLower(name)] {
			part.Kind = PartNestedPseudoClass
			part.Nested = SplitSelectors(content)
		}
		if end == len(tokens) {
			part.Kind = PartInvalid
			part.Text = colons + name + "(" + content
		}
		return part, end
	}
	return Part{Kind: PartInvalid, Text: colons + string(t.Data)}, i
}

// matching returns the index of the token closing the block opened at
// position i, or len(tokens) when there is none.
func matching(tokens []css.Token, i int, open, closing css.TokenType) int {
	level := 0
	for j := i; j < len(tokens); j++ {
		tt := tokens[j].TokenType
		switch {
		case tt == open,
			open == css.FunctionToken && (tt == css.FunctionToken || tt == css.LeftParenthesisToken):
			level++
		case tt == closing:
			level--
			if level == 0 {
				return j
			}
		}
	}
	return len(tokens)
}

func joinRaw(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			sb.WriteByte(' ')
			continue
		}
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

func lexSelector(text string) []css.Token {
	l := css.NewLexer(parse.NewInputString(text))
	var tokens []css.Token
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			return tokens
		}
		// lexer reuses its buffer
		tokens = append(tokens, css.Token{TokenType: tt, Data: append([]byte(nil), data...)})
	}
}

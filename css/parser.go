package css

import (
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into a rule tree.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. Parse errors do not stop parsing,
// they are collected in Stylesheet.Errors.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Rules: make([]*Rule, 0),
	}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	w := &walker{
		log:    p.log,
		parser: css.NewParser(parse.NewInputBytes(data), false),
		sheet:  sheet,
		last:   -1,
	}
	sheet.Rules, _ = w.ruleList()
	return sheet
}

// walker turns the grammar event stream into a rule tree.
type walker struct {
	log    *zap.Logger
	parser *css.Parser
	sheet  *Stylesheet
	last   int // offset of the last recorded parse error
}

// next returns the next grammar event. Parse errors are recorded and
// skipped, done is set at the end of input.
func (w *walker) next() (gt css.GrammarType, data []byte, done bool) {
	for {
		gt, _, data = w.parser.Next()
		if gt != css.ErrorGrammar {
			return gt, data, false
		}
		if !w.parser.HasParseError() {
			if err := w.parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				w.sheet.Errors = append(w.sheet.Errors, err)
			}
			return gt, nil, true
		}
		off := w.parser.Offset()
		if off == w.last {
			// no progress since previous error
			return gt, nil, true
		}
		w.last = off
		err := w.parser.Err()
		w.log.Debug("CSS parse error", zap.Error(err))
		w.sheet.Errors = append(w.sheet.Errors, err)
	}
}

// ruleList collects rules until the enclosing at-rule block ends (or input
// is exhausted).
func (w *walker) ruleList() (rules []*Rule, done bool) {
	for {
		gt, data, done := w.next()
		if done {
			return rules, true
		}

		switch gt {
		case css.EndAtRuleGrammar:
			return rules, false

		case css.BeginRulesetGrammar:
			rule := &Rule{
				Kind:      KindRule,
				Selectors: splitSelectors(w.parser.Values()),
			}
			if rule.Declarations, done = w.declarations(); done {
				return append(rules, rule), true
			}
			rules = append(rules, rule)

		case css.BeginAtRuleGrammar:
			rule := w.atRule(data)
			switch rule.Kind {
			case KindMedia, KindDocument, KindSupports, KindKeyframes, KindLayer:
				rule.Rules, done = w.ruleList()
				w.log.Debug("Parsed at-rule block", zap.Stringer("kind", rule.Kind), zap.String("prelude", rule.Prelude), zap.Int("rules", len(rule.Rules)))
			case KindFontFace, KindPage:
				rule.Declarations, done = w.declarations()
			default:
				w.log.Debug("Skipping at-rule block", zap.String("rule", rule.Name))
				done = w.skipBlock()
			}
			rules = append(rules, rule)
			if done {
				return rules, true
			}

		case css.AtRuleGrammar:
			// Simple @-rule without block (e.g., @import)
			rule := w.atRule(data)
			w.log.Debug("Parsed at-rule", zap.String("rule", rule.Name), zap.String("prelude", rule.Prelude))
			rules = append(rules, rule)
		}
	}
}

func (w *walker) atRule(data []byte) *Rule {
	name := string(data)
	keyword := strings.TrimPrefix(name, "@")
	if strings.HasPrefix(keyword, "-") {
		// skip vendor prefix: @-moz-document, @-webkit-keyframes
		if i := strings.IndexByte(keyword[1:], '-'); i != -1 {
			keyword = keyword[i+2:]
		}
	}
	return &Rule{
		Kind:    ruleKindFromAtKeyword(keyword),
		Name:    name,
		Prelude: joinTokens(w.parser.Values()),
	}
}

// declarations parses property declarations until the end of the current
// block.
func (w *walker) declarations() (decls []Declaration, done bool) {
	for {
		gt, data, done := w.next()
		if done {
			return decls, true
		}

		switch gt {
		case css.EndRulesetGrammar, css.EndAtRuleGrammar:
			return decls, false

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			values := w.parser.Values()
			if len(values) > 0 {
				decls = append(decls, Declaration{
					Property: string(data),
					Value:    joinTokens(values),
				})
			}

		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			// nested blocks are not supported inside declaration lists
			w.log.Debug("Skipping nested block in declarations", zap.ByteString("data", data))
			if w.skipBlock() {
				return decls, true
			}
		}
	}
}

// skipBlock skips tokens until the matching end of an @-rule block.
func (w *walker) skipBlock() bool {
	depth := 1
	for depth > 0 {
		gt, _, done := w.next()
		if done {
			return true
		}
		switch gt {
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
	return false
}

// joinTokens rebuilds source text from tokens collapsing whitespace runs
// into a single space. The lexer drops whitespace in front of "!", so it is
// put back to keep "value !important" as written.
func joinTokens(tokens []css.Token) string {
	var sb strings.Builder
	space := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), " ") {
			sb.WriteByte(' ')
		}
	}
	for _, t := range tokens {
		switch {
		case t.TokenType == css.WhitespaceToken:
			space()
			continue
		case t.TokenType == css.DelimToken && string(t.Data) == "!":
			space()
		}
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

// splitSelectors splits ruleset prelude tokens by top-level commas.
func splitSelectors(tokens []css.Token) []string {
	var (
		selectors []string
		current   []css.Token
		level     int
	)
	flush := func() {
		if s := joinTokens(current); s != "" {
			selectors = append(selectors, s)
		}
		current = current[:0]
	}
	for _, t := range tokens {
		switch t.TokenType {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			level++
		case css.RightParenthesisToken, css.RightBracketToken:
			level--
		case css.CommaToken:
			if level == 0 {
				flush()
				continue
			}
		}
		current = append(current, t)
	}
	flush()
	return selectors
}

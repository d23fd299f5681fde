package loader

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"atomcss/css"
)

var importantRe = regexp.MustCompile(`(?i)\s*!\s*important\s*$`)

// splitImportant separates trailing "!important" marker from value.
func splitImportant(value string) (string, bool) {
	loc := importantRe.FindStringIndex(value)
	if loc == nil {
		return strings.TrimSpace(value), false
	}
	return strings.TrimSpace(value[:loc[0]]), true
}

// MakeGroupID derives scope of declarations nested in rule. Nil rule means
// declarations outside any at-rule.
func MakeGroupID(rule *css.Rule) (GroupID, error) {
	if rule == nil {
		return Global(), nil
	}

	switch rule.Kind {
	case css.KindMedia:
		query := normalizeSpace(rule.Prelude)
		return GroupID{Kind: GroupKindMedia, ID: "media[" + query + "]", Query: query, Rule: rule}, nil

	case css.KindDocument:
		query := normalizeSpace(rule.Prelude)
		return GroupID{Kind: GroupKindDocument, ID: "document[" + query + "]", Query: query, Rule: rule}, nil

	case css.KindFontFace:
		family, _ := rule.Declaration("font-family")
		style, _ := rule.Declaration("font-style")
		weight, _ := rule.Declaration("font-weight")
		query := normalizeSpace(family) + "/" + normalizeSpace(style) + "/" + normalizeSpace(weight)
		return GroupID{Kind: GroupKindFont, ID: "font[" + query + "]", Query: query, Rule: rule}, nil
	}

	return GroupID{}, fmt.Errorf("%w: %s", ErrUnsupportedRuleKind, rule.Kind)
}

// CSSLoader loads rules from stylesheet text.
type CSSLoader struct {
	store
	parser   *css.Parser
	minifier *css.Minifier
}

// NewCSSLoader creates empty loader.
func NewCSSLoader(log *zap.Logger, opts ...Option) *CSSLoader {
	l := &CSSLoader{store: newStore(log, opts)}
	l.parser = css.NewParser(l.log)
	if l.opts.minify {
		l.minifier = css.NewMinifier()
	}
	return l
}

// Load parses stylesheet text and appends every rule. Parse errors fail the
// whole text before anything is appended, other failures leave already
// appended rules in place.
func (l *CSSLoader) Load(text string) error {
	if l.minifier != nil {
		minified, err := l.minifier.Minify(text)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCSSParse, err)
		}
		text = minified
	}

	sheet := l.parser.Parse([]byte(text))
	if len(sheet.Errors) > 0 {
		return fmt.Errorf("%w: %w", ErrCSSParse, multierr.Combine(sheet.Errors...))
	}
	return l.loadRules(Global(), sheet.Rules)
}

func (l *CSSLoader) loadRules(group GroupID, rules []*css.Rule) error {
	for _, rule := range rules {
		switch rule.Kind {
		case css.KindRule:
			if err := l.loadRule(group, rule); err != nil {
				return err
			}

		case css.KindMedia, css.KindDocument:
			nested, err := MakeGroupID(rule)
			if err != nil {
				return err
			}
			if err := l.loadRules(nested, rule.Rules); err != nil {
				return err
			}

		case css.KindFontFace:
			font, err := MakeGroupID(rule)
			if err != nil {
				return err
			}
			l.appendFontFace(font, toRules(rule.Declarations))

		default:
			return fmt.Errorf("%w: %s %s", ErrUnsupportedRuleKind, rule.Name, rule.Prelude)
		}
	}
	return nil
}

// loadRule appends separate entry for every selector of the rule, each with
// its own copy of declarations.
func (l *CSSLoader) loadRule(group GroupID, rule *css.Rule) error {
	rules := toRules(rule.Declarations)
	for _, text := range rule.Selectors {
		sels, err := l.selectors(text)
		if err != nil {
			return err
		}
		for _, sel := range sels {
			if err := l.Append(group, sel, rules.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func toRules(decls []css.Declaration) Rules {
	rules := make(Rules, 0, len(decls))
	for _, d := range decls {
		value, important := splitImportant(d.Value)
		rules.Set(d.Property, value, important)
	}
	return rules
}

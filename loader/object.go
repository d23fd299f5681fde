package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"atomcss/css"
)

// ObjectRule is a single key of an object rule tree. Value is either a
// scalar (property value) or a nested tree (ObjectRules or map[string]any).
type ObjectRule struct {
	Key   string
	Value any
}

// ObjectRules is an ordered object rule tree:
//
//	width: 10px
//	"&:hover": {color: red}
//	"@media print": {display: none}
//	"span": {font-size: 10px}
type ObjectRules []ObjectRule

// FromMap converts map tree into ObjectRules. Map has no order, so keys are
// sorted.
func FromMap(m map[string]any) ObjectRules {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make(ObjectRules, 0, len(m))
	for _, k := range keys {
		v := m[k]
		if nested, ok := v.(map[string]any); ok {
			v = FromMap(nested)
		}
		out = append(out, ObjectRule{Key: k, Value: v})
	}
	return out
}

// ParseYAML reads YAML document mapping selectors to object rule trees.
// Key order is preserved.
func ParseYAML(r io.Reader) (ObjectRules, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return ObjectRules{}, nil
		}
		return nil, fmt.Errorf("unable to decode object rules: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return ObjectRules{}, nil
		}
		root = root.Content[0]
	}
	return fromNode(root)
}

// ParseYAMLBytes is ParseYAML for in-memory data.
func ParseYAMLBytes(data []byte) (ObjectRules, error) {
	return ParseYAML(bytes.NewReader(data))
}

func fromNode(node *yaml.Node) (ObjectRules, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected mapping, got %s", node.Line, nodeKind(node))
	}
	out := make(ObjectRules, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch value.Kind {
		case yaml.ScalarNode:
			out = append(out, ObjectRule{Key: key.Value, Value: value.Value})
		case yaml.MappingNode:
			nested, err := fromNode(value)
			if err != nil {
				return nil, err
			}
			out = append(out, ObjectRule{Key: key.Value, Value: nested})
		case yaml.AliasNode:
			if value.Alias == nil {
				return nil, fmt.Errorf("line %d: dangling alias", value.Line)
			}
			resolved := *value.Alias
			wrapper := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{key, &resolved}}
			nested, err := fromNode(wrapper)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		default:
			return nil, fmt.Errorf("line %d: unsupported value for %q: %s", value.Line, key.Value, nodeKind(value))
		}
	}
	return out, nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

// ObjectLoader loads rules from object rule trees.
type ObjectLoader struct {
	store
}

// NewObjectLoader creates empty loader.
func NewObjectLoader(log *zap.Logger, opts ...Option) *ObjectLoader {
	return &ObjectLoader{store: newStore(log, opts)}
}

// Load appends rules of tree declared for selector (which may be a comma
// separated list). Nested "@media ..." keys open media group, other at-rule
// keys are rejected, "&suffix" keys extend selector directly and any other
// nested key is a descendant.
func (l *ObjectLoader) Load(selector string, tree ObjectRules) error {
	parents, err := l.selectors(selector)
	if err != nil {
		return err
	}
	raws := make([]string, len(parents))
	for i, p := range parents {
		raws[i] = p.Raw
	}
	return l.load(Global(), raws, tree)
}

// LoadAll loads document produced by ParseYAML: top level keys are
// selectors.
func (l *ObjectLoader) LoadAll(doc ObjectRules) error {
	for _, top := range doc {
		tree, err := asTree(top.Value)
		if err != nil {
			return fmt.Errorf("selector %q: %w", top.Key, err)
		}
		if err := l.Load(top.Key, tree); err != nil {
			return err
		}
	}
	return nil
}

func (l *ObjectLoader) load(group GroupID, selectors []string, tree ObjectRules) error {
	var (
		rules  Rules
		nested []ObjectRule
	)
	for _, r := range tree {
		if r.Value == nil {
			continue
		}
		if isTree(r.Value) {
			nested = append(nested, r)
			continue
		}
		value, important := splitImportant(fmt.Sprint(r.Value))
		rules.Set(r.Key, value, important)
	}

	if len(rules) > 0 {
		for _, text := range selectors {
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
	}

	for _, r := range nested {
		tree, err := asTree(r.Value)
		if err != nil {
			return fmt.Errorf("key %q: %w", r.Key, err)
		}

		if query, ok := strings.CutPrefix(r.Key, "@media"); ok {
			media, err := MakeGroupID(&css.Rule{Kind: css.KindMedia, Name: "@media", Prelude: query})
			if err != nil {
				return err
			}
			if err := l.load(media, selectors, tree); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(r.Key, "@") {
			return fmt.Errorf("%w: %s", ErrUnsupportedRuleKind, r.Key)
		}

		if err := l.load(group, combine(selectors, r.Key), tree); err != nil {
			return err
		}
	}
	return nil
}

// combine extends every parent selector with every selector of key.
func combine(parents []string, key string) []string {
	var out []string
	for _, k := range splitList(key) {
		for _, p := range parents {
			if suffix, ok := strings.CutPrefix(k, "&"); ok {
				out = append(out, p+suffix)
			} else {
				out = append(out, p+" "+k)
			}
		}
	}
	return out
}

// splitList splits key on top-level commas.
func splitList(key string) []string {
	var (
		out   []string
		level int
		start int
	)
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '(', '[':
			level++
		case ')', ']':
			level--
		case ',':
			if level == 0 {
				if s := strings.TrimSpace(key[start:i]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(key[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isTree(v any) bool {
	switch v.(type) {
	case ObjectRules, map[string]any:
		return true
	}
	return false
}

func asTree(v any) (ObjectRules, error) {
	switch t := v.(type) {
	case ObjectRules:
		return t, nil
	case map[string]any:
		return FromMap(t), nil
	}
	return nil, fmt.Errorf("expected nested rules, got %T", v)
}

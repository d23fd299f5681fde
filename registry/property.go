package registry

import (
	"atomcss/css"
	"atomcss/loader"
)

// RegisteredProperty is a single deduplicated declaration together with
// every selector and group which declared it.
type RegisteredProperty struct {
	MangledName string // generated class name, assigned on first request
	RuleName    string
	RuleValue   string
	IsImportant bool
	Selectors   []css.Selector
	Groups      []loader.GroupID
	MinIndex    int
}

func newProperty(group loader.GroupID, entry *loader.RuleSetEntry, d loader.Declaration) *RegisteredProperty {
	return &RegisteredProperty{
		RuleName:    d.Property,
		RuleValue:   d.Value,
		IsImportant: d.Important,
		Selectors:   []css.Selector{entry.Selector},
		Groups:      []loader.GroupID{group},
		MinIndex:    entry.Index,
	}
}

// Append merges another occurrence of the declaration.
func (p *RegisteredProperty) Append(group loader.GroupID, selector css.Selector, index int, important bool) {
	p.MinIndex = min(p.MinIndex, index)
	p.IsImportant = p.IsImportant || important

	found := false
	for _, s := range p.Selectors {
		if s.Raw == selector.Raw {
			found = true
			break
		}
	}
	if !found {
		p.Selectors = append(p.Selectors, selector)
	}

	for _, g := range p.Groups {
		if g.Same(group) {
			return
		}
	}
	p.Groups = append(p.Groups, group)
}

// Value returns declaration value as it is rendered.
func (p *RegisteredProperty) Value() string {
	if p.IsImportant {
		return p.RuleValue + " !important"
	}
	return p.RuleValue
}

// Key returns deduplication key of the property.
func (p *RegisteredProperty) Key() string {
	return propertyKey(p.Groups[0], loader.Declaration{Property: p.RuleName, Value: p.RuleValue, Important: p.IsImportant})
}

// propertyKey is "name:value" with "!" appended for important declarations.
// Declarations of at-rule groups are qualified by group id and never merge
// with declarations of other groups.
func propertyKey(group loader.GroupID, d loader.Declaration) string {
	key := d.Property + ":" + d.Value
	if d.Important {
		key += "!"
	}
	if group.Kind != loader.GroupKindNone {
		key = group.ID + "|" + key
	}
	return key
}

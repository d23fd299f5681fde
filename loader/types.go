package loader

import (
	"strings"
	"sync/atomic"

	"atomcss/css"
)

// GlobalID is the group id of declarations outside any at-rule.
const GlobalID = "@global"

// GroupID identifies at-rule scope of declarations. Two groups are the same
// scope when their IDs are equal, Query and Rule are informational.
type GroupID struct {
	Kind  GroupKind
	ID    string
	Query string    // normalized at-rule prelude (media query, document condition)
	Rule  *css.Rule // source rule, if any
}

// Global returns group of declarations outside of any at-rule.
func Global() GroupID {
	return GroupID{Kind: GroupKindNone, ID: GlobalID}
}

func (g GroupID) String() string {
	return g.ID
}

// Same reports whether both ids denote the same scope.
func (g GroupID) Same(other GroupID) bool {
	return g.ID == other.ID
}

// Declaration is a single normalized property with its importance flag
// separated from the value.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Rules is an ordered list of declarations, one per property.
type Rules []Declaration

// Get returns declaration for property.
func (r Rules) Get(property string) (Declaration, bool) {
	for _, d := range r {
		if d.Property == property {
			return d, true
		}
	}
	return Declaration{}, false
}

// Set adds or replaces declaration keeping position of the first occurrence.
// Important declaration is never replaced by a non-important one.
func (r *Rules) Set(property, value string, important bool) {
	for i, d := range *r {
		if d.Property != property {
			continue
		}
		if d.Important && !important {
			return
		}
		(*r)[i] = Declaration{Property: property, Value: value, Important: important}
		return
	}
	*r = append(*r, Declaration{Property: property, Value: value, Important: important})
}

// Clone returns independent copy.
func (r Rules) Clone() Rules {
	if r == nil {
		return nil
	}
	out := make(Rules, len(r))
	copy(out, r)
	return out
}

// RuleSetEntry is a single selector with its declarations.
type RuleSetEntry struct {
	Selector css.Selector
	Rules    Rules
	Index    int // load order, strictly increasing within a Sequence
	Refs     int // number of registrations
}

// RuleSet is a list of entries sharing at-rule scope.
type RuleSet struct {
	GroupBy GroupID
	Entries []*RuleSetEntry
}

// Sequence hands out load order indexes. Loaders which need comparable
// ordering share a Sequence.
type Sequence struct {
	n atomic.Int64
}

// NewSequence returns sequence which starts at 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns next index.
func (s *Sequence) Next() int {
	return int(s.n.Add(1))
}

// normalizeSpace collapses whitespace runs into single space.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package loader

import (
	"errors"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"atomcss/css"
)

var (
	// ErrInvalidSelector is returned for selectors without any nodes.
	ErrInvalidSelector = errors.New("invalid selector")
	// ErrCSSParse is returned when stylesheet text could not be parsed.
	ErrCSSParse = errors.New("unable to parse stylesheet")
	// ErrUnsupportedRuleKind is returned for at-rules which cannot be grouped.
	ErrUnsupportedRuleKind = errors.New("unsupported rule kind")
)

// FontFaceBucket is the fallback bucket name font-face blocks are filed
// under.
const FontFaceBucket = "@font-face"

// RuleSource is a loadable source of rule sets.
type RuleSource interface {
	// Append files rules for selector under the given group.
	Append(group GroupID, selector css.Selector, rules Rules) error
	// Find returns every rule set filed under the primary class name.
	Find(className string) []*RuleSet
	// Unhandled iterates over rule sets which are not class-anchored.
	Unhandled() iter.Seq[*RuleSet]
	// ClassNames returns primary class names in first-seen order.
	ClassNames() []string
}

// Option configures loaders.
type Option func(*options)

type options struct {
	seq    *Sequence
	cache  *SelectorCache
	minify bool
}

// WithSequence makes loader take indexes from the provided sequence.
func WithSequence(seq *Sequence) Option {
	return func(o *options) {
		o.seq = seq
	}
}

// WithSelectorCache replaces shared selector cache.
func WithSelectorCache(cache *SelectorCache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithMinify enables minifier pre-pass for stylesheet text.
func WithMinify(minify bool) Option {
	return func(o *options) {
		o.minify = minify
	}
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.seq == nil {
		o.seq = NewSequence()
	}
	if o.cache == nil {
		o.cache = sharedCache
	}
	return o
}

// bucket keeps rule sets of a single key by group id in insertion order.
type bucket struct {
	groups map[string]*RuleSet
	order  []string
}

func (b *bucket) add(group GroupID, entry *RuleSetEntry) {
	rs, ok := b.groups[group.ID]
	if !ok {
		rs = &RuleSet{GroupBy: group}
		b.groups[group.ID] = rs
		b.order = append(b.order, group.ID)
	}
	rs.Entries = append(rs.Entries, entry)
}

func (b *bucket) ruleSets() []*RuleSet {
	out := make([]*RuleSet, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.groups[id])
	}
	return out
}

// buckets is ordered map of buckets.
type buckets struct {
	byKey map[string]*bucket
	order []string
}

func (bs *buckets) get(key string) *bucket {
	if bs.byKey == nil {
		bs.byKey = make(map[string]*bucket)
	}
	b, ok := bs.byKey[key]
	if !ok {
		b = &bucket{groups: make(map[string]*RuleSet)}
		bs.byKey[key] = b
		bs.order = append(bs.order, key)
	}
	return b
}

// store is rule set storage shared by all loaders.
type store struct {
	log   *zap.Logger
	opts  options
	rules buckets // class-anchored, keyed by primary class
	other buckets // everything else, keyed by selector text
}

func newStore(log *zap.Logger, opts []Option) store {
	if log == nil {
		log = zap.NewNop()
	}
	return store{
		log:  log.Named("loader"),
		opts: newOptions(opts),
	}
}

// Append files rules under primary class of the selector, selectors which
// do not start with a class go to the fallback bucket keyed by their text.
// Every call creates new entry with the next index.
func (s *store) Append(group GroupID, selector css.Selector, rules Rules) error {
	if len(selector.Parts) == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidSelector, selector.Raw)
	}

	entry := &RuleSetEntry{
		Selector: selector,
		Rules:    rules,
		Index:    s.opts.seq.Next(),
	}

	if class, ok := selector.Class(); ok {
		s.rules.get(class).add(group, entry)
		s.log.Debug("Rules appended", zap.String("class", class), zap.Stringer("group", group), zap.String("selector", selector.Raw), zap.Int("index", entry.Index))
		return nil
	}

	s.other.get(selector.Raw).add(group, entry)
	s.log.Debug("Unhandled rules appended", zap.String("selector", selector.Raw), zap.Stringer("group", group), zap.Int("index", entry.Index))
	return nil
}

// appendFontFace files font-face declarations verbatim.
func (s *store) appendFontFace(group GroupID, rules Rules) {
	entry := &RuleSetEntry{
		Selector: css.Selector{Raw: FontFaceBucket},
		Rules:    rules,
		Index:    s.opts.seq.Next(),
	}
	s.other.get(FontFaceBucket).add(group, entry)
	s.log.Debug("Font face appended", zap.Stringer("group", group), zap.Int("index", entry.Index))
}

// Find returns all rule sets of className in insertion order.
func (s *store) Find(className string) []*RuleSet {
	b, ok := s.rules.byKey[className]
	if !ok {
		return nil
	}
	return b.ruleSets()
}

// Unhandled returns restartable sequence over fallback rule sets.
func (s *store) Unhandled() iter.Seq[*RuleSet] {
	return func(yield func(*RuleSet) bool) {
		for _, key := range s.other.order {
			for _, rs := range s.other.byKey[key].ruleSets() {
				if !yield(rs) {
					return
				}
			}
		}
	}
}

// UnhandledFor returns fallback rule sets filed under key (selector text or
// FontFaceBucket).
func (s *store) UnhandledFor(key string) []*RuleSet {
	b, ok := s.other.byKey[key]
	if !ok {
		return nil
	}
	return b.ruleSets()
}

// ClassNames returns known primary class names.
func (s *store) ClassNames() []string {
	out := make([]string, len(s.rules.order))
	copy(out, s.rules.order)
	return out
}

// selectors parses selector list through the cache.
func (s *store) selectors(text string) ([]css.Selector, error) {
	list := s.opts.cache.Selectors(text)
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSelector, text)
	}
	return list, nil
}

package registry

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"atomcss/css"
	"atomcss/loader"
)

// ErrDependencyCycle is returned when dependency would make registry depend
// on itself.
var ErrDependencyCycle = errors.New("dependency cycle")

// ErrRootConflict is returned when dependency would join two registries which
// both allocated names already.
var ErrRootConflict = errors.New("names already allocated by both roots")

// CanMangle decides whether class of selector may be replaced by generated
// name.
type CanMangle func(sel css.Selector) bool

// Option configures registry.
type Option func(*Registry)

// WithName sets registry name, used for rendered output and dependent styles.
func WithName(name string) Option {
	return func(r *Registry) {
		r.name = name
	}
}

// WithPrefix makes generated names start with prefix. Only prefix of the
// root registry is used.
func WithPrefix(prefix string) Option {
	return func(r *Registry) {
		r.prefix = prefix
	}
}

// WithCanMangle installs name mangling policy.
func WithCanMangle(fn CanMangle) Option {
	return func(r *Registry) {
		r.canMangle = fn
	}
}

// KeepNames returns policy which never mangles selectors anchored on one of
// the listed classes.
func KeepNames(names ...string) CanMangle {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	return func(sel css.Selector) bool {
		class, ok := sel.Class()
		return !ok || !keep[class]
	}
}

// Registry deduplicates declarations of rule sets and allocates generated
// class names. Registries form a DAG, names are allocated by the root which
// is reached through first dependencies.
type Registry struct {
	log       *zap.Logger
	name      string
	prefix    string
	canMangle CanMangle

	props     map[string]*RegisteredProperty
	order     []*RegisteredProperty
	fontFaces map[string][]*loader.RuleSetEntry
	fontOrder []string
	loaders   []loader.RuleSource

	deps []*Registry
	root *Registry

	// id allocator state, used only by root
	counter  int
	offset   int
	maxAlpha int
	power    int
}

// New creates empty registry.
func New(log *zap.Logger, opts ...Option) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		props:     make(map[string]*RegisteredProperty),
		fontFaces: make(map[string][]*loader.RuleSetEntry),
		offset:    10,
		maxAlpha:  35,
		power:     1,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = log.Named("registry")
	if r.name != "" {
		r.log = r.log.With(zap.String("name", r.name))
	}
	return r
}

// Name returns registry name.
func (r *Registry) Name() string {
	return r.name
}

// SetCanMangle replaces name mangling policy.
func (r *Registry) SetCanMangle(fn CanMangle) {
	r.canMangle = fn
}

// AddDependency makes props of dep visible to r. Adding the same dependency
// again does nothing. When r changes root, allocator state of the old root
// moves to the new one so names stay unique.
func (r *Registry) AddDependency(dep *Registry) error {
	if dep == r || dep.dependsOn(r) {
		return fmt.Errorf("%w: %q -> %q", ErrDependencyCycle, r.name, dep.name)
	}
	for _, d := range r.deps {
		if d == dep {
			return nil
		}
	}
	if len(r.deps) == 0 {
		from, to := r.Root(), dep.Root()
		if from.counter > 0 {
			if to.counter > 0 {
				return fmt.Errorf("%w: %q -> %q", ErrRootConflict, r.name, dep.name)
			}
			to.counter, to.offset, to.maxAlpha, to.power = from.counter, from.offset, from.maxAlpha, from.power
		}
	}
	r.deps = append(r.deps, dep)
	r.root = nil
	return nil
}

func (r *Registry) dependsOn(other *Registry) bool {
	for _, d := range r.deps {
		if d == other || d.dependsOn(other) {
			return true
		}
	}
	return false
}

// Deps returns direct dependencies.
func (r *Registry) Deps() []*Registry {
	out := make([]*Registry, len(r.deps))
	copy(out, r.deps)
	return out
}

// AllDeps returns transitive dependencies, depth first, without duplicates.
func (r *Registry) AllDeps() []*Registry {
	var (
		out  []*Registry
		seen = make(map[*Registry]bool)
		walk func(*Registry)
	)
	walk = func(reg *Registry) {
		for _, d := range reg.deps {
			if seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
			walk(d)
		}
	}
	walk(r)
	return out
}

// Root returns registry which allocates names for r.
func (r *Registry) Root() *Registry {
	if r.root != nil && len(r.root.deps) == 0 {
		return r.root
	}
	if len(r.deps) == 0 {
		r.root = r
	} else {
		r.root = r.deps[0].Root()
	}
	return r.root
}

// NextID allocates next generated name: "a".."z", "a0".."zz", "a00"...
// Names never start with a digit.
func (r *Registry) NextID() string {
	if root := r.Root(); root != r {
		return root.NextID()
	}

	id := r.counter + r.offset
	if id >= r.maxAlpha {
		r.offset += (r.maxAlpha + 1) * 9
		r.power++
		r.maxAlpha = pow36(r.power) - 1
	}
	r.counter++

	name := r.prefix + strconv.FormatInt(int64(id), 36)
	r.log.Debug("Allocated name", zap.String("id", name))
	return name
}

func pow36(n int) int {
	v := 1
	for range n {
		v *= 36
	}
	return v
}

// Register records every declaration of the rule set. Font groups are kept
// verbatim. It returns properties touched, in declaration order.
func (r *Registry) Register(rs *loader.RuleSet) []*RegisteredProperty {
	if rs.GroupBy.Kind == loader.GroupKindFont {
		owner := r.findFontFace(rs.GroupBy.ID, make(map[*Registry]bool))
		if owner == nil {
			owner = r
			r.fontOrder = append(r.fontOrder, rs.GroupBy.ID)
		}
		owner.fontFaces[rs.GroupBy.ID] = rs.Entries
		for _, e := range rs.Entries {
			e.Refs++
		}
		return nil
	}

	var touched []*RegisteredProperty
	for _, entry := range rs.Entries {
		entry.Refs++
		for _, d := range entry.Rules {
			key := propertyKey(rs.GroupBy, d)
			if prop := r.find(key, make(map[*Registry]bool)); prop != nil {
				prop.Append(rs.GroupBy, entry.Selector, entry.Index, d.Important)
				touched = append(touched, prop)
				continue
			}
			prop := newProperty(rs.GroupBy, entry, d)
			r.props[key] = prop
			r.order = append(r.order, prop)
			touched = append(touched, prop)
			r.log.Debug("New property", zap.String("key", key), zap.String("selector", entry.Selector.Raw))
		}
	}
	return touched
}

// find looks property up in r and then in its dependencies, depth first.
func (r *Registry) find(key string, visited map[*Registry]bool) *RegisteredProperty {
	if prop, ok := r.props[key]; ok {
		return prop
	}
	visited[r] = true
	for _, d := range r.deps {
		if visited[d] {
			continue
		}
		if prop := d.find(key, visited); prop != nil {
			return prop
		}
	}
	return nil
}

// findFontFace returns registry font face id is rendered by.
func (r *Registry) findFontFace(id string, visited map[*Registry]bool) *Registry {
	if _, ok := r.fontFaces[id]; ok {
		return r
	}
	visited[r] = true
	for _, d := range r.deps {
		if visited[d] {
			continue
		}
		if owner := d.findFontFace(id, visited); owner != nil {
			return owner
		}
	}
	return nil
}

// Lookup returns property registered under key in r or its dependencies.
func (r *Registry) Lookup(key string) (*RegisteredProperty, bool) {
	prop := r.find(key, make(map[*Registry]bool))
	return prop, prop != nil
}

// Properties returns properties owned by r in registration order.
func (r *Registry) Properties() []*RegisteredProperty {
	out := make([]*RegisteredProperty, len(r.order))
	copy(out, r.order)
	return out
}

// ClassNames maps properties to class names for requested logical name.
// When mangling policy rejects a selector of the property anchored on the
// requested class, the requested name itself is used. Otherwise generated
// name is allocated once and reused.
func (r *Registry) ClassNames(props []*RegisteredProperty, requested string) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, p := range props {
		name := ""
		if r.canMangle != nil {
			for _, sel := range p.Selectors {
				if r.canMangle(sel) {
					continue
				}
				if class, ok := sel.Class(); ok && class == requested {
					name = class
					break
				}
			}
		}
		if name == "" {
			if p.MangledName == "" {
				p.MangledName = r.NextID()
			}
			name = p.MangledName
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// AddLoader makes rendering pull fallback rule sets of src.
func (r *Registry) AddLoader(src loader.RuleSource) {
	for _, l := range r.loaders {
		if l == src {
			return
		}
	}
	r.loaders = append(r.loaders, src)
}

// RegisterUnhandled registers every fallback rule set of src.
func (r *Registry) RegisterUnhandled(src loader.RuleSource) {
	for rs := range src.Unhandled() {
		r.Register(rs)
	}
}

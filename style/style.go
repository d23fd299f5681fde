// Package style resolves logical class names into generated ones through
// loaders and registries.
package style

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"atomcss/loader"
	"atomcss/registry"
)

// ErrInvalidArgumentType is returned by Define for unsupported rule trees.
var ErrInvalidArgumentType = errors.New("invalid argument type")

// Provider resolves single logical name. Result of Register is cached until
// Dispose.
type Provider interface {
	Register() string
	Dispose()
}

// Option configures style.
type Option func(*Style)

// WithLogger sets logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Style) {
		s.log = log
	}
}

// WithSequence makes loaders created by Define share seq.
func WithSequence(seq *loader.Sequence) Option {
	return func(s *Style) {
		s.seq = seq
	}
}

// WithMinify enables minifier pre-pass for stylesheets passed to Define.
func WithMinify(minify bool) Option {
	return func(s *Style) {
		s.minify = minify
	}
}

// Style maps logical class names to generated class names of a registry.
// Not safe for concurrent use.
type Style struct {
	log    *zap.Logger
	reg    *registry.Registry
	seq    *loader.Sequence
	minify bool

	parent    *Style
	owner     *Style // style whose sources a dependent style shares
	sources   []loader.RuleSource
	deps      map[string]*Style
	providers map[string]*provider
	scopes    map[string]*Style
}

// New creates style for registry reg with initial source src (may be nil).
// Dependent styles sharing sources of the new style are created for every
// named registry reg depends on.
func New(reg *registry.Registry, src loader.RuleSource, opts ...Option) *Style {
	s := &Style{reg: reg}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.Named("style")
	if s.seq == nil {
		s.seq = loader.NewSequence()
	}

	s.deps = make(map[string]*Style)
	for _, dep := range reg.AllDeps() {
		if dep.Name() == "" {
			continue
		}
		s.deps[dep.Name()] = &Style{
			log:    s.log,
			reg:    dep,
			seq:    s.seq,
			minify: s.minify,
			owner:  s,
			deps:   map[string]*Style{},
		}
	}

	if src != nil {
		s.Use(src)
	}
	return s
}

// Use adds source to the style. Fallback rule sets of src are registered into
// dependencies first, most basic registry first.
func (s *Style) Use(src loader.RuleSource) {
	deps := s.reg.AllDeps()
	for i := len(deps) - 1; i >= 0; i-- {
		deps[i].RegisterUnhandled(src)
	}
	s.addSource(src)
}

// Registry returns registry names are allocated in.
func (s *Style) Registry() *registry.Registry {
	return s.reg
}

// allSources returns sources of the owner followed by own sources.
func (s *Style) allSources() []loader.RuleSource {
	if s.owner == nil {
		return s.sources
	}
	return slices.Concat(s.owner.allSources(), s.sources)
}

func (s *Style) addSource(src loader.RuleSource) {
	s.sources = append(s.sources, src)
	s.reg.AddLoader(src)
	s.reg.RegisterUnhandled(src)
}

// Classes resolves whitespace or comma separated logical names. Unknown
// names are passed through unchanged.
func (s *Style) Classes(names ...string) string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, name := range splitNames(names) {
		got := s.resolve(name)
		if len(got) == 0 {
			got = []string{name}
		}
		for _, c := range got {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return strings.Join(out, " ")
}

// resolve returns generated names of class, parent scopes first.
func (s *Style) resolve(class string) []string {
	var out []string
	if s.parent != nil {
		out = s.parent.resolve(class)
	}
	for _, src := range s.allSources() {
		for _, rs := range src.Find(class) {
			out = append(out, s.reg.ClassNames(s.reg.Register(rs), class)...)
		}
	}
	return out
}

// known reports whether any source of s or its parents has class.
func (s *Style) known(class string) bool {
	for st := s; st != nil; st = st.parent {
		for _, src := range st.allSources() {
			if len(src.Find(class)) > 0 {
				return true
			}
		}
	}
	return false
}

func splitNames(names []string) []string {
	var out []string
	for _, n := range names {
		for _, f := range strings.FieldsFunc(n, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		}) {
			if f = strings.TrimPrefix(f, "."); f != "" {
				out = append(out, f)
			}
		}
	}
	return out
}

// Define loads additional rules. With a single argument text is stylesheet,
// otherwise text is selector and the second argument is its rule tree
// (loader.ObjectRules or map[string]any). Nil second argument counts as
// absent. It returns class names defined.
func (s *Style) Define(text string, args ...any) ([]string, error) {
	if len(args) == 0 || args[0] == nil {
		l := loader.NewCSSLoader(s.log, loader.WithSequence(s.seq), loader.WithMinify(s.minify))
		if err := l.Load(text); err != nil {
			return nil, err
		}
		s.Use(l)
		return l.ClassNames(), nil
	}

	var tree loader.ObjectRules
	switch t := args[0].(type) {
	case loader.ObjectRules:
		tree = t
	case map[string]any:
		tree = loader.FromMap(t)
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidArgumentType, args[0])
	}

	l := loader.NewObjectLoader(s.log, loader.WithSequence(s.seq))
	if err := l.Load(text, tree); err != nil {
		return nil, err
	}
	s.Use(l)
	return l.ClassNames(), nil
}

// Provider returns provider for logical name known to the style.
func (s *Style) Provider(name string) (Provider, bool) {
	name = strings.TrimPrefix(name, ".")
	if p, ok := s.providers[name]; ok {
		return p, true
	}
	if !s.known(name) {
		return nil, false
	}
	if s.providers == nil {
		s.providers = make(map[string]*provider)
	}
	p := &provider{style: s, name: name}
	s.providers[name] = p
	return p, true
}

// Dep returns style of dependency registry by its name.
func (s *Style) Dep(name string) *Style {
	return s.deps[name]
}

// NewScope creates nested style sharing registry of s. Lookups fall back to
// s. Creating scope with existing id disposes the old one, empty id makes a
// random one.
func (s *Style) NewScope(id string) *Style {
	if id == "" {
		id = uuid.NewString()
	}
	if s.scopes == nil {
		s.scopes = make(map[string]*Style)
	}
	if old, ok := s.scopes[id]; ok {
		old.Dispose()
	}
	scope := &Style{
		log:    s.log.With(zap.String("scope", id)),
		reg:    s.reg,
		seq:    s.seq,
		minify: s.minify,
		parent: s,
		deps:   s.deps,
	}
	s.scopes[id] = scope
	s.log.Debug("Scope created", zap.String("id", id))
	return scope
}

// Dispose drops providers, sources and scopes. Registered declarations stay
// in registry so names already handed out remain valid.
func (s *Style) Dispose() {
	for _, p := range s.providers {
		p.Dispose()
	}
	for _, scope := range s.scopes {
		scope.Dispose()
	}
	s.providers = nil
	s.scopes = nil
	s.sources = nil
}

type provider struct {
	style  *Style
	name   string
	cached *string
}

func (p *provider) Register() string {
	if p.cached == nil {
		v := p.style.Classes(p.name)
		p.cached = &v
	}
	return *p.cached
}

func (p *provider) Dispose() {
	p.cached = nil
}

// Package build drives loaders and registries over source files and writes
// generated stylesheets, class name manifest and rewritten html documents.
package build

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"github.com/maruel/natural"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"atomcss/config"
	"atomcss/htmlsrc"
	"atomcss/loader"
	"atomcss/registry"
	"atomcss/state"
	"atomcss/style"
)

// ErrUnsupportedSource is returned for files of unknown type.
var ErrUnsupportedSource = errors.New("unsupported source type")

// SourceKind is detected by file extension.
type SourceKind int

const (
	SourceUnknown SourceKind = iota
	SourceCSS
	SourceYAML
	SourceHTML
	SourceArchive
)

// DetectSource returns kind of the source by its file name.
func DetectSource(name string) SourceKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".css":
		return SourceCSS
	case ".yaml", ".yml":
		return SourceYAML
	case ".html", ".htm", ".xhtml":
		return SourceHTML
	case ".zip":
		return SourceArchive
	}
	return SourceUnknown
}

type document struct {
	name string
	doc  *htmlsrc.Document
}

// Builder collects sources and produces output. Not safe for concurrent use.
type Builder struct {
	env *state.LocalEnv
	cfg *config.BuildConfig
	log *zap.Logger

	seq      *loader.Sequence
	cache    *loader.SelectorCache
	critical *registry.Registry
	main     *registry.Registry
	style    *style.Style

	docs      []document
	requested []string
	seen      map[string]bool
}

// NewBuilder prepares registries according to build configuration: main
// registry depends on the critical one.
func NewBuilder(env *state.LocalEnv, log *zap.Logger) (*Builder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := &env.Cfg.Build

	cache, err := loader.NewSelectorCache(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("unable to create selector cache: %w", err)
	}

	opts := []registry.Option{
		registry.WithPrefix(cfg.Prefix),
		registry.WithCanMangle(registry.KeepNames(cfg.KeepNames...)),
	}
	critical := registry.New(log, append(opts, registry.WithName(cfg.Critical.Name))...)
	main := registry.New(log, append(opts, registry.WithName(cfg.Name))...)
	if err := main.AddDependency(critical); err != nil {
		return nil, err
	}

	b := &Builder{
		env:      env,
		cfg:      cfg,
		log:      log,
		seq:      loader.NewSequence(),
		cache:    cache,
		critical: critical,
		main:     main,
		seen:     make(map[string]bool),
	}
	b.style = style.New(main, nil, style.WithLogger(log), style.WithSequence(b.seq), style.WithMinify(cfg.Minify))
	return b, nil
}

func (b *Builder) loaderOptions() []loader.Option {
	return []loader.Option{
		loader.WithSequence(b.seq),
		loader.WithSelectorCache(b.cache),
		loader.WithMinify(b.cfg.Minify),
	}
}

func (b *Builder) request(names ...string) {
	for _, n := range names {
		if !b.seen[n] {
			b.seen[n] = true
			b.requested = append(b.requested, n)
		}
	}
}

// Add loads source. For stylesheets and object trees every class they
// define is requested, for html documents only classes they reference.
func (b *Builder) Add(name string, data []byte) error {
	data, err := b.env.Decode(data)
	if err != nil {
		return err
	}

	switch DetectSource(name) {
	case SourceCSS:
		l := loader.NewCSSLoader(b.log, b.loaderOptions()...)
		if err := l.Load(string(data)); err != nil {
			return fmt.Errorf("unable to load stylesheet (%s): %w", name, err)
		}
		b.style.Use(l)
		if len(b.docs) == 0 {
			b.request(l.ClassNames()...)
		}
	case SourceYAML:
		tree, err := loader.ParseYAMLBytes(data)
		if err != nil {
			return fmt.Errorf("unable to parse rules (%s): %w", name, err)
		}
		l := loader.NewObjectLoader(b.log, b.loaderOptions()...)
		if err := l.LoadAll(tree); err != nil {
			return fmt.Errorf("unable to load rules (%s): %w", name, err)
		}
		b.style.Use(l)
		if len(b.docs) == 0 {
			b.request(l.ClassNames()...)
		}
	case SourceHTML:
		doc, err := htmlsrc.Parse(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("unable to load document (%s): %w", name, err)
		}
		l := loader.NewCSSLoader(b.log, b.loaderOptions()...)
		for i, text := range doc.Styles() {
			if err := l.Load(text); err != nil {
				return fmt.Errorf("unable to load style element %d (%s): %w", i, name, err)
			}
		}
		b.style.Use(l)
		if len(b.docs) == 0 {
			// documents restrict output to what they reference
			b.requested, b.seen = nil, make(map[string]bool)
		}
		b.docs = append(b.docs, document{name: name, doc: doc})
		b.request(doc.Classes()...)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedSource, name)
	}
	b.log.Debug("Source loaded", zap.String("name", name), zap.Int("requested", len(b.requested)))
	return nil
}

// Output is a generated file.
type Output struct {
	Name     string
	Registry string
	Group    string
	Content  []byte
}

// Result of the build.
type Result struct {
	// Classes maps requested class names to generated ones.
	Classes map[string]string
	Outputs []Output
}

// Build resolves requested classes and renders output. Critical classes are
// resolved first, so their declarations land in the critical registry.
func (b *Builder) Build() (*Result, error) {
	res := &Result{Classes: make(map[string]string)}

	if crit := b.style.Dep(b.critical.Name()); crit != nil {
		for _, name := range b.cfg.Critical.Classes {
			res.Classes[name] = crit.Classes(name)
		}
	}
	for _, name := range b.requested {
		if _, ok := res.Classes[name]; !ok {
			res.Classes[name] = b.style.Classes(name)
		}
	}

	opts := registry.RenderOptions{SplitByMedia: b.cfg.Layout.Split(), Pretty: b.cfg.Pretty}
	for _, reg := range []*registry.Registry{b.critical, b.main} {
		for _, part := range reg.RenderCSS(opts) {
			if part.Content == "" {
				continue
			}
			res.Outputs = append(res.Outputs, Output{
				Name:     outputName(part),
				Registry: part.Name,
				Group:    part.Group.ID,
				Content:  []byte(part.Content),
			})
		}
	}

	if b.cfg.Manifest != "" {
		data, err := manifest(res)
		if err != nil {
			return nil, err
		}
		res.Outputs = append(res.Outputs, Output{Name: b.cfg.Manifest, Content: data})
	}

	for _, d := range b.docs {
		data, err := b.rewrite(d.doc)
		if err != nil {
			return nil, fmt.Errorf("unable to render document (%s): %w", d.name, err)
		}
		res.Outputs = append(res.Outputs, Output{Name: filepath.Base(d.name), Content: data})
	}
	return res, nil
}

func (b *Builder) rewrite(doc *htmlsrc.Document) ([]byte, error) {
	if b.cfg.HTML.Rewrite {
		doc.RewriteClasses(func(classes string) string {
			return b.style.Classes(classes)
		})
	}
	if b.cfg.HTML.InlineStyles {
		doc.RemoveStyles()
		opts := registry.RenderOptions{Pretty: b.cfg.Pretty}
		for _, reg := range []*registry.Registry{b.critical, b.main} {
			if sheet := reg.StyleSheet(opts); sheet != "" {
				doc.InjectStyle(sheet)
			}
		}
	}
	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// outputName makes file name for rendered part: registry name for global
// group, registry name and slug of group id otherwise.
func outputName(part registry.Rendered) string {
	name := part.Name
	if name == "" {
		name = "style"
	}
	if part.Group.ID != "" && part.Group.ID != loader.GlobalID {
		name += "-" + slug.Make(part.Group.ID)
	}
	return config.CleanFileName(name) + ".css"
}

// manifest produces YAML document with files and class names, keys in
// natural order.
func manifest(res *Result) ([]byte, error) {
	files := &yaml.Node{Kind: yaml.SequenceNode}
	for _, o := range res.Outputs {
		files.Content = append(files.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: o.Name})
	}

	names := make([]string, 0, len(res.Classes))
	for k := range res.Classes {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return natural.Less(names[i], names[j]) })

	classes := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range names {
		classes.Content = append(classes.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Value: res.Classes[k], Style: yaml.DoubleQuotedStyle})
	}

	doc := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "stylesheets"}, files,
		{Kind: yaml.ScalarNode, Value: "classes"}, classes,
	}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("unable to encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("unable to encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// Write stores outputs under dst. Existing files are replaced only when
// overwrite was requested.
func (b *Builder) Write(res *Result, dst string) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	for _, o := range res.Outputs {
		path := filepath.Join(dst, o.Name)
		if _, err := os.Stat(path); err == nil {
			if !b.env.Overwrite {
				return fmt.Errorf("output file already exists: %s", path)
			}
			b.log.Warn("Overwriting existing file", zap.String("file", path))
		} else if !os.IsNotExist(err) {
			return err
		}
		if err := os.WriteFile(path, o.Content, 0644); err != nil {
			return fmt.Errorf("unable to write output: %w", err)
		}
		b.env.Rpt.Store("output/"+o.Name, path)
		b.log.Debug("Output written", zap.String("file", path), zap.String("registry", o.Registry), zap.String("group", o.Group))
	}
	return nil
}

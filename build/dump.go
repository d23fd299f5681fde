package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"atomcss/css"
	"atomcss/htmlsrc"
	"atomcss/loader"
	"atomcss/state"
	"atomcss/utils/debug"
)

// Dump is the action of dump subcommand: it shows how sources are parsed and
// decomposed by loaders.
func Dump(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("dump")

	if cmd.Args().Len() == 0 {
		return errors.New("no input source has been specified")
	}
	if err := env.SetCharset(cmd.String("charset")); err != nil {
		log.Warn("Unknown character set specification. Ignoring...", zap.Error(err))
	}

	out := io.Writer(os.Stdout)
	if fname := cmd.String("out"); len(fname) > 0 {
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer f.Close()
		out = f
	}

	for _, name := range cmd.Args().Slice() {
		data, er := os.ReadFile(name)
		if er == nil {
			data, er = env.Decode(data)
		}
		if er == nil {
			er = DumpSource(out, name, data, log)
		}
		if er != nil {
			log.Error("Unable to dump source", zap.String("file", name), zap.Error(er))
			err = multierr.Append(err, er)
		}
	}
	return err
}

// DumpSource writes parsed stylesheet tree and loader view of the source.
func DumpSource(w io.Writer, name string, data []byte, log *zap.Logger) error {
	tw := debug.NewTreeWriter()
	tw.Line(0, "source %s", name)

	switch DetectSource(name) {
	case SourceCSS:
		dumpStylesheet(tw, string(data), log)
	case SourceYAML:
		tree, err := loader.ParseYAMLBytes(data)
		if err != nil {
			return err
		}
		l := loader.NewObjectLoader(log)
		if err := l.LoadAll(tree); err != nil {
			return err
		}
		dumpSource(tw, 1, l)
	case SourceHTML:
		doc, err := htmlsrc.Parse(bytes.NewReader(data))
		if err != nil {
			return err
		}
		tw.List(1, "referenced classes", doc.Classes())
		for i, text := range doc.Styles() {
			tw.Line(1, "style element %d", i)
			dumpStylesheet(tw, text, log)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedSource, name)
	}

	_, err := tw.WriteTo(w)
	return err
}

func dumpStylesheet(tw *debug.TreeWriter, text string, log *zap.Logger) {
	sheet := css.NewParser(log).Parse([]byte(text))
	tw.Line(1, "parsed")
	for _, rule := range sheet.Rules {
		dumpRule(tw, 2, rule)
	}
	for _, e := range sheet.Errors {
		tw.TextBlock(2, "error", e.Error())
	}

	l := loader.NewCSSLoader(log)
	if err := l.Load(text); err != nil {
		tw.TextBlock(1, "not loaded", err.Error())
		return
	}
	dumpSource(tw, 1, l)
}

func dumpRule(tw *debug.TreeWriter, depth int, rule *css.Rule) {
	if rule.Kind == css.KindRule {
		tw.Line(depth, "rule")
		tw.List(depth+1, "selectors", rule.Selectors)
	} else {
		tw.Line(depth, "%s", rule.Kind)
		if rule.Prelude != "" {
			tw.TextBlock(depth+1, "prelude", rule.Prelude)
		}
	}
	for _, d := range rule.Declarations {
		tw.Line(depth+1, "%s: %s", d.Property, d.Value)
	}
	for _, r := range rule.Rules {
		dumpRule(tw, depth+1, r)
	}
}

func dumpSource(tw *debug.TreeWriter, depth int, src loader.RuleSource) {
	names := src.ClassNames()
	sort.Slice(names, func(i, j int) bool { return natural.Less(names[i], names[j]) })

	tw.Line(depth, "classes")
	for _, name := range names {
		tw.Line(depth+1, ".%s", name)
		for _, rs := range src.Find(name) {
			dumpRuleSet(tw, depth+2, rs)
		}
	}
	tw.Line(depth, "unhandled")
	for rs := range src.Unhandled() {
		dumpRuleSet(tw, depth+1, rs)
	}
}

func dumpRuleSet(tw *debug.TreeWriter, depth int, rs *loader.RuleSet) {
	tw.Line(depth, "group %s", rs.GroupBy)
	for _, e := range rs.Entries {
		tw.TextBlock(depth+1, fmt.Sprintf("#%d", e.Index), e.Selector.Raw)
		for _, d := range e.Rules {
			if d.Important {
				tw.Line(depth+2, "%s: %s !important", d.Property, d.Value)
				continue
			}
			tw.Line(depth+2, "%s: %s", d.Property, d.Value)
		}
	}
}

package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"atomcss/archive"
	"atomcss/config"
	"atomcss/state"
)

// Run is the action of build subcommand.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("build")

	if cmd.Args().Len() == 0 {
		return errors.New("no input source has been specified")
	}

	dst := cmd.String("out")
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}

	if cmd.IsSet("layout") {
		layout, err := config.ParseLayout(cmd.String("layout"))
		if err != nil {
			log.Warn("Unknown layout requested, ignoring", zap.Error(err))
		} else {
			env.Cfg.Build.Layout = layout
		}
	}
	if cmd.IsSet("pretty") {
		env.Cfg.Build.Pretty = cmd.Bool("pretty")
	}
	if cmd.IsSet("prefix") {
		env.Cfg.Build.Prefix = cmd.String("prefix")
	}
	env.Overwrite = cmd.Bool("overwrite")

	cs := env.Cfg.Build.Charset
	if cmd.IsSet("charset") {
		cs = cmd.String("charset")
	}
	if err := env.SetCharset(cs); err != nil {
		log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cs), zap.Error(err))
	}

	log.Info("Processing starting", zap.Strings("sources", cmd.Args().Slice()), zap.String("destination", dst), zap.Stringer("layout", env.Cfg.Build.Layout))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, cmd.Args().Slice(), dst, env, log)
}

// process handles the build independently of CLI framework. Failing sources
// are reported and skipped, errors are returned combined.
func process(ctx context.Context, srcs []string, dst string, env *state.LocalEnv, log *zap.Logger) (err error) {
	files, err := collectSources(ctx, srcs, log)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no usable sources found")
	}

	b, err := NewBuilder(env, log)
	if err != nil {
		return err
	}

	loaded := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		if DetectSource(f) == SourceArchive {
			er := archive.Walk(f, isSource, env.Charset, func(arc string, e archive.Entry) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				if er := b.Add(e.Name, e.Data); er != nil {
					log.Error("Unable to process source in archive", zap.String("archive", arc), zap.String("file", e.Name), zap.Error(er))
					err = multierr.Append(err, er)
					return nil
				}
				env.Rpt.StoreData("source/"+filepath.Base(arc)+"/"+e.Name, e.Data)
				loaded++
				return nil
			})
			if er != nil {
				log.Error("Unable to process archive", zap.String("file", f), zap.Error(er))
				err = multierr.Append(err, er)
			}
			continue
		}

		data, er := os.ReadFile(f)
		if er == nil {
			er = b.Add(f, data)
		}
		if er != nil {
			log.Error("Unable to process source", zap.String("file", f), zap.Error(er))
			err = multierr.Append(err, er)
			continue
		}
		if er := env.Rpt.StoreCopy("source/"+filepath.Base(f), f); er != nil {
			log.Warn("Unable to store source in report", zap.String("file", f), zap.Error(er))
		}
		loaded++
	}
	if loaded == 0 {
		return multierr.Append(err, errors.New("no sources were loaded"))
	}

	res, er := b.Build()
	if er != nil {
		return multierr.Append(err, er)
	}
	if er := b.Write(res, dst); er != nil {
		return multierr.Append(err, er)
	}
	log.Info("Stylesheets generated", zap.Int("classes", len(res.Classes)), zap.Int("files", len(res.Outputs)))
	return err
}

// isSource accepts archive entries of known source kinds, archives inside
// archives are not processed.
func isSource(name string) bool {
	kind := DetectSource(name)
	return kind != SourceUnknown && kind != SourceArchive
}

// collectSources expands directories into supported files, natural order
// within directory. Explicitly named files are kept as is.
func collectSources(ctx context.Context, srcs []string, log *zap.Logger) ([]string, error) {
	var files []string
	for _, src := range srcs {
		src, err := filepath.Abs(src)
		if err != nil {
			return nil, err
		}
		fi, err := os.Stat(src)
		if err != nil {
			return nil, fmt.Errorf("input source was not found (%s): %w", src, err)
		}
		if !fi.IsDir() {
			files = append(files, src)
			continue
		}

		var found []string
		err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err != nil {
				log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if DetectSource(path) == SourceUnknown {
				log.Debug("Skipping file, not recognized as source", zap.String("file", path))
				return nil
			}
			found = append(found, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			log.Debug("Nothing to process", zap.String("dir", src))
		}
		sort.Slice(found, func(i, j int) bool { return natural.Less(found[i], found[j]) })
		files = append(files, found...)
	}
	return files, nil
}

// Package convert implements command line actions turning block stylesheets
// into plain CSS files.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"cssblocks/cache"
	"cssblocks/common"
	"cssblocks/compiler"
	"cssblocks/factory"
	"cssblocks/state"
)

// blockExt marks block sources when looking through directories.
const blockExt = ".block.css"

type options struct {
	mode     common.OutputMode
	reserved map[string]bool
}

// source is a block file to compile. Rel is path relative to the command
// line argument it was found under, base name for files given directly.
type source struct {
	path string
	rel  string
}

func prepareOptions(cmd *cli.Command, env *state.LocalEnv, log *zap.Logger) options {
	opts := options{mode: env.Cfg.Compiler.OutputMode, reserved: env.Cfg.Compiler.Reserved()}
	if cmd.IsSet("mode") {
		mode, err := common.ParseOutputMode(cmd.String("mode"))
		if err != nil {
			log.Warn("Unknown output mode requested, using configured one", zap.Stringer("mode", opts.mode), zap.Error(err))
		} else {
			opts.mode = mode
		}
	}
	if names := cmd.StringSlice("reserved"); len(names) > 0 {
		if opts.reserved == nil {
			opts.reserved = make(map[string]bool, len(names))
		}
		for _, name := range names {
			opts.reserved[name] = true
		}
	}
	return opts
}

// Run is "compile" command action.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compile")

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
	env.OutDir, env.Overwrite = dst, cmd.Bool("overwrite")

	opts := prepareOptions(cmd, env, log)
	if err := env.OpenCache(); err != nil {
		log.Warn("Compile cache is not available", zap.Error(err))
	}

	log.Info("Processing starting", zap.Strings("sources", cmd.Args().Slice()), zap.String("destination", dst), zap.Stringer("mode", opts.mode))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	sources, err := collectSources(ctx, cmd.Args().Slice(), log)
	if err != nil {
		return err
	}
	return process(ctx, sources, opts, log)
}

// collectSources expands command line arguments into block files. Directories
// are walked recursively for files with blockExt extension.
func collectSources(ctx context.Context, args []string, log *zap.Logger) ([]source, error) {
	var out []source
	for _, arg := range args {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		fi, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("input source was not found (%s): %w", arg, err)
		}
		if fi.Mode().IsRegular() {
			out = append(out, source{path: path, rel: filepath.Base(path)})
			continue
		}
		if !fi.IsDir() {
			return nil, fmt.Errorf("unexpected path mode for (%s)", arg)
		}

		var found []source
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err != nil {
				log.Warn("Skipping path", zap.String("path", p), zap.Error(err))
				return nil
			}
			if !info.Mode().IsRegular() || !strings.HasSuffix(info.Name(), blockExt) {
				return nil
			}
			rel, err := filepath.Rel(path, p)
			if err != nil {
				return err
			}
			found = append(found, source{path: p, rel: rel})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("unable to process directory (%s): %w", arg, err)
		}
		if len(found) == 0 {
			log.Debug("Nothing to process", zap.String("dir", path))
		}
		out = append(out, found...)
	}
	sort.SliceStable(out, func(i, j int) bool { return natural.Less(out[i].rel, out[j].rel) })
	return out, nil
}

// process compiles every source. Failures are logged and processing continues
// with the next file.
func process(ctx context.Context, sources []source, opts options, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	wd, _ := os.Getwd()
	f := factory.New(&factory.FSImporter{Root: wd}, log)
	c := compiler.New(opts.mode, log)

	var (
		errs   error
		failed int
	)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := env.Rpt.StoreCopy("sources/"+filepath.ToSlash(src.rel), src.path); err != nil {
			log.Warn("Unable to store source in the report", zap.String("file", src.path), zap.Error(err))
		}
		if err := compileSource(ctx, f, c, src, opts, log); err != nil {
			log.Error("Unable to compile block", zap.String("file", src.path), zap.Error(err))
			errs = multierr.Append(errs, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d block(s) failed to compile: %w", failed, len(sources), errs)
	}
	return nil
}

func compileSource(ctx context.Context, f *factory.Factory, c *compiler.Compiler, src source, opts options, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	start := time.Now()
	b, err := f.GetBlockFromPath(ctx, src.path)
	if err != nil {
		return err
	}

	outputName, err := buildOutputPath(src, b, opts.mode, env)
	if err != nil {
		return err
	}

	var (
		text   string
		cached bool
		key    string
	)
	if env.Cache != nil {
		key = cache.Key(b, opts.mode, opts.reserved)
		if text, cached, err = env.Cache.Get(key); err != nil {
			log.Warn("Compile cache lookup failed", zap.Error(err))
		}
	}
	if !cached {
		out, err := c.Compile(b, nil, opts.reserved)
		if err != nil {
			return err
		}
		text = out.String()
		if env.Cache != nil {
			if err := env.Cache.Put(key, b.Identifier(), text); err != nil {
				log.Warn("Unable to update compile cache", zap.Error(err))
			}
		}
	}

	if err := writeOutput(outputName, text, env.Overwrite, log); err != nil {
		return err
	}
	env.Rpt.Store("results/"+filepath.ToSlash(filepath.Join(filepath.Dir(src.rel), filepath.Base(outputName))), outputName)

	log.Info("Block compiled", zap.String("block", b.Name()), zap.String("from", src.rel), zap.String("to", outputName),
		zap.Bool("cached", cached), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func writeOutput(name, text string, overwrite bool, log *zap.Logger) error {
	if _, err := os.Stat(name); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", name)
		}
		log.Warn("Overwriting existing file", zap.String("file", name))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(name, []byte(text), 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}

// Debug is "debug" command action: it prints block structure, or with
// --classes compiled class names as YAML.
func Debug(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("debug")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	opts := prepareOptions(cmd, env, log)

	wd, _ := os.Getwd()
	b, err := factory.New(&factory.FSImporter{Root: wd}, log).GetBlockFromPath(ctx, src)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}
	if !cmd.Bool("classes") {
		_, err = fmt.Fprintln(out, b.Debug(opts.mode))
		return err
	}
	data, err := yaml.Marshal(b.CompiledClassesMap(opts.mode, opts.reserved))
	if err != nil {
		return fmt.Errorf("unable to marshal class names: %w", err)
	}
	_, err = out.Write(data)
	return err
}

package build

import (
	"bytes"
	"context"
	"go/ast"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"martianoff/enumwrap/enumerr"
	"martianoff/enumwrap/internal/logger"
	"martianoff/enumwrap/internal/module"
	"martianoff/enumwrap/internal/transpiler"
	"martianoff/enumwrap/internal/transpiler/generator"
	"martianoff/enumwrap/internal/transpiler/registry"
	"martianoff/enumwrap/internal/transpiler/transformer"
)

// Output is the companion file generated for one declaration file.
type Output struct {
	Source string // declaration file
	Path   string // companion file
	Code   []byte
}

// Union describes a union declaration found by Scan.
type Union struct {
	File       string
	Name       string
	Variants   []string
	Interfaces []string
	// Excluded reports whether the file carries the build constraint that
	// keeps it out of a normal build.
	Excluded bool
}

// ScanResult lists what a directory declares without generating anything.
type ScanResult struct {
	Dir        string
	ImportPath string // empty outside a module
	Interfaces []registry.Record
	Unions     []Union
}

// Builder orchestrates generation for package directories. Every directory
// gets its own interface registry: interface names resolve within a package.
type Builder struct {
	config *Config
}

// NewBuilder creates a new builder. A nil config means DefaultConfig.
func NewBuilder(config *Config) *Builder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Builder{config: config}
}

// Config returns the builder's config.
func (b *Builder) Config() *Config {
	return b.config
}

// pkgRun is the state of one directory: its transpiler pipeline, bound to
// the directory's registry, and the files parsed in phase one.
type pkgRun struct {
	dir      string
	registry *registry.InterfaceRegistry
	pipeline *transpiler.EnumwrapTranspiler
	files    []*transpiler.SourceFile
}

// Generate expands every declaration file in dirs and returns the outputs
// without writing them, ordered by directory then file. The first error
// aborts the run.
func (b *Builder) Generate(ctx context.Context, dirs ...string) ([]Output, error) {
	var outputs []Output
	for _, dir := range dirs {
		run, err := b.register(ctx, dir)
		if err != nil {
			return nil, err
		}
		out, err := b.expand(ctx, run)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out...)
	}
	return outputs, nil
}

// Write stores outputs next to their declaration files.
func (b *Builder) Write(outputs []Output) error {
	for _, out := range outputs {
		if err := os.WriteFile(out.Path, out.Code, 0644); err != nil {
			return errors.Wrapf(err, "writing %s", out.Path)
		}
		logger.Infow("wrote", "file", out.Path, "from", filepath.Base(out.Source))
	}
	return nil
}

// Stale returns the companion files that are missing or differ from
// outputs.
func (b *Builder) Stale(outputs []Output) ([]string, error) {
	var stale []string
	for _, out := range outputs {
		existing, err := os.ReadFile(out.Path)
		if errors.Is(err, os.ErrNotExist) {
			stale = append(stale, out.Path)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", out.Path)
		}
		if !bytes.Equal(existing, out.Code) {
			stale = append(stale, out.Path)
		}
	}
	return stale, nil
}

// Scan registers the interfaces of every directory and lists the union
// declarations it finds, reporting malformed ones as errors.
func (b *Builder) Scan(ctx context.Context, dirs ...string) ([]ScanResult, error) {
	var results []ScanResult
	for _, dir := range dirs {
		run, err := b.register(ctx, dir)
		if err != nil {
			return nil, err
		}
		res := ScanResult{Dir: dir, Interfaces: run.registry.Records()}
		if mod, ok, err := module.Find(dir); err == nil && ok {
			res.ImportPath, _ = mod.ImportPath(dir)
		}
		for _, file := range run.files {
			for _, decl := range file.File.Decls {
				gd, ok := decl.(*ast.GenDecl)
				if !ok || !transformer.IsUnionDecl(gd) {
					continue
				}
				req, err := transformer.ParseUnion(file, gd)
				if err != nil {
					return nil, err
				}
				u := Union{
					File:     file.Path,
					Name:     req.Name,
					Excluded: transformer.ExcludedByConstraint(file.File, b.config.BuildTag),
				}
				for _, v := range req.Variants {
					name, _ := transformer.VariantName(v.Type)
					u.Variants = append(u.Variants, name)
				}
				for _, ref := range req.AutoImpls {
					u.Interfaces = append(u.Interfaces, ref.String())
				}
				res.Unions = append(res.Unions, u)
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// register is phase one: parse every source file of dir and register its
// interfaces. Files are handled concurrently; the registry serializes the
// inserts.
func (b *Builder) register(ctx context.Context, dir string) (*pkgRun, error) {
	start := time.Now()
	paths, err := b.sourceFiles(dir)
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	run := &pkgRun{
		dir:      dir,
		registry: reg,
		pipeline: transpiler.NewEnumwrapTranspiler(
			transpiler.NewGoSourceParser(),
			transformer.NewEnumwrapTransformer(reg),
			generator.NewGoCodeGenerator(b.config.FixImports),
		),
	}

	files := make([]*transpiler.SourceFile, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.jobs(len(paths)))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "reading %s", path)
			}
			file, err := run.pipeline.Parse(path, src)
			if err != nil {
				return err
			}
			if ast.IsGenerated(file.File) {
				return nil
			}
			names, err := run.pipeline.Register(file)
			if err != nil {
				return err
			}
			if len(names) > 0 {
				logger.Debugw("registered interfaces", "file", path, "names", names)
			}
			files[i] = file
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, f := range files {
		if f != nil {
			run.files = append(run.files, f)
		}
	}
	logger.Debugw("registration done",
		"dir", dir,
		"files", len(run.files),
		"interfaces", reg.Len(),
		"elapsed", time.Since(start))
	return run, nil
}

// expand is phase two: every file declaring a union is expanded against the
// complete registry.
func (b *Builder) expand(ctx context.Context, run *pkgRun) ([]Output, error) {
	var decls []*transpiler.SourceFile
	for _, f := range run.files {
		if declaresUnion(f.File) {
			decls = append(decls, f)
		}
	}

	outputs := make([]Output, len(decls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.jobs(len(decls)))
	for i, file := range decls {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			if !transformer.ExcludedByConstraint(file.File, b.config.BuildTag) {
				return enumerr.Newf(enumerr.TypeMalformed,
					"file declares unions but is not excluded from the normal build; add //go:build %s",
					b.config.BuildTag).At(file.Position(file.File.Package))
			}
			outPath := b.config.OutputPath(file.Path)
			code, err := run.pipeline.Transpile(file, outPath)
			if err != nil {
				return err
			}
			outputs[i] = Output{Source: file.Path, Path: outPath, Code: code}
			logger.Debugw("expanded", "file", file.Path, "elapsed", time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// sourceFiles lists the .go files of dir in a stable order. Companion files
// are left out by name as well as by their generated header.
func (b *Builder) sourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading directory %s", dir)
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, b.config.OutputSuffix) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func (b *Builder) jobs(n int) int {
	jobs := b.config.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return max(1, min(jobs, n))
}

func declaresUnion(f *ast.File) bool {
	for _, decl := range f.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok && transformer.IsUnionDecl(gd) {
			return true
		}
	}
	return false
}

// Package generator drives one scaffolding run from input to committed tree.
//
// Overview:
//   - Responsibility: Load the spec, materialize the file set, and commit it transactionally
//   - Key Types: Generator, Options, Result
//   - Concurrency Model: Phases run sequentially; only the commit fans out over a bounded pool
//   - Error Semantics: Load and materialize errors return before any file is touched
//   - Performance Notes: Each phase is timed and logged with its file count and digest
//
// Usage:
//
//	gen := generator.New(catalog.Default(), templates.NewLoader(), logger)
//	result, err := gen.Run(ctx, loader.Input{Headless: payload}, generator.Options{OutputDir: "./app"})
package generator

import (
	"context"
	"time"

	"go.eggybyte.com/egg/expressgen/core/log"
	"go.eggybyte.com/egg/expressgen/core/runmeta"
	"go.eggybyte.com/egg/expressgen/internal/appspec"
	"go.eggybyte.com/egg/expressgen/internal/catalog"
	"go.eggybyte.com/egg/expressgen/internal/loader"
	"go.eggybyte.com/egg/expressgen/internal/materializer"
	"go.eggybyte.com/egg/expressgen/internal/projectfs"
	"go.eggybyte.com/egg/expressgen/internal/templates"
	"go.eggybyte.com/egg/expressgen/logx"
)

// Options controls where and how a run writes.
type Options struct {
	OutputDir string // Destination directory; "" means the working directory
	Workers   int    // Concurrent file writers
	Overwrite bool   // Replace existing files
	DryRun    bool   // Render only; skip the commit
}

// Result describes a finished run.
type Result struct {
	Mode      string
	Spec      *appspec.Spec
	Files     materializer.FileSet
	Digest    string
	Committed bool
}

// Generator wires loader, materializer and writer together.
//
// Concurrency:
//   - Safe for concurrent use; each Run owns its file set
type Generator struct {
	loader       *loader.Loader
	materializer *materializer.Materializer
	logger       log.Logger
	prompter     loader.Prompter
	fsOptions    []projectfs.Option
}

// Option configures a Generator.
type Option func(*Generator)

// WithPrompter sets the prompter used in interactive mode.
func WithPrompter(p loader.Prompter) Option {
	return func(g *Generator) { g.prompter = p }
}

// WithFSOptions passes options to every projectfs writer the generator creates.
func WithFSOptions(opts ...projectfs.Option) Option {
	return func(g *Generator) { g.fsOptions = append(g.fsOptions, opts...) }
}

// New creates a Generator.
//
// Parameters:
//   - cat: Service catalog
//   - tl: Template loader
//   - logger: Structured logger; nil discards
//   - opts: Optional prompter and writer options
//
// Returns:
//   - *Generator: Ready generator
func New(cat *catalog.Catalog, tl *templates.Loader, logger log.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = log.Nop()
	}
	g := &Generator{
		loader:       loader.New(cat, logger),
		materializer: materializer.New(cat, tl),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run executes load, materialize and, unless DryRun, commit.
//
// Parameters:
//   - ctx: Cancels prompting and the commit
//   - in: Input payloads
//   - opts: Output options
//
// Returns:
//   - Result: Mode, spec, rendered files and digest; Committed reports whether files were written
//   - error: VALIDATION, TEMPLATE, WRITE or CANCELED error from the failing phase
//
// Concurrency:
//   - Safe for concurrent use with distinct output directories
//
// Performance:
//   - Dominated by the commit's file I/O
func (g *Generator) Run(ctx context.Context, in loader.Input, opts Options) (Result, error) {
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	ctx = runmeta.With(ctx, &runmeta.Run{Mode: in.Mode(), OutputDir: outputDir, DryRun: opts.DryRun})
	logger := logx.FromContext(ctx, g.logger)

	result := Result{Mode: in.Mode()}

	start := time.Now()
	spec, err := g.loader.Load(ctx, in, g.prompter)
	if err != nil {
		logger.Error(err, "load failed", log.Str("phase", "load"))
		return result, err
	}
	result.Spec = spec
	logger.Info("spec loaded",
		log.Str("phase", "load"),
		log.Str("name", spec.Name()),
		log.Strs("services", spec.Services()),
		log.Dur("duration", time.Since(start)))

	start = time.Now()
	files, err := g.materializer.Materialize(spec)
	if err != nil {
		logger.Error(err, "materialize failed", log.Str("phase", "materialize"))
		return result, err
	}
	result.Files = files
	result.Digest = files.Digest()
	logger.Info("files materialized",
		log.Str("phase", "materialize"),
		log.Int("files", len(files)),
		log.Int("bytes", files.Size()),
		log.Str("digest", result.Digest),
		log.Dur("duration", time.Since(start)))

	if opts.DryRun {
		logger.Info("dry run, nothing written", log.Str("phase", "commit"))
		return result, nil
	}

	start = time.Now()
	fsOpts := append([]projectfs.Option{projectfs.WithLogger(logger)}, g.fsOptions...)
	pfs := projectfs.NewProjectFS(outputDir, fsOpts...)
	if err := pfs.Commit(ctx, files, projectfs.Options{Workers: opts.Workers, Overwrite: opts.Overwrite}); err != nil {
		logger.Error(err, "commit failed", log.Str("phase", "commit"))
		return result, err
	}
	result.Committed = true
	logger.Info("files committed",
		log.Str("phase", "commit"),
		log.Int("files", len(files)),
		log.Dur("duration", time.Since(start)))
	return result, nil
}

// Validate loads and materializes without writing, for the validate command.
func (g *Generator) Validate(ctx context.Context, in loader.Input) (Result, error) {
	return g.Run(ctx, in, Options{DryRun: true})
}

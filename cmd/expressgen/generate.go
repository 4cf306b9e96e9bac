package main

import (
	"github.com/spf13/cobra"

	"go.eggybyte.com/egg/expressgen/core/log"
	"go.eggybyte.com/egg/expressgen/internal/catalog"
	"go.eggybyte.com/egg/expressgen/internal/generator"
	"go.eggybyte.com/egg/expressgen/internal/loader"
	"go.eggybyte.com/egg/expressgen/internal/templates"
	"go.eggybyte.com/egg/expressgen/internal/toolconfig"
	"go.eggybyte.com/egg/expressgen/internal/ui"
)

// flagKeys maps CLI flags onto configuration keys. Only flags the user set are applied.
var flagKeys = map[string]string{
	"output":     toolconfig.KeyOutputDir,
	"workers":    toolconfig.KeyOutputWorkers,
	"force":      toolconfig.KeyOutputOverwrite,
	"log-level":  toolconfig.KeyLogLevel,
	"log-format": toolconfig.KeyLogFormat,
	"log-color":  toolconfig.KeyLogColor,
}

// summary is the JSON data attached to generate and validate results.
type summary struct {
	Name      string   `json:"name"`
	Mode      string   `json:"mode"`
	OutputDir string   `json:"outputDir,omitempty"`
	Files     []string `json:"files"`
	Digest    string   `json:"digest"`
	Committed bool     `json:"committed"`
}

// loadConfig layers defaults, --config, EXPRESSGEN_* and explicitly set flags.
func loadConfig(cmd *cobra.Command, o *rootOptions) (*toolconfig.Config, log.Logger, error) {
	overrides := make(map[string]any)
	flags := cmd.Flags()
	for name, key := range flagKeys {
		if !flags.Changed(name) {
			continue
		}
		switch name {
		case "output":
			overrides[key] = o.output
		case "workers":
			overrides[key] = o.workers
		case "force":
			overrides[key] = o.force
		case "log-level":
			overrides[key] = o.logLevel
		case "log-format":
			overrides[key] = o.logFormat
		case "log-color":
			overrides[key] = o.logColor
		}
	}
	if o.verbose && !flags.Changed("log-level") {
		overrides[toolconfig.KeyLogLevel] = "debug"
	}

	cfg, err := toolconfig.Load(toolconfig.Sources{File: o.configFile, Overrides: overrides})
	if err != nil {
		return nil, nil, err
	}
	logger, err := cfg.Logger(o.stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func (o *rootOptions) input() loader.Input {
	return loader.Input{
		Headless:    o.headless,
		Spec:        o.spec,
		Bluemix:     o.bluemix,
		Framework:   o.framework,
		Interactive: !o.nonInteractive,
	}
}

func (o *rootOptions) generator(tl *templates.Loader, logger log.Logger) *generator.Generator {
	console := ui.NewConsole(o.stdin, ui.Stdout())
	return generator.New(catalog.Default(), tl, logger, generator.WithPrompter(console))
}

func summarize(result generator.Result, outputDir string) summary {
	s := summary{
		Mode:      result.Mode,
		OutputDir: outputDir,
		Files:     result.Files.Paths(),
		Digest:    result.Digest,
		Committed: result.Committed,
	}
	if result.Spec != nil {
		s.Name = result.Spec.Name()
	}
	return s
}

// runGenerate executes the root command.
//
// Parameters:
//   - cmd: Root command, used to tell explicitly set flags apart
//   - o: Parsed flag values
//
// Returns:
//   - error: Configuration or generation failure
//
// Concurrency:
//   - Single-threaded; the commit fans out over cfg.Output.Workers writers
func runGenerate(cmd *cobra.Command, o *rootOptions) error {
	cfg, logger, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}

	if o.dryRun && cfg.Output.Overwrite {
		ui.Warning("overwrite has no effect with --dry-run")
	}

	result, err := o.generator(templates.NewLoader(), logger).Run(cmd.Context(), o.input(), generator.Options{
		OutputDir: cfg.Output.Dir,
		Workers:   cfg.Output.Workers,
		Overwrite: cfg.Output.Overwrite,
		DryRun:    o.dryRun,
	})
	if err != nil {
		return err
	}

	for _, p := range result.Files.Paths() {
		ui.Debug("%s", p)
	}
	s := summarize(result, cfg.Output.Dir)
	if !result.Committed {
		ui.Result(s, "Dry run: %d files for %s would be written to %s", len(s.Files), s.Name, s.OutputDir)
		return nil
	}
	ui.Result(s, "Generated %d files for %s in %s", len(s.Files), s.Name, s.OutputDir)
	return nil
}

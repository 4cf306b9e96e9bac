// Package main provides the expressgen CLI entry point.
//
// Overview:
//   - Responsibility: Flag parsing, configuration layering and command dispatch
//   - Key Types: Cobra command tree built by newRootCmd
//   - Concurrency Model: Single-threaded CLI execution; the commit fans out internally
//   - Error Semantics: Exit code 1 with the error code printed through ui.Error
//   - Performance Notes: Fast startup; templates are parsed lazily
//
// Usage:
//
//	expressgen [flags]
//	expressgen services|frameworks|validate|version
package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"go.eggybyte.com/egg/expressgen/internal/ui"
	"go.eggybyte.com/egg/expressgen/internal/version"
)

// rootOptions holds every flag value plus the streams a command reads and logs to.
type rootOptions struct {
	headless  string
	spec      string
	bluemix   string
	framework string

	output  string
	workers int
	force   bool
	dryRun  bool

	configFile string
	logLevel   string
	logFormat  string
	logColor   bool

	nonInteractive bool
	verbose        bool
	jsonOutput     bool

	stdin  io.Reader
	stderr io.Writer
}

// newRootCmd builds the command tree.
//
// Parameters:
//   - stdin: Answers for interactive prompts
//   - stderr: Structured log destination
//
// Returns:
//   - *cobra.Command: Root command with every subcommand attached
//
// Concurrency:
//   - Single-threaded CLI execution
func newRootCmd(stdin io.Reader, stderr io.Writer) *cobra.Command {
	o := &rootOptions{stdin: stdin, stderr: stderr}

	root := &cobra.Command{
		Use:   "expressgen",
		Short: "Scaffold a Node.js Express application for IBM Cloud",
		Long: `expressgen generates a ready-to-run Express project from a headless JSON payload,
a spec/bluemix pair, or an interactive interview.

Input precedence is --headless, then --spec/--bluemix, then prompts.
Nothing is written unless every file renders; a failed write rolls back.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.SetVerbose(o.verbose)
			ui.SetJSONOutput(o.jsonOutput)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, o)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.headless, "headless", "", "Headless JSON payload; no prompts")
	pf.StringVar(&o.spec, "spec", "", "Spec JSON payload")
	pf.StringVar(&o.bluemix, "bluemix", "", "Bluemix JSON payload")
	pf.StringVar(&o.framework, "framework", "", "Framework variant for --spec/--bluemix and prompts (None, WebApp, Microservice; default None)")
	pf.StringVar(&o.configFile, "config", "", "YAML configuration file")
	pf.StringVar(&o.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&o.logFormat, "log-format", "logfmt", "Log format (logfmt, json)")
	pf.BoolVar(&o.logColor, "log-color", false, "Colorize log levels (logfmt only)")
	pf.BoolVar(&o.nonInteractive, "non-interactive", false, "Fail instead of prompting when no payload is given")
	pf.BoolVarP(&o.verbose, "verbose", "V", false, "Enable verbose output")
	pf.BoolVar(&o.jsonOutput, "json", false, "Output in JSON format")

	f := root.Flags()
	f.StringVarP(&o.output, "output", "o", ".", "Directory to generate into")
	f.IntVar(&o.workers, "workers", 4, "Concurrent file writers")
	f.BoolVar(&o.force, "force", false, "Overwrite existing files")
	f.BoolVar(&o.dryRun, "dry-run", false, "Render without writing")

	root.AddCommand(
		newServicesCmd(),
		newFrameworksCmd(),
		newValidateCmd(o),
		newVersionCmd(),
	)

	root.Version = version.Get().String()
	root.SetVersionTemplate("{{.Version}}\n")
	return root
}

// run executes the CLI and returns its exit code.
//
// Parameters:
//   - args: Command-line arguments without the program name
//   - stdin: Prompt input
//   - stdout: ui output
//   - stderr: ui errors and structured logs
//
// Returns:
//   - int: 0 on success, 1 on any error
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	restore := ui.SetOutput(stdout, stderr)
	defer restore()

	root := newRootCmd(stdin, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		ui.Error("%v", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

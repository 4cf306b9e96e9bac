package main

import (
	"github.com/spf13/cobra"

	"go.eggybyte.com/egg/expressgen/internal/templates"
	"go.eggybyte.com/egg/expressgen/internal/ui"
)

// newValidateCmd renders the project in memory and reports its digest without writing.
func newValidateCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and render the input without writing, then print the file-set digest",
		Long: `validate runs the same load and render phases as generation and prints the
SHA-256 digest of the rendered file set. Two inputs with equal digests produce
byte-identical projects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			tl := templates.NewLoader()
			n, err := tl.ValidateAllTemplates()
			if err != nil {
				return err
			}
			ui.Step(1, 2, "Parsed %d templates", n)

			result, err := o.generator(tl, logger).Validate(cmd.Context(), o.input())
			if err != nil {
				return err
			}
			ui.Step(2, 2, "Rendered %d files", len(result.Files))
			for _, p := range result.Files.Paths() {
				ui.Debug("%s", p)
			}
			s := summarize(result, "")
			ui.Result(s, "%s: %d files, digest %s", s.Name, len(s.Files), s.Digest)
			return nil
		},
	}
}

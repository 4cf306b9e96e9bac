package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go.eggybyte.com/egg/expressgen/internal/appspec"
	"go.eggybyte.com/egg/expressgen/internal/materializer"
	"go.eggybyte.com/egg/expressgen/internal/ui"
)

var frameworkSummaries = map[appspec.Framework]string{
	appspec.FrameworkNone:         "GET / answers with the application name",
	appspec.FrameworkWebApp:       "serves ./public statically with index.html at /",
	appspec.FrameworkMicroservice: "mounts a JSON status router under /api",
}

type frameworkRow struct {
	Name     string `json:"name"`
	Template string `json:"template"`
	Summary  string `json:"summary"`
}

func newFrameworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frameworks",
		Short: "List the accepted --framework values",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			listFrameworks()
		},
	}
}

func listFrameworks() {
	var rows []frameworkRow
	for _, f := range appspec.Frameworks() {
		tmpl, _ := materializer.PublicRouterTemplate(f)
		rows = append(rows, frameworkRow{
			Name:     string(f),
			Template: tmpl,
			Summary:  frameworkSummaries[f],
		})
	}

	if ui.JSONOutput() {
		ui.Result(rows, "%d frameworks available", len(rows))
		return
	}

	w := tabwriter.NewWriter(ui.Stdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tPUBLIC ROUTER\n")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\n", r.Name, r.Summary)
	}
	w.Flush()
}

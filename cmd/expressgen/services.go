package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go.eggybyte.com/egg/expressgen/internal/catalog"
	"go.eggybyte.com/egg/expressgen/internal/ui"
)

type serviceRow struct {
	ID           string            `json:"id"`
	Label        string            `json:"label"`
	Kind         string            `json:"kind"`
	File         string            `json:"file"`
	Aliases      []string          `json:"aliases,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func newServicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the cloud services expressgen can wire in",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			listServices(catalog.Default())
		},
	}
}

func listServices(cat *catalog.Catalog) {
	descs := cat.All()
	rows := make([]serviceRow, 0, len(descs))
	for _, d := range descs {
		rows = append(rows, serviceRow{
			ID:           d.ID,
			Label:        d.Label,
			Kind:         string(d.Kind),
			File:         d.OutputPath(),
			Aliases:      d.Aliases,
			Dependencies: d.Dependencies,
		})
	}

	if ui.JSONOutput() {
		ui.Result(rows, "%d services available", len(rows))
		return
	}

	w := tabwriter.NewWriter(ui.Stdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tKIND\tLABEL\tDEPENDENCIES\n")
	for _, r := range rows {
		deps := make([]string, 0, len(r.Dependencies))
		for name, ver := range r.Dependencies {
			deps = append(deps, name+"@"+ver)
		}
		sort.Strings(deps)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Kind, r.Label, strings.Join(deps, ", "))
	}
	w.Flush()
}

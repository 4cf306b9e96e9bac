package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.eggybyte.com/egg/expressgen/internal/ui"
	"go.eggybyte.com/egg/expressgen/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show expressgen version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Get()
			if ui.JSONOutput() {
				ui.Result(info, "%s", info.String())
				return
			}
			fmt.Fprintln(ui.Stdout(), info.Full())
		},
	}
}

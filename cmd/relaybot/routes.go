// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// routeView is the JSON shape of one route.
type routeView struct {
	Command string `json:"command"`
	Group   string `json:"group"`
	Handler string `json:"handler"`
	Help    string `json:"help,omitempty"`
}

// NewRoutesCmd creates the routes subcommand.
func NewRoutesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the resolved command table",
		Long:  `Builds the command registry and prints every routed command with its owning group and handler.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}

			views := make([]routeView, 0, rt.registry.Len())
			for _, r := range rt.registry.Routes() {
				views = append(views, routeView{
					Command: r.Command,
					Group:   r.Group,
					Handler: r.Class + "." + r.Method,
					Help:    rt.mapping[r.Command].Help,
				})
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "COMMAND\tGROUP\tHANDLER\tHELP")
			for _, v := range views {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Command, v.Group, v.Handler, v.Help)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}

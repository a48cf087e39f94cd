// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check subcommand.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and command mapping",
		Long: `Loads the configuration and the command mapping, resolves every command
and constructs every owning component, then exits. Does NOT start the
chat server. Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines to catch mapping errors early:
  relaybot check --commands commands.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "OK: %d commands routed to %d components\n",
				rt.registry.Len(), len(rt.registry.Classes()))
			if skipped := len(rt.mapping) - rt.registry.Len(); skipped > 0 {
				fmt.Fprintf(out, "skipped %d commands with unknown groups\n", skipped)
			}
			return nil
		},
	}
}

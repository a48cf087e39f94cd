// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/relaybot/relaybot/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the relaybot CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relaybot",
		Short: "relaybot - a chat command bot",
		Long: `relaybot answers prefixed chat commands. A declarative command mapping
binds each command id to a handler method on an owning component; the
dispatcher routes every invocation to the single shared instance of that
component.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/relaybot/config.yaml)")
	cmd.PersistentFlags().String("log-format", config.DefaultLogFormat, "log format (json or text)")
	cmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("commands", "", "command mapping file (default: built-in mapping)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewRoutesCmd())
	cmd.AddCommand(NewCallCmd())

	return cmd
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relaybot/relaybot/internal/command"
	"github.com/relaybot/relaybot/pkg/errutil"
)

// NewCallCmd creates the call subcommand.
func NewCallCmd() *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "call <command> [message...]",
		Short: "Dispatch a single command and print the reply",
		Long: `Builds the command registry, dispatches one command exactly as the chat
server would and prints the reply. The message may include --nocache;
put it after "--" so it is not parsed as a flag:

  relaybot call ?tally -- lunch --nocache`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), rt.cfg.Bot.DispatchTimeout)
			defer cancel()

			reply, err := rt.dispatcher.DispatchRequest(ctx, &command.Request{
				Command: args[0],
				Message: strings.Join(args[1:], " "),
				Author:  author,
			})
			if err != nil {
				errutil.LogError(ctx, rt.logger, "command failed", err, "command", args[0])
				cmd.PrintErrln(command.UserMessage(err))
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), reply.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "author name passed to the handler")

	return cmd
}

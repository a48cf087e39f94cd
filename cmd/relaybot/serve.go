// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/relaybot/relaybot/internal/chat"
	"github.com/relaybot/relaybot/internal/config"
	"github.com/relaybot/relaybot/internal/observability"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat server",
		Long: `Start the line-oriented chat server and, unless --metrics-addr is empty,
the metrics and health endpoints. Lines starting with the command prefix
are dispatched; everything else is ignored.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}

	cmd.Flags().String("listen", config.DefaultListen, "chat listen address")
	cmd.Flags().String("metrics-addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("prefix", config.DefaultPrefix, "command prefix")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	cfg := rt.cfg

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var chatSrv *chat.Server
	var metrics *observability.Metrics
	var obsSrv *observability.Server
	if cfg.MetricsAddr != "" {
		obsSrv = observability.NewServer(observability.Options{
			Addr:   cfg.MetricsAddr,
			Ready:  func() bool { return chatSrv.Ready() },
			Logger: rt.logger,
		})
		metrics = obsSrv.Metrics()
	}

	chatSrv = chat.NewServer(chat.Options{
		Addr:            cfg.Listen,
		ListenRetries:   cfg.ListenRetries,
		Prefix:          cfg.Bot.Prefix,
		DispatchTimeout: cfg.Bot.DispatchTimeout,
		Logger:          rt.logger,
		Metrics:         metrics,
	}, rt.dispatcher)

	slog.Info("relaybot starting",
		"name", cfg.Bot.Name,
		"listen", cfg.Listen,
		"prefix", cfg.Bot.Prefix,
		"commands", rt.registry.Len())

	// The first server to fail cancels the group context, stopping the other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := chatSrv.Run(gctx); err != nil {
			return fmt.Errorf("chat server error: %w", err)
		}
		return nil
	})
	if obsSrv != nil {
		g.Go(func() error {
			if err := obsSrv.Run(gctx); err != nil {
				return fmt.Errorf("observability server error: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("shutdown complete")
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/relaybot/relaybot/internal/command"
	"github.com/relaybot/relaybot/internal/command/handlers"
	"github.com/relaybot/relaybot/internal/config"
	"github.com/relaybot/relaybot/internal/logging"
)

// runtime is everything a subcommand needs after startup.
type runtime struct {
	cfg        *config.Config
	logger     *slog.Logger
	mapping    command.Mapping
	registry   *command.Registry
	dispatcher *command.Dispatcher
}

// bootstrap loads configuration, configures logging and builds the command
// registry and dispatcher. Logs go to the command's error stream.
func bootstrap(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger := logging.Setup(logging.Options{
		Service: "relaybot",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	}, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	mapping, err := loadMapping(cfg)
	if err != nil {
		return nil, err
	}

	opts := []command.BuildOption{command.WithLogger(logger)}
	if cfg.Commands.SkipUnknownGroups {
		opts = append(opts, command.WithSkipUnknownGroups())
	}
	registry, err := command.Build(mapping, handlers.Groups(), cfg, opts...)
	if err != nil {
		return nil, err
	}

	dispatcher, err := command.NewDispatcher(registry)
	if err != nil {
		return nil, err
	}

	logger.Debug("command registry built",
		"commands", registry.Len(),
		"components", len(registry.Classes()))

	return &runtime{
		cfg:        cfg,
		logger:     logger,
		mapping:    mapping,
		registry:   registry,
		dispatcher: dispatcher,
	}, nil
}

func loadMapping(cfg *config.Config) (command.Mapping, error) {
	if cfg.Commands.File == "" {
		return handlers.DefaultMapping()
	}
	return command.LoadMappingFile(cfg.Commands.File)
}

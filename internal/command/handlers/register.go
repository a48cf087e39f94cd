// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

// Package handlers provides the bundled owning components and the built-in
// command mapping.
package handlers

import (
	_ "embed"

	"github.com/relaybot/relaybot/internal/command"
	"github.com/relaybot/relaybot/internal/config"
)

// Group ids referenced by the command mapping.
const (
	GroupActions = "actions"
	GroupVoting  = "voting"
	GroupUtility = "utility"
)

//go:embed commands.yaml
var builtinMapping []byte

// DefaultMapping returns the built-in command mapping.
func DefaultMapping() (command.Mapping, error) {
	return command.ParseMapping(builtinMapping)
}

// Groups returns the known component groups.
func Groups() []command.Group {
	return []command.Group{
		{
			ID: GroupActions,
			Classes: []command.Class{{
				Name: "Actions",
				New: func(cfg *config.Config) (command.Component, error) {
					return NewActions(cfg)
				},
				Methods: map[string]command.Method{
					"roll":   command.Bind((*Actions).Roll),
					"choose": command.Bind((*Actions).Choose),
					"ping":   command.Bind((*Actions).Ping),
				},
			}},
		},
		{
			ID: GroupVoting,
			Classes: []command.Class{{
				Name: "Voting",
				New: func(cfg *config.Config) (command.Component, error) {
					return NewVoting(cfg)
				},
				Methods: map[string]command.Method{
					"vote":  command.Bind((*Voting).Vote),
					"tally": command.Bind((*Voting).Tally),
					"close": command.Bind((*Voting).Close),
				},
			}},
		},
		{
			ID: GroupUtility,
			Classes: []command.Class{{
				Name: "Utility",
				New: func(cfg *config.Config) (command.Component, error) {
					return NewUtility(cfg)
				},
				Methods: map[string]command.Method{
					"help": command.Bind((*Utility).Help),
				},
			}},
		},
	}
}

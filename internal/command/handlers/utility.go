// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gobwas/glob"

	"github.com/relaybot/relaybot/internal/command"
	"github.com/relaybot/relaybot/internal/config"
)

// Utility implements bot self-description commands.
type Utility struct {
	name string

	mu      sync.Mutex
	listing *command.Reply // cached full listing
}

// NewUtility creates the utility component.
func NewUtility(cfg *config.Config) (*Utility, error) {
	return &Utility{name: cfg.Bot.Name}, nil
}

// Help describes the registered commands. With no argument it lists all of
// them, with a command id it shows that command's usage, and with anything
// else it treats the argument as a glob over command ids.
func (u *Utility) Help(_ context.Context, req *command.Request) (command.Reply, error) {
	commands := req.Options.Commands
	if commands == nil {
		return command.Reply{}, command.Rejected("Help is unavailable.")
	}

	arg := strings.TrimSpace(req.Message)
	if arg == "" {
		return u.fullListing(commands, req.Options.NoCache), nil
	}

	if b, ok := commands[arg]; ok {
		return describe(arg, b), nil
	}

	g, err := glob.Compile(arg)
	if err != nil {
		return command.Reply{}, command.ErrInvalidArgs(req.Command, req.Command+" [command|pattern]")
	}
	var matched []string
	for _, id := range commands.Names() {
		if g.Match(id) {
			matched = append(matched, id)
		}
	}
	if len(matched) == 0 {
		return command.TextReply(fmt.Sprintf("No commands match %q.", arg)), nil
	}
	return listing(fmt.Sprintf("Commands matching %q:", arg), commands, matched), nil
}

func (u *Utility) fullListing(commands command.Mapping, noCache bool) command.Reply {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.listing != nil && !noCache {
		return *u.listing
	}
	reply := listing(fmt.Sprintf("%s commands:", u.name), commands, commands.Names())
	u.listing = &reply
	return reply
}

func listing(title string, commands command.Mapping, ids []string) command.Reply {
	reply := command.Reply{Text: title}
	for _, id := range ids {
		help := commands[id].Help
		if help == "" {
			help = "-"
		}
		reply.Fields = append(reply.Fields, command.Field{Name: id, Value: help})
	}
	return reply
}

func describe(id string, b command.Binding) command.Reply {
	reply := command.Reply{Text: id}
	if b.Help != "" {
		reply.Text = id + " - " + b.Help
	}
	if b.Usage != "" {
		reply.Fields = append(reply.Fields, command.Field{Name: "Usage", Value: b.Usage})
	}
	return reply
}

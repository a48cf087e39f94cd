// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package handlers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relaybot/relaybot/internal/command"
	"github.com/relaybot/relaybot/internal/config"
)

// Actions implements small stateless utility actions.
type Actions struct {
	maxDice  int
	maxSides int

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewActions creates the actions component.
func NewActions(cfg *config.Config) (*Actions, error) {
	seed := uint64(time.Now().UnixNano())
	return &Actions{
		maxDice:  cfg.Actions.MaxDice,
		maxSides: cfg.Actions.MaxSides,
		rng:      rand.New(rand.NewPCG(seed, seed>>1)), //nolint:gosec // dice, not secrets
	}, nil
}

func (a *Actions) intn(n int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.IntN(n)
}

// Roll evaluates a dice expression such as "2d6+3". An empty message rolls
// 1d6.
func (a *Actions) Roll(_ context.Context, req *command.Request) (command.Reply, error) {
	usage := req.Command + " [N]dM[+K...]"

	text := strings.TrimSpace(req.Message)
	if text == "" {
		text = "1d6"
	}
	expr, err := ParseDice(text)
	if err != nil {
		return command.Reply{}, command.ErrInvalidArgs(req.Command, usage)
	}

	for _, t := range expr {
		if t.Dice && (t.Count < 1 || t.Count > a.maxDice) {
			return command.Reply{}, command.Rejected(fmt.Sprintf("You can roll between 1 and %d dice.", a.maxDice))
		}
		if t.Dice && (t.Sides < 2 || t.Sides > a.maxSides) {
			return command.Reply{}, command.Rejected(fmt.Sprintf("Dice need between 2 and %d sides.", a.maxSides))
		}
	}
	if expr.DiceCount() > a.maxDice {
		return command.Reply{}, command.Rejected(fmt.Sprintf("You can roll between 1 and %d dice.", a.maxDice))
	}

	var parts strings.Builder
	total := 0
	terms := 0
	for _, t := range expr {
		values := []int{t.Flat}
		if t.Dice {
			values = values[:0]
			for range t.Count {
				values = append(values, a.intn(t.Sides)+1)
			}
		}
		for _, v := range values {
			switch {
			case t.Negative:
				parts.WriteString(" - ")
				total -= v
			case terms > 0:
				parts.WriteString(" + ")
				total += v
			default:
				total += v
			}
			parts.WriteString(strconv.Itoa(v))
			terms++
		}
	}

	if terms == 1 {
		return command.TextReply(fmt.Sprintf("%s: %d", expr, total)), nil
	}
	return command.TextReply(fmt.Sprintf("%s: %s = %d", expr, parts.String(), total)), nil
}

// Choose picks one of the "|"-separated options in the message.
func (a *Actions) Choose(_ context.Context, req *command.Request) (command.Reply, error) {
	var options []string
	for _, opt := range strings.Split(req.Message, "|") {
		if opt = strings.TrimSpace(opt); opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) < 2 {
		return command.Reply{}, command.ErrInvalidArgs(req.Command, req.Command+" a | b [| c ...]")
	}
	return command.TextReply(options[a.intn(len(options))]), nil
}

// Ping answers pong.
func (a *Actions) Ping(_ context.Context, _ *command.Request) (command.Reply, error) {
	return command.TextReply("pong"), nil
}

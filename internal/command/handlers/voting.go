// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package handlers

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relaybot/relaybot/internal/command"
	"github.com/relaybot/relaybot/internal/config"
)

const anonymousVoter = "anonymous"

type poll struct {
	votes    map[string]string // voter -> choice
	closed   bool
	closedAt time.Time

	cached    command.Reply
	cachedAt  time.Time
	hasCached bool
}

// Voting runs simple named polls. One vote per author per topic; a later
// vote replaces the earlier one.
type Voting struct {
	maxTopics int
	cacheTTL  time.Duration
	now       func() time.Time

	mu    sync.Mutex
	polls map[string]*poll
}

// NewVoting creates the voting component.
func NewVoting(cfg *config.Config) (*Voting, error) {
	return &Voting{
		maxTopics: cfg.Voting.MaxTopics,
		cacheTTL:  cfg.Voting.CacheTTL,
		now:       time.Now,
		polls:     make(map[string]*poll),
	}, nil
}

func voter(req *command.Request) string {
	if req.Author == "" {
		return anonymousVoter
	}
	return req.Author
}

// Vote records "<topic> <choice>" for the request author.
func (v *Voting) Vote(_ context.Context, req *command.Request) (command.Reply, error) {
	topic, choice, ok := strings.Cut(strings.TrimSpace(req.Message), " ")
	choice = strings.TrimSpace(choice)
	if !ok || topic == "" || choice == "" {
		return command.Reply{}, command.ErrInvalidArgs(req.Command, req.Command+" <topic> <choice>")
	}
	topic = strings.ToLower(topic)

	v.mu.Lock()
	defer v.mu.Unlock()

	p, exists := v.polls[topic]
	if !exists {
		if len(v.polls) >= v.maxTopics && !v.evictClosed() {
			return command.Reply{}, command.Rejected("Too many polls. Close one first.")
		}
		p = &poll{votes: make(map[string]string)}
		v.polls[topic] = p
	}
	if p.closed {
		return command.Reply{}, command.Rejected(fmt.Sprintf("Poll %q is closed.", topic))
	}

	p.votes[voter(req)] = choice
	p.hasCached = false
	return command.TextReply(fmt.Sprintf("Vote recorded: %s -> %s", topic, choice)), nil
}

// Tally reports the counts for a topic. The rendering is cached for the
// configured TTL unless the request sets NoCache.
func (v *Voting) Tally(_ context.Context, req *command.Request) (command.Reply, error) {
	topic := strings.ToLower(strings.TrimSpace(req.Message))
	if topic == "" {
		return command.Reply{}, command.ErrInvalidArgs(req.Command, req.Command+" <topic>")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	p, ok := v.polls[topic]
	if !ok {
		return command.Reply{}, command.Rejected(fmt.Sprintf("No poll named %q.", topic))
	}

	now := v.now()
	if !req.Options.NoCache && p.hasCached && now.Sub(p.cachedAt) < v.cacheTTL {
		return p.cached, nil
	}

	reply := renderTally(topic, p)
	p.cached, p.cachedAt, p.hasCached = reply, now, true
	return reply, nil
}

// Close stops a poll from accepting votes. Its tally stays available until
// the slot is needed for a new poll.
func (v *Voting) Close(_ context.Context, req *command.Request) (command.Reply, error) {
	topic := strings.ToLower(strings.TrimSpace(req.Message))
	if topic == "" {
		return command.Reply{}, command.ErrInvalidArgs(req.Command, req.Command+" <topic>")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	p, ok := v.polls[topic]
	if !ok {
		return command.Reply{}, command.Rejected(fmt.Sprintf("No poll named %q.", topic))
	}
	if !p.closed {
		p.closed = true
		p.closedAt = v.now()
	}
	p.hasCached = false
	return command.TextReply(fmt.Sprintf("Poll %q closed.", topic)), nil
}

// evictClosed drops the longest-closed poll. It reports false when every
// poll is still open. Callers hold v.mu.
func (v *Voting) evictClosed() bool {
	oldest := ""
	var oldestAt time.Time
	for topic, p := range v.polls {
		if !p.closed {
			continue
		}
		if oldest == "" || p.closedAt.Before(oldestAt) {
			oldest, oldestAt = topic, p.closedAt
		}
	}
	if oldest == "" {
		return false
	}
	delete(v.polls, oldest)
	return true
}

// renderTally lists choices by descending count, then name.
func renderTally(topic string, p *poll) command.Reply {
	counts := make(map[string]int)
	for _, choice := range p.votes {
		counts[choice]++
	}
	choices := make([]string, 0, len(counts))
	for c := range counts {
		choices = append(choices, c)
	}
	slices.SortFunc(choices, func(a, b string) int {
		if n := cmp.Compare(counts[b], counts[a]); n != 0 {
			return n
		}
		return cmp.Compare(a, b)
	})

	status := ""
	if p.closed {
		status = ", closed"
	}
	reply := command.Reply{
		Text: fmt.Sprintf("Tally for %s (%d votes%s)", topic, len(p.votes), status),
	}
	for _, c := range choices {
		reply.Fields = append(reply.Fields, command.Field{Name: c, Value: strconv.Itoa(counts[c])})
	}
	return reply
}

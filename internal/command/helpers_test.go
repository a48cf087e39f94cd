// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package command

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaybot/relaybot/internal/config"
)

// recorder is a test component that remembers the requests it receives.
type recorder struct {
	cfg *config.Config

	mu    sync.Mutex
	calls []Request
}

func (r *recorder) record(req *Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, *req)
}

func (r *recorder) last() Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recorder) Echo(_ context.Context, req *Request) (Reply, error) {
	r.record(req)
	return TextReply("echo:" + req.Message), nil
}

// recorderClass returns a class whose constructions are counted.
func recorderClass(name string, constructed *atomic.Int32) Class {
	return Class{
		Name: name,
		New: func(cfg *config.Config) (Component, error) {
			if constructed != nil {
				constructed.Add(1)
			}
			return &recorder{cfg: cfg}, nil
		},
		Methods: map[string]Method{
			"echo": Bind((*recorder).Echo),
		},
	}
}

// actions is the scenario component: roll returns "rolled:<message>".
type actions struct {
	mu   sync.Mutex
	seen []Request
}

func (a *actions) Roll(_ context.Context, req *Request) (Reply, error) {
	a.mu.Lock()
	a.seen = append(a.seen, *req)
	a.mu.Unlock()
	return TextReply("rolled:" + req.Message), nil
}

func actionsGroup() Group {
	return Group{
		ID: "actions",
		Classes: []Class{{
			Name: "Actions",
			New: func(*config.Config) (Component, error) {
				return &actions{}, nil
			},
			Methods: map[string]Method{
				"roll": Bind((*actions).Roll),
			},
		}},
	}
}

func mustBuild(t *testing.T, mapping Mapping, groups ...Group) *Registry {
	t.Helper()
	reg, err := Build(mapping, groups, config.Default())
	require.NoError(t, err)
	return reg
}

func mustDispatcher(t *testing.T, reg *Registry, opts ...DispatcherOption) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(reg, opts...)
	require.NoError(t, err)
	return d
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package chat

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relaybot/relaybot/internal/command"
	"github.com/relaybot/relaybot/internal/config"
)

// testBot is a component exercising the transport's reply paths.
type testBot struct {
	release chan struct{}
}

func (b *testBot) Ping(context.Context, *command.Request) (command.Reply, error) {
	return command.TextReply("pong"), nil
}

func (b *testBot) Echo(_ context.Context, req *command.Request) (command.Reply, error) {
	if req.Options.NoCache {
		return command.TextReply("echo:" + req.Message + " (fresh)"), nil
	}
	return command.TextReply("echo:" + req.Message), nil
}

func (b *testBot) Whoami(_ context.Context, req *command.Request) (command.Reply, error) {
	if req.Author == "" {
		return command.TextReply("nobody"), nil
	}
	return command.TextReply(req.Author), nil
}

func (b *testBot) Card(context.Context, *command.Request) (command.Reply, error) {
	return command.Reply{Text: "card", Fields: []command.Field{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}}, nil
}

func (b *testBot) Reject(context.Context, *command.Request) (command.Reply, error) {
	return command.Reply{}, command.Rejected("Not today.")
}

// Wait blocks until released or cancelled.
func (b *testBot) Wait(ctx context.Context, _ *command.Request) (command.Reply, error) {
	select {
	case <-b.release:
		return command.TextReply("released"), nil
	case <-ctx.Done():
		return command.Reply{}, ctx.Err()
	}
}

func testDispatcher(t *testing.T) (*command.Dispatcher, *testBot) {
	t.Helper()
	group := command.Group{
		ID: "test",
		Classes: []command.Class{{
			Name: "Bot",
			New: func(*config.Config) (command.Component, error) {
				return &testBot{release: make(chan struct{})}, nil
			},
			Methods: map[string]command.Method{
				"ping":   command.Bind((*testBot).Ping),
				"echo":   command.Bind((*testBot).Echo),
				"whoami": command.Bind((*testBot).Whoami),
				"card":   command.Bind((*testBot).Card),
				"reject": command.Bind((*testBot).Reject),
				"wait":   command.Bind((*testBot).Wait),
			},
		}},
	}
	mapping := command.Mapping{}
	for _, m := range []string{"ping", "echo", "whoami", "card", "reject", "wait"} {
		mapping["?"+m] = command.Binding{Handler: "Bot." + m, Group: "test"}
	}

	reg, err := command.Build(mapping, []command.Group{group}, config.Default())
	require.NoError(t, err)
	d, err := command.NewDispatcher(reg)
	require.NoError(t, err)

	inst, ok := reg.Instance("Bot")
	require.True(t, ok)
	return d, inst.(*testBot)
}

// testConn wraps net.Pipe for testing.
type testConn struct {
	client net.Conn
	server net.Conn
	reader *bufio.Reader
	t      *testing.T
}

func newTestConn(t *testing.T) *testConn {
	t.Helper()
	client, server := net.Pipe()
	return &testConn{
		client: client,
		server: server,
		reader: bufio.NewReader(client),
		t:      t,
	}
}

func (tc *testConn) writeLine(s string) {
	tc.t.Helper()
	require.NoError(tc.t, tc.client.SetWriteDeadline(time.Now().Add(time.Second)))
	_, err := tc.client.Write([]byte(s + "\n"))
	require.NoError(tc.t, err)
}

func (tc *testConn) readLine() string {
	tc.t.Helper()
	require.NoError(tc.t, tc.client.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := tc.reader.ReadString('\n')
	require.NoError(tc.t, err)
	return strings.TrimRight(line, "\r\n")
}

func (tc *testConn) close() {
	_ = tc.client.Close()
	_ = tc.server.Close()
}

// startHandler runs a handler over a pipe and consumes the welcome line.
// The returned channel is closed when Handle returns.
func startHandler(t *testing.T, ctx context.Context, opts Options) (*testConn, *testBot, <-chan struct{}) {
	t.Helper()
	d, bot := testDispatcher(t)
	if opts.Prefix == "" {
		opts.Prefix = "?"
	}
	tc := newTestConn(t)
	h := NewConnectionHandler(tc.server, d, opts)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Handle(ctx)
	}()

	require.Contains(t, tc.readLine(), "Welcome")
	return tc, bot, done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return")
	}
}

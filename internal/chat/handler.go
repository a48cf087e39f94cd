// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/relaybot/relaybot/internal/command"
	"github.com/relaybot/relaybot/internal/observability"
	"github.com/relaybot/relaybot/pkg/errutil"
)

// Line kinds for the lines metric.
const (
	kindCommand = "command"
	kindControl = "control"
	kindChatter = "chatter"
)

const (
	maxNickLength = 24
	writeTimeout  = 5 * time.Second
)

// ConnectionHandler handles a single chat connection.
type ConnectionHandler struct {
	conn       net.Conn
	reader     *bufio.Reader
	dispatcher *command.Dispatcher
	prefix     string
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
	connID     ulid.ULID

	nick     string
	quitting bool

	writeMu  sync.Mutex
	inflight sync.WaitGroup
}

// NewConnectionHandler creates a handler for conn.
func NewConnectionHandler(conn net.Conn, d *command.Dispatcher, opts Options) *ConnectionHandler {
	connID := ulid.Make()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectionHandler{
		conn:       conn,
		reader:     bufio.NewReader(conn),
		dispatcher: d,
		prefix:     opts.Prefix,
		timeout:    opts.DispatchTimeout,
		logger:     logger.With("conn_id", connID.String()),
		metrics:    opts.Metrics,
		connID:     connID,
	}
}

// ConnID returns the connection id.
func (h *ConnectionHandler) ConnID() ulid.ULID {
	return h.connID
}

// Handle processes the connection until the client leaves or ctx is
// cancelled. In-flight commands are awaited before it returns; unless the
// client quit, they are cancelled first.
func (h *ConnectionHandler) Handle(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	defer func() {
		// A client that says quit still gets its pending replies.
		if !h.quitting {
			cancel()
		}
		h.inflight.Wait()
		cancel()
		if err := h.conn.Close(); err != nil {
			h.logger.Debug("error closing connection", "error", err)
		}
		close(done)
	}()

	h.send(fmt.Sprintf("Welcome! Commands start with %q. Try %shelp.", h.prefix, h.prefix))

	lineCh := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		for {
			line, err := h.reader.ReadString('\n')
			if err != nil {
				errCh <- err
				return
			}
			select {
			case lineCh <- line:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-errCh:
			if !errors.Is(err, io.EOF) {
				h.logger.Debug("connection read error", "error", err)
			}
			return

		case line := <-lineCh:
			h.processLine(ctx, line)
			if h.quitting {
				return
			}
		}
	}
}

func (h *ConnectionHandler) processLine(ctx context.Context, line string) {
	inv, ok := command.ParseLine(line)
	if !ok {
		return
	}

	switch {
	case inv.ID == "nick":
		h.metrics.LineReceived(Transport, kindControl)
		h.handleNick(inv.Message)
	case inv.ID == "quit":
		h.metrics.LineReceived(Transport, kindControl)
		h.send("Goodbye!")
		h.quitting = true
	case h.prefix != "" && strings.HasPrefix(inv.ID, h.prefix):
		h.metrics.LineReceived(Transport, kindCommand)
		h.dispatch(ctx, inv)
	default:
		h.metrics.LineReceived(Transport, kindChatter)
	}
}

func (h *ConnectionHandler) handleNick(name string) {
	if name == "" || strings.ContainsAny(name, " \t") || len(name) > maxNickLength {
		h.send(fmt.Sprintf("Usage: nick <name> (one word, at most %d characters)", maxNickLength))
		return
	}
	h.nick = name
	h.send(fmt.Sprintf("You are now known as %s.", name))
}

// dispatch runs the command in its own goroutine so a slow handler does not
// block the connection.
func (h *ConnectionHandler) dispatch(ctx context.Context, inv command.Invocation) {
	req := &command.Request{
		Command: inv.ID,
		Message: inv.Message,
		Author:  h.nick,
		Channel: h.connID.String(),
	}

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()

		callCtx := ctx
		if h.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, h.timeout)
			defer cancel()
		}

		reply, err := h.dispatcher.DispatchRequest(callCtx, req)
		if err != nil {
			if !command.IsUnknownCommand(err) {
				errutil.LogError(callCtx, h.logger, "command failed", err,
					"command", req.Command,
					"author", req.Author)
			}
			if ctx.Err() != nil {
				return
			}
			h.send(command.UserMessage(err))
			return
		}

		if text := reply.String(); text != "" {
			h.send(text)
		}
	}()
}

// send writes msg followed by a newline. Multi-line messages are written in
// one piece so concurrent replies never interleave.
func (h *ConnectionHandler) send(msg string) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if err := h.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		h.logger.Debug("failed to set write deadline", "error", err)
	}
	if _, err := fmt.Fprintln(h.conn, msg); err != nil {
		observability.RecordReplyWriteFailure(Transport)
		h.logger.Debug("failed to send message to client", "error", err)
	}
}

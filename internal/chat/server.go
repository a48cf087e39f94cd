// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

// Package chat provides the line-oriented chat transport. Lines whose first
// token starts with the command prefix are handed to the command dispatcher;
// everything else is chatter and ignored.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/relaybot/relaybot/internal/command"
	"github.com/relaybot/relaybot/internal/observability"
)

// Transport is the metrics label for this transport.
const Transport = "chat"

const listenBackoff = 100 * time.Millisecond

// Options configures a Server.
type Options struct {
	Addr            string        // listen address, "host:port"
	ListenRetries   int           // retries while Addr is in use
	Prefix          string        // command prefix, e.g. "?"
	DispatchTimeout time.Duration // per-command deadline
	Logger          *slog.Logger
	Metrics         *observability.Metrics // optional
}

// Server is a line-oriented TCP chat server.
type Server struct {
	opts       Options
	dispatcher *command.Dispatcher

	mu       sync.RWMutex
	listener net.Listener
	ready    atomic.Bool
	conns    sync.WaitGroup
}

// NewServer creates a chat server dispatching through d.
func NewServer(opts Options, d *command.Dispatcher) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{opts: opts, dispatcher: d}
}

// Addr returns the server's listen address, or "" before Run listens.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Ready reports whether the server is accepting connections.
func (s *Server) Ready() bool {
	return s.ready.Load()
}

// Run listens and serves connections until ctx is cancelled. It returns once
// every connection handler has finished.
func (s *Server) Run(ctx context.Context) error {
	listener, err := s.listen(ctx)
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", s.opts.Addr).Wrap(err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.ready.Store(true)

	s.opts.Logger.Info("chat server started", "addr", listener.Addr().String())

	defer func() {
		s.ready.Store(false)
		s.conns.Wait()
		s.opts.Logger.Info("chat server stopped")
	}()

	// Cancelling ends every connection handler and closes the listener.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			s.opts.Logger.Debug("error closing listener", "error", err)
		}
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.opts.Logger.Error("accept failed", "error", err)
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return oops.Code("ACCEPT_FAILED").Wrap(err)
		}

		s.opts.Metrics.ConnectionOpened(Transport)
		handler := NewConnectionHandler(conn, s.dispatcher, s.opts)
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			handler.Handle(ctx)
		}()
	}
}

// listen binds Addr, backing off while a previous process still holds it.
func (s *Server) listen(ctx context.Context) (net.Listener, error) {
	backoff := retry.WithMaxRetries(uint64(max(s.opts.ListenRetries, 0)), retry.NewExponential(listenBackoff))

	var listener net.Listener
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var lc net.ListenConfig
		l, err := lc.Listen(ctx, "tcp", s.opts.Addr)
		if err != nil {
			if errors.Is(err, syscall.EADDRINUSE) {
				s.opts.Logger.Warn("listen address in use, retrying", "addr", s.opts.Addr)
				return retry.RetryableError(err)
			}
			return err
		}
		listener = l
		return nil
	})
	return listener, err
}

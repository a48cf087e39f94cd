// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

// Package observability provides HTTP endpoints for metrics and health checks.
package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"

	"github.com/relaybot/relaybot/internal/command"
)

// replyWriteFailures counts replies that could not be written back to a
// connection. Package-level so transports can record without a Server.
var replyWriteFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "relaybot_reply_write_failures_total",
		Help: "Total number of replies that failed to reach the client, by transport",
	},
	[]string{"transport"},
)

// RecordReplyWriteFailure increments the reply write failure counter.
func RecordReplyWriteFailure(transport string) {
	replyWriteFailures.WithLabelValues(transport).Inc()
}

// Metrics contains the transport-level Prometheus metrics.
type Metrics struct {
	ConnectionsTotal *prometheus.CounterVec
	LinesTotal       *prometheus.CounterVec
}

// NewMetrics creates and registers the transport metrics together with the
// command dispatch metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relaybot_connections_total",
				Help: "Total number of accepted connections by transport",
			},
			[]string{"transport"},
		),
		LinesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relaybot_lines_total",
				Help: "Total number of received lines by transport and kind",
			},
			[]string{"transport", "kind"},
		),
	}

	reg.MustRegister(m.ConnectionsTotal)
	reg.MustRegister(m.LinesTotal)
	reg.MustRegister(replyWriteFailures)
	command.RegisterMetrics(reg)

	return m
}

// ConnectionOpened counts an accepted connection. Safe on a nil receiver.
func (m *Metrics) ConnectionOpened(transport string) {
	if m == nil {
		return
	}
	m.ConnectionsTotal.WithLabelValues(transport).Inc()
}

// LineReceived counts a received line of the given kind. Safe on a nil receiver.
func (m *Metrics) LineReceived(transport, kind string) {
	if m == nil {
		return
	}
	m.LinesTotal.WithLabelValues(transport, kind).Inc()
}

// shutdownTimeout bounds how long Run waits for in-flight scrapes on exit.
const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Addr   string      // listen address, "host:port"
	Ready  func() bool // readiness probe; nil means always ready
	Logger *slog.Logger
}

// Server serves /metrics and the /healthz/{probe} endpoints.
type Server struct {
	opts     Options
	registry *prometheus.Registry
	metrics  *Metrics

	mu       sync.RWMutex
	listener net.Listener
}

// NewServer creates an observability server with its own metrics registry.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Server{
		opts:     opts,
		registry: registry,
		metrics:  NewMetrics(registry),
	}
}

// Metrics returns the transport metrics registered with this server.
func (s *Server) Metrics() *Metrics {
	return s.metrics
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

// Handler returns the HTTP routes served by Run.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("GET /healthz/{probe}", s.handleProbe)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully. It returns
// nil after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", s.opts.Addr).Wrap(err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpSrv.Serve(listener)
	}()
	s.opts.Logger.Info("observability server started", "addr", listener.Addr().String())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return oops.Code("SERVE_FAILED").With("addr", s.opts.Addr).Wrap(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return oops.With("operation", "shutdown_observability_server").Wrap(err)
	}
	s.opts.Logger.Info("observability server stopped")
	return nil
}

// handleProbe answers liveness unconditionally and readiness from
// Options.Ready.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	status, body := http.StatusOK, "ok"
	switch r.PathValue("probe") {
	case "liveness":
	case "readiness":
		if s.opts.Ready != nil && !s.opts.Ready() {
			status, body = http.StatusServiceUnavailable, "not ready"
		}
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	io.WriteString(w, body+"\n")
}

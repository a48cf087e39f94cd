// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for dispatch metrics.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNotFound = "not_found"
	StatusCanceled = "canceled"
)

// CommandExecutions is the counter for dispatched commands.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandExecutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "relaybot_command_executions_total",
		Help: "Total number of dispatched commands",
	},
	[]string{"command", "group", "status"},
)

// CommandDuration is the histogram for handler run time.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "relaybot_command_duration_seconds",
		Help:    "Command handler duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command", "group"},
)

// RegisterMetrics registers command package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CommandExecutions)
	reg.MustRegister(CommandDuration)
}

// RecordCommandExecution increments the execution counter.
func RecordCommandExecution(command, group, status string) {
	CommandExecutions.WithLabelValues(command, group, status).Inc()
}

// RecordCommandDuration records how long a handler ran.
func RecordCommandDuration(command, group string, duration time.Duration) {
	CommandDuration.WithLabelValues(command, group).Observe(duration.Seconds())
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package command

import "time"

// metricsRecorder collects the labels of a single dispatch and records them
// once it completes.
type metricsRecorder struct {
	start   time.Time
	command string
	group   string
	status  string
	invoked bool
}

func newMetricsRecorder(command string) *metricsRecorder {
	return &metricsRecorder{start: time.Now(), command: command, status: StatusSuccess}
}

// route sets the group label and marks the handler as invoked, so a duration
// is observed.
func (m *metricsRecorder) route(group string) {
	m.group = group
	m.invoked = true
}

func (m *metricsRecorder) setStatus(status string) {
	m.status = status
}

// record writes the collected metrics. Unknown command ids share the empty
// command label.
func (m *metricsRecorder) record() {
	command := m.command
	if m.status == StatusNotFound {
		command = ""
	}
	RecordCommandExecution(command, m.group, m.status)
	if m.invoked {
		RecordCommandDuration(m.command, m.group, time.Since(m.start))
	}
}

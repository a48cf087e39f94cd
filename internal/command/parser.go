// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package command

import "strings"

// Invocation is a chat line split into command id and message text.
type Invocation struct {
	ID      string // first whitespace-delimited token
	Message string // remainder, internal whitespace preserved
}

// ParseLine splits a chat line into its command id and message. ok is false
// for blank lines.
func ParseLine(line string) (inv Invocation, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Invocation{}, false
	}

	idx := strings.IndexAny(trimmed, " \t")
	if idx == -1 {
		return Invocation{ID: trimmed}, true
	}

	return Invocation{
		ID:      trimmed[:idx],
		Message: strings.TrimLeft(trimmed[idx+1:], " \t"),
	}, true
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package command

import "strings"

// Reserved tokens recognised by the dispatcher.
const (
	// NoCacheFlag anywhere in a message asks the handler to skip cached results.
	NoCacheFlag = "--nocache"
	// HelpCommand is the command id that receives the declarative mapping.
	HelpCommand = "?help"
)

// StripNoCache removes every occurrence of NoCacheFlag from message and trims
// the result. found reports whether the flag was present; when it was not,
// message is returned untouched.
func StripNoCache(message string) (stripped string, found bool) {
	if !strings.Contains(message, NoCacheFlag) {
		return message, false
	}
	return strings.TrimSpace(strings.ReplaceAll(message, NoCacheFlag, "")), true
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package command

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/oops"
)

const (
	// MaxCommandIDLength is the maximum length, in runes, of a command id.
	MaxCommandIDLength = 32
)

// identPattern matches the class and method halves of a handler name.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateCommandID validates a command id such as "?roll". Ids are matched
// verbatim, so the only rules are: non-empty, no whitespace, bounded length.
func ValidateCommandID(id string) error {
	if id == "" {
		return oops.Code(CodeInvalidName).
			With("kind", "command").
			Errorf("command id cannot be empty")
	}

	if n := utf8.RuneCountInString(id); n > MaxCommandIDLength {
		return oops.Code(CodeInvalidName).
			With("kind", "command").
			With("length", n).
			With("max", MaxCommandIDLength).
			Errorf("command id exceeds maximum length of %d", MaxCommandIDLength)
	}

	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return oops.Code(CodeInvalidName).
			With("kind", "command").
			With("name", id).
			Errorf("command id %q must not contain whitespace", id)
	}

	return nil
}

// SplitHandler splits a qualified handler name "Class.method" into its class
// and method parts. ok is false unless there is exactly one dot between two
// identifiers.
func SplitHandler(qualified string) (class, method string, ok bool) {
	class, method, found := strings.Cut(qualified, ".")
	if !found || strings.Contains(method, ".") {
		return "", "", false
	}
	if !identPattern.MatchString(class) || !identPattern.MatchString(method) {
		return "", "", false
	}
	return class, method, true
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package command

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrUnknownCommand(t *testing.T) {
	err := ErrUnknownCommand("?foo")
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN_COMMAND", oopsErr.Code())
	assert.Equal(t, "?foo", oopsErr.Context()["command"])
}

func TestErrInvalidArgs(t *testing.T) {
	err := ErrInvalidArgs("?roll", "?roll [N]dM")
	oopsErr, _ := oops.AsOops(err)
	assert.Equal(t, "INVALID_ARGS", oopsErr.Code())
	assert.Equal(t, "?roll", oopsErr.Context()["command"])
	assert.Equal(t, "?roll [N]dM", oopsErr.Context()["usage"])
}

func TestRejected(t *testing.T) {
	err := Rejected("Poll \"lunch\" is closed.")
	oopsErr, _ := oops.AsOops(err)
	assert.Equal(t, "REJECTED", oopsErr.Code())
	assert.Equal(t, "Poll \"lunch\" is closed.", oopsErr.Context()["message"])
}

func TestErrComponentInit(t *testing.T) {
	cause := errors.New("no database")
	err := ErrComponentInit("Voting", cause)

	oopsErr, _ := oops.AsOops(err)
	assert.Equal(t, "COMPONENT_INIT_FAILED", oopsErr.Code())
	assert.Equal(t, "Voting", oopsErr.Context()["class"])
	assert.ErrorIs(t, err, cause)
}

func TestErrComponentType(t *testing.T) {
	err := ErrComponentType("?roll", 42)
	oopsErr, _ := oops.AsOops(err)
	assert.Equal(t, "COMPONENT_TYPE", oopsErr.Code())
	assert.Equal(t, "int", oopsErr.Context()["type"])
}

func TestResolutionErrorsCarryReason(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"unknown group", ErrUnknownGroup("?a", "g"), ReasonUnknownGroup},
		{"unknown class", ErrUnknownClass("?a", "g", "C"), ReasonUnknownClass},
		{"unknown method", ErrUnknownMethod("?a", "C", "m"), ReasonUnknownMethod},
		{"malformed handler", ErrMalformedHandler("?a", "C"), ReasonMalformedHandler},
		{"duplicate group", ErrDuplicateGroup("g"), ReasonDuplicateGroup},
		{"ambiguous class", ErrAmbiguousClass("?a", "C", "g", "h"), ReasonAmbiguousClass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, IsResolutionError(tt.err))
			assert.False(t, IsUnknownCommand(tt.err))
			oopsErr, _ := oops.AsOops(tt.err)
			assert.Equal(t, tt.reason, oopsErr.Context()["reason"])
		})
	}
}

func TestIsHelpers_NonOopsErrors(t *testing.T) {
	plain := errors.New("plain")
	assert.False(t, IsResolutionError(plain))
	assert.False(t, IsUnknownCommand(plain))
	assert.False(t, IsResolutionError(nil))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "Something went wrong. Try again."},
		{"plain error", errors.New("disk full"), "Something went wrong. Try again."},
		{"unknown command", ErrUnknownCommand("?x"), "Unknown command. Try ?help."},
		{"invalid args with usage", ErrInvalidArgs("?roll", "?roll [N]dM"), "Usage: ?roll [N]dM"},
		{"invalid args without usage", ErrInvalidArgs("?roll", ""), "Invalid arguments."},
		{"rejected", Rejected("Too many polls. Close one first."), "Too many polls. Close one first."},
		{"rejected empty", Rejected(""), "Something went wrong. Try again."},
		{"internal code", ErrComponentType("?x", 1), "Something went wrong. Try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

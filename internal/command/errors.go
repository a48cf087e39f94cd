// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package command

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Error codes for registry build and dispatch failures.
const (
	CodeResolutionFailed    = "RESOLUTION_FAILED"
	CodeComponentInitFailed = "COMPONENT_INIT_FAILED"
	CodeUnknownCommand      = "UNKNOWN_COMMAND"
	CodeInvalidMapping      = "INVALID_MAPPING"
	CodeInvalidName         = "INVALID_NAME"
	CodeComponentType       = "COMPONENT_TYPE"
	CodeInvalidArgs         = "INVALID_ARGS"
	CodeRejected            = "REJECTED"
	CodeNilRegistry         = "NIL_REGISTRY"
)

// Resolution failure reasons, stored under the "reason" context key.
const (
	ReasonUnknownGroup     = "unknown_group"
	ReasonUnknownClass     = "unknown_class"
	ReasonUnknownMethod    = "unknown_method"
	ReasonMalformedHandler = "malformed_handler"
	ReasonDuplicateGroup   = "duplicate_group"
	ReasonAmbiguousClass   = "ambiguous_class"
)

func resolutionError(reason, cmd string) oops.OopsErrorBuilder {
	return oops.Code(CodeResolutionFailed).
		With("reason", reason).
		With("command", cmd)
}

// ErrUnknownGroup creates a resolution error for a group id no known group has.
func ErrUnknownGroup(cmd, group string) error {
	return resolutionError(ReasonUnknownGroup, cmd).
		With("group", group).
		Errorf("command %s: unknown group %q", cmd, group)
}

// ErrUnknownClass creates a resolution error for a class missing from its group.
func ErrUnknownClass(cmd, group, class string) error {
	return resolutionError(ReasonUnknownClass, cmd).
		With("group", group).
		With("class", class).
		Errorf("command %s: group %q has no class %q", cmd, group, class)
}

// ErrUnknownMethod creates a resolution error for a method missing from its class.
func ErrUnknownMethod(cmd, class, method string) error {
	return resolutionError(ReasonUnknownMethod, cmd).
		With("class", class).
		With("method", method).
		Errorf("command %s: class %q has no method %q", cmd, class, method)
}

// ErrMalformedHandler creates a resolution error for a handler name that is
// not of the form "Class.method".
func ErrMalformedHandler(cmd, handler string) error {
	return resolutionError(ReasonMalformedHandler, cmd).
		With("handler", handler).
		Errorf("command %s: handler %q is not of the form Class.method", cmd, handler)
}

// ErrDuplicateGroup creates a resolution error for two known groups sharing an id.
func ErrDuplicateGroup(group string) error {
	return oops.Code(CodeResolutionFailed).
		With("reason", ReasonDuplicateGroup).
		With("group", group).
		Errorf("group id %q is declared more than once", group)
}

// ErrAmbiguousClass creates a resolution error for a class name that resolves
// in two different groups.
func ErrAmbiguousClass(cmd, class, group, otherGroup string) error {
	return resolutionError(ReasonAmbiguousClass, cmd).
		With("class", class).
		With("group", group).
		With("other_group", otherGroup).
		Errorf("command %s: class %q is defined in both %q and %q", cmd, class, otherGroup, group)
}

// ErrComponentInit wraps a constructor failure.
func ErrComponentInit(class string, cause error) error {
	return oops.Code(CodeComponentInitFailed).
		With("class", class).
		Wrapf(cause, "constructing component %s", class)
}

// ErrUnknownCommand creates an error for a command id absent from the table.
func ErrUnknownCommand(cmd string) error {
	return oops.Code(CodeUnknownCommand).
		With("command", cmd).
		Errorf("unknown command: %s", cmd)
}

// ErrInvalidArgs creates an error for a handler that rejected its arguments.
func ErrInvalidArgs(cmd, usage string) error {
	return oops.Code(CodeInvalidArgs).
		With("command", cmd).
		With("usage", usage).
		Errorf("invalid arguments")
}

// Rejected creates an error for a handler that refuses a request with a
// message meant for the user.
func Rejected(message string) error {
	return oops.Code(CodeRejected).
		With("message", message).
		Errorf("%s", message)
}

// ErrComponentType creates an error for a Method handed an instance of the
// wrong type. This only happens when classes are wired incorrectly.
func ErrComponentType(cmd string, got Component) error {
	return oops.Code(CodeComponentType).
		With("command", cmd).
		With("type", fmt.Sprintf("%T", got)).
		Errorf("command %s: component has unexpected type %T", cmd, got)
}

var errNoFactory = errors.New("class has no constructor")

// ErrNilRegistry is returned when a dispatcher is built without a registry.
var ErrNilRegistry = oops.Code(CodeNilRegistry).Errorf("registry is required")

// IsResolutionError reports whether err is a registry resolution failure.
func IsResolutionError(err error) bool {
	return hasCode(err, CodeResolutionFailed)
}

// IsUnknownCommand reports whether err reports an unregistered command id.
func IsUnknownCommand(err error) bool {
	return hasCode(err, CodeUnknownCommand)
}

func hasCode(err error, code string) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	return oopsErr.Code() == code
}

// UserMessage extracts a chat-facing message from an error.
func UserMessage(err error) string {
	if err == nil {
		return "Something went wrong. Try again."
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "Something went wrong. Try again."
	}

	switch oopsErr.Code() {
	case CodeUnknownCommand:
		return "Unknown command. Try ?help."
	case CodeInvalidArgs:
		if usage, ok := oopsErr.Context()["usage"].(string); ok && usage != "" {
			return "Usage: " + usage
		}
		return "Invalid arguments."
	case CodeRejected:
		if msg, ok := oopsErr.Context()["message"].(string); ok && msg != "" {
			return msg
		}
		return "Something went wrong. Try again."
	default:
		return "Something went wrong. Try again."
	}
}

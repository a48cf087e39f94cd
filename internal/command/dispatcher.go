// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package command

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("relaybot/command")

// Dispatcher routes command invocations through a built Registry.
//
// Dispatch is safe for concurrent use. It never serializes access to
// component instances; see Component.
type Dispatcher struct {
	registry *Registry
	help     string
}

// DispatcherOption configures a Dispatcher during construction.
type DispatcherOption func(*Dispatcher)

// WithHelpCommand overrides the command id that receives the declarative
// mapping. Defaults to HelpCommand.
func WithHelpCommand(id string) DispatcherOption {
	return func(d *Dispatcher) {
		d.help = id
	}
}

// NewDispatcher creates a dispatcher over a fully built registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) (*Dispatcher, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	d := &Dispatcher{
		registry: registry,
		help:     HelpCommand,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Registry returns the registry the dispatcher routes through.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch invokes the handler registered for commandID with message and
// positional args.
func (d *Dispatcher) Dispatch(ctx context.Context, commandID, message string, args ...string) (Reply, error) {
	return d.DispatchRequest(ctx, &Request{
		Command: commandID,
		Message: message,
		Args:    args,
	})
}

// DispatchRequest invokes the handler registered for req.Command.
//
// The cache-bypass flag is stripped from the message and reported through
// Options.NoCache; the help command additionally receives the declarative
// mapping in Options.Commands. Other caller-supplied fields pass through.
// req itself is not modified. Handler errors, including context
// cancellation, are returned as-is.
func (d *Dispatcher) DispatchRequest(ctx context.Context, req *Request) (reply Reply, err error) {
	metrics := newMetricsRecorder(req.Command)
	defer metrics.record()

	route, ok := d.registry.Lookup(req.Command)
	if !ok {
		metrics.setStatus(StatusNotFound)
		return Reply{}, ErrUnknownCommand(req.Command)
	}
	inst := d.registry.instances[route.Class]

	call := *req
	if msg, found := StripNoCache(call.Message); found {
		call.Message = msg
		call.Options.NoCache = true
	}
	if call.Command == d.help {
		call.Options.Commands = d.registry.Mapping()
	}

	ctx, span := tracer.Start(ctx, "command.dispatch",
		trace.WithAttributes(
			attribute.String("command.id", route.Command),
			attribute.String("command.group", route.Group),
			attribute.String("command.class", route.Class),
			attribute.String("command.method", route.Method),
			attribute.Bool("command.no_cache", call.Options.NoCache),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	metrics.route(route.Group)
	reply, err = route.call(ctx, inst, &call)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.setStatus(StatusCanceled)
	default:
		metrics.setStatus(StatusError)
	}
	return reply, err
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

// Package command provides the command registry builder and the dispatch core
// sitting between the chat transport and the owning components that implement
// individual commands.
package command

import (
	"context"
	"strings"

	"github.com/relaybot/relaybot/internal/config"
)

// Component is a live owning-component instance. The dispatcher never inspects
// it; it is only handed back to a Method of the Class that constructed it.
//
// Components that keep mutable state across calls MUST synchronize it
// themselves: the dispatcher invokes handlers concurrently and never
// serializes access to an instance.
type Component any

// Method is an unbound handler reference. The owning instance is supplied on
// every call.
type Method func(ctx context.Context, self Component, req *Request) (Reply, error)

// Factory constructs an owning component from the shared configuration.
type Factory func(cfg *config.Config) (Component, error)

// Class describes an owning component: how to build it and the static table
// of its handler methods, keyed by the name used in the declarative mapping.
type Class struct {
	Name    string
	New     Factory
	Methods map[string]Method
}

// Group is a named set of classes. The declarative mapping refers to groups
// by ID.
type Group struct {
	ID      string
	Classes []Class
}

// class returns the class with the given name.
func (g Group) class(name string) (Class, bool) {
	for _, c := range g.Classes {
		if c.Name == name {
			return c, true
		}
	}
	return Class{}, false
}

// Options carries the per-call flags the dispatcher derives from the message.
// Handlers read only the fields relevant to them.
type Options struct {
	// NoCache is set when the message carried the cache-bypass flag.
	NoCache bool
	// Commands is the original declarative mapping. Only set for the help
	// command.
	Commands Mapping
}

// Request is a single command invocation.
type Request struct {
	Command string   // command id as registered (e.g. "?roll")
	Message string   // message text after the command id
	Args    []string // positional arguments passed through unchanged
	Author  string   // who sent the message, if the transport knows
	Channel string   // where it was sent, if the transport knows
	Options Options
}

// Field is a labelled value in a structured reply.
type Field struct {
	Name  string
	Value string
}

// Reply is what a handler produces: plain text, structured fields, or both.
type Reply struct {
	Text   string
	Fields []Field
}

// TextReply returns a reply holding only text.
func TextReply(text string) Reply {
	return Reply{Text: text}
}

// String renders the reply as chat text, one field per line after the text.
func (r Reply) String() string {
	if len(r.Fields) == 0 {
		return r.Text
	}
	var b strings.Builder
	b.WriteString(r.Text)
	for _, f := range r.Fields {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
	}
	return b.String()
}

// Bind adapts a method expression on a concrete component type into a Method.
//
//	command.Bind((*Voting).Tally)
func Bind[T Component](fn func(T, context.Context, *Request) (Reply, error)) Method {
	return func(ctx context.Context, self Component, req *Request) (Reply, error) {
		c, ok := self.(T)
		if !ok {
			return Reply{}, ErrComponentType(req.Command, self)
		}
		return fn(c, ctx, req)
	}
}

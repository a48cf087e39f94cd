// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package command

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/relaybot/relaybot/internal/config"
)

// Route is a resolved command table entry.
type Route struct {
	Command string // command id
	Group   string // owning group id
	Class   string // owning class name, the instance table key
	Method  string // method name within Class

	call Method
}

// Registry holds the command table and the instance table. It is built once
// by Build and is read-only afterwards, so concurrent lookups need no locking.
type Registry struct {
	routes    map[string]Route
	instances map[string]Component
	mapping   Mapping
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	skipUnknownGroups bool
	logger            *slog.Logger
}

// WithSkipUnknownGroups makes Build skip entries whose group is unknown,
// logging a warning, instead of failing.
func WithSkipUnknownGroups() BuildOption {
	return func(o *buildOptions) {
		o.skipUnknownGroups = true
	}
}

// WithLogger sets the logger used for build-time messages.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// Build resolves every entry of mapping against groups and constructs each
// distinct owning class exactly once with cfg.
//
// Any resolution or constructor failure aborts the build; a partially built
// registry is never returned.
func Build(mapping Mapping, groups []Group, cfg *config.Config, opts ...BuildOption) (*Registry, error) {
	o := buildOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	byID := make(map[string]Group, len(groups))
	for _, g := range groups {
		if _, dup := byID[g.ID]; dup {
			return nil, ErrDuplicateGroup(g.ID)
		}
		byID[g.ID] = g
	}

	routes := make(map[string]Route, len(mapping))
	classes := make(map[string]Class)
	classGroup := make(map[string]string)

	// Sorted so the first reported error is deterministic.
	for _, id := range mapping.Names() {
		binding := mapping[id]

		className, methodName, ok := SplitHandler(binding.Handler)
		if !ok {
			return nil, ErrMalformedHandler(id, binding.Handler)
		}

		group, ok := byID[binding.Group]
		if !ok {
			if o.skipUnknownGroups {
				o.logger.Warn("skipping command with unknown group",
					"command", id,
					"group", binding.Group)
				continue
			}
			return nil, ErrUnknownGroup(id, binding.Group)
		}

		class, ok := group.class(className)
		if !ok {
			return nil, ErrUnknownClass(id, group.ID, className)
		}

		method, ok := class.Methods[methodName]
		if !ok || method == nil {
			return nil, ErrUnknownMethod(id, className, methodName)
		}

		if other, seen := classGroup[className]; seen && other != group.ID {
			return nil, ErrAmbiguousClass(id, className, group.ID, other)
		}
		classGroup[className] = group.ID
		classes[className] = class

		routes[id] = Route{
			Command: id,
			Group:   group.ID,
			Class:   className,
			Method:  methodName,
			call:    method,
		}
	}

	instances := make(map[string]Component, len(classes))
	for _, name := range slices.Sorted(maps.Keys(classes)) {
		class := classes[name]
		if class.New == nil {
			return nil, ErrComponentInit(name, errNoFactory)
		}
		inst, err := class.New(cfg)
		if err != nil {
			return nil, ErrComponentInit(name, err)
		}
		instances[name] = inst
		o.logger.Info("component instantiated",
			"class", name,
			"group", classGroup[name])
	}

	return &Registry{
		routes:    routes,
		instances: instances,
		mapping:   mapping.Clone(),
	}, nil
}

// Lookup returns the route for a command id.
func (r *Registry) Lookup(id string) (Route, bool) {
	route, ok := r.routes[id]
	return route, ok
}

// Has reports whether id is in the command table.
func (r *Registry) Has(id string) bool {
	_, ok := r.routes[id]
	return ok
}

// Instance returns the live instance of the named class.
func (r *Registry) Instance(class string) (Component, bool) {
	inst, ok := r.instances[class]
	return inst, ok
}

// Classes returns the names of all instantiated classes, sorted.
func (r *Registry) Classes() []string {
	return slices.Sorted(maps.Keys(r.instances))
}

// Routes returns every route sorted by command id.
// The returned slice is a copy and safe to modify.
func (r *Registry) Routes() []Route {
	out := make([]Route, 0, len(r.routes))
	for _, id := range slices.Sorted(maps.Keys(r.routes)) {
		out = append(out, r.routes[id])
	}
	return out
}

// Mapping returns a copy of the declarative mapping the registry was built
// from, including entries skipped for unknown groups.
func (r *Registry) Mapping() Mapping {
	return r.mapping.Clone()
}

// Len returns the number of routed commands.
func (r *Registry) Len() int {
	return len(r.routes)
}

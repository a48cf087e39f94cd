// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package command

import (
	"maps"
	"os"
	"slices"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Binding is one declarative entry: which handler serves a command and the
// group that owns it.
type Binding struct {
	// Handler is the qualified handler name, "Class.method".
	Handler string `yaml:"handler" json:"handler" jsonschema:"pattern=^[A-Za-z_][A-Za-z0-9_]*\\.[A-Za-z_][A-Za-z0-9_]*$"`
	// Group is the id of the group defining Class.
	Group string `yaml:"group" json:"group" jsonschema:"minLength=1"`
	// Help is a one-line description shown by the help command.
	Help string `yaml:"help,omitempty" json:"help,omitempty"`
	// Usage is a usage pattern shown by the help command.
	Usage string `yaml:"usage,omitempty" json:"usage,omitempty"`
}

// Mapping is the declarative mapping source: command id to Binding. It is the
// single source of truth for what the registry resolves.
type Mapping map[string]Binding

// Names returns the command ids in sorted order.
func (m Mapping) Names() []string {
	return slices.Sorted(maps.Keys(m))
}

// Clone returns a shallow copy of the mapping.
func (m Mapping) Clone() Mapping {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// mappingDocument is the on-disk layout of a mapping file.
type mappingDocument struct {
	Commands Mapping `yaml:"commands" json:"commands"`
}

// ParseMapping validates YAML data against the mapping schema and decodes it.
func ParseMapping(data []byte) (Mapping, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, oops.Code(CodeInvalidMapping).Wrap(err)
	}

	var doc mappingDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, oops.Code(CodeInvalidMapping).Wrapf(err, "decoding mapping")
	}

	for _, id := range doc.Commands.Names() {
		if err := ValidateCommandID(id); err != nil {
			return nil, oops.Code(CodeInvalidMapping).
				With("command", id).
				Errorf("invalid mapping: %v", err)
		}
	}

	return doc.Commands, nil
}

// LoadMappingFile reads and parses a mapping file.
func LoadMappingFile(path string) (Mapping, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, oops.Code(CodeInvalidMapping).With("path", path).Wrap(err)
	}
	m, err := ParseMapping(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return m, nil
}

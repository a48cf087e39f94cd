// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// SchemaID is the $id of the mapping file schema.
const SchemaID = "https://relaybot.dev/schemas/commands.schema.json"

var (
	compiledOnce   sync.Once
	compiledSchema *jschema.Schema
	compileErr     error
)

// GenerateSchema generates the JSON Schema for mapping files from the Go types.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&mappingDocument{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Relaybot Command Mapping"
	schema.Description = "Schema for commands.yaml mapping files"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}

// ValidateSchema validates YAML data against the mapping schema.
func ValidateSchema(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("mapping data is empty")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}

	// Round-trip through JSON so numbers and maps take the shapes the
	// validator expects.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("mapping is not representable as JSON: %w", err)
	}
	inst, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("mapping is not representable as JSON: %w", err)
	}

	sch, err := mappingSchema()
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func mappingSchema() (*jschema.Schema, error) {
	compiledOnce.Do(func() {
		var schemaBytes []byte
		schemaBytes, compileErr = GenerateSchema()
		if compileErr != nil {
			return
		}

		var doc any
		doc, compileErr = jschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if compileErr != nil {
			return
		}

		c := jschema.NewCompiler()
		if compileErr = c.AddResource("commands.schema.json", doc); compileErr != nil {
			return
		}
		compiledSchema, compileErr = c.Compile("commands.schema.json")
	})
	return compiledSchema, compileErr
}

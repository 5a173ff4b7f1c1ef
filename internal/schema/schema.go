// Package schema validates operation payloads against the JSON schemas
// declared in each handler's capability entry. Only the subset of JSON Schema
// the capability cards actually use is supported: required fields, property
// types, and numeric minimum/maximum.
package schema

import (
	"encoding/json"
	"fmt"
)

// Violation describes a failed schema check
type Violation struct {
	Field  string
	Reason string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("field %q: %s", v.Field, v.Reason)
}

// Schema is a declared input/output schema for one operation
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one schema property
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
}

// Validate checks raw payload bytes against the schema. It returns a
// *Violation naming the offending field on failure, nil on success.
func (s *Schema) Validate(input json.RawMessage) error {
	if s == nil {
		return nil
	}

	var payload map[string]json.RawMessage
	if len(input) == 0 {
		payload = map[string]json.RawMessage{}
	} else if err := json.Unmarshal(input, &payload); err != nil {
		return &Violation{Field: "", Reason: "payload is not a JSON object"}
	}

	for _, name := range s.Required {
		if _, ok := payload[name]; !ok {
			return &Violation{Field: name, Reason: "required field missing"}
		}
	}

	for name, raw := range payload {
		prop, ok := s.Properties[name]
		if !ok {
			continue // unknown fields pass, matching permissive callers
		}
		if err := checkProperty(name, raw, prop); err != nil {
			return err
		}
	}

	return nil
}

func checkProperty(name string, raw json.RawMessage, prop Property) error {
	switch prop.Type {
	case "string":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return &Violation{Field: name, Reason: "expected string"}
		}
		if len(prop.Enum) > 0 && !contains(prop.Enum, s) {
			return &Violation{Field: name, Reason: fmt.Sprintf("value %q not in %v", s, prop.Enum)}
		}
	case "integer", "number":
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return &Violation{Field: name, Reason: "expected " + prop.Type}
		}
		if prop.Minimum != nil && n < *prop.Minimum {
			return &Violation{Field: name, Reason: fmt.Sprintf("value %v below minimum %v", n, *prop.Minimum)}
		}
		if prop.Maximum != nil && n > *prop.Maximum {
			return &Violation{Field: name, Reason: fmt.Sprintf("value %v above maximum %v", n, *prop.Maximum)}
		}
	case "boolean":
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return &Violation{Field: name, Reason: "expected boolean"}
		}
	case "array":
		var a []json.RawMessage
		if err := json.Unmarshal(raw, &a); err != nil {
			return &Violation{Field: name, Reason: "expected array"}
		}
	case "object":
		var o map[string]json.RawMessage
		if err := json.Unmarshal(raw, &o); err != nil {
			return &Violation{Field: name, Reason: "expected object"}
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

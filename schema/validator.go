// Package schema checks settings documents against a JSON Schema.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Violation is one failed schema constraint.
type Violation struct {
	// Path is the JSON pointer of the offending value, "" for the root.
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	path := v.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s: %s", path, v.Message)
}

// ViolationError lists every violation found in a document, ordered by path.
type ViolationError struct {
	Violations []Violation
}

func (e *ViolationError) Error() string {
	lines := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		lines = append(lines, "- "+v.String())
	}
	return "schema validation failed:\n" + strings.Join(lines, "\n")
}

// Validator holds a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles schemaJSON under the resource name name.
func NewValidator(name string, schemaJSON []byte) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource %s: %w", name, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate checks data, which must marshal to JSON. Constraint failures are
// returned as a *ViolationError.
func (v *Validator) Validate(data interface{}) error {
	doc, err := toDocument(data)
	if err != nil {
		return err
	}

	err = v.schema.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	out := &ViolationError{}
	walk(verr, func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out.Violations = append(out.Violations, Violation{Path: e.InstanceLocation, Message: e.Message})
		}
	})
	if len(out.Violations) == 0 {
		out.Violations = append(out.Violations, Violation{Path: verr.InstanceLocation, Message: verr.Message})
	}
	sort.SliceStable(out.Violations, func(i, j int) bool {
		return out.Violations[i].Path < out.Violations[j].Path
	})
	return out
}

// toDocument converts data into the generic JSON values the compiler checks.
func toDocument(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

func walk(e *jsonschema.ValidationError, fn func(*jsonschema.ValidationError)) {
	fn(e)
	for _, cause := range e.Causes {
		walk(cause, fn)
	}
}

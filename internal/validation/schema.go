package validation

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed change_input.schema.json
var changeInputSchema string

// ValidationError lists every reason a change record was rejected.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "invalid change input: " + strings.Join(e.Reasons, "; ")
}

// NewValidationError creates a ValidationError with the given reasons.
func NewValidationError(reasons ...string) *ValidationError {
	return &ValidationError{Reasons: reasons}
}

// Schema checks change records for required fields, types, enum membership and ranges.
type Schema struct {
	compiled *jsonschema.Schema
}

// DefaultSchema compiles the embedded change input schema.
func DefaultSchema() (*Schema, error) {
	compiled, err := jsonschema.CompileString("change_input.schema.json", changeInputSchema)
	if err != nil {
		return nil, fmt.Errorf("compile change input schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// LoadSchema compiles a JSON Schema document from a file.
func LoadSchema(path string) (*Schema, error) {
	compiled, err := jsonschema.Compile(path)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", path, err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks a record decoded from JSON.
func (s *Schema) Validate(record map[string]any) error {
	err := s.compiled.Validate(record)
	if err == nil {
		return nil
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}
	var reasons []string
	collectReasons(verr, &reasons)
	sort.Strings(reasons)
	return NewValidationError(reasons...)
}

// Fields returns the declared properties and whether each one is numeric.
func (s *Schema) Fields() map[string]bool {
	fields := make(map[string]bool, len(s.compiled.Properties))
	for name, prop := range s.compiled.Properties {
		numeric := false
		for _, t := range prop.Types {
			if t == "integer" || t == "number" {
				numeric = true
			}
		}
		fields[name] = numeric
	}
	return fields
}

// collectReasons flattens the leaf causes of a validation error.
func collectReasons(verr *jsonschema.ValidationError, reasons *[]string) {
	if len(verr.Causes) == 0 {
		location := verr.InstanceLocation
		if location == "" {
			location = "/"
		}
		*reasons = append(*reasons, location+": "+verr.Message)
		return
	}
	for _, cause := range verr.Causes {
		collectReasons(cause, reasons)
	}
}

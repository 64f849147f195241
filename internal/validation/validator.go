package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/cel-go/cel"
)

// Validator is the input layer in front of the scoring engine: a record reaching the
// engine has passed the schema and no guard fired for it.
type Validator struct {
	schema *Schema
	guards []Guard
}

// NewValidator creates a validator from a schema and precompiled guards.
func NewValidator(schema *Schema, guards []Guard) *Validator {
	return &Validator{schema: schema, guards: guards}
}

// LoadValidator builds a validator from optional schema and guards files.
// An empty schemaFile selects the embedded change input schema; an empty guardsFile
// disables guards.
func LoadValidator(schemaFile, guardsFile string) (*Validator, error) {
	var (
		schema *Schema
		err    error
	)
	if schemaFile == "" {
		schema, err = DefaultSchema()
	} else {
		schema, err = LoadSchema(schemaFile)
	}
	if err != nil {
		return nil, err
	}

	var guards []Guard
	if guardsFile != "" {
		guards, err = LoadGuards(guardsFile, func() (*cel.Env, error) { return NewEnv(schema) })
		if err != nil {
			return nil, err
		}
		slog.Info("Guards loaded", "file", guardsFile, "count", len(guards))
	}

	return NewValidator(schema, guards), nil
}

// Validate checks the record against the schema, then against every guard.
// Guards only run on schema-valid records. A guard that fails to evaluate aborts
// validation with a plain error, never a ValidationError.
func (v *Validator) Validate(record map[string]any) error {
	if err := v.schema.Validate(record); err != nil {
		return err
	}

	var reasons []string
	for _, guard := range v.guards {
		fired, err := guard.Eval(record)
		if err != nil {
			return fmt.Errorf("evaluate guard %q: %w", guard.When, err)
		}
		if fired {
			reasons = append(reasons, guard.Reason)
		}
	}
	if len(reasons) > 0 {
		return NewValidationError(reasons...)
	}
	return nil
}

// DecodeRecord decodes a JSON object into a record.
func DecodeRecord(body []byte) (map[string]any, error) {
	var record map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&record); err != nil {
		return nil, NewValidationError("/: " + err.Error())
	}
	if record == nil {
		return nil, NewValidationError("/: expected an object")
	}
	return record, nil
}

package scorecard

import (
	"errors"
	"fmt"
)

// ConfigParseError is returned when a scorecard document cannot be turned into a snapshot:
// malformed YAML, malformed bin interval syntax or a structural error in the document.
type ConfigParseError struct {
	// Path is the document location, empty when the document was parsed from memory.
	Path string
	// Feature is the feature being built when the error occurred, if any.
	Feature string
	message string
	err     error
}

// Error returns the text description of the error.
func (e *ConfigParseError) Error() string {
	msg := "scorecard config"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Feature != "" {
		msg += ": feature " + e.Feature
	}
	msg += ": " + e.message
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	return msg
}

// Unwrap returns the underlying decode error.
func (e *ConfigParseError) Unwrap() error {
	return e.err
}

// NewConfigParseError creates a ConfigParseError for the given feature.
func NewConfigParseError(feature, message string, err error) *ConfigParseError {
	return &ConfigParseError{Feature: feature, message: message, err: err}
}

// UnknownFeatureError is returned when a scoring record references a feature
// absent from the active scorecard.
type UnknownFeatureError struct {
	Feature string
}

func (e *UnknownFeatureError) Error() string {
	return "unknown feature: " + e.Feature
}

// NewUnknownFeatureError creates an UnknownFeatureError.
func NewUnknownFeatureError(feature string) *UnknownFeatureError {
	return &UnknownFeatureError{Feature: feature}
}

// UnmatchedValueError is returned when a numeric value falls into none of the
// intervals configured for its feature.
type UnmatchedValueError struct {
	Feature string
	Value   any
}

func (e *UnmatchedValueError) Error() string {
	return fmt.Sprintf("value %v for %s doesn't match any bin", e.Value, e.Feature)
}

// NewUnmatchedValueError creates an UnmatchedValueError.
func NewUnmatchedValueError(feature string, value any) *UnmatchedValueError {
	return &UnmatchedValueError{Feature: feature, Value: value}
}

// CategoricalMismatchError is returned when a categorical value has no bin with exactly that label.
type CategoricalMismatchError struct {
	Feature string
	Value   string
}

func (e *CategoricalMismatchError) Error() string {
	return fmt.Sprintf("invalid value %q for feature %s", e.Value, e.Feature)
}

// NewCategoricalMismatchError creates a CategoricalMismatchError.
func NewCategoricalMismatchError(feature, value string) *CategoricalMismatchError {
	return &CategoricalMismatchError{Feature: feature, Value: value}
}

// IsInputError reports whether err was caused by the scoring record rather than by the service.
func IsInputError(err error) bool {
	var (
		unknown   *UnknownFeatureError
		unmatched *UnmatchedValueError
		mismatch  *CategoricalMismatchError
	)
	return errors.As(err, &unknown) || errors.As(err, &unmatched) || errors.As(err, &mismatch)
}

// ErrorKind returns a short stable name for the error class, used as a metrics label.
func ErrorKind(err error) string {
	var (
		parse     *ConfigParseError
		unknown   *UnknownFeatureError
		unmatched *UnmatchedValueError
		mismatch  *CategoricalMismatchError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &unknown):
		return "unknown_feature"
	case errors.As(err, &unmatched):
		return "unmatched_value"
	case errors.As(err, &mismatch):
		return "categorical_mismatch"
	case errors.As(err, &parse):
		return "config_parse"
	default:
		return "internal"
	}
}

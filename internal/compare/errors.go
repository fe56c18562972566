package compare

import (
	"errors"
	"fmt"
)

// ErrPredictionsKeyMissing is wrapped by the SchemaError returned when an
// envelope has no "predictions" key.
var ErrPredictionsKeyMissing = errors.New("predictions key missing")

// SchemaError reports input that does not have the expected shape. It is
// fatal for the record or collection it names.
type SchemaError struct {
	// Collection is "test" or "ref" when known.
	Collection string
	// Identifier is the filepath of the offending record, when known.
	Identifier string
	// Field is the flattened field name involved, when known.
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	msg := "schema error"
	if e.Collection != "" {
		msg += " in " + e.Collection + " data"
	}
	if e.Identifier != "" {
		msg += fmt.Sprintf(" for %q", e.Identifier)
	}
	if e.Field != "" {
		msg += " at " + e.Field
	}
	return msg + ": " + e.Err.Error()
}

func (e *SchemaError) Unwrap() error { return e.Err }

func schemaErrorf(identifier, field, format string, args ...any) *SchemaError {
	return &SchemaError{Identifier: identifier, Field: field, Err: fmt.Errorf(format, args...)}
}

package exchange

import (
	"errors"
	"fmt"
)

// ValidationError rejects a submission before any book state changes.
// Field and Value identify the offending input so the boundary can log
// or dead-letter the upstream message.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order: %s=%q: %s", e.Field, e.Value, e.Reason)
}

// IsValidation reports whether err is a submission rejection rather
// than an engine fault.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InvariantError signals a broken book invariant. It is a
// programming-error marker: the offending operation is abandoned, the
// process is not.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("book invariant violated in %s: %s", e.Op, e.Detail)
}

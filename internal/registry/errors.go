package registry

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// UnknownKindError reports a step whose type string is not registered.
type UnknownKindError struct {
	Step string
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("step %q: unknown kind %q", e.Step, e.Kind)
}

// FieldValidationError reports a step field that does not satisfy its kind's
// schema: a missing required field, an unknown extra field, or a value of the
// wrong shape.
type FieldValidationError struct {
	Step  string
	Field string
	// Want is the expected type, when the failure is a type mismatch.
	Want cty.Type
	// Reason describes the failure in one sentence.
	Reason string
}

func (e *FieldValidationError) Error() string {
	return fmt.Sprintf("step %q, field %q: %s", e.Step, e.Field, e.Reason)
}

package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/stepflow/internal/ctxlog"
	"github.com/vk/stepflow/internal/spec"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ValidateDocument checks every step in the document against its kind's
// schema. Validation is fail closed: unknown extra fields are rejected so
// typos in experiment documents surface immediately, before anything runs.
func (r *Registry) ValidateDocument(ctx context.Context, doc *spec.Document) error {
	for _, step := range doc.Steps {
		if err := r.ValidateStep(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStep checks one step's fields against its kind's schema.
//
// Fields whose values embed references cannot be type checked yet; their
// check is deferred to materialization time, when the referenced results are
// known. Presence checks (required fields, unknown extras) always happen
// here.
func (r *Registry) ValidateStep(ctx context.Context, step *spec.StepSpec) error {
	kind := r.Kind(step.Kind)
	if kind == nil {
		return &UnknownKindError{Step: step.Name, Kind: step.Kind}
	}
	def := kind.Definition

	declared := make(map[string]struct{}, len(step.Fields))
	for _, field := range step.Fields {
		in, ok := def.Inputs[field.Name]
		if !ok {
			return &FieldValidationError{
				Step:   step.Name,
				Field:  field.Name,
				Reason: fmt.Sprintf("kind %q does not accept this field", def.Name),
			}
		}
		declared[field.Name] = struct{}{}

		if spec.ContainsReference(field.Value) {
			continue
		}
		if err := CheckFieldType(step.Name, in, field.Value); err != nil {
			return err
		}
	}

	for name, in := range def.Inputs {
		if !in.Required {
			continue
		}
		if _, ok := declared[name]; !ok {
			return &FieldValidationError{
				Step:   step.Name,
				Field:  name,
				Want:   in.Type,
				Reason: fmt.Sprintf("required field of kind %q is missing", def.Name),
			}
		}
	}
	return nil
}

// CheckFieldType verifies that a concrete value conforms to an input's
// declared type. The executor calls this again at materialization time for
// fields whose check was deferred.
func CheckFieldType(stepName string, in *InputDefinition, val cty.Value) error {
	if in.Type.Equals(cty.DynamicPseudoType) {
		return nil
	}
	if _, err := convert.Convert(val, in.Type); err != nil {
		return &FieldValidationError{
			Step:   stepName,
			Field:  in.Name,
			Want:   in.Type,
			Reason: fmt.Sprintf("expected %s, got %s", in.Type.FriendlyName(), val.Type().FriendlyName()),
		}
	}
	return nil
}

// ValidateHandlers performs a strict parity check between kind definitions
// and their Go input structs: every declared input must have a matching
// struct field (by cty tag) of a compatible type, and vice versa. A mismatch
// is a programmer error surfaced at startup, not at run time.
func (r *Registry) ValidateHandlers(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for _, name := range r.KindNames() {
		kind := r.kinds[name]
		if kind.Handler.NewInput == nil {
			continue
		}

		goInputs := make(map[string]reflect.StructField)
		inputType := reflect.TypeOf(kind.Handler.NewInput()).Elem()
		for i := 0; i < inputType.NumField(); i++ {
			field := inputType.Field(i)
			if !field.IsExported() {
				continue
			}
			tagName := strings.Split(field.Tag.Get("cty"), ",")[0]
			if tagName != "" && tagName != "-" {
				goInputs[tagName] = field
			}
		}

		for fieldName := range goInputs {
			if _, ok := kind.Definition.Inputs[fieldName]; !ok {
				errs = append(errs, fmt.Sprintf("kind '%s': Go struct has field for input '%s' which is not declared in the definition", name, fieldName))
			}
		}
		for fieldName, in := range kind.Definition.Inputs {
			goField, ok := goInputs[fieldName]
			if !ok {
				errs = append(errs, fmt.Sprintf("kind '%s': definition declares input '%s' which is not found in the Go struct", name, fieldName))
				continue
			}

			if in.Type.Equals(cty.DynamicPseudoType) {
				logger.Warn("Kind input declared with dynamic type, static checking disabled for it.", "kind", name, "input", fieldName)
				continue
			}
			goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
			if err != nil {
				errs = append(errs, fmt.Sprintf("kind '%s', input '%s': could not imply cty type from Go field type %s: %v", name, fieldName, goField.Type, err))
				continue
			}
			if !in.Type.Equals(goFieldType) {
				errs = append(errs, fmt.Sprintf("kind '%s', input '%s': type mismatch, definition requires '%s' but Go struct field '%s' provides '%s'",
					name, fieldName, in.Type.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

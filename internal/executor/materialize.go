package executor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/stepflow/internal/registry"
	"github.com/vk/stepflow/internal/spec"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// materialize produces the fully resolved argument object for a step: every
// embedded reference is substituted with the referenced step's result,
// deferred type checks run, defaults fill omitted optional fields. A missing
// dependency result indicates a scheduler bug and aborts the run.
func (e *Executor) materialize(step *spec.StepSpec, kind *registry.Kind) (cty.Value, error) {
	attrs := make(map[string]cty.Value, len(kind.Definition.Inputs))

	for _, field := range step.Fields {
		in := kind.Definition.Inputs[field.Name]
		if in == nil {
			return cty.NilVal, internalErrf("step %q was scheduled with unvalidated field %q", step.Name, field.Name)
		}

		hadRef := spec.ContainsReference(field.Value)
		val, err := e.substituteRefs(step.Name, field.Value)
		if err != nil {
			return cty.NilVal, err
		}
		if hadRef {
			// The deferred half of schema validation: shapes were unknowable
			// until the referenced results existed.
			if err := registry.CheckFieldType(step.Name, in, val); err != nil {
				return cty.NilVal, err
			}
		}
		if !in.Type.Equals(cty.DynamicPseudoType) {
			converted, err := convert.Convert(val, in.Type)
			if err != nil {
				return cty.NilVal, &registry.FieldValidationError{
					Step:   step.Name,
					Field:  field.Name,
					Want:   in.Type,
					Reason: fmt.Sprintf("cannot convert %s to %s", val.Type().FriendlyName(), in.Type.FriendlyName()),
				}
			}
			val = converted
		}
		attrs[field.Name] = val
	}

	for name, in := range kind.Definition.Inputs {
		if _, ok := attrs[name]; ok {
			continue
		}
		switch {
		case in.Default != nil:
			attrs[name] = *in.Default
		case in.Type.Equals(cty.DynamicPseudoType):
			attrs[name] = cty.NullVal(cty.DynamicPseudoType)
		default:
			attrs[name] = cty.NullVal(in.Type)
		}
	}

	if len(attrs) == 0 {
		return cty.EmptyObjectVal, nil
	}
	return cty.ObjectVal(attrs), nil
}

// substituteRefs rebuilds a value with reference objects replaced by the
// referenced results.
func (e *Executor) substituteRefs(stepName string, v cty.Value) (cty.Value, error) {
	if v.IsNull() {
		return v, nil
	}
	if spec.IsReference(v) {
		target := spec.ReferenceTarget(v)
		result, ok := e.results.Load(target)
		if !ok {
			return cty.NilVal, internalErrf("step %q needs the result of %q which is not available", stepName, target)
		}
		return result.(cty.Value), nil
	}

	ty := v.Type()
	switch {
	case ty.IsObjectType(), ty.IsMapType():
		attrs := make(map[string]cty.Value)
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			nv, err := e.substituteRefs(stepName, ev)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k.AsString()] = nv
		}
		if len(attrs) == 0 {
			return cty.EmptyObjectVal, nil
		}
		return cty.ObjectVal(attrs), nil
	case ty.IsTupleType(), ty.IsListType(), ty.IsSetType():
		var elems []cty.Value
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			nv, err := e.substituteRefs(stepName, ev)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, nv)
		}
		if len(elems) == 0 {
			return cty.EmptyTupleVal, nil
		}
		return cty.TupleVal(elems), nil
	default:
		return v, nil
	}
}

// invoke calls a kind's handler with the materialized arguments, decoding
// them into the handler's input struct when it declares one.
func (e *Executor) invoke(ctx context.Context, step *spec.StepSpec, kind *registry.Kind, args cty.Value) (cty.Value, error) {
	handler := kind.Handler

	var inArg reflect.Value
	if handler.NewInput == nil {
		inArg = reflect.ValueOf(args)
	} else {
		inputPtr := handler.NewInput()
		if err := gocty.FromCtyValue(args, inputPtr); err != nil {
			return cty.NilVal, fmt.Errorf("decoding arguments for step %q: %w", step.Name, err)
		}
		inArg = reflect.ValueOf(inputPtr)
	}

	out := reflect.ValueOf(handler.Fn).Call([]reflect.Value{reflect.ValueOf(ctx), inArg})
	result := out[0].Interface().(cty.Value)
	if errResult := out[1].Interface(); errResult != nil {
		return cty.NilVal, errResult.(error)
	}
	return result, nil
}

// Package resolve scans step fields for reference objects and produces the
// dependency triples consumed by the graph builder.
package resolve

import (
	"context"
	"fmt"

	"github.com/vk/stepflow/internal/ctxlog"
	"github.com/vk/stepflow/internal/spec"
	"github.com/zclconf/go-cty/cty"
)

// DanglingReferenceError reports a reference to a step that is not declared
// anywhere in the document.
type DanglingReferenceError struct {
	Step      string
	FieldPath string
	Target    string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("step %q, field %q: reference to undefined step %q", e.Step, e.FieldPath, e.Target)
}

// References walks every step's fields recursively and returns all reference
// triples, in a deterministic order (step declaration order, then field
// order, then depth-first value order). A reference to an undeclared step is
// a DanglingReferenceError.
func References(ctx context.Context, doc *spec.Document) ([]spec.Reference, error) {
	logger := ctxlog.FromContext(ctx)

	var refs []spec.Reference
	for _, step := range doc.Steps {
		for _, field := range step.Fields {
			found := walk(field.Value, field.Name)
			for _, f := range found {
				if doc.Step(f.target) == nil {
					return nil, &DanglingReferenceError{
						Step:      step.Name,
						FieldPath: f.path,
						Target:    f.target,
					}
				}
				refs = append(refs, spec.Reference{
					Referrer:  step.Name,
					FieldPath: f.path,
					Target:    f.target,
					Range:     field.Range,
				})
			}
		}
	}
	logger.Debug("Reference resolution complete.", "references", len(refs))
	return refs, nil
}

type foundRef struct {
	path   string
	target string
}

// walk collects reference objects under a value, depth first. Paths use
// dotted keys for objects and maps and bracketed indices for sequences.
func walk(v cty.Value, path string) []foundRef {
	if v.IsNull() {
		return nil
	}
	if spec.IsReference(v) {
		return []foundRef{{path: path, target: spec.ReferenceTarget(v)}}
	}

	var found []foundRef
	ty := v.Type()
	switch {
	case ty.IsObjectType(), ty.IsMapType():
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			found = append(found, walk(ev, path+"."+k.AsString())...)
		}
	case ty.IsTupleType(), ty.IsListType(), ty.IsSetType():
		i := 0
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			found = append(found, walk(ev, fmt.Sprintf("%s[%d]", path, i))...)
			i++
		}
	}
	return found
}

// Package spec defines the format-agnostic model of a step document: named,
// typed steps whose fields may reference the outputs of other steps.
package spec

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Document is the fully loaded, immutable representation of one step
// document. Steps preserve declaration order; the name index is derived.
type Document struct {
	Steps []*StepSpec

	byName map[string]*StepSpec
}

// NewDocument builds a Document from an ordered list of steps. Step names
// must be unique; the loader enforces this before construction.
func NewDocument(steps []*StepSpec) *Document {
	doc := &Document{
		Steps:  steps,
		byName: make(map[string]*StepSpec, len(steps)),
	}
	for i, s := range steps {
		s.declIndex = i
		doc.byName[s.Name] = s
	}
	return doc
}

// Step returns the step with the given name, or nil if it is not declared.
func (d *Document) Step(name string) *StepSpec {
	return d.byName[name]
}

// StepSpec is a single named, typed unit of computation. It is created by the
// loader and never mutated afterwards.
type StepSpec struct {
	// Name uniquely identifies the step within its document.
	Name string
	// Kind is the type discriminator resolved against the kind registry.
	Kind string
	// Fields holds the step's arguments in declaration order. Values are
	// fully evaluated except for embedded reference objects.
	Fields []Field
	// Cacheable controls whether the step's result may be served from or
	// stored into the result cache. Defaults to true.
	Cacheable bool
	// DeclRange is the source location of the step block, for diagnostics.
	DeclRange hcl.Range

	declIndex int
}

// DeclIndex returns the step's position in document declaration order.
func (s *StepSpec) DeclIndex() int { return s.declIndex }

// Field returns the named field and whether it was declared.
func (s *StepSpec) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Field is one argument of a step.
type Field struct {
	Name  string
	Value cty.Value
	Range hcl.Range
}

// Reference is a dependency edge from one step's field to another step's
// result. It is a relation, not ownership: the target step is identified by
// name only.
type Reference struct {
	// Referrer is the name of the step whose field contains the reference.
	Referrer string
	// FieldPath locates the reference inside the referrer's fields, in
	// dotted/indexed form such as "x" or "optimizer.params[2]".
	FieldPath string
	// Target is the name of the referenced step.
	Target string
	// Range is the source location of the referencing field.
	Range hcl.Range
}

func (r Reference) String() string {
	return fmt.Sprintf("%s.%s -> %s", r.Referrer, r.FieldPath, r.Target)
}

// refTypeKey and refNameKey are the two keys of the wire-level reference
// object: {type = "ref", ref = "<step name>"}. The shape is exact; objects
// with extra keys are plain values.
const (
	refTypeKey = "type"
	refNameKey = "ref"
)

// IsReference reports whether a value is a reference object.
func IsReference(v cty.Value) bool {
	if v.IsNull() || !v.Type().IsObjectType() {
		return false
	}
	attrs := v.Type().AttributeTypes()
	if len(attrs) != 2 {
		return false
	}
	for _, name := range []string{refTypeKey, refNameKey} {
		t, ok := attrs[name]
		if !ok || !t.Equals(cty.String) {
			return false
		}
	}
	typeVal := v.GetAttr(refTypeKey)
	nameVal := v.GetAttr(refNameKey)
	if typeVal.IsNull() || nameVal.IsNull() {
		return false
	}
	return typeVal.AsString() == "ref"
}

// ReferenceTarget returns the step name a reference object points at.
// The caller must have checked IsReference first.
func ReferenceTarget(v cty.Value) string {
	return v.GetAttr(refNameKey).AsString()
}

// ContainsReference reports whether a value contains a reference object at
// any depth.
func ContainsReference(v cty.Value) bool {
	if v.IsNull() {
		return false
	}
	if IsReference(v) {
		return true
	}
	ty := v.Type()
	switch {
	case ty.IsObjectType(), ty.IsMapType(), ty.IsTupleType(), ty.IsListType(), ty.IsSetType():
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			if ContainsReference(ev) {
				return true
			}
		}
	}
	return false
}

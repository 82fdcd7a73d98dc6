// Package fingerprint computes content hashes of steps' fully resolved
// arguments. A step's fingerprint decides whether a cached result is still
// valid: it covers the kind name, the kind's registered version, and every
// field value, with embedded references contributing the fingerprint of the
// referenced step rather than a literal value. A change to one step therefore
// changes the fingerprints of exactly that step and its transitive
// dependents.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/vk/stepflow/internal/dag"
	"github.com/vk/stepflow/internal/registry"
	"github.com/vk/stepflow/internal/spec"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Compute returns the fingerprint of every step in the graph, keyed by step
// name. Steps are processed in dependency order so that referenced
// fingerprints are always available.
func Compute(graph *dag.Graph, reg *registry.Registry) (map[string]string, error) {
	fps := make(map[string]string, graph.Len())
	for _, step := range graph.TopoOrder() {
		fp, err := fingerprintStep(step, reg, fps)
		if err != nil {
			return nil, err
		}
		fps[step.Name] = fp
	}
	return fps, nil
}

// fingerprintStep hashes one step given the fingerprints of everything it
// references.
func fingerprintStep(step *spec.StepSpec, reg *registry.Registry, fps map[string]string) (string, error) {
	h := sha256.New()
	writeField(h, []byte(step.Kind))

	version := ""
	if kind := reg.Kind(step.Kind); kind != nil {
		version = kind.Definition.Version
	}
	writeField(h, []byte(version))

	for _, field := range step.Fields {
		writeField(h, []byte(field.Name))

		val, err := replaceRefs(field.Value, fps)
		if err != nil {
			return "", fmt.Errorf("fingerprinting step %q, field %q: %w", step.Name, field.Name, err)
		}
		enc, err := canonicalEncode(val)
		if err != nil {
			return "", fmt.Errorf("fingerprinting step %q, field %q: %w", step.Name, field.Name, err)
		}
		writeField(h, enc)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeField adds a length-prefixed chunk to the hash, so adjacent fields can
// never be confused for one another.
func writeField(h hash.Hash, data []byte) {
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(data)))
	h.Write(length[:])
	h.Write(data)
}

// canonicalEncode serializes a value together with its type. cty's JSON
// encoding iterates object and map keys in lexicographic order, which makes
// the bytes deterministic.
func canonicalEncode(val cty.Value) ([]byte, error) {
	ty := val.Type()
	typeJSON, err := ctyjson.MarshalType(ty)
	if err != nil {
		return nil, err
	}
	valJSON, err := ctyjson.Marshal(val, ty)
	if err != nil {
		return nil, err
	}
	return append(append(typeJSON, ':'), valJSON...), nil
}

// replaceRefs rebuilds a value with every reference object replaced by a
// marker object carrying the referenced step's fingerprint.
func replaceRefs(v cty.Value, fps map[string]string) (cty.Value, error) {
	if v.IsNull() {
		return v, nil
	}
	if spec.IsReference(v) {
		target := spec.ReferenceTarget(v)
		fp, ok := fps[target]
		if !ok {
			return cty.NilVal, fmt.Errorf("no fingerprint for referenced step %q", target)
		}
		return cty.ObjectVal(map[string]cty.Value{
			"ref_fingerprint": cty.StringVal(fp),
		}), nil
	}

	ty := v.Type()
	switch {
	case ty.IsObjectType(), ty.IsMapType():
		attrs := make(map[string]cty.Value)
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			nv, err := replaceRefs(ev, fps)
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
			nv, err := replaceRefs(ev, fps)
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

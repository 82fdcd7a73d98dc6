package executor

import (
	"fmt"
	"io"

	"github.com/zclconf/go-cty/cty"
)

// Summary is the partial-failure report of one run: every step's final state,
// the errors of failed and skipped steps, and the computed results.
type Summary struct {
	RunID  string
	States map[string]State
	Errors map[string]error
	// Results holds the value of every step that reached Succeeded or
	// Cached, keyed by step name.
	Results map[string]cty.Value

	// Per-state step name lists, each in document declaration order.
	Succeeded []string
	Cached    []string
	Failed    []string
	Skipped   []string
	Pending   []string
}

// buildSummary assembles the report from the control loop's final state.
func (e *Executor) buildSummary(runID string, states map[string]State, stepErrs map[string]error) *Summary {
	s := &Summary{
		RunID:   runID,
		States:  states,
		Errors:  stepErrs,
		Results: make(map[string]cty.Value),
	}
	e.results.Range(func(k, v any) bool {
		s.Results[k.(string)] = v.(cty.Value)
		return true
	})
	for _, node := range e.graph.Ordered() {
		switch states[node.Name] {
		case Succeeded:
			s.Succeeded = append(s.Succeeded, node.Name)
		case Cached:
			s.Cached = append(s.Cached, node.Name)
		case Failed:
			s.Failed = append(s.Failed, node.Name)
		case Skipped:
			s.Skipped = append(s.Skipped, node.Name)
		default:
			s.Pending = append(s.Pending, node.Name)
		}
	}
	return s
}

// Result returns the computed value of a step and whether it exists in this
// run's result set.
func (e *Executor) Result(name string) (cty.Value, bool) {
	v, ok := e.results.Load(name)
	if !ok {
		return cty.NilVal, false
	}
	return v.(cty.Value), true
}

// OK reports whether every step reached Succeeded or Cached.
func (s *Summary) OK() bool {
	return len(s.Failed) == 0 && len(s.Skipped) == 0 && len(s.Pending) == 0
}

// Write renders a human-readable report.
func (s *Summary) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "run %s\n", s.RunID); err != nil {
		return err
	}
	sections := []struct {
		label string
		names []string
	}{
		{"succeeded", s.Succeeded},
		{"cached", s.Cached},
		{"failed", s.Failed},
		{"skipped", s.Skipped},
		{"pending", s.Pending},
	}
	for _, sec := range sections {
		if len(sec.names) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %s:\n", sec.label); err != nil {
			return err
		}
		for _, name := range sec.names {
			line := "    " + name
			if err, ok := s.Errors[name]; ok && err != nil {
				line += ": " + err.Error()
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

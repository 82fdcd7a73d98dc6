package executor

// State is the lifecycle state of one step within a run.
//
// Transitions: Pending -> Running -> {Succeeded, Failed};
// Pending -> Cached on a fingerprint hit; Pending -> Skipped when an
// ancestor failed. Terminal states are never left within a run.
type State int

const (
	Pending State = iota
	Running
	Succeeded
	Failed
	Skipped
	Cached
)

// String returns the state's display name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	case Cached:
		return "cached"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	switch s {
	case Succeeded, Failed, Skipped, Cached:
		return true
	default:
		return false
	}
}

// Satisfies reports whether a dependency in this state unblocks its
// dependents.
func (s State) Satisfies() bool {
	return s == Succeeded || s == Cached
}

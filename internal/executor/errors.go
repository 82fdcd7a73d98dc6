package executor

import "fmt"

// StepExecutionError wraps a failure returned by a kind's handler. It is a
// user-domain failure: the run continues for independent steps and the
// summary reports it.
type StepExecutionError struct {
	Step string
	Err  error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepExecutionError) Unwrap() error { return e.Err }

// InternalConsistencyError reports a violated executor or builder invariant,
// such as a missing dependency result for a step that was scheduled. It is
// never a user mistake and always aborts the whole run.
type InternalConsistencyError struct {
	Msg string
}

func (e *InternalConsistencyError) Error() string {
	return "internal consistency error: " + e.Msg
}

func internalErrf(format string, args ...any) *InternalConsistencyError {
	return &InternalConsistencyError{Msg: fmt.Sprintf(format, args...)}
}

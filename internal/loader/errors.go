package loader

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// SyntaxError is returned for any lexical or structural problem in a step
// document: unterminated strings, invalid escapes, unexpected tokens,
// duplicate step names, malformed blocks. It carries the full HCL diagnostics
// so callers can report precise source locations.
type SyntaxError struct {
	Diags hcl.Diagnostics
}

func (e *SyntaxError) Error() string {
	if len(e.Diags) == 0 {
		return "syntax error"
	}
	d := e.Diags[0]
	msg := fmt.Sprintf("%s: %s", d.Subject, d.Summary)
	if d.Detail != "" {
		msg += "; " + d.Detail
	}
	if extra := len(e.Diags) - 1; extra > 0 {
		msg += fmt.Sprintf(" (and %d more diagnostics)", extra)
	}
	return msg
}

// syntaxErr wraps non-empty diagnostics into a SyntaxError.
func syntaxErr(diags hcl.Diagnostics) error {
	if !diags.HasErrors() {
		return nil
	}
	return &SyntaxError{Diags: diags}
}

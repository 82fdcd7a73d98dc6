package loader

import (
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// evalFunctions is the curated set of functions available in document
// expressions. Kept small on purpose: documents are declarations, not
// programs.
func evalFunctions() map[string]function.Function {
	return map[string]function.Function{
		"abs":    stdlib.AbsoluteFunc,
		"ceil":   stdlib.CeilFunc,
		"floor":  stdlib.FloorFunc,
		"max":    stdlib.MaxFunc,
		"min":    stdlib.MinFunc,
		"concat": stdlib.ConcatFunc,
		"format": stdlib.FormatFunc,
		"join":   stdlib.JoinFunc,
		"split":  stdlib.SplitFunc,
		"lower":  stdlib.LowerFunc,
		"upper":  stdlib.UpperFunc,
		"trim":   stdlib.TrimFunc,
		"length": stdlib.LengthFunc,
		"range":  stdlib.RangeFunc,
	}
}

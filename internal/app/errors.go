package advisor

import "errors"

// Sentinel kinds for advisor errors.
var (
	ErrNoOptimizableParams = errors.New("machine has no optimizable parameters")
	ErrInvalidRating       = errors.New("rating must be an integer in [1, 10]")
	ErrInvalidParamIndex   = errors.New("parameter index out of range")
	ErrInvalidConfig       = errors.New("invalid advisor configuration")
)

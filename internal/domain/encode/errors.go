package encode

import "errors"

// Sentinel kinds for encoding errors.
var (
	ErrKindMismatch     = errors.New("value kind mismatch")
	ErrNotOptimizable   = errors.New("parameter kind is not optimizable")
	ErrRatingOutOfRange = errors.New("rating out of range")
)

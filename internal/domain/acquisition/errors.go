package acquisition

import "errors"

// Sentinel kinds for acquisition errors.
var (
	ErrNoCandidates   = errors.New("no candidates to score")
	ErrLengthMismatch = errors.New("means and variances differ in length")
)

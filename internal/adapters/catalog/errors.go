package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrMachineNotFound = errors.New("machine not found")
	ErrRunNotFound     = errors.New("run not found")
)

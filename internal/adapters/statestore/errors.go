package statestore

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("record not found")
)

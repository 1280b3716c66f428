package schema

import "errors"

// Sentinel kinds for schema errors.
var (
	ErrInvalidSchema = errors.New("invalid machine schema")
)

package gp

import "errors"

// Sentinel kinds for regression errors.
var (
	ErrDimensionMismatch   = errors.New("input dimension mismatch")
	ErrEmptyTrainingSet    = errors.New("empty training set")
	ErrLengthMismatch      = errors.New("inputs and targets differ in length")
	ErrNotFitted           = errors.New("predict called before fit")
	ErrNotPositiveDefinite = errors.New("kernel matrix is not positive definite")
)

// Package gp implements Gaussian process regression over the unit hypercube
// with an isotropic squared-exponential kernel.
package gp

import (
	"fmt"
	"math"
)

// Kernel is the isotropic squared-exponential (RBF) similarity:
//
//	k(x, y) = outputScale · exp(−‖x − y‖² / (2 · lengthScale²))
type Kernel struct {
	LengthScale float64
	OutputScale float64
}

// Eval computes the kernel value for two points of equal dimension.
func (k Kernel) Eval(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(x), len(y))
	}
	var sum float64
	for i := range x {
		d := x[i] - y[i]
		sum += d * d
	}
	return k.OutputScale * math.Exp(-sum/(2*k.LengthScale*k.LengthScale)), nil
}

package gp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKernelEval(t *testing.T) {
	k := Kernel{LengthScale: 0.3, OutputScale: 1.0}

	// Identical points score the full output scale.
	v, err := k.Eval([]float64{0.2, 0.7}, []float64{0.2, 0.7})
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-12)

	// Distance decays the similarity exponentially.
	v, err = k.Eval([]float64{0}, []float64{0.3})
	assert.NoError(t, err)
	assert.InDelta(t, math.Exp(-0.5), v, 1e-12)

	// The output scale multiplies the whole kernel.
	k2 := Kernel{LengthScale: 0.3, OutputScale: 2.5}
	v, err = k2.Eval([]float64{0.1}, []float64{0.1})
	assert.NoError(t, err)
	assert.InDelta(t, 2.5, v, 1e-12)
}

func TestKernelDimensionMismatch(t *testing.T) {
	k := Kernel{LengthScale: 0.3, OutputScale: 1.0}

	_, err := k.Eval([]float64{0.1}, []float64{0.1, 0.2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

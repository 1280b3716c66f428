package acquisition

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUCB(t *testing.T) {
	assert.InDelta(t, 0.5, UCB(0.5, 0, 2.0), 1e-12)
	assert.InDelta(t, 0.5+2*0.3, UCB(0.5, 0.09, 2.0), 1e-12)

	// Negative variance is treated as zero, not NaN.
	assert.InDelta(t, 0.5, UCB(0.5, -0.01, 2.0), 1e-12)
}

func TestArgMax(t *testing.T) {
	means := []float64{0.1, 0.5, 0.3}
	variances := []float64{0.0, 0.0, 0.09}

	// 0.5 beats 0.3 + 0.3·beta only for small beta.
	i, err := ArgMax(means, variances, 0.0)
	assert.NoError(t, err)
	assert.Equal(t, 1, i)

	i, err = ArgMax(means, variances, 2.0)
	assert.NoError(t, err)
	assert.Equal(t, 2, i)
}

func TestArgMaxTiesBreakLow(t *testing.T) {
	i, err := ArgMax([]float64{0.4, 0.4, 0.4}, []float64{0, 0, 0}, 2.0)
	assert.NoError(t, err)
	assert.Equal(t, 0, i)
}

func TestArgMaxInvalidInput(t *testing.T) {
	_, err := ArgMax(nil, nil, 2.0)
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = ArgMax([]float64{0.1}, []float64{0.1, 0.2}, 2.0)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestSamplerDraw(t *testing.T) {
	s := NewSampler(rand.New(rand.NewSource(7)))

	points := s.Draw(50, 3)
	assert.Len(t, points, 50)
	for _, p := range points {
		assert.Len(t, p, 3)
		for _, v := range p {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	}
}

func TestSamplerDeterministicUnderSeed(t *testing.T) {
	a := NewSampler(rand.New(rand.NewSource(42))).Draw(10, 2)
	b := NewSampler(rand.New(rand.NewSource(42))).Draw(10, 2)
	assert.Equal(t, a, b)
}

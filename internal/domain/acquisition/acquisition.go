// Package acquisition scores candidate points and picks the one most worth
// trying next under the Upper-Confidence-Bound policy.
package acquisition

import (
	"math"
	"math/rand"
)

// UCB computes the Upper-Confidence-Bound score μ + β·√max(0, σ²).
// Higher is better; β trades exploration against exploitation.
func UCB(mean, variance, beta float64) float64 {
	return mean + beta*math.Sqrt(math.Max(0, variance))
}

// ArgMax returns the index of the candidate with the highest UCB score.
// Ties break toward the lowest index.
func ArgMax(means, variances []float64, beta float64) (int, error) {
	if len(means) == 0 {
		return 0, ErrNoCandidates
	}
	if len(means) != len(variances) {
		return 0, ErrLengthMismatch
	}

	best := 0
	bestScore := UCB(means[0], variances[0], beta)
	for i := 1; i < len(means); i++ {
		if score := UCB(means[i], variances[i], beta); score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best, nil
}

// Sampler draws candidate points uniformly from the unit hypercube.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler on the given source. Injecting the source
// keeps candidate draws reproducible under a fixed seed.
func NewSampler(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Draw returns n points in [0, 1)^dim.
func (s *Sampler) Draw(n, dim int) [][]float64 {
	points := make([][]float64, n)
	for i := range points {
		p := make([]float64, dim)
		for d := range p {
			p[d] = s.rng.Float64()
		}
		points[i] = p
	}
	return points
}

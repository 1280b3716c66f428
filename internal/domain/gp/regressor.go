package gp

import (
	"math"
)

// jitter is added to the diagonal when the first Cholesky attempt fails.
const jitter = 1e-2

// Regressor fits a Gaussian process to training pairs and predicts mean and
// variance at arbitrary points. Fit caches the lower Cholesky factor of
// K + noise·I together with alpha = K⁻¹y; Predict solves triangular systems
// against that factor, so one fit serves any number of predictions.
type Regressor struct {
	kernel Kernel
	noise  float64

	x      [][]float64
	chol   [][]float64
	alpha  []float64
	fitted bool
}

// New creates a regressor with the given kernel and observation noise.
func New(kernel Kernel, noise float64) *Regressor {
	return &Regressor{kernel: kernel, noise: noise}
}

// Fit stores the training set and factorizes the kernel matrix. Inputs are
// deep-copied; the caller may reuse its slices. A kernel matrix that fails
// the positive-definite test gets one jitter retry before the fit errors.
func (g *Regressor) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return ErrLengthMismatch
	}

	n := len(x)
	xs := make([][]float64, n)
	for i, row := range x {
		xs[i] = append([]float64(nil), row...)
	}

	k := make([][]float64, n)
	for i := range k {
		k[i] = make([]float64, n)
		for j := range k[i] {
			v, err := g.kernel.Eval(xs[i], xs[j])
			if err != nil {
				return err
			}
			k[i][j] = v
		}
		k[i][i] += g.noise
	}

	chol, ok := cholesky(k)
	if !ok {
		for i := range k {
			k[i][i] += jitter
		}
		chol, ok = cholesky(k)
		if !ok {
			return ErrNotPositiveDefinite
		}
	}

	// alpha = K⁻¹y via L L'ᵀ: forward then back substitution.
	alpha := solveUpper(chol, solveLower(chol, y))

	g.x = xs
	g.chol = chol
	g.alpha = alpha
	g.fitted = true
	return nil
}

// Predict returns the posterior mean and variance at each point. Variances
// are clamped to be non-negative.
func (g *Regressor) Predict(points [][]float64) ([]float64, []float64, error) {
	if !g.fitted {
		return nil, nil, ErrNotFitted
	}

	n := len(g.x)
	means := make([]float64, len(points))
	variances := make([]float64, len(points))

	for p, pt := range points {
		kstar := make([]float64, n)
		for i := range g.x {
			v, err := g.kernel.Eval(pt, g.x[i])
			if err != nil {
				return nil, nil, err
			}
			kstar[i] = v
		}

		var mean float64
		for i := range kstar {
			mean += kstar[i] * g.alpha[i]
		}

		// variance = k(x*, x*) − vᵀv with v = L⁻¹ k*.
		v := solveLower(g.chol, kstar)
		kss, err := g.kernel.Eval(pt, pt)
		if err != nil {
			return nil, nil, err
		}
		variance := kss
		for i := range v {
			variance -= v[i] * v[i]
		}

		means[p] = mean
		variances[p] = math.Max(0, variance)
	}

	return means, variances, nil
}

// cholesky computes the lower factor L with A = L Lᵀ. The second return is
// false when a diagonal residual is not strictly positive.
func cholesky(a [][]float64) ([][]float64, bool) {
	n := len(a)
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for j := 0; j < n; j++ {
		d := a[j][j]
		for k := 0; k < j; k++ {
			d -= l[j][k] * l[j][k]
		}
		if d <= 0 {
			return nil, false
		}
		l[j][j] = math.Sqrt(d)
		for i := j + 1; i < n; i++ {
			s := a[i][j]
			for k := 0; k < j; k++ {
				s -= l[i][k] * l[j][k]
			}
			l[i][j] = s / l[j][j]
		}
	}
	return l, true
}

// solveLower solves L x = b by forward substitution.
func solveLower(l [][]float64, b []float64) []float64 {
	n := len(b)
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		s := b[i]
		for k := 0; k < i; k++ {
			s -= l[i][k] * x[k]
		}
		x[i] = s / l[i][i]
	}
	return x
}

// solveUpper solves Lᵀ x = b by back substitution against the lower factor.
func solveUpper(l [][]float64, b []float64) []float64 {
	n := len(b)
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		s := b[i]
		for k := i + 1; k < n; k++ {
			s -= l[k][i] * x[k]
		}
		x[i] = s / l[i][i]
	}
	return x
}

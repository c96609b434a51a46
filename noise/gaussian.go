package noise

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is reproducible gaussian noise
type Gaussian struct {
	// dist is a multivariate normal distribution
	dist *distmv.Normal
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov *mat.SymDense
	// seed seeds the noise samples
	seed uint64
}

// NewGaussian creates new Gaussian noise with given mean and covariance.
// Samples are drawn from a source seeded with seed, so two noises created with
// the same parameters generate the same sequence of samples.
// It returns error if mean and cov dimensions differ or cov is not positive definite.
func NewGaussian(mean []float64, cov mat.Symmetric, seed uint64) (*Gaussian, error) {
	if len(mean) != cov.SymmetricDim() {
		return nil, fmt.Errorf("invalid mean dimension: %d != %d", len(mean), cov.SymmetricDim())
	}

	m := make([]float64, len(mean))
	copy(m, mean)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	dist, ok := newGaussianDist(m, c, seed)
	if !ok {
		return nil, fmt.Errorf("failed to create new Gaussian noise")
	}

	return &Gaussian{
		dist: dist,
		mean: m,
		cov:  c,
		seed: seed,
	}, nil
}

// Sample generates a sample from Gaussian noise and returns it.
func (g *Gaussian) Sample() mat.Vector {
	r := g.dist.Rand(nil)
	return mat.NewVecDense(len(r), r)
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return cov
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	mean := make([]float64, len(g.mean))
	copy(mean, g.mean)

	return mean
}

// Reset rewinds the noise to the beginning of its sample sequence.
func (g *Gaussian) Reset() {
	// parameters were validated when g was created
	g.dist, _ = newGaussianDist(g.mean, g.cov, g.seed)
}

func newGaussianDist(mean []float64, cov mat.Symmetric, seed uint64) (*distmv.Normal, bool) {
	src := rand.NewSource(seed)
	return distmv.NewNormal(mean, cov, src)
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}

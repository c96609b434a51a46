package noise

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Zero is zero noise i.e. no noise
type Zero struct {
	// size is the noise dimension
	size int
}

// NewZero creates new zero noise i.e. zero mean and zero covariance.
// It returns error if size is negative.
func NewZero(size int) (*Zero, error) {
	if size < 0 {
		return nil, fmt.Errorf("invalid noise dimension: %d", size)
	}

	return &Zero{size: size}, nil
}

// Sample returns a vector with zero values.
func (e *Zero) Sample() mat.Vector {
	if e.size == 0 {
		return &mat.VecDense{}
	}

	return mat.NewVecDense(e.size, nil)
}

// Cov returns zero covariance matrix.
func (e *Zero) Cov() mat.Symmetric {
	if e.size == 0 {
		return &mat.SymDense{}
	}

	return mat.NewSymDense(e.size, nil)
}

// Mean returns Zero mean.
func (e *Zero) Mean() []float64 {
	return make([]float64, e.size)
}

// Reset does nothing: Zero noise has no state.
func (e *Zero) Reset() {}

// String implements the Stringer interface.
func (e *Zero) String() string {
	return fmt.Sprintf("Zero{\nMean=%v\nCov=%v\n}", e.Mean(), mat.Formatted(e.Cov(), mat.Prefix("    "), mat.Squeeze()))
}

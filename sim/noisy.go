package sim

import (
	"fmt"

	sysid "github.com/milosgajdos/go-sysid"
	"gonum.org/v1/gonum/mat"
)

// Noisy emulates measurements of a simulated system by adding noise to its output
type Noisy struct {
	sim   sysid.Simulator
	noise sysid.Noise
}

// NewNoisy wraps s so that every output vector it simulates is perturbed by a sample of n.
// It returns error if either s or n is nil.
func NewNoisy(s sysid.Simulator, n sysid.Noise) (*Noisy, error) {
	if s == nil || n == nil {
		return nil, fmt.Errorf("invalid simulator or noise: %v, %v", s, n)
	}

	return &Noisy{sim: s, noise: n}, nil
}

// Simulate simulates the wrapped system and adds noise to each output row.
// It returns error if the noise dimension does not match the output dimension.
func (n *Noisy) Simulate(t []float64, u *mat.Dense) (*mat.Dense, error) {
	y, err := n.sim.Simulate(t, u)
	if err != nil {
		return nil, err
	}

	rows, cols := y.Dims()
	if dim := len(n.noise.Mean()); dim != cols {
		return nil, fmt.Errorf("invalid noise dimension: %d != %d", dim, cols)
	}

	for k := 0; k < rows; k++ {
		row := y.RowView(k).(*mat.VecDense)
		row.AddVec(row, n.noise.Sample())
	}

	return y, nil
}

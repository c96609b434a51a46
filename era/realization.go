package era

import (
	"fmt"

	"github.com/milosgajdos/go-sysid/sim"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Realization is a reduced-order discrete-time state-space realization
type Realization struct {
	// A is r x r state transition matrix
	A *mat.Dense
	// B is r x nin input matrix
	B *mat.Dense
	// C is nout x r output matrix
	C *mat.Dense
	// D is nout x nin direct transmission matrix
	D *mat.Dense
	// HSVs are all Hankel singular values in descending order
	HSVs []float64
}

// Order returns the state dimension of the realization.
func (r *Realization) Order() int {
	n, _ := r.A.Dims()
	return n
}

// Dims returns the state, input and output dimensions of the realization.
func (r *Realization) Dims() (nx, nin, nout int) {
	nx, nin = r.B.Dims()
	nout, _ = r.C.Dims()
	return nx, nin, nout
}

// System returns the realization as a discrete-time linear system.
func (r *Realization) System() (*sim.Discrete, error) {
	return sim.NewDiscrete(r.A, r.B, r.C, r.D, nil)
}

// Simulate simulates the realization from zero initial state.
// It implements sysid.Simulator.
func (r *Realization) Simulate(t []float64, u *mat.Dense) (*mat.Dense, error) {
	sys, err := r.System()
	if err != nil {
		return nil, fmt.Errorf("invalid realization: %v", err)
	}

	return sys.Simulate(t, u)
}

// Energy returns the cumulative energy fractions of the realization Hankel singular values.
func (r *Realization) Energy() []float64 {
	return Energy(r.HSVs)
}

// Energy returns the cumulative energy fractions of the Hankel singular values hsvs:
// element i is the sum of hsvs[:i+1] divided by the sum of all of them.
// Orders whose fraction is close to 1 retain most of the system energy.
func Energy(hsvs []float64) []float64 {
	e := make([]float64, len(hsvs))
	if len(hsvs) == 0 {
		return e
	}

	floats.CumSum(e, hsvs)
	if total := e[len(e)-1]; total > 0 {
		floats.Scale(1/total, e)
	}

	return e
}

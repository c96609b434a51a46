package sim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Discrete is a basic model of a linear, discrete-time, dynamical system
type Discrete struct {
	System
}

// NewDiscrete creates a linear discrete-time model based on the control theory equations.
//
//	x[n+1] = A*x[n] + B*u[n] + E*z[n] (disturbances E not implemented yet)
//	y[n] = C*x[n] + D*u[n]
//
// The supplied matrices are copied. It returns error if A or C is nil
// or if the matrix dimensions are not consistent.
func NewDiscrete(A, B, C, D, E *mat.Dense) (*Discrete, error) {
	if A == nil {
		return nil, fmt.Errorf("system matrix must be defined for a model")
	}

	sys := newSystem(A, B, C, D, E)
	if err := sys.validate(); err != nil {
		return nil, err
	}

	return &Discrete{System: sys}, nil
}

// Propagate propagates returns the next internal state x
// of a linear, discrete-time system given an input vector u and a
// disturbance input z. (wd is process noise, z not implemented yet)
func (ct *Discrete) Propagate(x, u, wd mat.Vector) (mat.Vector, error) {
	nx, nu, _, _ := ct.SystemDims()
	if u != nil && u.Len() != nu {
		return nil, fmt.Errorf("invalid input vector")
	}

	if x.Len() != nx {
		return nil, fmt.Errorf("invalid state vector")
	}

	out := new(mat.Dense)
	out.Mul(ct.A, x)
	if u != nil && ct.B != nil {
		outU := new(mat.Dense)
		outU.Mul(ct.B, u)

		out.Add(out, outU)
	}

	if wd != nil && wd.Len() == nx {
		out.Add(out, wd)
	}
	return out.ColView(0), nil
}

// Simulate simulates the system from zero initial state.
// The time grid t only determines the number of steps: one step is taken per grid point.
// It returns a matrix which stores the output vector of each step in its rows.
func (ct *Discrete) Simulate(t []float64, u *mat.Dense) (*mat.Dense, error) {
	nx, _, _, _ := ct.SystemDims()
	return ct.SimulateFrom(mat.NewVecDense(nx, nil), t, u)
}

// SimulateFrom simulates the system from the initial state x0.
// Output of step k is observed before the state is propagated by input u[k]:
//
//	y[k] = C*x[k] + D*u[k]
//	x[k+1] = A*x[k] + B*u[k]
func (ct *Discrete) SimulateFrom(x0 mat.Vector, t []float64, u *mat.Dense) (*mat.Dense, error) {
	nx, nu, ny, _ := ct.SystemDims()
	if err := checkGrid(t, u, nu); err != nil {
		return nil, err
	}

	if x0 == nil || x0.Len() != nx {
		return nil, fmt.Errorf("invalid initial state vector")
	}

	y := mat.NewDense(len(t), ny, nil)
	x := x0
	for k := range t {
		uk := u.RowView(k)

		yk, err := ct.Observe(x, uk, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to observe step %d: %v", k, err)
		}
		y.SetRow(k, mat.Col(nil, 0, yk))

		x, err = ct.Propagate(x, uk, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to propagate step %d: %v", k, err)
		}
	}

	return y, nil
}

package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// gridTol is the relative tolerance of time grid step uniformity
const gridTol = 1e-9

// Continuous is a basic model of a linear, continuous-time, dynamical system
type Continuous struct {
	System
}

// NewContinuous creates a linear continuous-time model based on the control theory equations
// which is advanced by timestep dt.
//
//	dx/dt = A*x + B*u + E*z (disturbances E not implemented yet)
//	y = C*x + D*u
func NewContinuous(A, B, C, D, E *mat.Dense) (*Continuous, error) {
	if A == nil {
		return nil, fmt.Errorf("system matrix must be defined for a model")
	}

	sys := newSystem(A, B, C, D, E)
	if err := sys.validate(); err != nil {
		return nil, err
	}

	return &Continuous{System: sys}, nil
}

// ToDiscrete creates a discrete-time model from a continuous time model
// using Ts as the sampling time and zero-order hold on the inputs.
//
// Ad and Bd are read from the exponential of the augmented matrix
//
//	exp([A B; 0 0]*Ts) = [Ad Bd; 0 I]
//
// which remains valid when A is singular.
func (ct *Continuous) ToDiscrete(Ts float64) (*Discrete, error) {
	if Ts <= 0 || math.IsNaN(Ts) || math.IsInf(Ts, 0) {
		return nil, fmt.Errorf("invalid sampling time: %v", Ts)
	}

	nx, nu, _, _ := ct.SystemDims()
	dsys := newSystem(ct.A, ct.B, ct.C, ct.D, ct.E)

	M := mat.NewDense(nx+nu, nx+nu, nil)
	M.Slice(0, nx, 0, nx).(*mat.Dense).Scale(Ts, ct.A)
	if nu > 0 {
		M.Slice(0, nx, nx, nx+nu).(*mat.Dense).Scale(Ts, ct.B)
	}

	expM := new(mat.Dense)
	expM.Exp(M)

	dsys.A.Copy(expM.Slice(0, nx, 0, nx))
	if nu > 0 {
		dsys.B.Copy(expM.Slice(0, nx, nx, nx+nu))
	}

	return &Discrete{dsys}, nil
}

// Propagate propagates returns the next internal state x
// of a linear, continuous-time system given an input vector u and a
// disturbance input z. (wd is process noise, z not implemented yet). It propagates
// the solution by a timestep `dt`.
func (ct *Continuous) Propagate(x, u, wd mat.Vector, dt float64) (mat.Vector, error) {
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
	// integrate the first order derivatives calculated: dx/dt = A*x + B*u + wd
	out.Scale(dt, out)
	out.Add(x, out)
	return out.ColView(0), nil
}

// Simulate samples the system response on the uniform time grid t from zero initial state.
// Inputs are held constant between grid points, so u[k] acts on [t[k], t[k+1]).
// It returns error if the grid is not uniform.
func (ct *Continuous) Simulate(t []float64, u *mat.Dense) (*mat.Dense, error) {
	_, nu, _, _ := ct.SystemDims()
	if err := checkGrid(t, u, nu); err != nil {
		return nil, err
	}

	// a single sample carries no dynamics: any sampling time gives the same output
	Ts := 1.0
	if len(t) > 1 {
		Ts = t[1] - t[0]
		for i := 2; i < len(t); i++ {
			if math.Abs((t[i]-t[i-1])-Ts) > gridTol*math.Max(1, math.Abs(Ts)) {
				return nil, fmt.Errorf("time grid not uniform at step %d", i)
			}
		}
	}

	d, err := ct.ToDiscrete(Ts)
	if err != nil {
		return nil, err
	}

	return d.Simulate(t, u)
}

package sysid

import "gonum.org/v1/gonum/mat"

// Simulator simulates the output of a dynamical system
type Simulator interface {
	// Simulate returns the system output sampled on the time grid t for the input u.
	// u stores one input vector per row and must have len(t) rows.
	// The returned matrix stores one output vector per row.
	Simulate(t []float64, u *mat.Dense) (*mat.Dense, error)
}

// Propagator propagates internal state of the system to the next step
type Propagator interface {
	// Propagate propagates internal state of the system to the next step
	Propagate(x, u, wd mat.Vector) (mat.Vector, error)
}

// Observer observes external state (output) of the system
type Observer interface {
	// Observe observes external state of the system
	Observe(x, u, wn mat.Vector) (mat.Vector, error)
}

// System is a linear model of a dynamical system
type System interface {
	// SystemDims returns state, input, output and disturbance dimensions
	SystemDims() (nx, nu, ny, nz int)
	// SystemMatrix returns state propagation matrix A
	SystemMatrix() mat.Matrix
	// ControlMatrix returns state propagation control matrix B
	ControlMatrix() mat.Matrix
	// OutputMatrix returns observation matrix C
	OutputMatrix() mat.Matrix
	// FeedForwardMatrix returns observation control matrix D
	FeedForwardMatrix() mat.Matrix
}

// DiscreteControlSystem is a linear discrete-time system which can be
// propagated and observed one step at a time
type DiscreteControlSystem interface {
	System
	Propagator
	Observer
}

// InitCond is initial state condition of the system
type InitCond interface {
	// State returns initial state
	State() mat.Vector
	// Cov returns initial state covariance
	Cov() mat.Symmetric
}

// Estimate is dynamical system state estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset()
}

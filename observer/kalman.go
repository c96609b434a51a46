package observer

import (
	"fmt"

	sysid "github.com/milosgajdos/go-sysid"
	"github.com/milosgajdos/go-sysid/noise"
	"github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

// Kalman is a Kalman filter which estimates the internal state of a linear
// discrete-time system, such as an identified reduced-order model, from its
// noisy output measurements.
type Kalman struct {
	// m is the observed system
	m sysid.DiscreteControlSystem
	// init is the initial condition
	init sysid.InitCond
	// q is state noise a.k.a. process noise
	q sysid.Noise
	// r is output noise a.k.a. measurement noise
	r sysid.Noise
	// p is the state covariance matrix
	p *mat.SymDense
	// pNext is the predicted state covariance matrix
	pNext *mat.SymDense
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
}

// New creates new Kalman filter and returns it.
// It accepts the following parameters:
//   - m:      observed linear system
//   - init:   initial condition of the filter
//   - q:      state noise a.k.a. process noise; nil means no process noise
//   - r:      output noise a.k.a. measurement noise; nil means no measurement noise
//
// It returns error if either of the following conditions is met:
//   - invalid model is given: model dimensions must be positive integers
//   - invalid system matrices are given: their dimensions must match the model dimensions
//   - invalid state or output noise is given: noise covariance must either be nil or match the model dimensions
//   - invalid initial condition is given: its dimensions must match the model state dimension
func New(m sysid.DiscreteControlSystem, init sysid.InitCond, q, r sysid.Noise) (*Kalman, error) {
	if m == nil || init == nil {
		return nil, fmt.Errorf("invalid model or initial condition: %v, %v", m, init)
	}

	nx, _, ny, _ := m.SystemDims()
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid model dimensions: [%d x %d]", nx, ny)
	}

	var err error
	if q != nil {
		if q.Cov().SymmetricDim() != nx {
			return nil, fmt.Errorf("invalid state noise dimension: %d != %d", q.Cov().SymmetricDim(), nx)
		}
	} else if q, err = noise.NewZero(nx); err != nil {
		return nil, err
	}

	if r != nil {
		if r.Cov().SymmetricDim() != ny {
			return nil, fmt.Errorf("invalid output noise dimension: %d != %d", r.Cov().SymmetricDim(), ny)
		}
	} else if r, err = noise.NewZero(ny); err != nil {
		return nil, err
	}

	if rows, cols := m.SystemMatrix().Dims(); rows != nx || cols != nx {
		return nil, fmt.Errorf("invalid propagation matrix dimensions: [%d x %d]", rows, cols)
	}

	if rows, cols := m.OutputMatrix().Dims(); rows != ny || cols != nx {
		return nil, fmt.Errorf("invalid observation matrix dimensions: [%d x %d]", rows, cols)
	}

	if init.State().Len() != nx || init.Cov().SymmetricDim() != nx {
		return nil, fmt.Errorf("invalid initial condition dimension: %d != %d", init.State().Len(), nx)
	}

	k := &Kalman{
		m:     m,
		init:  init,
		q:     q,
		r:     r,
		p:     mat.NewSymDense(nx, nil),
		pNext: mat.NewSymDense(nx, nil),
		inn:   mat.NewVecDense(ny, nil),
		k:     mat.NewDense(nx, ny, nil),
	}
	k.reset()

	return k, nil
}

// reset sets both covariance matrices to the initial condition covariance.
func (k *Kalman) reset() {
	k.p.CopySym(k.init.Cov())
	k.pNext.CopySym(k.init.Cov())
}

// Predict propagates the state x driven by input u to the next step and returns its estimate.
// It returns error if it fails to propagate x.
func (k *Kalman) Predict(x, u mat.Vector) (sysid.Estimate, error) {
	xNext, err := k.m.Propagate(x, u, nil)
	if err != nil {
		return nil, fmt.Errorf("system state propagation failed: %v", err)
	}

	// A*P*A' + Q
	cov := &mat.Dense{}
	cov.Product(k.m.SystemMatrix(), k.p, k.m.SystemMatrix().T())
	cov.Add(cov, k.q.Cov())

	symmetrize(k.pNext, cov)

	return NewEstimate(xNext, k.pNext)
}

// Update corrects the predicted state x given input u and measured output y and returns corrected estimate.
// It returns error if either invalid state or measurement was supplied or if it fails to calculate the gain.
func (k *Kalman) Update(x, u, y mat.Vector) (sysid.Estimate, error) {
	nx, _, ny, _ := k.m.SystemDims()

	if y == nil || y.Len() != ny {
		return nil, fmt.Errorf("invalid measurement supplied: %v", y)
	}

	// observe system output in the next step
	yNext, err := k.m.Observe(x, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to observe system output: %v", err)
	}

	C := k.m.OutputMatrix()

	// P*C'
	pxy := mat.NewDense(nx, ny, nil)
	pxy.Mul(k.pNext, C.T())

	// C*P*C' + R
	pyy := mat.NewDense(ny, ny, nil)
	pyy.Mul(C, pxy)
	pyy.Add(pyy, k.r.Cov())

	pyyInv := &mat.Dense{}
	if err := pyyInv.Inverse(pyy); err != nil {
		return nil, fmt.Errorf("failed to calculate Pyy inverse: %v", err)
	}
	gain := &mat.Dense{}
	gain.Mul(pxy, pyyInv)

	// innovation vector
	inn := &mat.VecDense{}
	inn.SubVec(y, yNext)

	corr := &mat.VecDense{}
	corr.MulVec(gain, inn)
	xCorr := &mat.VecDense{}
	xCorr.AddVec(x, corr)

	// Joseph form update: (I - K*C)*P*(I - K*C)' + K*R*K'
	eye, err := matrix.NewDenseValIdentity(nx, 1.0)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity matrix: %v", err)
	}
	a := &mat.Dense{}
	a.Mul(gain, C)
	a.Sub(eye, a)

	pCorr := &mat.Dense{}
	pCorr.Product(a, k.pNext, a.T())

	krk := &mat.Dense{}
	krk.Product(gain, k.r.Cov(), gain.T())
	pCorr.Add(pCorr, krk)

	k.inn.CopyVec(inn)
	k.k.Copy(gain)
	symmetrize(k.p, pCorr)

	return NewEstimate(xCorr, k.p)
}

// Run runs one step of the filter for given state x, input u and measurement y.
// It corrects state x using measurement y and then predicts the state of the next step.
// It returns error if it either fails to correct or propagate state x.
func (k *Kalman) Run(x, u, y mat.Vector) (sysid.Estimate, error) {
	est, err := k.Update(x, u, y)
	if err != nil {
		return nil, err
	}

	return k.Predict(est.Val(), u)
}

// Filter estimates the state trajectory of the system driven by inputs u which produced
// the measured outputs y, starting from the initial condition of the filter.
// Both u and y store one vector per time step in their rows.
// It returns a matrix which stores the corrected state estimate of each step in its rows.
func (k *Kalman) Filter(u, y *mat.Dense) (*mat.Dense, error) {
	est, _, err := k.forward(u, y)
	if err != nil {
		return nil, err
	}

	return stack(est), nil
}

// forward runs the filter over the whole measurement sequence.
// It returns the corrected estimates and the one step ahead predictions made from them.
func (k *Kalman) forward(u, y *mat.Dense) (corrected, predicted []sysid.Estimate, err error) {
	if u == nil || y == nil {
		return nil, nil, fmt.Errorf("invalid input or output sequence")
	}

	_, nu, ny, _ := k.m.SystemDims()
	steps, cols := y.Dims()
	if cols != ny {
		return nil, nil, fmt.Errorf("invalid output sequence dimension: %d != %d", cols, ny)
	}

	if rows, cols := u.Dims(); rows != steps || cols != nu {
		return nil, nil, fmt.Errorf("invalid input sequence dimensions: [%d x %d]", rows, cols)
	}

	k.reset()

	corrected = make([]sysid.Estimate, steps)
	predicted = make([]sysid.Estimate, steps)

	x := k.init.State()
	for i := 0; i < steps; i++ {
		corrected[i], err = k.Update(x, u.RowView(i), y.RowView(i))
		if err != nil {
			return nil, nil, fmt.Errorf("step %d: %v", i, err)
		}

		predicted[i], err = k.Predict(corrected[i].Val(), u.RowView(i))
		if err != nil {
			return nil, nil, fmt.Errorf("step %d: %v", i, err)
		}
		x = predicted[i].Val()
	}

	return corrected, predicted, nil
}

// stack stores estimate values in the rows of the returned matrix.
func stack(est []sysid.Estimate) *mat.Dense {
	if len(est) == 0 {
		return &mat.Dense{}
	}

	states := mat.NewDense(len(est), est[0].Val().Len(), nil)
	for i, e := range est {
		states.SetRow(i, mat.Col(nil, 0, e.Val()))
	}

	return states
}

// Model returns the observed system
func (k *Kalman) Model() sysid.DiscreteControlSystem {
	return k.m
}

// Cov returns the filter state covariance
func (k *Kalman) Cov() mat.Symmetric {
	cov := mat.NewSymDense(k.p.SymmetricDim(), nil)
	cov.CopySym(k.p)

	return cov
}

// SetCov sets the filter state covariance matrix to cov.
// It returns error if either cov is nil or its dimensions are not the same as the filter covariance dimensions.
func (k *Kalman) SetCov(cov mat.Symmetric) error {
	if cov == nil {
		return fmt.Errorf("invalid covariance matrix: %v", cov)
	}

	if cov.SymmetricDim() != k.p.SymmetricDim() {
		return fmt.Errorf("invalid covariance matrix dims: [%d x %d]", cov.SymmetricDim(), cov.SymmetricDim())
	}

	k.p.CopySym(cov)
	k.pNext.CopySym(cov)

	return nil
}

// Gain returns Kalman gain
func (k *Kalman) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(k.k)

	return gain
}

// Innovation returns the innovation vector of the last update
func (k *Kalman) Innovation() mat.Vector {
	inn := &mat.VecDense{}
	inn.CloneFromVec(k.inn)

	return inn
}

// symmetrize stores the symmetric part of the square matrix m in dst.
func symmetrize(dst *mat.SymDense, m mat.Matrix) {
	n := dst.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
}

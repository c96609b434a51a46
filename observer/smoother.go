package observer

import (
	"fmt"

	sysid "github.com/milosgajdos/go-sysid"
	"gonum.org/v1/gonum/mat"
)

// Smooth estimates the state trajectory of the system driven by inputs u which produced
// the measured outputs y using Rauch-Tung-Striebel fixed interval smoothing.
// It runs the filter forward over all measurements and then refines its estimates backwards.
// It returns a matrix which stores the smoothed state estimate of each step in its rows.
func (k *Kalman) Smooth(u, y *mat.Dense) (*mat.Dense, error) {
	est, err := k.SmoothEstimates(u, y)
	if err != nil {
		return nil, err
	}

	return stack(est), nil
}

// SmoothEstimates works like Smooth, but returns smoothed estimates including their covariances.
// It returns error if the filter fails or if any predicted covariance is singular.
func (k *Kalman) SmoothEstimates(u, y *mat.Dense) ([]sysid.Estimate, error) {
	corrected, predicted, err := k.forward(u, y)
	if err != nil {
		return nil, err
	}

	steps := len(corrected)
	smoothed := make([]sysid.Estimate, steps)
	// the last corrected estimate already uses all measurements
	smoothed[steps-1] = corrected[steps-1]

	A := k.m.SystemMatrix()
	for i := steps - 2; i >= 0; i-- {
		pInv := &mat.Dense{}
		if err := pInv.Inverse(predicted[i].Cov()); err != nil {
			return nil, fmt.Errorf("step %d: failed to invert predicted covariance: %v", i, err)
		}

		// G = P*A'*Pp^-1
		g := &mat.Dense{}
		g.Product(corrected[i].Cov(), A.T(), pInv)

		// x + G*(xs - xp)
		dx := &mat.VecDense{}
		dx.SubVec(smoothed[i+1].Val(), predicted[i].Val())
		x := &mat.VecDense{}
		x.MulVec(g, dx)
		x.AddVec(corrected[i].Val(), x)

		// P + G*(Ps - Pp)*G'
		dp := &mat.Dense{}
		dp.Sub(smoothed[i+1].Cov(), predicted[i].Cov())
		p := &mat.Dense{}
		p.Product(g, dp, g.T())
		p.Add(corrected[i].Cov(), p)

		cov := mat.NewSymDense(x.Len(), nil)
		symmetrize(cov, p)

		if smoothed[i], err = NewEstimate(x, cov); err != nil {
			return nil, fmt.Errorf("step %d: %v", i, err)
		}
	}

	return smoothed, nil
}

package observer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Estimate is a state estimate with its covariance
type Estimate struct {
	// val is estimated value
	val *mat.VecDense
	// cov is estimated covariance
	cov *mat.SymDense
}

// NewEstimate returns estimate of val with covariance cov.
// It returns error if val and cov dimensions differ.
func NewEstimate(val mat.Vector, cov mat.Symmetric) (*Estimate, error) {
	if val.Len() != cov.SymmetricDim() {
		return nil, fmt.Errorf("invalid dimensions. Val: %d, Cov: %d x %d", val.Len(), cov.SymmetricDim(), cov.SymmetricDim())
	}

	v := &mat.VecDense{}
	v.CloneFromVec(val)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	return &Estimate{
		val: v,
		cov: c,
	}, nil
}

// Val returns estimated value
func (e *Estimate) Val() mat.Vector {
	v := &mat.VecDense{}
	v.CloneFromVec(e.val)

	return v
}

// Cov returns covariance estimate
func (e *Estimate) Cov() mat.Symmetric {
	cov := mat.NewSymDense(e.cov.SymmetricDim(), nil)
	cov.CopySym(e.cov)

	return cov
}

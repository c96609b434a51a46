package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SetBlock copies src into dst so that the top left corner of src lands at (i, j).
// It returns error if src does not fit into dst.
func SetBlock(dst *mat.Dense, i, j int, src mat.Matrix) error {
	rows, cols := dst.Dims()
	r, c := src.Dims()
	if i < 0 || j < 0 || i+r > rows || j+c > cols {
		return fmt.Errorf("block [%d x %d] at (%d, %d) exceeds [%d x %d]", r, c, i, j, rows, cols)
	}

	dst.Slice(i, i+r, j, j+c).(*mat.Dense).Copy(src)

	return nil
}

// DiagPow returns a diagonal matrix whose diagonal stores the elements of s raised to p.
// It returns error if any of the resulting elements is not a finite number.
func DiagPow(s []float64, p float64) (*mat.DiagDense, error) {
	d := make([]float64, len(s))
	for i, v := range s {
		d[i] = math.Pow(v, p)
		if math.IsNaN(d[i]) || math.IsInf(d[i], 0) {
			return nil, fmt.Errorf("invalid power %v of diagonal element %d: %v", p, i, v)
		}
	}

	return mat.NewDiagDense(len(d), d), nil
}

// HasNaNOrInf returns true if m contains NaN or Inf values.
func HasNaNOrInf(m mat.Matrix) bool {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}

	return false
}

// RelErr returns the Frobenius norm of (a - ref) divided by the Frobenius norm of ref.
// If ref is zero it returns the absolute error norm.
// It panics if a and ref have different dimensions.
func RelErr(a, ref mat.Matrix) float64 {
	diff := &mat.Dense{}
	diff.Sub(a, ref)

	num := mat.Norm(diff, 2)
	den := mat.Norm(ref, 2)
	if den == 0 {
		return num
	}

	return num / den
}

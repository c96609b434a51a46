// Package era implements the Eigensystem Realization Algorithm.
//
// ERA derives a balanced reduced-order discrete-time state-space realization
//
//	x[k+1] = A*x[k] + B*u[k]
//	y[k] = C*x[k] + D*u[k]
//
// from the impulse response of a linear system with nin inputs and nout outputs.
package era

import (
	"fmt"

	"github.com/milosgajdos/go-sysid/hankel"
	"github.com/milosgajdos/go-sysid/impulse"
	"github.com/milosgajdos/go-sysid/matrix"
	"gonum.org/v1/gonum/mat"
)

// DefaultTol is the default relative singular value threshold below which
// a truncation is considered rank-deficient.
const DefaultTol = 1e-12

// Realize computes the order r realization of the impulse response yy using
// m block rows and n block columns in the Hankel matrices.
// It is equivalent to RealizeTol with DefaultTol.
func Realize(yy *impulse.Response, m, n, nin, nout, r int) (*Realization, error) {
	return RealizeTol(yy, m, n, nin, nout, r, DefaultTol)
}

// RealizeTol computes the order r realization of the impulse response yy using
// m block rows and n block columns in the Hankel matrices.
// The direct term of the realization is the response at time step 0.
//
// It returns error if:
//   - yy channels do not match nin and nout or yy holds fewer than m+n+1 samples
//   - r is outside [1, min(nout*m, nin*n)]
//   - the r-th singular value of the Hankel matrix is not above tol times the largest one
func RealizeTol(yy *impulse.Response, m, n, nin, nout, r int, tol float64) (*Realization, error) {
	p, err := hankel.Build(yy, m, n, nin, nout)
	if err != nil {
		return nil, fmt.Errorf("failed to build Hankel matrices: %w: %w", ErrDimensionMismatch, err)
	}

	a, b, c, hsvs, err := Reduce(p.H, p.H2, nin, nout, r, tol)
	if err != nil {
		return nil, err
	}

	return &Realization{
		A:    a,
		B:    b,
		C:    c,
		D:    p.D,
		HSVs: hsvs,
	}, nil
}

// Reduce recovers the order r balanced realization matrices from the Hankel matrix h
// and its one step shift h2 and returns them together with all singular values of h.
//
// With h = U*S*V' truncated to the r largest singular values:
//
//	A = S^-1/2 * U' * h2 * V * S^-1/2
//	B = S^-1/2 * U' * h[:, :nin]
//	C = h[:nout, :] * V * S^-1/2
//
// tol is the relative threshold of the smallest retained singular value; non-positive
// tol only rejects exactly zero singular values.
func Reduce(h, h2 *mat.Dense, nin, nout, r int, tol float64) (a, b, c *mat.Dense, hsvs []float64, err error) {
	if h == nil || h2 == nil {
		return nil, nil, nil, nil, fmt.Errorf("nil Hankel matrix: %w", ErrDimensionMismatch)
	}

	rows, cols := h.Dims()
	if r2, c2 := h2.Dims(); r2 != rows || c2 != cols {
		return nil, nil, nil, nil, fmt.Errorf("Hankel matrices [%d x %d] and [%d x %d]: %w", rows, cols, r2, c2, ErrDimensionMismatch)
	}

	if nin <= 0 || nout <= 0 || nin > cols || nout > rows {
		return nil, nil, nil, nil, fmt.Errorf("channels [%d x %d] for Hankel matrix [%d x %d]: %w", nout, nin, rows, cols, ErrDimensionMismatch)
	}

	if maxOrder := min(rows, cols); r < 1 || r > maxOrder {
		return nil, nil, nil, nil, fmt.Errorf("order %d outside [1, %d]: %w", r, maxOrder, ErrInvalidOrder)
	}

	if matrix.HasNaNOrInf(h) || matrix.HasNaNOrInf(h2) {
		return nil, nil, nil, nil, ErrNonFinite
	}

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDThin); !ok {
		return nil, nil, nil, nil, ErrFactorize
	}

	hsvs = svd.Values(nil)
	if hsvs[r-1] <= 0 || hsvs[r-1] <= tol*hsvs[0] {
		return nil, nil, nil, nil, fmt.Errorf("singular value %d is %g, largest %g: %w", r, hsvs[r-1], hsvs[0], ErrRankDeficient)
	}

	u, v := &mat.Dense{}, &mat.Dense{}
	svd.UTo(u)
	svd.VTo(v)

	ur := u.Slice(0, rows, 0, r)
	vr := v.Slice(0, cols, 0, r)

	// singular values are positive so the principal power is elementwise
	sInv, err := matrix.DiagPow(hsvs[:r], -0.5)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("%v: %w", err, ErrRankDeficient)
	}

	a, b, c = &mat.Dense{}, &mat.Dense{}, &mat.Dense{}
	a.Product(sInv, ur.T(), h2, vr, sInv)
	b.Product(sInv, ur.T(), h.Slice(0, rows, 0, nin))
	c.Product(h.Slice(0, nout, 0, cols), vr, sInv)

	if matrix.HasNaNOrInf(a) || matrix.HasNaNOrInf(b) || matrix.HasNaNOrInf(c) {
		return nil, nil, nil, nil, fmt.Errorf("non-finite realization: %w", ErrRankDeficient)
	}

	return a, b, c, hsvs, nil
}

// Package hankel builds block Hankel matrices from sampled impulse responses.
package hankel

import (
	"errors"
	"fmt"

	"github.com/milosgajdos/go-sysid/impulse"
	"github.com/milosgajdos/go-sysid/matrix"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDimensionMismatch is returned when the impulse response does not match the declared
	// channel counts or is too short to fill the requested Hankel matrices.
	ErrDimensionMismatch = errors.New("hankel: dimension mismatch")
	// ErrInvalidHorizon is returned when the number of block rows or columns is not positive.
	ErrInvalidHorizon = errors.New("hankel: invalid horizon")
)

// Pair stores the direct transmission term and the Hankel matrices of an impulse response.
type Pair struct {
	// D is the response at time step 0
	D *mat.Dense
	// H is the block Hankel matrix of the dynamic response
	H *mat.Dense
	// H2 is H shifted by one time step
	H2 *mat.Dense
}

// Split splits yy into its direct term, the nout x nin response at time step 0,
// and the dynamic response samples at time steps 1..T-1.
func Split(yy *impulse.Response) (*mat.Dense, []*mat.Dense) {
	_, _, steps := yy.Dims()

	y := make([]*mat.Dense, steps-1)
	for k := range y {
		y[k] = yy.Sample(k + 1)
	}

	return yy.Sample(0), y
}

// Build builds the Hankel matrix pair of the impulse response yy.
//
// H and H2 have nout*m rows and nin*n columns. Block (i, j) of H is the dynamic response
// sample i+j and block (i, j) of H2 is the dynamic response sample i+j+1, so yy must hold
// at least m+n+1 samples including the direct term.
func Build(yy *impulse.Response, m, n, nin, nout int) (*Pair, error) {
	if yy == nil {
		return nil, fmt.Errorf("nil impulse response: %w", ErrDimensionMismatch)
	}

	if m <= 0 || n <= 0 {
		return nil, fmt.Errorf("block rows %d, block columns %d: %w", m, n, ErrInvalidHorizon)
	}

	rout, rin, steps := yy.Dims()
	if nout <= 0 || nin <= 0 || rout != nout || rin != nin {
		return nil, fmt.Errorf("response channels [%d x %d], declared [%d x %d]: %w", rout, rin, nout, nin, ErrDimensionMismatch)
	}

	if steps-1 < m+n {
		return nil, fmt.Errorf("%d dynamic samples, need %d for %d x %d blocks: %w", steps-1, m+n, m, n, ErrDimensionMismatch)
	}

	d, y := Split(yy)

	h := mat.NewDense(nout*m, nin*n, nil)
	h2 := mat.NewDense(nout*m, nin*n, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			if err := matrix.SetBlock(h, nout*i, nin*j, y[i+j]); err != nil {
				return nil, err
			}
			if err := matrix.SetBlock(h2, nout*i, nin*j, y[i+j+1]); err != nil {
				return nil, err
			}
		}
	}

	return &Pair{D: d, H: h, H2: h2}, nil
}

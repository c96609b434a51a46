package era

import "errors"

var (
	// ErrDimensionMismatch is returned when the Hankel matrices or the impulse
	// response do not match the declared channel counts.
	ErrDimensionMismatch = errors.New("era: dimension mismatch")
	// ErrInvalidOrder is returned when the reduced order is outside [1, min(nout*m, nin*n)].
	ErrInvalidOrder = errors.New("era: invalid reduced order")
	// ErrRankDeficient is returned when any of the retained singular values is
	// zero or negligible relative to the largest one.
	ErrRankDeficient = errors.New("era: rank-deficient truncation")
	// ErrNonFinite is returned when the Hankel matrices contain NaN or Inf values.
	ErrNonFinite = errors.New("era: non-finite values")
	// ErrFactorize is returned when the singular value decomposition fails.
	ErrFactorize = errors.New("era: SVD factorization failed")
)

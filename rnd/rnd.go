package rnd

import (
	"fmt"
	"math"

	"github.com/milosgajdos/go-sysid/sim"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// MinModulus is the smallest eigenvalue modulus of generated systems
	MinModulus = 0.5
	// MaxModulus is the largest eigenvalue modulus of generated systems
	MaxModulus = 0.95
)

// Stable generates a random stable discrete-time system with nx states, nu inputs and ny outputs.
// The system matrix is a real block diagonal matrix of random real eigenvalues and complex
// conjugate pairs with moduli in [MinModulus, MaxModulus] rotated by a random orthogonal matrix.
// Input and output matrices have standard normal entries and the feedthrough matrix is zero.
// It returns error if any of the dimensions is not positive.
func Stable(nx, nu, ny int, src rand.Source) (*sim.Discrete, error) {
	if nx <= 0 || nu <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid system dimensions: nx=%d nu=%d ny=%d", nx, nu, ny)
	}

	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	modulus := distuv.Uniform{Min: MinModulus, Max: MaxModulus, Src: src}
	angle := distuv.Uniform{Min: 0.1, Max: math.Pi - 0.1, Src: src}
	coin := distuv.Bernoulli{P: 0.5, Src: src}

	L := mat.NewDense(nx, nx, nil)
	for i := 0; i < nx; {
		if nx-i >= 2 && coin.Rand() == 1 {
			rho, theta := modulus.Rand(), angle.Rand()
			re, im := rho*math.Cos(theta), rho*math.Sin(theta)
			L.Set(i, i, re)
			L.Set(i, i+1, -im)
			L.Set(i+1, i, im)
			L.Set(i+1, i+1, re)
			i += 2
			continue
		}

		lambda := modulus.Rand()
		if coin.Rand() == 1 {
			lambda = -lambda
		}
		L.Set(i, i, lambda)
		i++
	}

	Q, err := Orthogonal(nx, src)
	if err != nil {
		return nil, err
	}

	A := &mat.Dense{}
	A.Product(Q, L, Q.T())

	B := Normal(nx, nu, norm)
	C := Normal(ny, nx, norm)
	D := mat.NewDense(ny, nu, nil)

	return sim.NewDiscrete(A, B, C, D, nil)
}

// Orthogonal returns a random n x n orthogonal matrix:
// the Q factor of the QR factorization of a standard normal matrix.
func Orthogonal(n int, src rand.Source) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid matrix dimension: %d", n)
	}

	var qr mat.QR
	qr.Factorize(Normal(n, n, distuv.Normal{Mu: 0, Sigma: 1, Src: src}))

	Q := &mat.Dense{}
	qr.QTo(Q)

	return Q, nil
}

// Normal returns rows x cols matrix with entries drawn from dist.
func Normal(rows, cols int, dist distuv.Normal) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = dist.Rand()
	}

	return mat.NewDense(rows, cols, data)
}

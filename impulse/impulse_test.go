package impulse

import (
	"fmt"
	"testing"

	"github.com/milosgajdos/go-sysid/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// fixed returns the same output regardless of input
type fixed struct {
	y   *mat.Dense
	err error
}

func (f *fixed) Simulate(t []float64, u *mat.Dense) (*mat.Dense, error) {
	if f.err != nil {
		return nil, f.err
	}
	return mat.DenseCopyOf(f.y), nil
}

func grid(n int) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i)
	}
	return t
}

func TestNewResponse(t *testing.T) {
	assert := assert.New(t)

	resp, err := NewResponse(3, 2, 10)
	assert.NoError(err)
	nout, nin, steps := resp.Dims()
	assert.Equal(3, nout)
	assert.Equal(2, nin)
	assert.Equal(10, steps)

	resp.Set(2, 1, 9, 4.5)
	assert.Equal(4.5, resp.At(2, 1, 9))
	assert.Panics(func() { resp.At(0, 0, 10) })

	for _, dims := range [][3]int{{0, 1, 1}, {1, -1, 1}, {1, 1, 0}} {
		resp, err = NewResponse(dims[0], dims[1], dims[2])
		assert.Nil(resp)
		assert.Error(err)
	}
}

func TestNewResponseFrom(t *testing.T) {
	assert := assert.New(t)

	s0 := mat.NewDense(2, 1, []float64{1, 2})
	s1 := mat.NewDense(2, 1, []float64{3, 4})

	resp, err := NewResponseFrom([]mat.Matrix{s0, s1})
	assert.NoError(err)
	assert.Equal(3.0, resp.At(0, 0, 1))

	// samples are copied
	s1.Set(0, 0, 100)
	assert.Equal(3.0, resp.At(0, 0, 1))
	sample := resp.Sample(1)
	sample.Set(0, 0, 100)
	assert.Equal(3.0, resp.At(0, 0, 1))

	resp, err = NewResponseFrom(nil)
	assert.Nil(resp)
	assert.Error(err)

	resp, err = NewResponseFrom([]mat.Matrix{s0, mat.NewDense(1, 1, nil)})
	assert.Nil(resp)
	assert.Error(err)

	resp, err = NewResponseFrom([]mat.Matrix{s0, nil})
	assert.Nil(resp)
	assert.Error(err)
}

func TestChannelScale(t *testing.T) {
	assert := assert.New(t)

	resp, err := NewResponse(2, 2, 3)
	require.NoError(t, err)
	for k := 0; k < 3; k++ {
		resp.Set(0, 1, k, float64(k))
		resp.Set(1, 1, k, float64(10*k))
	}

	ch := resp.Channel(1)
	assert.True(mat.Equal(mat.NewDense(3, 2, []float64{0, 0, 1, 10, 2, 20}), ch))
	assert.Panics(func() { resp.Channel(2) })

	scaled := resp.Scale(2)
	assert.Equal(40.0, scaled.At(1, 1, 2))
	assert.Equal(20.0, resp.At(1, 1, 2))
}

func TestInputs(t *testing.T) {
	assert := assert.New(t)

	u, err := Input(4, 2, 1)
	assert.NoError(err)
	assert.True(mat.Equal(mat.NewDense(4, 2, []float64{0, 1, 0, 0, 0, 0, 0, 0}), u))

	u, err = Input(4, 2, 2)
	assert.Nil(u)
	assert.Error(err)

	u, err = Input(0, 2, 0)
	assert.Nil(u)
	assert.Error(err)

	u, err = Ones(2, 3)
	assert.NoError(err)
	assert.Equal(6.0, mat.Sum(u))

	u, err = Ones(2, 0)
	assert.Nil(u)
	assert.Error(err)
}

func TestCollect(t *testing.T) {
	assert := assert.New(t)

	// two inputs, two outputs, no dynamics between channels
	A := mat.NewDense(2, 2, []float64{0.5, 0, 0, -0.25})
	B := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	C := mat.NewDense(2, 2, []float64{1, 0, 0, 2})
	D := mat.NewDense(2, 2, []float64{0.1, 0.2, 0.3, 0.4})
	sys, err := sim.NewDiscrete(A, B, C, D, nil)
	require.NoError(t, err)

	steps := 6
	resp, err := Collect(sys, grid(steps), 2)
	assert.NoError(err)

	nout, nin, n := resp.Dims()
	assert.Equal(2, nout)
	assert.Equal(2, nin)
	assert.Equal(steps, n)

	// direct term
	assert.True(mat.Equal(D, resp.Sample(0)))
	// Markov parameters C*A^(k-1)*B
	for k := 1; k < steps; k++ {
		Ak := &mat.Dense{}
		Ak.Pow(A, k-1)
		want := &mat.Dense{}
		want.Product(C, Ak, B)
		assert.True(mat.EqualApprox(want, resp.Sample(k), 1e-14), fmt.Sprintf("step %d", k))
	}

	resp, err = Collect(nil, grid(steps), 2)
	assert.Nil(resp)
	assert.Error(err)

	resp, err = Collect(sys, grid(steps), 0)
	assert.Nil(resp)
	assert.Error(err)

	resp, err = Collect(sys, nil, 2)
	assert.Nil(resp)
	assert.Error(err)

	// wrong number of inputs fails in the simulator
	resp, err = Collect(sys, grid(steps), 3)
	assert.Nil(resp)
	assert.Error(err)

	resp, err = Collect(&fixed{err: fmt.Errorf("boom")}, grid(steps), 1)
	assert.Nil(resp)
	assert.Error(err)

	resp, err = Collect(&fixed{y: mat.NewDense(steps-1, 1, nil)}, grid(steps), 1)
	assert.Nil(resp)
	assert.Error(err)
}

func TestStep(t *testing.T) {
	assert := assert.New(t)

	sys, err := sim.NewDiscrete(mat.NewDense(1, 1, []float64{0.5}), mat.NewDense(1, 1, []float64{1}),
		mat.NewDense(1, 1, []float64{1}), nil, nil)
	require.NoError(t, err)

	y, err := Step(sys, grid(4), 1)
	assert.NoError(err)
	assert.InDeltaSlice([]float64{0, 1, 1.5, 1.75}, mat.Col(nil, 0, y), 1e-14)

	y, err = Step(nil, grid(4), 1)
	assert.Nil(y)
	assert.Error(err)

	y, err = Step(sys, grid(4), 0)
	assert.Nil(y)
	assert.Error(err)
}

package observer

import (
	"os"
	"testing"

	sysid "github.com/milosgajdos/go-sysid"
	"github.com/milosgajdos/go-sysid/era"
	"github.com/milosgajdos/go-sysid/impulse"
	"github.com/milosgajdos/go-sysid/noise"
	"github.com/milosgajdos/go-sysid/rnd"
	"github.com/milosgajdos/go-sysid/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

type invalidModel struct {
	sysid.DiscreteControlSystem
	nx int
	nu int
	ny int
}

func (m *invalidModel) SystemDims() (nx, nu, ny, nz int) {
	return m.nx, m.nu, m.ny, 0
}

var (
	okModel  *sim.Discrete
	badModel *invalidModel
	ic       *sim.InitCond
	q        sysid.Noise
	r        sysid.Noise
	u        *mat.VecDense
	z        *mat.VecDense
)

func setup() {
	u = mat.NewVecDense(1, []float64{-1.0})
	z = mat.NewVecDense(1, []float64{-1.5})

	// initial condition
	initState := mat.NewVecDense(2, []float64{1.0, 3.0})
	initCov := mat.NewSymDense(2, []float64{0.25, 0, 0, 0.25})
	ic = sim.NewInitCond(initState, initCov)

	// state and output noise
	q, _ = noise.NewGaussian([]float64{0, 0}, initCov, 1)
	r, _ = noise.NewGaussian([]float64{0}, mat.NewSymDense(1, []float64{0.25}), 2)

	A := mat.NewDense(2, 2, []float64{1.0, 1.0, 0.0, 1.0})
	B := mat.NewDense(2, 1, []float64{0.5, 1.0})
	C := mat.NewDense(1, 2, []float64{1.0, 0.0})
	D := mat.NewDense(1, 1, []float64{0.0})

	okModel, _ = sim.NewDiscrete(A, B, C, D, nil)
	badModel = &invalidModel{DiscreteControlSystem: okModel, nx: 10, ny: 10}
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	assert.NoError(err)
	assert.NotNil(f)
	assert.Equal(okModel, f.Model())

	// invalid model: negative dimensions
	badModel.nx, badModel.ny = -10, 20
	f, err = New(badModel, ic, q, r)
	assert.Nil(f)
	assert.Error(err)

	// invalid model: dimensions disagree with matrices
	badModel.nx, badModel.ny = 10, 10
	f, err = New(badModel, ic, nil, nil)
	assert.Nil(f)
	assert.Error(err)

	// invalid state noise dimension
	_q, _ := noise.NewZero(20)
	f, err = New(okModel, ic, _q, r)
	assert.Nil(f)
	assert.Error(err)

	// invalid output noise dimension
	_r, _ := noise.NewZero(20)
	f, err = New(okModel, ic, q, _r)
	assert.Nil(f)
	assert.Error(err)

	// invalid initial condition
	_ic := sim.NewInitCond(mat.NewVecDense(3, nil), mat.NewSymDense(3, nil))
	f, err = New(okModel, _ic, q, r)
	assert.Nil(f)
	assert.Error(err)

	f, err = New(nil, ic, q, r)
	assert.Nil(f)
	assert.Error(err)

	// zero [state and output] noise
	f, err = New(okModel, ic, nil, nil)
	assert.NotNil(f)
	assert.NoError(err)
}

func TestPredict(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	require.NoError(t, err)

	x := mat.VecDenseCopyOf(ic.State())
	est, err := f.Predict(x, u)
	assert.NoError(err)
	assert.InDeltaSlice([]float64{3.5, 2.0}, mat.Col(nil, 0, est.Val()), 1e-12)

	// A*P*A' + Q
	assert.InDelta(0.75, est.Cov().At(0, 0), 1e-12)
	assert.InDelta(0.25, est.Cov().At(0, 1), 1e-12)
	assert.InDelta(0.5, est.Cov().At(1, 1), 1e-12)

	// invalid input vector
	_u := mat.NewVecDense(3, nil)
	est, err = f.Predict(x, _u)
	assert.Nil(est)
	assert.Error(err)
}

func TestUpdate(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	require.NoError(t, err)

	x := mat.VecDenseCopyOf(ic.State())
	est, err := f.Update(x, u, z)
	assert.NoError(err)
	// K = [0.5, 0], innovation = -2.5
	assert.InDeltaSlice([]float64{-0.25, 3.0}, mat.Col(nil, 0, est.Val()), 1e-12)
	assert.InDelta(0.125, est.Cov().At(0, 0), 1e-12)
	assert.InDelta(0.25, est.Cov().At(1, 1), 1e-12)
	assert.InDelta(-2.5, f.Innovation().AtVec(0), 1e-12)
	assert.InDelta(0.5, f.Gain().At(0, 0), 1e-12)

	// input state is left intact
	assert.Equal(1.0, x.AtVec(0))

	// invalid input vector
	_u := mat.NewVecDense(3, nil)
	est, err = f.Update(x, _u, z)
	assert.Nil(est)
	assert.Error(err)

	// invalid measurement vector
	_z := mat.NewVecDense(3, nil)
	est, err = f.Update(x, u, _z)
	assert.Nil(est)
	assert.Error(err)
}

func TestRun(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	require.NoError(t, err)

	x := mat.VecDenseCopyOf(ic.State())
	est, err := f.Run(x, u, z)
	assert.NotNil(est)
	assert.NoError(err)

	// invalid input vector
	_u := mat.NewVecDense(3, nil)
	est, err = f.Run(x, _u, z)
	assert.Nil(est)
	assert.Error(err)

	// invalid measurement vector
	_z := mat.NewVecDense(3, nil)
	est, err = f.Run(x, u, _z)
	assert.Nil(est)
	assert.Error(err)
}

func TestCov(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okModel, ic, q, r)
	require.NoError(t, err)

	cov := f.Cov()
	assert.True(mat.Equal(ic.Cov(), cov))

	err = f.SetCov(nil)
	assert.Error(err)

	err = f.SetCov(mat.NewSymDense(30, nil))
	assert.Error(err)

	err = f.SetCov(mat.NewSymDense(2, []float64{1, 0, 0, 2}))
	assert.NoError(err)
	assert.Equal(2.0, f.Cov().At(1, 1))
}

func TestFilterConverges(t *testing.T) {
	assert := assert.New(t)

	// filter starts far from the true state of an unstable system
	init := sim.NewInitCond(mat.NewVecDense(2, nil), mat.NewSymDense(2, []float64{10, 0, 0, 10}))
	small, err := noise.NewGaussian([]float64{0}, mat.NewSymDense(1, []float64{0.01}), 5)
	require.NoError(t, err)

	f, err := New(okModel, init, nil, small)
	require.NoError(t, err)

	steps := 30
	tt := make([]float64, steps)
	for i := range tt {
		tt[i] = float64(i)
	}
	in := mat.NewDense(steps, 1, nil)
	x0 := mat.NewVecDense(2, []float64{5, -1})
	y, err := okModel.SimulateFrom(x0, tt, in)
	require.NoError(t, err)

	states, err := f.Filter(in, y)
	require.NoError(t, err)

	// true state at the last step: x[k] = A^k * x0
	truth := mat.NewVecDense(2, []float64{5 - float64(steps-1), -1})
	last := states.RowView(steps - 1)
	diff := &mat.VecDense{}
	diff.SubVec(truth, last)
	assert.True(mat.Norm(diff, 2) < 0.05, "estimation error %v", mat.Norm(diff, 2))

	_, err = f.Filter(nil, y)
	assert.Error(err)

	_, err = f.Filter(mat.NewDense(steps-1, 1, nil), y)
	assert.Error(err)

	_, err = f.Filter(in, mat.NewDense(steps, 2, nil))
	assert.Error(err)
}

func TestFilterIdentifiedModel(t *testing.T) {
	assert := assert.New(t)

	truth, err := rnd.Stable(4, 1, 2, rand.NewSource(11))
	require.NoError(t, err)

	steps := 41
	tt := make([]float64, steps)
	for i := range tt {
		tt[i] = float64(i)
	}

	yy, err := impulse.Collect(truth, tt, 1)
	require.NoError(t, err)

	rz, err := era.Realize(yy, 20, 20, 1, 2, 4)
	require.NoError(t, err)

	rom, err := rz.System()
	require.NoError(t, err)

	init := sim.NewInitCond(mat.NewVecDense(4, nil), mat.NewSymDense(4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}))
	wn, err := noise.NewGaussian([]float64{0, 0}, mat.NewSymDense(2, []float64{1e-4, 0, 0, 1e-4}), 3)
	require.NoError(t, err)

	f, err := New(rom, init, nil, wn)
	require.NoError(t, err)

	// random excitation of the true system
	src := rand.New(rand.NewSource(5))
	in := mat.NewDense(steps, 1, nil)
	for i := 0; i < steps; i++ {
		in.Set(i, 0, src.NormFloat64())
	}
	y, err := truth.Simulate(tt, in)
	require.NoError(t, err)

	states, err := f.Filter(in, y)
	require.NoError(t, err)

	// outputs reconstructed from the estimated states match the measurements
	yHat := &mat.Dense{}
	yHat.Mul(states, rom.C.T())
	du := &mat.Dense{}
	du.Mul(in, rom.D.T())
	yHat.Add(yHat, du)

	assert.True(mat.EqualApprox(y, yHat, 1e-3))
}

package impulse

import (
	"fmt"

	sysid "github.com/milosgajdos/go-sysid"
	"gonum.org/v1/gonum/mat"
)

// Response is a sampled impulse response of a system with nin inputs and nout outputs.
// At(i, j, k) is the response of output i at time step k to a unit impulse applied
// to input j at time step 0.
type Response struct {
	nout    int
	nin     int
	samples []*mat.Dense
}

// NewResponse creates new zero Response with nout outputs, nin inputs and steps samples.
// It returns error if any of the dimensions is not positive.
func NewResponse(nout, nin, steps int) (*Response, error) {
	if nout <= 0 || nin <= 0 || steps <= 0 {
		return nil, fmt.Errorf("invalid response dimensions: [%d x %d x %d]", nout, nin, steps)
	}

	samples := make([]*mat.Dense, steps)
	for k := range samples {
		samples[k] = mat.NewDense(nout, nin, nil)
	}

	return &Response{
		nout:    nout,
		nin:     nin,
		samples: samples,
	}, nil
}

// NewResponseFrom creates new Response from the nout x nin matrices in samples.
// Sample k becomes the response at time step k. The samples are copied.
// It returns error if samples is empty or the samples have different dimensions.
func NewResponseFrom(samples []mat.Matrix) (*Response, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no response samples supplied")
	}

	if samples[0] == nil {
		return nil, fmt.Errorf("invalid response sample 0")
	}
	nout, nin := samples[0].Dims()

	resp := &Response{
		nout:    nout,
		nin:     nin,
		samples: make([]*mat.Dense, len(samples)),
	}

	for k, s := range samples {
		if s == nil {
			return nil, fmt.Errorf("invalid response sample %d", k)
		}
		if r, c := s.Dims(); r != nout || c != nin {
			return nil, fmt.Errorf("invalid response sample %d dimensions: [%d x %d], expected [%d x %d]", k, r, c, nout, nin)
		}
		resp.samples[k] = mat.DenseCopyOf(s)
	}

	return resp, nil
}

// Dims returns the number of outputs, inputs and time steps of the response.
func (r *Response) Dims() (nout, nin, steps int) {
	return r.nout, r.nin, len(r.samples)
}

// At returns the response of output i at time step k to an impulse on input j.
// It panics if any of the indices is out of range.
func (r *Response) At(i, j, k int) float64 {
	return r.samples[k].At(i, j)
}

// Set sets the response of output i at time step k to an impulse on input j to v.
// It panics if any of the indices is out of range.
func (r *Response) Set(i, j, k int, v float64) {
	r.samples[k].Set(i, j, v)
}

// Sample returns a copy of the nout x nin response matrix at time step k.
// It panics if k is out of range.
func (r *Response) Sample(k int) *mat.Dense {
	return mat.DenseCopyOf(r.samples[k])
}

// Channel returns the response to an impulse on input j.
// The returned matrix stores the output vector of each time step in its rows.
// It panics if j is out of range.
func (r *Response) Channel(j int) *mat.Dense {
	if j < 0 || j >= r.nin {
		panic(fmt.Sprintf("impulse: input channel %d out of range", j))
	}

	ch := mat.NewDense(len(r.samples), r.nout, nil)
	for k, s := range r.samples {
		ch.SetRow(k, mat.Col(nil, j, s))
	}

	return ch
}

// Scale returns a copy of the response with all samples multiplied by c.
func (r *Response) Scale(c float64) *Response {
	scaled := &Response{
		nout:    r.nout,
		nin:     r.nin,
		samples: make([]*mat.Dense, len(r.samples)),
	}

	for k, s := range r.samples {
		scaled.samples[k] = new(mat.Dense)
		scaled.samples[k].Scale(c, s)
	}

	return scaled
}

// Input returns steps x nin input sequence with a unit impulse on input channel at step 0.
// It returns error if channel is out of range or the dimensions are not positive.
func Input(steps, nin, channel int) (*mat.Dense, error) {
	if steps <= 0 || nin <= 0 {
		return nil, fmt.Errorf("invalid input dimensions: [%d x %d]", steps, nin)
	}

	if channel < 0 || channel >= nin {
		return nil, fmt.Errorf("invalid input channel: %d", channel)
	}

	u := mat.NewDense(steps, nin, nil)
	u.Set(0, channel, 1.0)

	return u, nil
}

// Ones returns steps x nin input sequence of unit steps on all input channels.
// It returns error if the dimensions are not positive.
func Ones(steps, nin int) (*mat.Dense, error) {
	if steps <= 0 || nin <= 0 {
		return nil, fmt.Errorf("invalid input dimensions: [%d x %d]", steps, nin)
	}

	data := make([]float64, steps*nin)
	for i := range data {
		data[i] = 1.0
	}

	return mat.NewDense(steps, nin, data), nil
}

// Collect measures the impulse response of s with nin inputs on the time grid t.
// It simulates s once per input channel, exciting the channel with a unit impulse
// at the first time step, and stacks the outputs into a Response with len(t) samples.
// It returns error if any of the simulations fails or returns malformed output.
func Collect(s sysid.Simulator, t []float64, nin int) (*Response, error) {
	if s == nil {
		return nil, fmt.Errorf("invalid simulator: %v", s)
	}

	if nin <= 0 {
		return nil, fmt.Errorf("invalid number of inputs: %d", nin)
	}

	var resp *Response
	for j := 0; j < nin; j++ {
		u, err := Input(len(t), nin, j)
		if err != nil {
			return nil, err
		}

		y, err := s.Simulate(t, u)
		if err != nil {
			return nil, fmt.Errorf("failed to simulate input channel %d: %v", j, err)
		}

		rows, nout := y.Dims()
		if rows != len(t) {
			return nil, fmt.Errorf("invalid output length of input channel %d: %d != %d", j, rows, len(t))
		}

		if resp == nil {
			if resp, err = NewResponse(nout, nin, len(t)); err != nil {
				return nil, err
			}
		}

		if resp.nout != nout {
			return nil, fmt.Errorf("invalid output dimension of input channel %d: %d != %d", j, nout, resp.nout)
		}

		for k, sample := range resp.samples {
			sample.SetCol(j, y.RawRowView(k))
		}
	}

	return resp, nil
}

// Step returns the response of s to unit steps applied on all nin inputs on the time grid t.
func Step(s sysid.Simulator, t []float64, nin int) (*mat.Dense, error) {
	if s == nil {
		return nil, fmt.Errorf("invalid simulator: %v", s)
	}

	u, err := Ones(len(t), nin)
	if err != nil {
		return nil, err
	}

	return s.Simulate(t, u)
}

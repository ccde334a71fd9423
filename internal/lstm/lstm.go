// Package lstm runs a trained character-level LSTM encoder/decoder.
//
// Weights follow the Keras layout: kernels are [inputs x 4*units], recurrent
// kernels are [units x 4*units] and the gate blocks are ordered i, f, c, o.
// The output head is a dense layer followed by a softmax.
package lstm

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/samcharles93/s2s/internal/decode"
)

var ErrShape = errors.New("lstm shape mismatch")

// Activation names the function applied to the input, forget and output
// gates.
type Activation string

const (
	Sigmoid Activation = "sigmoid"
	// HardSigmoid is clip(0.2x+0.5, 0, 1), the Keras default before 2.3.
	HardSigmoid Activation = "hard_sigmoid"
)

// ParseActivation maps a manifest value to an Activation. The empty string
// selects Sigmoid.
func ParseActivation(name string) (Activation, error) {
	switch Activation(name) {
	case "", Sigmoid:
		return Sigmoid, nil
	case HardSigmoid:
		return HardSigmoid, nil
	}
	return "", fmt.Errorf("unknown activation %q (want %s or %s)", name, Sigmoid, HardSigmoid)
}

func (a Activation) apply(x float64) float64 {
	if a == HardSigmoid {
		return hardSigmoid(x)
	}
	return sigmoid(x)
}

// Cell is a single LSTM layer.
type Cell struct {
	Inputs int
	Units  int

	Kernel    *mat.Dense    // [Inputs x 4*Units]
	Recurrent *mat.Dense    // [Units x 4*Units]
	Bias      *mat.VecDense // [4*Units]

	// Gate is the recurrent activation; the zero value means Sigmoid.
	Gate Activation
}

func NewCell(inputs, units int, kernel, recurrent, bias []float64) (*Cell, error) {
	if inputs < 1 || units < 1 {
		return nil, fmt.Errorf("%w: cell %dx%d", ErrShape, inputs, units)
	}
	if len(kernel) != inputs*4*units {
		return nil, fmt.Errorf("%w: kernel has %d values, want %d", ErrShape, len(kernel), inputs*4*units)
	}
	if len(recurrent) != units*4*units {
		return nil, fmt.Errorf("%w: recurrent kernel has %d values, want %d", ErrShape, len(recurrent), units*4*units)
	}
	if len(bias) != 4*units {
		return nil, fmt.Errorf("%w: bias has %d values, want %d", ErrShape, len(bias), 4*units)
	}
	return &Cell{
		Inputs:    inputs,
		Units:     units,
		Kernel:    mat.NewDense(inputs, 4*units, kernel),
		Recurrent: mat.NewDense(units, 4*units, recurrent),
		Bias:      mat.NewVecDense(4*units, bias),
	}, nil
}

// Forward advances the cell by one time step and returns the new hidden and
// cell vectors.
func (c *Cell) Forward(x, h, cs *mat.VecDense) (*mat.VecDense, *mat.VecDense) {
	u := c.Units
	z := mat.NewVecDense(4*u, nil)
	z.MulVec(c.Kernel.T(), x)
	var rh mat.VecDense
	rh.MulVec(c.Recurrent.T(), h)
	z.AddVec(z, &rh)
	z.AddVec(z, c.Bias)

	hNew := mat.NewVecDense(u, nil)
	cNew := mat.NewVecDense(u, nil)
	for j := 0; j < u; j++ {
		in := c.Gate.apply(z.AtVec(j))
		forget := c.Gate.apply(z.AtVec(u + j))
		cand := math.Tanh(z.AtVec(2*u + j))
		out := c.Gate.apply(z.AtVec(3*u + j))

		cj := forget*cs.AtVec(j) + in*cand
		cNew.SetVec(j, cj)
		hNew.SetVec(j, out*math.Tanh(cj))
	}
	return hNew, cNew
}

// Dense is the softmax output head.
type Dense struct {
	Inputs  int
	Outputs int

	Kernel *mat.Dense    // [Inputs x Outputs]
	Bias   *mat.VecDense // [Outputs]
}

func NewDense(inputs, outputs int, kernel, bias []float64) (*Dense, error) {
	if inputs < 1 || outputs < 1 {
		return nil, fmt.Errorf("%w: dense %dx%d", ErrShape, inputs, outputs)
	}
	if len(kernel) != inputs*outputs {
		return nil, fmt.Errorf("%w: dense kernel has %d values, want %d", ErrShape, len(kernel), inputs*outputs)
	}
	if len(bias) != outputs {
		return nil, fmt.Errorf("%w: dense bias has %d values, want %d", ErrShape, len(bias), outputs)
	}
	return &Dense{
		Inputs:  inputs,
		Outputs: outputs,
		Kernel:  mat.NewDense(inputs, outputs, kernel),
		Bias:    mat.NewVecDense(outputs, bias),
	}, nil
}

// Probabilities returns softmax(h*Kernel + Bias).
func (d *Dense) Probabilities(h *mat.VecDense) []float32 {
	logits := mat.NewVecDense(d.Outputs, nil)
	logits.MulVec(d.Kernel.T(), h)
	logits.AddVec(logits, d.Bias)
	return softmax(logits.RawVector().Data)
}

// Model pairs an encoder and a decoder that share a latent size.
// It is read-only after construction and safe for concurrent use.
type Model struct {
	Encoder *Cell
	Decoder *Cell
	Output  *Dense
}

func NewModel(enc, dec *Cell, out *Dense) (*Model, error) {
	if enc.Units != dec.Units {
		return nil, fmt.Errorf("%w: encoder units %d != decoder units %d", ErrShape, enc.Units, dec.Units)
	}
	if out.Inputs != dec.Units {
		return nil, fmt.Errorf("%w: dense inputs %d != decoder units %d", ErrShape, out.Inputs, dec.Units)
	}
	if out.Outputs != dec.Inputs {
		return nil, fmt.Errorf("%w: dense outputs %d != decoder vocabulary %d", ErrShape, out.Outputs, dec.Inputs)
	}
	return &Model{Encoder: enc, Decoder: dec, Output: out}, nil
}

// SetRecurrentActivation sets the gate activation of both cells. Call it
// before the model is shared.
func (m *Model) SetRecurrentActivation(a Activation) {
	m.Encoder.Gate = a
	m.Decoder.Gate = a
}

func (m *Model) LatentDim() int       { return m.Encoder.Units }
func (m *Model) InputVocabSize() int  { return m.Encoder.Inputs }
func (m *Model) OutputVocabSize() int { return m.Decoder.Inputs }

// Encode runs the encoder over every row of seq, padding rows included, and
// returns the final state.
func (m *Model) Encode(seq [][]float32) (decode.State, error) {
	u := m.Encoder.Units
	h := mat.NewVecDense(u, nil)
	c := mat.NewVecDense(u, nil)
	for t, row := range seq {
		if len(row) != m.Encoder.Inputs {
			return decode.State{}, fmt.Errorf("%w: encoder row %d has %d values, want %d", ErrShape, t, len(row), m.Encoder.Inputs)
		}
		h, c = m.Encoder.Forward(toVec(row), h, c)
	}
	return decode.State{H: toF32(h), C: toF32(c)}, nil
}

// Step implements decode.Oracle.
func (m *Model) Step(token []float32, state decode.State) ([]float32, decode.State, error) {
	u := m.Decoder.Units
	if len(token) != m.Decoder.Inputs {
		return nil, state, fmt.Errorf("%w: token has %d values, want %d", ErrShape, len(token), m.Decoder.Inputs)
	}
	if len(state.H) != u || len(state.C) != u {
		return nil, state, fmt.Errorf("%w: state sizes %d/%d, want %d", ErrShape, len(state.H), len(state.C), u)
	}
	h, c := m.Decoder.Forward(toVec(token), toVec(state.H), toVec(state.C))
	probs := m.Output.Probabilities(h)
	return probs, decode.State{H: toF32(h), C: toF32(c)}, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func hardSigmoid(x float64) float64 {
	return math.Max(0, math.Min(1, 0.2*x+0.5))
}

func softmax(x []float64) []float32 {
	out := make([]float32, len(x))
	if len(x) == 0 {
		return out
	}
	maxv := x[0]
	for _, v := range x[1:] {
		if v > maxv {
			maxv = v
		}
	}
	var sum float64
	exps := make([]float64, len(x))
	for i, v := range x {
		e := math.Exp(v - maxv)
		exps[i] = e
		sum += e
	}
	for i, e := range exps {
		out[i] = float32(e / sum)
	}
	return out
}

func toVec(x []float32) *mat.VecDense {
	data := make([]float64, len(x))
	for i, v := range x {
		data[i] = float64(v)
	}
	return mat.NewVecDense(len(data), data)
}

func toF32(v *mat.VecDense) []float32 {
	out := make([]float32, v.Len())
	for i := range out {
		out[i] = float32(v.AtVec(i))
	}
	return out
}

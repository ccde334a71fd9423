package lstm

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/samcharles93/s2s/internal/safetensors"
)

// Tensor names inside a weights file.
const (
	EncoderKernel    = "encoder/kernel"
	EncoderRecurrent = "encoder/recurrent_kernel"
	EncoderBias      = "encoder/bias"
	DecoderKernel    = "decoder/kernel"
	DecoderRecurrent = "decoder/recurrent_kernel"
	DecoderBias      = "decoder/bias"
	DenseKernel      = "dense/kernel"
	DenseBias        = "dense/bias"
)

// TensorSource is satisfied by *safetensors.File.
type TensorSource interface {
	Float32(name string) ([]float32, safetensors.TensorInfo, error)
}

// Load builds a model from the named tensors in src. Layer sizes are taken
// from the tensor shapes.
func Load(src TensorSource) (*Model, error) {
	enc, err := loadCell(src, EncoderKernel, EncoderRecurrent, EncoderBias)
	if err != nil {
		return nil, fmt.Errorf("encoder: %w", err)
	}
	dec, err := loadCell(src, DecoderKernel, DecoderRecurrent, DecoderBias)
	if err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}

	kernel, kinfo, err := read2D(src, DenseKernel)
	if err != nil {
		return nil, fmt.Errorf("dense: %w", err)
	}
	bias, _, err := src.Float32(DenseBias)
	if err != nil {
		return nil, fmt.Errorf("dense: %w", err)
	}
	out, err := NewDense(kinfo.Shape[0], kinfo.Shape[1], kernel, widen(bias))
	if err != nil {
		return nil, fmt.Errorf("dense: %w", err)
	}
	return NewModel(enc, dec, out)
}

func loadCell(src TensorSource, kernelName, recurrentName, biasName string) (*Cell, error) {
	kernel, kinfo, err := read2D(src, kernelName)
	if err != nil {
		return nil, err
	}
	recurrent, rinfo, err := read2D(src, recurrentName)
	if err != nil {
		return nil, err
	}
	bias, _, err := src.Float32(biasName)
	if err != nil {
		return nil, err
	}
	inputs, width := kinfo.Shape[0], kinfo.Shape[1]
	if width%4 != 0 {
		return nil, fmt.Errorf("%w: %s width %d is not a multiple of 4", ErrShape, kernelName, width)
	}
	units := width / 4
	if rinfo.Shape[0] != units || rinfo.Shape[1] != width {
		return nil, fmt.Errorf("%w: %s shape %v, want [%d %d]", ErrShape, recurrentName, rinfo.Shape, units, width)
	}
	return NewCell(inputs, units, kernel, recurrent, widen(bias))
}

func read2D(src TensorSource, name string) ([]float64, safetensors.TensorInfo, error) {
	data, info, err := src.Float32(name)
	if err != nil {
		return nil, info, err
	}
	if len(info.Shape) != 2 {
		return nil, info, fmt.Errorf("%w: %s has rank %d, want 2", ErrShape, name, len(info.Shape))
	}
	return widen(data), info, nil
}

func widen(x []float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}

// Random returns a model with deterministic pseudo-random weights in
// [-0.5, 0.5). It is meant for tests and demo bundles.
func Random(inputVocab, outputVocab, units int, seed int64) (*Model, error) {
	if inputVocab < 1 || outputVocab < 1 || units < 1 {
		return nil, fmt.Errorf("%w: random model needs positive sizes, got input %d, output %d, units %d",
			ErrShape, inputVocab, outputVocab, units)
	}
	rng := rand.New(rand.NewSource(seed))
	fill := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = rng.Float64() - 0.5
		}
		return out
	}
	enc, err := NewCell(inputVocab, units, fill(inputVocab*4*units), fill(units*4*units), fill(4*units))
	if err != nil {
		return nil, err
	}
	dec, err := NewCell(outputVocab, units, fill(outputVocab*4*units), fill(units*4*units), fill(4*units))
	if err != nil {
		return nil, err
	}
	out, err := NewDense(units, outputVocab, fill(units*outputVocab), fill(outputVocab))
	if err != nil {
		return nil, err
	}
	return NewModel(enc, dec, out)
}

// Tensors exports the weights under the names Load expects.
func (m *Model) Tensors() map[string]safetensors.Tensor {
	out := make(map[string]safetensors.Tensor, 8)
	addCell := func(c *Cell, k, r, b string) {
		out[k] = denseTensor(c.Kernel)
		out[r] = denseTensor(c.Recurrent)
		out[b] = vecTensor(c.Bias)
	}
	addCell(m.Encoder, EncoderKernel, EncoderRecurrent, EncoderBias)
	addCell(m.Decoder, DecoderKernel, DecoderRecurrent, DecoderBias)
	out[DenseKernel] = denseTensor(m.Output.Kernel)
	out[DenseBias] = vecTensor(m.Output.Bias)
	return out
}

func denseTensor(d *mat.Dense) safetensors.Tensor {
	r, c := d.Dims()
	data := make([]float32, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, float32(d.At(i, j)))
		}
	}
	return safetensors.Tensor{Shape: []int{r, c}, Data: data}
}

func vecTensor(v *mat.VecDense) safetensors.Tensor {
	data := make([]float32, v.Len())
	for i := range data {
		data[i] = float32(v.AtVec(i))
	}
	return safetensors.Tensor{Shape: []int{v.Len()}, Data: data}
}

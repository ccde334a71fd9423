package lstm

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samcharles93/s2s/internal/decode"
	"github.com/samcharles93/s2s/internal/safetensors"
)

var _ decode.Oracle = (*Model)(nil)

func sig(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// TestCellForwardMatchesNaive checks one step of a 1-input, 1-unit cell
// against the gate equations written out by hand.
func TestCellForwardMatchesNaive(t *testing.T) {
	t.Parallel()
	kernel := []float64{0.1, 0.2, 0.3, 0.4}
	recurrent := []float64{-0.5, 0.6, -0.7, 0.8}
	bias := []float64{0.01, 1.0, -0.02, 0.03}
	cell, err := NewCell(1, 1, kernel, recurrent, bias)
	if err != nil {
		t.Fatalf("NewCell: %v", err)
	}

	x, h0, c0 := 2.0, 0.25, -0.5
	z := make([]float64, 4)
	for k := range z {
		z[k] = x*kernel[k] + h0*recurrent[k] + bias[k]
	}
	wantC := sig(z[1])*c0 + sig(z[0])*math.Tanh(z[2])
	wantH := sig(z[3]) * math.Tanh(wantC)

	h, c := cell.Forward(
		mat.NewVecDense(1, []float64{x}),
		mat.NewVecDense(1, []float64{h0}),
		mat.NewVecDense(1, []float64{c0}),
	)
	if math.Abs(h.AtVec(0)-wantH) > 1e-12 {
		t.Fatalf("h = %v, want %v", h.AtVec(0), wantH)
	}
	if math.Abs(c.AtVec(0)-wantC) > 1e-12 {
		t.Fatalf("c = %v, want %v", c.AtVec(0), wantC)
	}
}

func TestCellForwardHardSigmoid(t *testing.T) {
	t.Parallel()
	kernel := []float64{1, -4, 0.5, 3}
	recurrent := []float64{0, 0, 0, 0}
	bias := []float64{0, 0, 0, 0}
	cell, err := NewCell(1, 1, kernel, recurrent, bias)
	if err != nil {
		t.Fatalf("NewCell: %v", err)
	}
	cell.Gate = HardSigmoid

	// With x=1 the gate pre-activations are 1, -4 and 3: hard sigmoid gives
	// 0.7, 0 (clipped) and 1 (clipped).
	x, c0 := 1.0, 2.0
	wantC := 0*c0 + 0.7*math.Tanh(0.5)
	wantH := 1 * math.Tanh(wantC)

	h, c := cell.Forward(
		mat.NewVecDense(1, []float64{x}),
		mat.NewVecDense(1, []float64{0}),
		mat.NewVecDense(1, []float64{c0}),
	)
	if math.Abs(c.AtVec(0)-wantC) > 1e-12 {
		t.Fatalf("c = %v, want %v", c.AtVec(0), wantC)
	}
	if math.Abs(h.AtVec(0)-wantH) > 1e-12 {
		t.Fatalf("h = %v, want %v", h.AtVec(0), wantH)
	}
}

func TestParseActivation(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want Activation
		ok   bool
	}{
		{"", Sigmoid, true},
		{"sigmoid", Sigmoid, true},
		{"hard_sigmoid", HardSigmoid, true},
		{"relu", "", false},
	}
	for _, tc := range cases {
		got, err := ParseActivation(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Fatalf("ParseActivation(%q) = %q, %v", tc.in, got, err)
		}
	}

	m, err := Random(2, 3, 2, 1)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	m.SetRecurrentActivation(HardSigmoid)
	if m.Encoder.Gate != HardSigmoid || m.Decoder.Gate != HardSigmoid {
		t.Fatalf("activation not applied to both cells: %q/%q", m.Encoder.Gate, m.Decoder.Gate)
	}
}

func TestSoftmax(t *testing.T) {
	t.Parallel()
	got := softmax([]float64{1000, 1000, 999})
	var sum float64
	for _, p := range got {
		if math.IsNaN(float64(p)) {
			t.Fatalf("softmax produced NaN: %v", got)
		}
		sum += float64(p)
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Fatalf("softmax sums to %v", sum)
	}
	if got[0] != got[1] || got[2] >= got[0] {
		t.Fatalf("unexpected ordering %v", got)
	}
}

func TestStepValidatesShapes(t *testing.T) {
	t.Parallel()
	m, err := Random(4, 5, 3, 1)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	good := decode.State{H: make([]float32, 3), C: make([]float32, 3)}

	if _, _, err := m.Step(make([]float32, 4), good); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape for short token, got %v", err)
	}
	if _, _, err := m.Step(make([]float32, 5), decode.State{}); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape for empty state, got %v", err)
	}
	probs, next, err := m.Step(decode.OneHot(5, 0), good)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(probs) != 5 || len(next.H) != 3 || len(next.C) != 3 {
		t.Fatalf("unexpected sizes: probs %d, state %d/%d", len(probs), len(next.H), len(next.C))
	}
}

func TestEncodeValidatesRows(t *testing.T) {
	t.Parallel()
	m, err := Random(4, 5, 3, 1)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if _, err := m.Encode([][]float32{make([]float32, 3)}); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}
	st, err := m.Encode(nil)
	if err != nil {
		t.Fatalf("Encode(nil): %v", err)
	}
	for i := range st.H {
		if st.H[i] != 0 || st.C[i] != 0 {
			t.Fatalf("empty sequence should give zero state, got %+v", st)
		}
	}
}

func TestTensorsRoundTripThroughSafetensors(t *testing.T) {
	t.Parallel()
	m, err := Random(6, 7, 4, 42)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	var buf bytes.Buffer
	if err := safetensors.Write(&buf, m.Tensors()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := safetensors.FromBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	loaded, err := Load(f)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.LatentDim() != 4 || loaded.InputVocabSize() != 6 || loaded.OutputVocabSize() != 7 {
		t.Fatalf("unexpected dims %d/%d/%d", loaded.LatentDim(), loaded.InputVocabSize(), loaded.OutputVocabSize())
	}

	seq := [][]float32{decode.OneHot(6, 1), decode.OneHot(6, 5), make([]float32, 6)}
	want, err := m.Encode(seq)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := loaded.Encode(seq)
	if err != nil {
		t.Fatalf("Encode loaded: %v", err)
	}
	for i := range want.H {
		if math.Abs(float64(want.H[i]-got.H[i])) > 1e-5 || math.Abs(float64(want.C[i]-got.C[i])) > 1e-5 {
			t.Fatalf("state mismatch at %d: want %v/%v got %v/%v", i, want.H[i], want.C[i], got.H[i], got.C[i])
		}
	}
}

func TestLoadRejectsBadShapes(t *testing.T) {
	t.Parallel()
	m, err := Random(3, 3, 2, 7)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	tensors := m.Tensors()
	tensors[EncoderKernel] = safetensors.Tensor{Shape: []int{3, 6}, Data: make([]float32, 18)}

	var buf bytes.Buffer
	if err := safetensors.Write(&buf, tensors); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := safetensors.FromBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if _, err := Load(f); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}

	delete(tensors, DenseBias)
	tensors[EncoderKernel] = m.Tensors()[EncoderKernel]
	buf.Reset()
	if err := safetensors.Write(&buf, tensors); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err = safetensors.FromBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if _, err := Load(f); !errors.Is(err, safetensors.ErrTensorNotFound) {
		t.Fatalf("expected ErrTensorNotFound, got %v", err)
	}
}

func TestGreedyDecodeWithModelTerminates(t *testing.T) {
	t.Parallel()
	m, err := Random(5, 5, 8, 3)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	st, err := m.Encode([][]float32{decode.OneHot(5, 2), decode.OneHot(5, 3)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	symbols := tableLookup("\t\nabc")
	res, err := decode.Decode(st, m, symbols, decode.Config{VocabSize: 5, StartIndex: 0, StopSymbol: '\n', MaxLength: 12})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !res.Stopped && len(res.Symbols) != 13 {
		t.Fatalf("unbounded decode: %d symbols", len(res.Symbols))
	}
}

type tableLookup string

func (s tableLookup) Symbol(i int) (rune, bool) {
	r := []rune(s)
	if i < 0 || i >= len(r) {
		return 0, false
	}
	return r[i], true
}

func TestRandomRejectsNonPositiveSizes(t *testing.T) {
	t.Parallel()
	for _, dims := range [][3]int{{0, 5, 3}, {4, 0, 3}, {4, 5, 0}, {4, 5, -2}} {
		if _, err := Random(dims[0], dims[1], dims[2], 1); !errors.Is(err, ErrShape) {
			t.Errorf("Random(%v): expected ErrShape, got %v", dims, err)
		}
	}
}

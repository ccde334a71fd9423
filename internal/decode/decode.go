package decode

import (
	"fmt"
	"time"
)

// State is the (hidden, cell) pair threaded between decoder steps.
// The decoder never looks inside it.
type State struct {
	H []float32
	C []float32
}

// Oracle advances the decoder network by one token.
type Oracle interface {
	Step(token []float32, state State) ([]float32, State, error)
}

// OracleFunc adapts a plain function to Oracle.
type OracleFunc func(token []float32, state State) ([]float32, State, error)

func (f OracleFunc) Step(token []float32, state State) ([]float32, State, error) {
	return f(token, state)
}

// Lookup is the reverse vocabulary: index to symbol.
type Lookup interface {
	Symbol(index int) (rune, bool)
}

// Config describes a single decode run.
type Config struct {
	VocabSize  int
	StartIndex int
	StopSymbol rune

	// MaxLength bounds the output. The length check runs after a symbol is
	// appended, so a run that never emits StopSymbol returns MaxLength+1
	// symbols.
	MaxLength int
}

func (c Config) validate() error {
	if c.VocabSize < 1 {
		return fmt.Errorf("%w: vocabulary size %d", ErrInvalidConfig, c.VocabSize)
	}
	if c.StartIndex < 0 || c.StartIndex >= c.VocabSize {
		return fmt.Errorf("%w: start index %d outside [0,%d)", ErrInvalidConfig, c.StartIndex, c.VocabSize)
	}
	if c.MaxLength < 1 {
		return fmt.Errorf("%w: max length %d", ErrInvalidConfig, c.MaxLength)
	}
	return nil
}

type Result struct {
	Symbols []rune
	Indices []int
	// Stopped reports whether the run ended on the stop symbol rather than
	// the length bound.
	Stopped  bool
	Steps    int
	Duration time.Duration
}

func (r Result) String() string {
	return string(r.Symbols)
}

// Text returns the decoded symbols without the trailing stop symbol.
func (r Result) Text() string {
	if r.Stopped && len(r.Symbols) > 0 {
		return string(r.Symbols[:len(r.Symbols)-1])
	}
	return string(r.Symbols)
}

// Decode runs greedy autoregressive decoding from initial.
//
// Each step feeds the current one-hot token and state to the oracle, takes
// the arg-max of the returned distribution (lowest index on ties), appends
// its symbol and uses it as the next input token. The synthetic start token
// is never part of the output.
func Decode(initial State, oracle Oracle, symbols Lookup, cfg Config) (Result, error) {
	var res Result
	if err := cfg.validate(); err != nil {
		return res, err
	}

	start := time.Now()
	token := OneHot(cfg.VocabSize, cfg.StartIndex)
	state := initial

	for {
		dist, next, err := oracle.Step(token, state)
		if err != nil {
			return res, fmt.Errorf("decode step %d: %w", res.Steps, err)
		}
		res.Steps++
		if len(dist) != cfg.VocabSize {
			return res, &DistributionSizeError{Step: res.Steps - 1, Got: len(dist), Want: cfg.VocabSize}
		}

		idx := ArgMax(dist)
		sym, ok := symbols.Symbol(idx)
		if !ok {
			return res, fmt.Errorf("%w: %d", ErrUnknownIndex, idx)
		}
		res.Symbols = append(res.Symbols, sym)
		res.Indices = append(res.Indices, idx)

		if sym == cfg.StopSymbol {
			res.Stopped = true
			break
		}
		if len(res.Symbols) > cfg.MaxLength {
			break
		}

		token = OneHot(cfg.VocabSize, idx)
		state = next
	}

	res.Duration = time.Since(start)
	return res, nil
}

// OneHot returns a length-n vector with a single 1 at index i.
func OneHot(n, i int) []float32 {
	v := make([]float32, n)
	v[i] = 1
	return v
}

// ArgMax returns the index of the largest value. Ties resolve to the lowest
// index and NaN entries never win. It panics on an empty slice.
func ArgMax(x []float32) int {
	if len(x) == 0 {
		panic("argmax: empty slice")
	}
	bestI := -1
	var bestV float32
	for i, v := range x {
		if v != v {
			continue
		}
		if bestI < 0 || v > bestV {
			bestI, bestV = i, v
		}
	}
	if bestI < 0 {
		return 0
	}
	return bestI
}

package vocab

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrDuplicateSymbol = errors.New("duplicate symbol")
	ErrUnknownSymbol   = errors.New("unknown symbol")
	ErrSequenceTooLong = errors.New("sequence longer than encoder length")
)

// Vocabulary is an immutable bijection between symbols and the dense indices
// 0..Size()-1. Symbols are held in ascending order, which is the order the
// model was trained with.
type Vocabulary struct {
	symbols []rune
	index   map[rune]int
}

// New builds a vocabulary from symbols. Duplicates are rejected.
func New(symbols []rune) (*Vocabulary, error) {
	sorted := slices.Clone(symbols)
	slices.Sort(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSymbol, sorted[i])
		}
	}
	v := &Vocabulary{
		symbols: sorted,
		index:   make(map[rune]int, len(sorted)),
	}
	for i, r := range sorted {
		v.index[r] = i
	}
	return v, nil
}

// FromString builds a vocabulary from the distinct runes of s.
func FromString(s string) *Vocabulary {
	seen := make(map[rune]struct{})
	var symbols []rune
	for _, r := range s {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		symbols = append(symbols, r)
	}
	v, _ := New(symbols)
	return v
}

func (v *Vocabulary) Size() int { return len(v.symbols) }

func (v *Vocabulary) Index(r rune) (int, bool) {
	i, ok := v.index[r]
	return i, ok
}

func (v *Vocabulary) Symbol(i int) (rune, bool) {
	if i < 0 || i >= len(v.symbols) {
		return 0, false
	}
	return v.symbols[i], true
}

// Symbols returns a copy of the symbol table in index order.
func (v *Vocabulary) Symbols() []rune {
	return slices.Clone(v.symbols)
}

// Extend returns a vocabulary that also contains every rune of alphabet.
// The receiver is returned unchanged when nothing is missing.
func (v *Vocabulary) Extend(alphabet string) *Vocabulary {
	var missing []rune
	for _, r := range alphabet {
		if _, ok := v.index[r]; !ok && !slices.Contains(missing, r) {
			missing = append(missing, r)
		}
	}
	if len(missing) == 0 {
		return v
	}
	ext, _ := New(append(slices.Clone(v.symbols), missing...))
	return ext
}

// OneHot returns the token vector for index i.
func (v *Vocabulary) OneHot(i int) []float32 {
	out := make([]float32, len(v.symbols))
	out[i] = 1
	return out
}

// Encode returns seqLen one-hot rows for text. Rows after the last character
// are all zero.
func (v *Vocabulary) Encode(text string, seqLen int) ([][]float32, error) {
	runes := []rune(text)
	if len(runes) > seqLen {
		return nil, fmt.Errorf("%w: %d > %d", ErrSequenceTooLong, len(runes), seqLen)
	}
	n := len(v.symbols)
	backing := make([]float32, seqLen*n)
	rows := make([][]float32, seqLen)
	for t := range rows {
		rows[t] = backing[t*n : (t+1)*n : (t+1)*n]
	}
	for t, r := range runes {
		i, ok := v.index[r]
		if !ok {
			return nil, fmt.Errorf("%w %q at position %d", ErrUnknownSymbol, r, t)
		}
		rows[t][i] = 1
	}
	return rows, nil
}

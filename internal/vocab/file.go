package vocab

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// Pair holds the encoder (input) and decoder (target) vocabularies of a model.
type Pair struct {
	Input  *Vocabulary
	Target *Vocabulary
}

// Extend adds alphabet to both vocabularies.
func (p Pair) Extend(alphabet string) Pair {
	return Pair{
		Input:  p.Input.Extend(alphabet),
		Target: p.Target.Extend(alphabet),
	}
}

type pairFile struct {
	Input  json.RawMessage `json:"input"`
	Target json.RawMessage `json:"target"`
}

// LoadFile reads a vocabulary pair from a JSON file of the form
//
//	{"input": "abc", "target": ["\t", "\n", "a"]}
//
// Each side is either a string of symbols or an array of one-symbol strings.
func LoadFile(path string) (Pair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Pair{}, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (Pair, error) {
	var pf pairFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return Pair{}, fmt.Errorf("parse vocab json: %w", err)
	}
	in, err := parseSide("input", pf.Input)
	if err != nil {
		return Pair{}, err
	}
	tgt, err := parseSide("target", pf.Target)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Input: in, Target: tgt}, nil
}

func parseSide(name string, raw json.RawMessage) (*Vocabulary, error) {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("vocab json missing %q", name)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, err := New([]rune(s))
		if err != nil {
			return nil, fmt.Errorf("%s vocabulary: %w", name, err)
		}
		return v, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%s vocabulary must be a string or array of strings", name)
	}
	symbols := make([]rune, 0, len(list))
	for i, item := range list {
		if utf8.RuneCountInString(item) != 1 {
			return nil, fmt.Errorf("%s vocabulary entry %d: %q is not a single symbol", name, i, item)
		}
		r, _ := utf8.DecodeRuneInString(item)
		symbols = append(symbols, r)
	}
	v, err := New(symbols)
	if err != nil {
		return nil, fmt.Errorf("%s vocabulary: %w", name, err)
	}
	return v, nil
}

// Package substitute swaps known place names for single placeholder symbols
// before translation and puts the original word back afterwards.
package substitute

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dictionary maps a lower-case word to its placeholder symbol.
type Dictionary map[string]string

// DefaultDictionary is the place-name table the bundled model was trained with.
func DefaultDictionary() Dictionary {
	return Dictionary{
		"marienplatz":    "M",
		"straße":         "F",
		"dorf":           "N",
		"hufelandstraße": "F",
		"allianzarena":   "F",
		"ingolstadt":     "N",
	}
}

// Placeholders returns the distinct placeholder values in sorted order.
func (d Dictionary) Placeholders() []string {
	seen := make(map[string]struct{}, len(d))
	out := make([]string, 0, len(d))
	for _, p := range d {
		if _, ok := seen[p]; ok || p == "" {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Substitution records what Apply replaced.
type Substitution struct {
	// Word is the last dictionary word found in the input.
	Word  string
	Count int
}

func (s Substitution) Replaced() bool { return s.Count > 0 }

type Substituter struct {
	dict Dictionary
	// order is the restore priority: longer placeholders first, then
	// reverse sorted (N, M, F for the default dictionary).
	order []string
}

func New(dict Dictionary) *Substituter {
	order := dict.Placeholders()
	sort.SliceStable(order, func(i, j int) bool {
		if len(order[i]) != len(order[j]) {
			return len(order[i]) > len(order[j])
		}
		return order[i] > order[j]
	})
	return &Substituter{dict: dict, order: order}
}

func (s *Substituter) Dictionary() Dictionary { return s.dict }

// Apply splits text on whitespace and replaces every dictionary word with
// its placeholder. Words are rejoined with single spaces.
func (s *Substituter) Apply(text string) (string, Substitution) {
	var sub Substitution
	words := strings.Fields(text)
	for i, w := range words {
		if p, ok := s.dict[w]; ok {
			sub.Word = w
			sub.Count++
			words[i] = p
		}
	}
	return strings.Join(words, " "), sub
}

// Restore replaces every placeholder in decoded with the substituted word.
// Replacement is a single pass over decoded: a restored word that itself
// contains a placeholder symbol is left as is. A longer placeholder wins over
// its prefix.
func (s *Substituter) Restore(decoded string, sub Substitution) string {
	if !sub.Replaced() || len(s.order) == 0 {
		return decoded
	}
	pairs := make([]string, 0, 2*len(s.order))
	for _, p := range s.order {
		pairs = append(pairs, p, sub.Word)
	}
	return strings.NewReplacer(pairs...).Replace(decoded)
}

// LoadYAML reads a dictionary file of word: placeholder pairs.
func LoadYAML(path string) (Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Dictionary
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse dictionary %s: %w", path, err)
	}
	for w, p := range d {
		if p == "" {
			return nil, fmt.Errorf("dictionary %s: empty placeholder for %q", path, w)
		}
	}
	return d, nil
}

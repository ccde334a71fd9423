package bundle

import (
	"strconv"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Symbol is a single vocabulary symbol stored in escaped form, so control
// characters such as "\n" survive the manifest round trip.
type Symbol string

// Rune returns the first rune of s.
func (s Symbol) Rune() rune {
	r, _ := utf8.DecodeRuneInString(string(s))
	return r
}

func (s Symbol) MarshalYAML() (any, error) {
	q := strconv.Quote(string(s))
	return q[1 : len(q)-1], nil
}

// UnmarshalYAML accepts both the escaped form and a literal symbol.
func (s *Symbol) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if u, err := strconv.Unquote(`"` + raw + `"`); err == nil {
		*s = Symbol(u)
		return nil
	}
	*s = Symbol(raw)
	return nil
}

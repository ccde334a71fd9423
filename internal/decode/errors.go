package decode

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig    = errors.New("invalid decode config")
	ErrDistributionSize = errors.New("oracle distribution size mismatch")
	ErrUnknownIndex     = errors.New("index not in output vocabulary")
)

// DistributionSizeError reports an oracle output whose length differs from
// the vocabulary size.
type DistributionSizeError struct {
	Step int
	Got  int
	Want int
}

func (e *DistributionSizeError) Error() string {
	return fmt.Sprintf("step %d: oracle returned %d scores, want %d", e.Step, e.Got, e.Want)
}

func (e *DistributionSizeError) Unwrap() error {
	return ErrDistributionSize
}

package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samcharles93/s2s/internal/bundle"
	"github.com/samcharles93/s2s/internal/decode"
	"github.com/samcharles93/s2s/internal/logger"
	"github.com/samcharles93/s2s/internal/substitute"
	"github.com/samcharles93/s2s/internal/vocab"
)

var (
	ErrEmptyInput = errors.New("empty input")
	// ErrMaxLengthExceeded is returned when a request asks for more decoder
	// steps than the model was trained for.
	ErrMaxLengthExceeded = errors.New("max length exceeds model bound")
)

// Encoder turns a one-hot input sequence into the decoder's initial state.
type Encoder interface {
	Encode(seq [][]float32) (decode.State, error)
}

type Options struct {
	MaxEncoderLength int
	MaxDecoderLength int
	StartSymbol      rune
	StopSymbol       rune
}

type Request struct {
	Text string
	// MaxLength overrides Options.MaxDecoderLength when set and may not
	// exceed it.
	MaxLength    *int
	NoSubstitute bool
}

type Result struct {
	Input        string
	Substituted  string
	Decoded      string
	Output       string
	Substitution substitute.Substitution
	Decode       decode.Result
}

// Translator holds everything a decode needs. It keeps no per-call state and
// may be shared between goroutines when its encoder and oracle allow it.
type Translator struct {
	encoder    Encoder
	oracle     decode.Oracle
	vocab      vocab.Pair
	sub        *substitute.Substituter
	opts       Options
	startIndex int
}

// New validates opts against the vocabularies. sub may be nil.
func New(enc Encoder, oracle decode.Oracle, pair vocab.Pair, sub *substitute.Substituter, opts Options) (*Translator, error) {
	if opts.MaxEncoderLength < 1 || opts.MaxDecoderLength < 1 {
		return nil, fmt.Errorf("max lengths must be positive: encoder %d, decoder %d", opts.MaxEncoderLength, opts.MaxDecoderLength)
	}
	start, ok := pair.Target.Index(opts.StartSymbol)
	if !ok {
		return nil, fmt.Errorf("start symbol %q not in target vocabulary", opts.StartSymbol)
	}
	if _, ok := pair.Target.Index(opts.StopSymbol); !ok {
		return nil, fmt.Errorf("stop symbol %q not in target vocabulary", opts.StopSymbol)
	}
	return &Translator{
		encoder:    enc,
		oracle:     oracle,
		vocab:      pair,
		sub:        sub,
		opts:       opts,
		startIndex: start,
	}, nil
}

// FromBundle wires a loaded model bundle into a Translator.
func FromBundle(b *bundle.Bundle) (*Translator, error) {
	var sub *substitute.Substituter
	if len(b.Dictionary) > 0 {
		sub = substitute.New(b.Dictionary)
	}
	return New(b.Model, b.Model, b.Vocab, sub, Options{
		MaxEncoderLength: b.Manifest.MaxEncoderSeqLength,
		MaxDecoderLength: b.Manifest.MaxDecoderSeqLength,
		StartSymbol:      b.Manifest.Start(),
		StopSymbol:       b.Manifest.Stop(),
	})
}

func (t *Translator) Vocabulary() vocab.Pair { return t.vocab }
func (t *Translator) Options() Options       { return t.opts }

func (t *Translator) Translate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyInput
	}
	maxLen := t.opts.MaxDecoderLength
	if req.MaxLength != nil {
		if *req.MaxLength > t.opts.MaxDecoderLength {
			return nil, fmt.Errorf("%w: %d > %d", ErrMaxLengthExceeded, *req.MaxLength, t.opts.MaxDecoderLength)
		}
		maxLen = *req.MaxLength
	}
	log := logger.FromContext(ctx)

	res := &Result{Input: req.Text, Substituted: req.Text}
	if t.sub != nil && !req.NoSubstitute {
		res.Substituted, res.Substitution = t.sub.Apply(req.Text)
	}

	rows, err := t.vocab.Input.Encode(res.Substituted, t.opts.MaxEncoderLength)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	state, err := t.encoder.Encode(rows)
	if err != nil {
		return nil, fmt.Errorf("run encoder: %w", err)
	}

	dres, err := decode.Decode(state, withContext(ctx, t.oracle), t.vocab.Target, decode.Config{
		VocabSize:  t.vocab.Target.Size(),
		StartIndex: t.startIndex,
		StopSymbol: t.opts.StopSymbol,
		MaxLength:  maxLen,
	})
	if err != nil {
		return nil, err
	}

	res.Decode = dres
	res.Decoded = dres.Text()
	res.Output = res.Decoded
	if t.sub != nil {
		res.Output = t.sub.Restore(res.Decoded, res.Substitution)
	}

	log.Debug("translated",
		"input", res.Input,
		"substituted", res.Substituted,
		"output", res.Output,
		"steps", dres.Steps,
		"stopped", dres.Stopped,
		"duration", dres.Duration,
	)
	return res, nil
}

// withContext stops the decode loop once ctx is done.
func withContext(ctx context.Context, o decode.Oracle) decode.Oracle {
	return decode.OracleFunc(func(token []float32, state decode.State) ([]float32, decode.State, error) {
		if err := ctx.Err(); err != nil {
			return nil, state, err
		}
		return o.Step(token, state)
	})
}

// TranslateAll translates texts in order with the options of base, whose Text
// is ignored. It stops at the first failure and returns the results gathered
// so far.
func (t *Translator) TranslateAll(ctx context.Context, texts []string, base Request) ([]*Result, error) {
	out := make([]*Result, 0, len(texts))
	for i, text := range texts {
		req := base
		req.Text = text
		res, err := t.Translate(ctx, req)
		if err != nil {
			return out, fmt.Errorf("input %d: %w", i, err)
		}
		out = append(out, res)
	}
	return out, nil
}

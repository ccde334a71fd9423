// Package bundle loads a translation model directory: a model.yaml manifest,
// the vocabulary pair, LSTM weights and an optional substitution dictionary.
package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/samcharles93/s2s/internal/lstm"
	"github.com/samcharles93/s2s/internal/safetensors"
	"github.com/samcharles93/s2s/internal/substitute"
	"github.com/samcharles93/s2s/internal/vocab"
)

const ManifestName = "model.yaml"

var ErrInvalidManifest = errors.New("invalid model manifest")

// Manifest is the model.yaml file. File references are relative to the
// bundle directory.
type Manifest struct {
	Name                string `yaml:"name"`
	LatentDim           int    `yaml:"latent_dim"`
	MaxEncoderSeqLength int    `yaml:"max_encoder_seq_length"`
	MaxDecoderSeqLength int    `yaml:"max_decoder_seq_length"`
	StartSymbol         Symbol `yaml:"start_symbol"`
	StopSymbol          Symbol `yaml:"stop_symbol"`
	// RecurrentActivation names the gate activation the weights were
	// trained with: sigmoid (default) or hard_sigmoid.
	RecurrentActivation string `yaml:"recurrent_activation,omitempty"`
	// Alphabet is added to both vocabularies after loading.
	Alphabet   string `yaml:"alphabet,omitempty"`
	Vocab      string `yaml:"vocab"`
	Weights    string `yaml:"weights"`
	Dictionary string `yaml:"dictionary,omitempty"`
}

// Start returns the start symbol as a rune.
func (m Manifest) Start() rune {
	return m.StartSymbol.Rune()
}

// Stop returns the stop symbol as a rune.
func (m Manifest) Stop() rune {
	return m.StopSymbol.Rune()
}

func (m Manifest) validate() error {
	if m.MaxEncoderSeqLength < 1 {
		return fmt.Errorf("%w: max_encoder_seq_length must be positive", ErrInvalidManifest)
	}
	if m.MaxDecoderSeqLength < 1 {
		return fmt.Errorf("%w: max_decoder_seq_length must be positive", ErrInvalidManifest)
	}
	if utf8.RuneCountInString(string(m.StartSymbol)) != 1 {
		return fmt.Errorf("%w: start_symbol %q must be a single symbol", ErrInvalidManifest, m.StartSymbol)
	}
	if utf8.RuneCountInString(string(m.StopSymbol)) != 1 {
		return fmt.Errorf("%w: stop_symbol %q must be a single symbol", ErrInvalidManifest, m.StopSymbol)
	}
	if m.StartSymbol == m.StopSymbol {
		return fmt.Errorf("%w: start and stop symbols are equal", ErrInvalidManifest)
	}
	if _, err := lstm.ParseActivation(m.RecurrentActivation); err != nil {
		return fmt.Errorf("%w: recurrent_activation: %v", ErrInvalidManifest, err)
	}
	if m.Vocab == "" || m.Weights == "" {
		return fmt.Errorf("%w: vocab and weights are required", ErrInvalidManifest)
	}
	return nil
}

type Bundle struct {
	Dir        string
	Manifest   Manifest
	Vocab      vocab.Pair
	Model      *lstm.Model
	Dictionary substitute.Dictionary
}

func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse %s: %w", ManifestName, err)
	}
	return m, m.validate()
}

// Load reads and cross-checks every part of the bundle in dir.
func Load(dir string) (*Bundle, error) {
	man, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	pair, err := vocab.LoadFile(filepath.Join(dir, man.Vocab))
	if err != nil {
		return nil, fmt.Errorf("load vocab: %w", err)
	}
	if man.Alphabet != "" {
		pair = pair.Extend(man.Alphabet)
	}
	for _, sym := range []rune{man.Start(), man.Stop()} {
		if _, ok := pair.Target.Index(sym); !ok {
			return nil, fmt.Errorf("%w: symbol %q missing from target vocabulary", ErrInvalidManifest, sym)
		}
	}

	model, err := loadWeights(filepath.Join(dir, man.Weights))
	if err != nil {
		return nil, err
	}
	if model.InputVocabSize() != pair.Input.Size() {
		return nil, fmt.Errorf("%w: encoder expects %d input symbols, vocabulary has %d", lstm.ErrShape, model.InputVocabSize(), pair.Input.Size())
	}
	if model.OutputVocabSize() != pair.Target.Size() {
		return nil, fmt.Errorf("%w: decoder expects %d output symbols, vocabulary has %d", lstm.ErrShape, model.OutputVocabSize(), pair.Target.Size())
	}
	if man.LatentDim != 0 && man.LatentDim != model.LatentDim() {
		return nil, fmt.Errorf("%w: latent_dim %d, weights have %d", lstm.ErrShape, man.LatentDim, model.LatentDim())
	}
	act, err := lstm.ParseActivation(man.RecurrentActivation)
	if err != nil {
		return nil, fmt.Errorf("%w: recurrent_activation: %v", ErrInvalidManifest, err)
	}
	model.SetRecurrentActivation(act)

	var dict substitute.Dictionary
	if man.Dictionary != "" {
		dict, err = substitute.LoadYAML(filepath.Join(dir, man.Dictionary))
		if err != nil {
			return nil, fmt.Errorf("load dictionary: %w", err)
		}
	}

	return &Bundle{
		Dir:        dir,
		Manifest:   man,
		Vocab:      pair,
		Model:      model,
		Dictionary: dict,
	}, nil
}

// loadWeights copies the tensors out of the file, so the mapping is released
// before returning.
func loadWeights(path string) (*lstm.Model, error) {
	f, err := safetensors.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weights: %w", err)
	}
	defer func() { _ = f.Close() }()

	m, err := lstm.Load(f)
	if err != nil {
		return nil, fmt.Errorf("load weights %s: %w", path, err)
	}
	return m, nil
}

package bundle

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/s2s/internal/lstm"
	"github.com/samcharles93/s2s/internal/safetensors"
	"github.com/samcharles93/s2s/internal/substitute"
	"github.com/samcharles93/s2s/internal/vocab"
)

// DefaultAlphabet is the lower-case German alphabet plus the M, F and N
// placeholders.
const DefaultAlphabet = " abcdefghijklmnopqrstuvwxyzßMFN"

// Write stores a bundle in dir, creating the directory if needed. File names
// missing from man are filled with defaults.
func Write(dir string, man Manifest, pair vocab.Pair, model *lstm.Model, dict substitute.Dictionary) error {
	if man.Vocab == "" {
		man.Vocab = "vocab.json"
	}
	if man.Weights == "" {
		man.Weights = "weights.safetensors"
	}
	if len(dict) > 0 && man.Dictionary == "" {
		man.Dictionary = "dictionary.yaml"
	}
	if man.LatentDim == 0 {
		man.LatentDim = model.LatentDim()
	}
	if err := man.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	manBytes, err := yaml.Marshal(man)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), manBytes, 0o644); err != nil {
		return err
	}

	vocabBytes, err := json.MarshalIndent(map[string]string{
		"input":  string(pair.Input.Symbols()),
		"target": string(pair.Target.Symbols()),
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, man.Vocab), vocabBytes, 0o644); err != nil {
		return err
	}

	var weights bytes.Buffer
	if err := safetensors.Write(&weights, model.Tensors()); err != nil {
		return fmt.Errorf("encode weights: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, man.Weights), weights.Bytes(), 0o644); err != nil {
		return err
	}

	if len(dict) > 0 {
		dictBytes, err := yaml.Marshal(dict)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, man.Dictionary), dictBytes, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// WriteDemo stores a bundle with random weights over the default alphabet.
// Its output is meaningless but exercises the full pipeline.
func WriteDemo(dir string, units int, seed int64) error {
	pair := vocab.Pair{
		Input:  vocab.FromString(DefaultAlphabet),
		Target: vocab.FromString(DefaultAlphabet + "\t\n"),
	}
	model, err := lstm.Random(pair.Input.Size(), pair.Target.Size(), units, seed)
	if err != nil {
		return err
	}
	man := Manifest{
		Name:                "demo",
		MaxEncoderSeqLength: 42,
		MaxDecoderSeqLength: 60,
		StartSymbol:         "\t",
		StopSymbol:          "\n",
		Alphabet:            DefaultAlphabet,
	}
	return Write(dir, man, pair, model, substitute.DefaultDictionary())
}

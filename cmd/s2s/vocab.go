package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/s2s/internal/vocab"
)

func vocabCmd() *cli.Command {
	var modelDir string

	return &cli.Command{
		Name:  "vocab",
		Usage: "Print the bundle's vocabularies and check index round trips",
		Flags: []cli.Flag{modelDirFlag(&modelDir)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyModelConfig(cmd, LoadConfig(), &modelDir)

			tr, b, err := loadTranslator(ctx, modelDir, stdin(cmd))
			if err != nil {
				return err
			}

			w := stdout(cmd)
			opts := tr.Options()
			_, _ = fmt.Fprintf(w, "model:       %s\n", b.Manifest.Name)
			_, _ = fmt.Fprintf(w, "latent dim:  %d\n", b.Model.LatentDim())
			_, _ = fmt.Fprintf(w, "max lengths: encoder %d, decoder %d\n", opts.MaxEncoderLength, opts.MaxDecoderLength)
			_, _ = fmt.Fprintf(w, "start/stop:  %q / %q\n", opts.StartSymbol, opts.StopSymbol)

			pair := tr.Vocabulary()
			writeVocabulary(w, "input", pair.Input)
			writeVocabulary(w, "target", pair.Target)

			if err := checkRoundTrip(pair.Input); err != nil {
				return cli.Exit("input vocabulary: "+err.Error(), 1)
			}
			if err := checkRoundTrip(pair.Target); err != nil {
				return cli.Exit("target vocabulary: "+err.Error(), 1)
			}
			_, _ = fmt.Fprintln(w, "round trip:  ok")
			return nil
		},
	}
}

func writeVocabulary(w io.Writer, name string, v *vocab.Vocabulary) {
	quoted := make([]string, 0, v.Size())
	for _, r := range v.Symbols() {
		quoted = append(quoted, strconv.QuoteRune(r))
	}
	_, _ = fmt.Fprintf(w, "%s (%d): %s\n", name, v.Size(), strings.Join(quoted, " "))
}

// checkRoundTrip verifies Index(Symbol(i)) == i for every index.
func checkRoundTrip(v *vocab.Vocabulary) error {
	for i := range v.Size() {
		r, ok := v.Symbol(i)
		if !ok {
			return fmt.Errorf("index %d has no symbol", i)
		}
		if j, ok := v.Index(r); !ok || j != i {
			return fmt.Errorf("symbol %q maps to %d, want %d", r, j, i)
		}
	}
	return nil
}

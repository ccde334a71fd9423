package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/s2s/internal/translate"
)

func translateCmd() *cli.Command {
	var (
		modelDir     string
		text         string
		maxLength    int
		noSubstitute bool
		details      bool
	)

	return &cli.Command{
		Name:  "translate",
		Usage: "Translate --text, or each non-empty line of stdin",
		Flags: []cli.Flag{
			modelDirFlag(&modelDir),
			&cli.StringFlag{
				Name:        "text",
				Aliases:     []string{"t"},
				Usage:       "sentence to translate (reads stdin lines when empty)",
				Destination: &text,
			},
			&cli.IntFlag{
				Name:        "max-length",
				Aliases:     []string{"n"},
				Usage:       "decode length bound, at most the bundle's max_decoder_seq_length (0 uses that bound)",
				Destination: &maxLength,
			},
			&cli.BoolFlag{
				Name:        "no-substitute",
				Usage:       "skip dictionary placeholder substitution",
				Destination: &noSubstitute,
			},
			&cli.BoolFlag{
				Name:        "details",
				Usage:       "print intermediate text and decode statistics",
				Destination: &details,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyTranslateConfig(cmd, LoadConfig(), &modelDir, &maxLength, &noSubstitute)

			tr, _, err := loadTranslator(ctx, modelDir, stdin(cmd))
			if err != nil {
				return err
			}

			texts := []string{text}
			if strings.TrimSpace(text) == "" {
				texts, err = readLines(stdin(cmd))
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				if len(texts) == 0 {
					return cli.Exit("nothing to translate: pass --text or pipe sentences on stdin", 1)
				}
			}

			base := translate.Request{NoSubstitute: noSubstitute}
			if maxLength != 0 {
				base.MaxLength = &maxLength
			}
			results, err := tr.TranslateAll(ctx, texts, base)
			w := stdout(cmd)
			for _, res := range results {
				writeResult(w, res, details)
			}
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

func writeResult(w io.Writer, res *translate.Result, details bool) {
	if !details {
		_, _ = fmt.Fprintln(w, res.Output)
		return
	}
	_, _ = fmt.Fprintf(w, "input:       %s\n", res.Input)
	_, _ = fmt.Fprintf(w, "substituted: %s\n", res.Substituted)
	_, _ = fmt.Fprintf(w, "decoded:     %q\n", res.Decoded)
	_, _ = fmt.Fprintf(w, "output:      %s\n", res.Output)
	_, _ = fmt.Fprintf(w, "steps:       %d (stopped=%t, %s)\n\n", res.Decode.Steps, res.Decode.Stopped, res.Decode.Duration)
}

package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/s2s/internal/bundle"
	"github.com/samcharles93/s2s/internal/logger"
	"github.com/samcharles93/s2s/internal/translate"
)

func loadTranslator(ctx context.Context, dirFlag string, stdin io.Reader) (*translate.Translator, *bundle.Bundle, error) {
	log := logger.FromContext(ctx)

	dir, err := resolveModelDir(dirFlag, stdin, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	start := time.Now()
	b, err := bundle.Load(dir)
	if err != nil {
		return nil, nil, err
	}
	tr, err := translate.FromBundle(b)
	if err != nil {
		return nil, nil, err
	}
	log.Info("model loaded",
		"dir", dir,
		"name", b.Manifest.Name,
		"latent_dim", b.Model.LatentDim(),
		"input_vocab", b.Vocab.Input.Size(),
		"target_vocab", b.Vocab.Target.Size(),
		"dictionary", len(b.Dictionary),
		"elapsed", time.Since(start),
	)
	return tr, b, nil
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stdin(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}

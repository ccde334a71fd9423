package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/s2s/internal/bundle"
	"github.com/samcharles93/s2s/internal/logger"
)

func initCmd() *cli.Command {
	var (
		out   string
		units int
		seed  int64
		force bool
	)

	return &cli.Command{
		Name:  "init",
		Usage: "Write a demo bundle with random weights",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "bundle directory to create",
				Value:       filepath.Join(".", "s2s-demo"),
				Destination: &out,
			},
			&cli.IntFlag{
				Name:        "units",
				Usage:       "LSTM latent dimension",
				Value:       32,
				Destination: &units,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "weight initialisation seed",
				Value:       1,
				Destination: &seed,
			},
			&cli.BoolFlag{
				Name:        "force",
				Usage:       "overwrite an existing bundle",
				Destination: &force,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if isBundle(out) && !force {
				return cli.Exit(fmt.Sprintf("%s already holds a bundle; pass --force to overwrite", out), 1)
			}
			if err := bundle.WriteDemo(out, units, seed); err != nil {
				return err
			}
			log.Info("demo bundle written", "dir", out, "units", units, "seed", seed)
			_, _ = fmt.Fprintln(stdout(cmd), out)
			return nil
		},
	}
}

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/s2s/internal/api"
	"github.com/samcharles93/s2s/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		modelDir      string
		addr          string
		readTimeout   time.Duration
		storeCapacity int
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the translation REST API",
		Flags: []cli.Flag{
			modelDirFlag(&modelDir),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.IntFlag{
				Name:        "store-capacity",
				Usage:       "number of translations kept for GET /v1/translations/:id",
				Value:       api.DefaultStoreCapacity,
				Destination: &storeCapacity,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, LoadConfig(), &modelDir, &addr, &storeCapacity)

			tr, _, err := loadTranslator(ctx, modelDir, stdin(cmd))
			if err != nil {
				return err
			}

			server := api.NewServer(api.NewTranslationStore(storeCapacity), tr, log.With("component", "api"))
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}

package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"gla2smd/internal/config"
	"gla2smd/internal/logger"
	"gla2smd/internal/server"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxUploadMB int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the conversion API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (default from config, else 127.0.0.1:8080)",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-upload-mb",
				Usage:       "largest accepted request body in MiB (default from config)",
				Destination: &maxUploadMB,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sc := cfg
			sc.Resolve(config.Flags{ServerAddress: addr})
			if maxUploadMB > 0 {
				sc.MaxUploadMB = int(maxUploadMB)
			}

			srv := server.New(server.Config{
				Addr:        sc.ServerAddress,
				Convert:     convertOptions(),
				MaxBodySize: int64(sc.MaxUploadMB) << 20,
				ReadTimeout: readTimeout,
			}, logger.FromContext(ctx))
			return srv.ListenAndServe(ctx)
		},
	}
}

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"gla2smd/internal/batch"
	"gla2smd/internal/config"
	"gla2smd/internal/logger"
	"gla2smd/internal/preview"
)

func batchCmd() *cli.Command {
	var (
		outputDir   string
		workers     int64
		compress    bool
		withPreview bool
	)

	return &cli.Command{
		Name:      "batch",
		Usage:     "Convert every .gla and .gla.zst file under a directory",
		ArgsUsage: "<input-dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output directory (default from config, else the input directory)",
				Destination: &outputDir,
			},
			&cli.Int64Flag{
				Name:        "workers",
				Aliases:     []string{"j"},
				Usage:       "parallel conversions (default: number of CPUs)",
				Destination: &workers,
			},
			&cli.BoolFlag{
				Name:        "compress",
				Usage:       "write zstd-compressed .smd.zst files",
				Destination: &compress,
			},
			&cli.BoolFlag{
				Name:        "preview",
				Usage:       "also render frame 0 of each file",
				Destination: &withPreview,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("batch: expected <input-dir>, got %d arguments", cmd.Args().Len())
			}
			inputDir := cmd.Args().First()
			log := logger.FromContext(ctx)

			bc := cfg
			bc.Resolve(config.Flags{OutputDir: outputDir, Workers: int(workers), Compress: compress})
			if bc.OutputDir == "" {
				bc.OutputDir = inputDir
			}

			files, err := batch.Discover(inputDir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				log.Warn("no GLA files found", "dir", inputDir)
				return nil
			}

			run := batch.Config{
				InputDir:  inputDir,
				OutputDir: bc.OutputDir,
				Convert:   convertOptions(),
				Compress:  bc.Compress,
				Workers:   bc.Workers,
			}
			if withPreview {
				run.Preview = &preview.Options{
					Size:        bc.PreviewSize,
					Supersample: bc.Supersample,
					Axes:        bc.PreviewAxes,
				}
				run.PreviewFormat = bc.PreviewFormat
			}

			log.Info("starting batch", "files", len(files), "workers", run.Workers, "output", run.OutputDir)
			started := time.Now()
			results := batch.Run(ctx, run, files)

			manifest := batch.NewManifest(run, started, results)
			path := filepath.Join(run.OutputDir, "manifest.json")
			if err := batch.WriteManifest(path, manifest); err != nil {
				return err
			}
			log.Info("wrote manifest", "path", path, "run_id", manifest.RunID,
				"succeeded", manifest.Succeeded, "failed", manifest.Failed)

			if manifest.Failed > 0 {
				return fmt.Errorf("batch: %d of %d files failed", manifest.Failed, manifest.Total)
			}
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"gla2smd/internal/convert"
	"gla2smd/internal/logger"
	"gla2smd/internal/preview"
)

func previewCmd() *cli.Command {
	var (
		frame       int64
		size        int64
		supersample int64
		axes        string
		yaw, pitch  float64
		format      string
	)

	return &cli.Command{
		Name:      "preview",
		Usage:     "Render the bones of one frame to a WebP or TGA image",
		ArgsUsage: "<input.gla> <output.webp|output.tga>",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "frame", Usage: "frame to render", Destination: &frame},
			&cli.Int64Flag{Name: "size", Usage: "image edge length in pixels (default from config)", Destination: &size},
			&cli.Int64Flag{Name: "supersample", Usage: "supersampling factor (default from config)", Destination: &supersample},
			&cli.StringFlag{Name: "axes", Usage: "world axes mapped to image right and up (xy, xz, yz, ...)", Destination: &axes},
			&cli.Float64Flag{Name: "yaw", Usage: "view yaw in degrees", Destination: &yaw},
			&cli.Float64Flag{Name: "pitch", Usage: "view pitch in degrees", Destination: &pitch},
			&cli.StringFlag{Name: "format", Usage: "webp or tga (default from the output extension)", Destination: &format},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("preview: expected <input> <output>, got %d arguments", cmd.Args().Len())
			}
			in, out := cmd.Args().Get(0), cmd.Args().Get(1)

			anim, err := convert.Open(ctx, in, convertOptions())
			if err != nil {
				return err
			}

			opts := preview.Options{
				Size:        cfg.PreviewSize,
				Supersample: cfg.Supersample,
				Axes:        cfg.PreviewAxes,
				Yaw:         float32(yaw),
				Pitch:       float32(pitch),
			}
			if size > 0 {
				opts.Size = int(size)
			}
			if supersample > 0 {
				opts.Supersample = int(supersample)
			}
			if axes != "" {
				opts.Axes = axes
			}
			if format == "" {
				format = preview.FormatFromPath(out, cfg.PreviewFormat)
			}

			img, err := preview.Render(anim, int(frame), opts)
			if err != nil {
				return err
			}
			if err := preview.Save(out, img, format); err != nil {
				return err
			}
			logger.FromContext(ctx).Info("wrote preview", "output", out, "frame", frame, "format", format)
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"gla2smd/internal/convert"
	"gla2smd/internal/logger"
)

func convertCmd() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert one GLA file to SMD",
		ArgsUsage: "<input.gla> <output.smd>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("convert: expected <input> <output>, got %d arguments", cmd.Args().Len())
			}
			return runConvert(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
		},
	}
}

func runConvert(ctx context.Context, in, out string) error {
	anim, err := convert.File(ctx, in, out, convertOptions())
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info("converted",
		"input", in,
		"output", out,
		"frames", anim.NumFrames(),
		"bones", anim.NumBones(),
	)
	return nil
}

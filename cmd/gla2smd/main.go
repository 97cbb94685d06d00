package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"gla2smd/internal/version"
)

func main() {
	if err := rootCmd().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:      "gla2smd",
		Usage:     "Convert Ghoul2 GLA skeletal animations to SMD",
		ArgsUsage: "<input.gla> <output.smd>",
		Version:   version.Resolve().String(),
		Flags:     globalFlags(),
		Before:    setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return cli.ShowAppHelp(cmd)
			}
			return runConvert(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
		},
		Commands: []*cli.Command{
			convertCmd(),
			inspectCmd(),
			previewCmd(),
			batchCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"gla2smd/internal/convert"
	"gla2smd/internal/gla"
	"gla2smd/internal/inspect"
)

func inspectCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the header, offsets, skeleton tree and pool statistics of a GLA file",
		ArgsUsage: "<input.gla>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the summary as JSON",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("inspect: expected <input>, got %d arguments", cmd.Args().Len())
			}
			path := cmd.Args().First()

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("inspect: %w", err)
			}
			raw, err := gla.Unpack(data)
			if err != nil {
				return err
			}

			opts := convertOptions()
			opts.AllowUnknownFormat = true
			anim, err := convert.Load(raw, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			summary := inspect.Summarize(anim, int64(len(raw)))
			w := outWriter(cmd)
			if asJSON {
				out, err := json.MarshalIndent(summary, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(w, string(out))
				return err
			}
			return inspect.WriteText(w, summary, anim.Bones)
		},
	}
}

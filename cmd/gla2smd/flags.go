package main

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"gla2smd/internal/config"
	"gla2smd/internal/convert"
	"gla2smd/internal/gla"
	"gla2smd/internal/logger"
	"gla2smd/internal/smd"
)

var (
	configPath   string
	logLevel     string
	logFormat    string
	debug        bool
	nameEncoding string
	strict       bool
	force        bool
	duplicateY   bool
	firstFrame   int64
	numFrames    int64

	// cfg is the resolved configuration, set by setup before any action runs.
	cfg config.Config
)

func globalFlags() []cli.Flag {
	return append(append(loggingFlags(), decodeFlags()...), exportFlags()...)
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "config file (yaml or json)",
			Value:       config.DefaultPath(),
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func decodeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "name-encoding",
			Usage:       "encoding of bone and file names (utf-8, windows-1252, iso-8859-1)",
			Value:       gla.EncodingUTF8,
			Destination: &nameEncoding,
		},
		&cli.BoolFlag{
			Name:        "strict",
			Usage:       "check header offsets against the file size before decoding",
			Value:       true,
			Destination: &strict,
		},
		&cli.BoolFlag{
			Name:        "force",
			Usage:       "decode files whose ident or version is not 2LGA v6",
			Destination: &force,
		},
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "duplicate-y",
			Usage:       "write Y in place of Z like the legacy converter",
			Destination: &duplicateY,
		},
		&cli.Int64Flag{
			Name:        "first-frame",
			Usage:       "first frame to export",
			Destination: &firstFrame,
		},
		&cli.Int64Flag{
			Name:        "num-frames",
			Usage:       "number of frames to export (0 for all remaining)",
			Destination: &numFrames,
		},
	}
}

// setup loads the config file, applies explicitly set flags over it and
// installs the logger in the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error
	if cmd.IsSet("config") {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return ctx, err
	}

	var flags config.Flags
	if cmd.IsSet("name-encoding") {
		flags.NameEncoding = nameEncoding
	}
	if cmd.IsSet("strict") {
		v := strict
		flags.StrictOffsets = &v
	}
	flags.Force = force
	flags.DuplicateY = duplicateY
	cfg.Resolve(flags)

	level, format := cfg.LogLevel, cfg.LogFormat
	if cmd.IsSet("log-level") || level == "" {
		level = logLevel
	}
	if cmd.IsSet("log-format") || format == "" {
		format = logFormat
	}
	if debug {
		level = "debug"
	}
	log, err := logger.Setup(errWriter(cmd), format, level)
	if err != nil {
		return ctx, err
	}
	log.Debug("configuration resolved", "config", configPath, "name_encoding", cfg.NameEncoding, "strict", cfg.Strict())
	return logger.WithContext(ctx, log), nil
}

func convertOptions() convert.Options {
	return convert.Options{
		Decode: gla.Options{
			NameEncoding:  cfg.NameEncoding,
			StrictOffsets: cfg.Strict(),
		},
		AllowUnknownFormat: cfg.AllowUnknownFormat,
		Build: smd.BuildOptions{
			FirstFrame: int(firstFrame),
			NumFrames:  int(numFrames),
		},
		Write: smd.WriteOptions{DuplicateY: cfg.DuplicateY},
	}
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

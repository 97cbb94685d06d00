// Package convert ties decoding and export together for the command line,
// the batch runner and the HTTP server.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/DataDog/zstd"

	"gla2smd/internal/gla"
	"gla2smd/internal/logger"
	"gla2smd/internal/smd"
)

// Options bundles every knob of a conversion.
type Options struct {
	Decode             gla.Options
	AllowUnknownFormat bool
	Build              smd.BuildOptions
	Write              smd.WriteOptions
}

func DefaultOptions() Options {
	return Options{Decode: gla.DefaultOptions()}
}

// check rejects files that are not version 6 "2LGA" unless allowed.
func (o Options) check(anim *gla.Animation) error {
	if o.AllowUnknownFormat {
		return nil
	}
	return anim.Header.CheckFormat()
}

// Load decodes an in-memory GLA image, plain or zstd-compressed, and checks
// its format tag.
func Load(data []byte, opts Options) (*gla.Animation, error) {
	anim, err := gla.Load(data, opts.Decode)
	if err != nil {
		return nil, err
	}
	if err := opts.check(anim); err != nil {
		return nil, err
	}
	return anim, nil
}

// Open decodes a GLA file and checks its format tag.
func Open(ctx context.Context, path string, opts Options) (*gla.Animation, error) {
	anim, err := gla.Open(ctx, path, opts.Decode)
	if err != nil {
		return nil, err
	}
	if err := opts.check(anim); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return anim, nil
}

// Encode streams the SMD text for anim to w.
func Encode(w io.Writer, anim *gla.Animation, opts Options) error {
	return smd.Encode(w, anim, opts.Build, opts.Write)
}

// Render returns the SMD text for anim.
func Render(anim *gla.Animation, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, anim, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// File converts the GLA at in to an SMD at out, creating or truncating out.
// An output path ending in .zst is written zstd-compressed. Frames are
// streamed to the file as they are composed.
func File(ctx context.Context, in, out string, opts Options) (*gla.Animation, error) {
	log := logger.FromContext(ctx)

	anim, err := Open(ctx, in, opts)
	if err != nil {
		return nil, err
	}
	if _, _, err := opts.Build.Range(anim.NumFrames()); err != nil {
		return nil, err
	}

	w, err := Create(out)
	if err != nil {
		return nil, err
	}
	if err := Encode(w, anim, opts); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("convert: %s: %w", out, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("convert: %s: %w", out, err)
	}

	log.Debug("wrote smd", "input", in, "output", out, "frames", anim.NumFrames(), "bones", anim.NumBones())
	return anim, nil
}

// Create opens path for SMD output, creating parent directories. A path
// ending in .zst gets a zstd-compressing writer; Close flushes it and closes
// the file.
func Create(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("convert: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(path), ".zst") {
		return f, nil
	}
	return &compressedFile{Writer: zstd.NewWriterLevel(f, zstd.DefaultCompression), f: f}, nil
}

type compressedFile struct {
	*zstd.Writer
	f *os.File
}

func (c *compressedFile) Close() error {
	err := c.Writer.Close()
	if cerr := c.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// OutputName maps an input file name to its SMD name: walk.gla and
// walk.gla.zst both become walk.smd.
func OutputName(input string) string {
	base := filepath.Base(input)
	if strings.EqualFold(filepath.Ext(base), ".zst") {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".smd"
}

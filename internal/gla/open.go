package gla

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/DataDog/zstd"

	"gla2smd/internal/logger"
)

// zstdMagic is the little-endian frame magic of a zstd stream.
const zstdMagic = 0xFD2FB528

// IsCompressed reports whether data starts with a zstd frame.
func IsCompressed(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == zstdMagic
}

// Unpack returns data unchanged unless it is zstd-compressed, in which case
// the decompressed image is returned.
func Unpack(data []byte) ([]byte, error) {
	return UnpackLimit(data, 0)
}

// UnpackLimit is Unpack with a cap on the image size. Images larger than
// limit bytes, before or after decompression, fail with ErrTooLarge. A limit
// of zero or less means no cap.
func UnpackLimit(data []byte, limit int64) ([]byte, error) {
	if !IsCompressed(data) {
		if limit > 0 && int64(len(data)) > limit {
			return nil, fmt.Errorf("gla: %w: %d bytes, limit %d", ErrTooLarge, len(data), limit)
		}
		return data, nil
	}
	if limit <= 0 {
		out, err := zstd.Decompress(nil, data)
		if err != nil {
			return nil, fmt.Errorf("gla: zstd: %w", err)
		}
		return out, nil
	}

	// The frame's declared content size is not trusted.
	r := zstd.NewReader(bytes.NewReader(data))
	defer func() { _ = r.Close() }()
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("gla: zstd: %w", err)
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("gla: zstd: %w: more than %d bytes", ErrTooLarge, limit)
	}
	return out, nil
}

// Load unpacks and decodes an in-memory GLA image.
func Load(data []byte, opts Options) (*Animation, error) {
	raw, err := Unpack(data)
	if err != nil {
		return nil, err
	}
	return Decode(raw, opts)
}

// Open maps a GLA (or zstd-compressed GLA) file read-only and decodes it.
// If mmap is unavailable it falls back to reading the file.
func Open(ctx context.Context, path string, opts Options) (*Animation, error) {
	log := logger.FromContext(ctx).With("path", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gla: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("gla: stat %s: %w", path, err)
	}
	size := stat.Size()
	if size > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("gla: %s: %w: file too large", path, ErrMalformedOffset)
	}

	// Decode copies everything it keeps, so the mapping can be released as
	// soon as it returns.
	data, unmap, err := mapFile(f, int(size))
	if err == nil {
		defer func() { _ = unmap() }()
		log.Debug("mapped input", "bytes", size)
	} else {
		if !errors.Is(err, errMmapUnsupported) {
			log.Debug("mmap failed, reading file", "error", err)
		}
		data, err = io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("gla: read %s: %w", path, err)
		}
	}

	if IsCompressed(data) {
		log.Debug("input is zstd compressed")
	}
	anim, err := Load(data, opts)
	if err != nil {
		return nil, err
	}
	log.Debug("decoded animation",
		"name", anim.Header.Name,
		"frames", anim.NumFrames(),
		"bones", anim.NumBones(),
		"pool", len(anim.Pool),
	)
	return anim, nil
}

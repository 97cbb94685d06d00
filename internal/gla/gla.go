// Package gla decodes Ghoul2 "2LGA" skeletal animation files: a fixed header,
// a variable-length skeleton table, a packed per-frame bone index table and a
// deduplicated pool of 14-byte compressed bone transforms.
package gla

import (
	"fmt"

	"gla2smd/internal/mathutil"
)

// Options controls decoding.
type Options struct {
	// NameEncoding selects how name fields are turned into strings
	// (utf-8, windows-1252, iso-8859-1). Empty means utf-8.
	NameEncoding string
	// StrictOffsets checks header counts and offsets against the input size
	// before anything else is read.
	StrictOffsets bool
}

// DefaultOptions returns utf-8 names with strict offset checking.
func DefaultOptions() Options {
	return Options{
		NameEncoding:  EncodingUTF8,
		StrictOffsets: true,
	}
}

// Animation is a fully decoded GLA file. It is built once by Decode and never
// modified afterwards, so it is safe for concurrent readers.
type Animation struct {
	Header Header
	Bones  []SkeletonNode
	Frames *FrameTable
	Pool   []mathutil.Mat34 // indexed by FrameTable entries
}

// Decode parses a complete GLA image. On any failure no partial result is
// returned. The returned Animation does not reference data.
func Decode(data []byte, opts Options) (*Animation, error) {
	names, err := newNameDecoder(opts.NameEncoding)
	if err != nil {
		return nil, err
	}

	c := &cursor{data: data}
	hdr, err := decodeHeader(c, names)
	if err != nil {
		return nil, fmt.Errorf("gla: header: %w", err)
	}
	if opts.StrictOffsets {
		if err := hdr.CheckOffsets(int64(len(data))); err != nil {
			return nil, fmt.Errorf("gla: header: %w", err)
		}
	} else if hdr.NumFrames < 0 || hdr.NumBones < 0 {
		return nil, fmt.Errorf("gla: header: %w: %d frames, %d bones", ErrMalformedOffset, hdr.NumFrames, hdr.NumBones)
	}

	bones, err := decodeSkeleton(c, int64(hdr.OfsSkel), int(hdr.NumBones), names)
	if err != nil {
		return nil, fmt.Errorf("gla: skeleton: %w", err)
	}

	frames, err := decodeFrameTable(c, int64(hdr.OfsFrames), int(hdr.NumFrames), int(hdr.NumBones))
	if err != nil {
		return nil, fmt.Errorf("gla: frame table: %w", err)
	}

	pool, err := decodePool(c, int64(hdr.OfsCompBonePool), frames.PoolSize())
	if err != nil {
		return nil, fmt.Errorf("gla: bone pool: %w", err)
	}

	return &Animation{
		Header: hdr,
		Bones:  bones,
		Frames: frames,
		Pool:   pool,
	}, nil
}

func (a *Animation) NumFrames() int { return a.Frames.NumFrames() }
func (a *Animation) NumBones() int  { return len(a.Bones) }

// BoneAtFrame returns the decompressed delta transform of a bone at a frame.
func (a *Animation) BoneAtFrame(frame, bone int) (mathutil.Mat34, error) {
	idx, err := a.Frames.At(frame, bone)
	if err != nil {
		return mathutil.Mat34{}, err
	}
	return a.Pool[idx], nil
}

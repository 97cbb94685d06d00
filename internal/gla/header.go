package gla

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the fixed mdxaHeader_t size: ident, version, 64-byte name,
	// scale and six int32 count/offset fields.
	HeaderSize = 4 + 4 + NameSize + 4 + 6*4

	// NameSize is MAX_QPATH, the width of every name field in the file.
	NameSize = 64

	// MagicIdent is the "2LGA" tag of a Ghoul2 animation file.
	MagicIdent = "2LGA"

	// SupportedVersion is the only revision this decoder understands.
	SupportedVersion = 6
)

// Header is the fixed-size GLA file header. All offsets are absolute from
// the start of the file.
type Header struct {
	Ident   int32
	Version int32
	Name    string  // nul-trimmed, e.g. "models/players/_humanoid/_humanoid"
	Scale   float32 // zero for files built before the field existed

	NumFrames       int32
	OfsFrames       int32 // 3-byte frame index entries
	NumBones        int32
	OfsCompBonePool int32 // 14-byte compressed bone records
	OfsSkel         int32 // variable-length skeleton records
	OfsEnd          int32 // file size
}

// IdentString returns the four-character tag as stored in the file.
func (h Header) IdentString() string {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(h.Ident))
	return string(b[:])
}

func decodeHeader(c *cursor, names nameDecoder) (Header, error) {
	var h Header
	var err error

	if h.Ident, err = c.readI32(); err != nil {
		return h, err
	}
	if h.Version, err = c.readI32(); err != nil {
		return h, err
	}
	if h.Name, err = c.readName(NameSize, names); err != nil {
		return h, err
	}
	if h.Scale, err = c.readF32(); err != nil {
		return h, err
	}
	for _, dst := range []*int32{
		&h.NumFrames,
		&h.OfsFrames,
		&h.NumBones,
		&h.OfsCompBonePool,
		&h.OfsSkel,
		&h.OfsEnd,
	} {
		if *dst, err = c.readI32(); err != nil {
			return h, err
		}
	}
	return h, nil
}

// CheckFormat rejects anything but a version 6 "2LGA" file. Decode does not
// call it; the tag check belongs to the caller.
func (h Header) CheckFormat() error {
	if h.IdentString() != MagicIdent {
		return fmt.Errorf("%w: ident %q", ErrUnrecognizedFormat, h.IdentString())
	}
	if h.Version != SupportedVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrUnrecognizedFormat, h.Version, SupportedVersion)
	}
	return nil
}

// CheckOffsets verifies that counts are non-negative, that frames come with
// at least one bone, and that every offset lies in [0, OfsEnd] with OfsEnd no
// larger than size. Offsets past the data
// wrap both ErrMalformedOffset and ErrStreamExhausted.
func (h Header) CheckOffsets(size int64) error {
	if h.NumFrames < 0 {
		return fmt.Errorf("%w: negative frame count %d", ErrMalformedOffset, h.NumFrames)
	}
	if h.NumBones < 0 {
		return fmt.Errorf("%w: negative bone count %d", ErrMalformedOffset, h.NumBones)
	}
	// With no bones the frame table is empty, so nothing else bounds the
	// frame count.
	if h.NumBones == 0 && h.NumFrames > 0 {
		return fmt.Errorf("%w: %d frames without bones", ErrMalformedOffset, h.NumFrames)
	}
	if h.OfsEnd < 0 {
		return fmt.Errorf("%w: end offset %d", ErrMalformedOffset, h.OfsEnd)
	}
	if int64(h.OfsEnd) > size {
		return fmt.Errorf("%w: %w: end offset %d beyond %d bytes", ErrMalformedOffset, ErrStreamExhausted, h.OfsEnd, size)
	}

	for _, f := range []struct {
		name string
		ofs  int32
	}{
		{"frames", h.OfsFrames},
		{"bone pool", h.OfsCompBonePool},
		{"skeleton", h.OfsSkel},
	} {
		if int64(f.ofs) > size {
			return fmt.Errorf("%w: %w: %s offset %d beyond %d bytes", ErrMalformedOffset, ErrStreamExhausted, f.name, f.ofs, size)
		}
		if f.ofs < 0 || f.ofs > h.OfsEnd {
			return fmt.Errorf("%w: %s offset %d outside [0, %d]", ErrMalformedOffset, f.name, f.ofs, h.OfsEnd)
		}
	}
	return nil
}

package gla

import (
	"encoding/binary"
	"fmt"
	"math"

	"gla2smd/internal/mathutil"
)

// cursor is a bounds-checked little-endian reader over a resident buffer.
// Every multi-byte field is unpacked from raw bytes, so unaligned 16- and
// 24-bit fields need no special casing.
type cursor struct {
	data []byte
	off  int64
}

func (c *cursor) size() int64 {
	return int64(len(c.data))
}

func (c *cursor) seek(off int64) error {
	if off < 0 || off > c.size() {
		return fmt.Errorf("%w: seek to %d in %d bytes", ErrStreamExhausted, off, c.size())
	}
	c.off = off
	return nil
}

func (c *cursor) readN(n int) ([]byte, error) {
	if n < 0 || c.off+int64(n) > c.size() {
		return nil, fmt.Errorf("%w: read %d bytes at %d of %d", ErrStreamExhausted, n, c.off, c.size())
	}
	b := c.data[c.off : c.off+int64(n)]
	c.off += int64(n)
	return b, nil
}

func (c *cursor) readU16() (uint16, error) {
	b, err := c.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// readU24 reads a packed 3-byte little-endian unsigned integer.
func (c *cursor) readU24() (uint32, error) {
	b, err := c.readN(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0]), nil
}

func (c *cursor) readU32() (uint32, error) {
	b, err := c.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) readI32() (int32, error) {
	v, err := c.readU32()
	return int32(v), err
}

func (c *cursor) readF32() (float32, error) {
	u, err := c.readU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

func (c *cursor) readMat34() (mathutil.Mat34, error) {
	var m mathutil.Mat34
	b, err := c.readN(len(m) * 4)
	if err != nil {
		return m, err
	}
	for i := range m {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return m, nil
}

// readName reads a fixed-width name field and decodes it up to the first nul.
func (c *cursor) readName(n int, dec nameDecoder) (string, error) {
	b, err := c.readN(n)
	if err != nil {
		return "", err
	}
	for i, ch := range b {
		if ch == 0 {
			b = b[:i]
			break
		}
	}
	return dec(b)
}

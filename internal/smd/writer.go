package smd

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// WriteOptions controls text output.
type WriteOptions struct {
	// DuplicateY writes the Y component in place of Z for both position and
	// rotation, matching files produced by the legacy converter.
	DuplicateY bool
}

// Write emits the document as SMD text.
func (d *Document) Write(w io.Writer, opts WriteOptions) error {
	enc := newEncoder(w, opts)
	enc.nodes(d.Nodes)
	for _, f := range d.Frames {
		if enc.err != nil {
			break
		}
		enc.frame(f.Time, f.Bones)
	}
	return enc.finish()
}

type encoder struct {
	bw   *bufio.Writer
	buf  []byte
	opts WriteOptions
	err  error // first write error
}

func newEncoder(w io.Writer, opts WriteOptions) *encoder {
	return &encoder{
		bw:   bufio.NewWriter(w),
		buf:  make([]byte, 0, 128),
		opts: opts,
	}
}

func (e *encoder) write(b []byte) {
	if e.err == nil {
		_, e.err = e.bw.Write(b)
	}
}

// nodes writes the file header and the nodes block, and opens the skeleton
// block.
func (e *encoder) nodes(nodes []Node) {
	e.write([]byte("version 1\nnodes\n"))
	for _, n := range nodes {
		buf := strconv.AppendInt(e.buf[:0], int64(n.ID), 10)
		buf = append(buf, ' ')
		buf = append(buf, quoteName(n.Name)...)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(n.ParentID), 10)
		e.buf = append(buf, '\n')
		e.write(e.buf)
	}
	e.write([]byte("end\nskeleton\n"))
}

func (e *encoder) frame(t float32, bones []BonePose) {
	buf := append(e.buf[:0], "time "...)
	buf = appendFloat(buf, t)
	e.buf = append(buf, '\n')
	e.write(e.buf)

	for _, b := range bones {
		pos, rot := b.Position, b.Rotation
		if e.opts.DuplicateY {
			pos, rot = duplicateY(pos), duplicateY(rot)
		}
		buf := strconv.AppendInt(e.buf[:0], int64(b.BoneID), 10)
		for _, v := range [6]float32{pos[0], pos[1], pos[2], rot[0], rot[1], rot[2]} {
			buf = append(buf, ' ')
			buf = appendFloat(buf, v)
		}
		e.buf = append(buf, '\n')
		e.write(e.buf)
	}
}

// finish closes the skeleton block and flushes.
func (e *encoder) finish() error {
	e.write([]byte("end\n"))
	if e.err != nil {
		return e.err
	}
	return e.bw.Flush()
}

// Bytes renders the document into memory.
func (d *Document) Bytes(opts WriteOptions) []byte {
	var buf bytes.Buffer
	_ = d.Write(&buf, opts)
	return buf.Bytes()
}

func duplicateY(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v[0], v[1], v[1]}
}

// quoteName wraps a node name in double quotes. SMD has no escape syntax, so
// embedded double quotes become single quotes.
func quoteName(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `'`) + `"`
}

// FormatFloat prints v with at most six fractional digits, trailing zeros
// and a trailing dot removed. Negative zero prints as "0".
func FormatFloat(v float32) string {
	return string(appendFloat(nil, v))
}

func appendFloat(dst []byte, v float32) []byte {
	start := len(dst)
	dst = strconv.AppendFloat(dst, float64(v), 'f', 6, 64)
	s := dst[start:]
	if bytes.IndexByte(s, '.') >= 0 {
		s = bytes.TrimRight(s, "0")
		s = bytes.TrimSuffix(s, []byte("."))
	}
	if len(s) == 2 && s[0] == '-' && s[1] == '0' {
		s = s[1:]
	}
	// s aliases dst, possibly shifted by one for the dropped sign.
	n := copy(dst[start:], s)
	return dst[:start+n]
}

// Package glatest builds synthetic GLA images for tests.
package glatest

import (
	"bytes"
	"encoding/binary"
	"math"

	"gla2smd/internal/mathutil"
)

// Layout constants of a version 6 file.
const (
	HeaderSize     = 100
	NameSize       = 64
	SkelPrefixSize = 172
	FrameIndexSize = 3
	CompBoneSize   = 14
)

// Header field offsets, for patching built images.
const (
	OffNumFrames = 76
	OffOfsFrames = 80
	OffNumBones  = 84
	OffOfsPool   = 88
	OffOfsSkel   = 92
	OffOfsEnd    = 96
)

// Quantized values that dequantize exactly.
const (
	QuatZero  = 32766 // 32766/16383 - 2 == 0
	QuatOne   = 49149 // 49149/16383 - 2 == 1
	TransZero = 32768 // 32768/64 - 512 == 0
)

type Bone struct {
	Name     string
	Flags    uint32
	Parent   int32
	Base     mathutil.Mat34
	BaseInv  mathutil.Mat34
	Children []int32
}

// File describes a GLA image laid out as header, skeleton, frame table, pool.
type File struct {
	Ident   string
	Version int32
	Name    string
	Scale   float32
	Bones   []Bone
	Frames  [][]uint32 // [frame][bone] pool index
	Pool    [][CompBoneSize]byte
}

// New returns an empty version 6 file.
func New() *File {
	return &File{
		Ident:   "2LGA",
		Version: 6,
		Name:    "models/players/_humanoid/_humanoid",
		Scale:   1,
	}
}

// Build serializes the file. OfsEnd is the total length.
func (f *File) Build() []byte {
	skelSize := 0
	for _, b := range f.Bones {
		skelSize += SkelPrefixSize + 4*len(b.Children)
	}
	ofsSkel := HeaderSize
	ofsFrames := ofsSkel + skelSize
	ofsPool := ofsFrames + FrameIndexSize*len(f.Frames)*len(f.Bones)
	ofsEnd := ofsPool + CompBoneSize*len(f.Pool)

	var buf bytes.Buffer
	buf.WriteString(f.Ident)
	le(&buf, f.Version)
	buf.Write(fixedName(f.Name))
	le(&buf, f.Scale)
	le(&buf, int32(len(f.Frames)))
	le(&buf, int32(ofsFrames))
	le(&buf, int32(len(f.Bones)))
	le(&buf, int32(ofsPool))
	le(&buf, int32(ofsSkel))
	le(&buf, int32(ofsEnd))

	for _, b := range f.Bones {
		buf.Write(fixedName(b.Name))
		le(&buf, b.Flags)
		le(&buf, b.Parent)
		le(&buf, b.Base)
		le(&buf, b.BaseInv)
		le(&buf, int32(len(b.Children)))
		le(&buf, b.Children)
	}

	for _, row := range f.Frames {
		for _, idx := range row {
			buf.Write([]byte{byte(idx), byte(idx >> 8), byte(idx >> 16)})
		}
	}

	for _, comp := range f.Pool {
		buf.Write(comp[:])
	}
	return buf.Bytes()
}

func le(buf *bytes.Buffer, v any) {
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
}

func fixedName(s string) []byte {
	b := make([]byte, NameSize)
	copy(b, s)
	return b
}

// PutI32 overwrites a little-endian int32 at off.
func PutI32(data []byte, off int, v int32) {
	binary.LittleEndian.PutUint32(data[off:], uint32(v))
}

// CompBone packs raw quantized fields into a 14-byte record.
func CompBone(w, x, y, z, tx, ty, tz uint16) [CompBoneSize]byte {
	var b [CompBoneSize]byte
	for i, v := range []uint16{w, x, y, z, tx, ty, tz} {
		binary.LittleEndian.PutUint16(b[i*2:], v)
	}
	return b
}

// QuantTrans encodes a translation that is a multiple of 1/64.
func QuantTrans(v float32) uint16 {
	return uint16(math.Round(float64((v + 512) * 64)))
}

// Translation packs an unrotated pool record.
func Translation(x, y, z float32) [CompBoneSize]byte {
	return CompBone(QuatOne, QuatZero, QuatZero, QuatZero, QuantTrans(x), QuantTrans(y), QuantTrans(z))
}

// TwoBone is a root and one child over three frames sharing two pool slots.
// The child's base pose sits 40 units up z; pool slot 1 moves by (1.5, -2, 10).
func TwoBone() *File {
	f := New()
	f.Bones = []Bone{
		{Name: "model_root", Parent: -1, Base: mathutil.Identity34(), BaseInv: mathutil.Identity34(), Children: []int32{1}},
		{
			Name:   "pelvis",
			Flags:  0x10,
			Parent: 0,
			Base: mathutil.Mat34{
				1, 0, 0, 0,
				0, 1, 0, 0,
				0, 0, 1, 40,
			},
			BaseInv: mathutil.Mat34{
				1, 0, 0, 0,
				0, 1, 0, 0,
				0, 0, 1, -40,
			},
		},
	}
	f.Frames = [][]uint32{
		{0, 1},
		{0, 1},
		{1, 0},
	}
	f.Pool = [][CompBoneSize]byte{
		Translation(0, 0, 0),
		Translation(1.5, -2, 10),
	}
	return f
}

package gla

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/DataDog/zstd"

	"gla2smd/internal/gla/glatest"
	"gla2smd/internal/mathutil"
)

func TestHeaderSize(t *testing.T) {
	t.Parallel()
	if HeaderSize != 100 {
		t.Fatalf("HeaderSize: got %d want 100", HeaderSize)
	}
	if SkelPrefixSize != 172 {
		t.Fatalf("SkelPrefixSize: got %d want 172", SkelPrefixSize)
	}
	if glatest.HeaderSize != HeaderSize || glatest.SkelPrefixSize != SkelPrefixSize ||
		glatest.CompBoneSize != CompBoneSize || glatest.FrameIndexSize != FrameIndexSize {
		t.Fatal("glatest layout constants out of sync")
	}
}

func TestDecodeHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	f := glatest.TwoBone()
	f.Scale = 0.75
	data := f.Build()

	c := &cursor{data: data}
	names, _ := newNameDecoder(EncodingUTF8)
	h, err := decodeHeader(c, names)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if c.off != HeaderSize {
		t.Fatalf("cursor advanced %d bytes, want %d", c.off, HeaderSize)
	}

	if h.IdentString() != MagicIdent || h.Version != SupportedVersion {
		t.Fatalf("ident/version: got %q/%d", h.IdentString(), h.Version)
	}
	if h.Name != f.Name {
		t.Fatalf("name: got %q want %q", h.Name, f.Name)
	}
	if h.Scale != 0.75 {
		t.Fatalf("scale: got %v want 0.75", h.Scale)
	}
	if h.NumFrames != 3 || h.NumBones != 2 {
		t.Fatalf("counts: got %d frames %d bones", h.NumFrames, h.NumBones)
	}
	if int(h.OfsEnd) != len(data) {
		t.Fatalf("OfsEnd: got %d want %d", h.OfsEnd, len(data))
	}
	if h.OfsSkel != HeaderSize {
		t.Fatalf("OfsSkel: got %d want %d", h.OfsSkel, HeaderSize)
	}
}

func TestDecodeHeaderTruncatesLongName(t *testing.T) {
	t.Parallel()

	f := glatest.TwoBone()
	f.Name = strings.Repeat("n", 80)
	anim, err := Decode(f.Build(), DefaultOptions())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := strings.Repeat("n", NameSize); anim.Header.Name != want {
		t.Fatalf("name: got %q want %q", anim.Header.Name, want)
	}
}

func TestNameStopsAtFirstNul(t *testing.T) {
	t.Parallel()

	f := glatest.TwoBone()
	f.Bones[1].Name = "pelvis\x00stale"
	anim, err := Decode(f.Build(), DefaultOptions())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := anim.Bones[1].Name; got != "pelvis" {
		t.Fatalf("name: got %q want %q", got, "pelvis")
	}
}

func TestNameEncoding(t *testing.T) {
	t.Parallel()

	f := glatest.TwoBone()
	f.Bones[0].Name = "t\xe9te"
	data := f.Build()

	anim, err := Decode(data, Options{NameEncoding: EncodingWindows1252, StrictOffsets: true})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := anim.Bones[0].Name; got != "tête" {
		t.Fatalf("windows-1252 name: got %q want %q", got, "tête")
	}

	if _, err := Decode(data, Options{NameEncoding: "ebcdic"}); err == nil {
		t.Fatal("expected error for unsupported encoding")
	}
}

func TestDecodeSkeleton(t *testing.T) {
	t.Parallel()

	f := glatest.TwoBone()
	anim, err := Decode(f.Build(), DefaultOptions())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(anim.Bones) != 2 {
		t.Fatalf("bones: got %d want 2", len(anim.Bones))
	}

	root, pelvis := anim.Bones[0], anim.Bones[1]
	if root.Name != "model_root" || root.Parent != -1 || !reflect.DeepEqual(root.Children, []int32{1}) {
		t.Fatalf("root: got %+v", root)
	}
	if pelvis.Name != "pelvis" || pelvis.Parent != 0 || pelvis.Flags != 0x10 || len(pelvis.Children) != 0 {
		t.Fatalf("pelvis: got %+v", pelvis)
	}
	if pelvis.BasePose != f.Bones[1].Base || pelvis.BasePoseInv != f.Bones[1].BaseInv {
		t.Fatalf("pelvis poses: got %v / %v", pelvis.BasePose, pelvis.BasePoseInv)
	}
}

func TestDecodeSkelNodeAdvance(t *testing.T) {
	t.Parallel()

	f := glatest.TwoBone()
	data := f.Build()
	names, _ := newNameDecoder(EncodingUTF8)

	c := &cursor{data: data, off: HeaderSize}
	if _, err := decodeSkelNode(c, names); err != nil {
		t.Fatalf("root: %v", err)
	}
	if want := int64(HeaderSize + SkelPrefixSize + 4); c.off != want {
		t.Fatalf("after root: offset %d want %d", c.off, want)
	}

	start := c.off
	n, err := decodeSkelNode(c, names)
	if err != nil {
		t.Fatalf("pelvis: %v", err)
	}
	if len(n.Children) != 0 {
		t.Fatalf("pelvis children: got %v", n.Children)
	}
	if c.off-start != SkelPrefixSize {
		t.Fatalf("childless node advanced %d bytes, want %d", c.off-start, SkelPrefixSize)
	}
}

func TestDecodeSkelNodeBadChildCount(t *testing.T) {
	t.Parallel()

	for _, count := range []int32{-1, 1 << 20} {
		f := glatest.New()
		f.Bones = []glatest.Bone{{Name: "root", Parent: -1}}
		data := f.Build()
		glatest.PutI32(data, HeaderSize+SkelPrefixSize-4, count)

		_, err := Decode(data, DefaultOptions())
		if !errors.Is(err, ErrStreamExhausted) {
			t.Fatalf("child count %d: got %v want ErrStreamExhausted", count, err)
		}
	}
}

func TestFrameTable(t *testing.T) {
	t.Parallel()

	data := []byte{
		0x01, 0x02, 0x03, // 0x030201
		0xff, 0xff, 0xff, // 0xffffff
		0x00, 0x00, 0x00,
		0x10, 0x00, 0x00,
	}
	c := &cursor{data: data}
	tbl, err := decodeFrameTable(c, 0, 2, 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := map[[2]int]uint32{
		{0, 0}: 0x030201,
		{0, 1}: 0xffffff,
		{1, 0}: 0,
		{1, 1}: 0x10,
	}
	for key, w := range want {
		got, err := tbl.At(key[0], key[1])
		if err != nil {
			t.Fatalf("At%v: %v", key, err)
		}
		if got != w {
			t.Fatalf("At%v: got %#x want %#x", key, got, w)
		}
	}
	if tbl.MaxIndex() != 0xffffff {
		t.Fatalf("MaxIndex: got %#x", tbl.MaxIndex())
	}
	if tbl.PoolSize() != 0x1000000 {
		t.Fatalf("PoolSize: got %d", tbl.PoolSize())
	}
	if tbl.Distinct() != 4 {
		t.Fatalf("Distinct: got %d want 4", tbl.Distinct())
	}

	for _, key := range [][2]int{{-1, 0}, {2, 0}, {0, 2}, {0, -1}} {
		if _, err := tbl.At(key[0], key[1]); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("At%v: got %v want ErrIndexOutOfRange", key, err)
		}
	}
}

func TestFrameTableEmpty(t *testing.T) {
	t.Parallel()

	tbl, err := decodeFrameTable(&cursor{}, 0, 0, 5)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tbl.PoolSize() != 0 {
		t.Fatalf("PoolSize: got %d want 0", tbl.PoolSize())
	}
}

func TestFrameTableTruncated(t *testing.T) {
	t.Parallel()

	c := &cursor{data: make([]byte, 8)}
	if _, err := decodeFrameTable(c, 0, 1, 3); !errors.Is(err, ErrStreamExhausted) {
		t.Fatalf("got %v want ErrStreamExhausted", err)
	}
}

func TestDecompressBoneDequantization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                string
		tx, ty, tz          uint16
		wantX, wantY, wantZ float32
	}{
		{"zero raw is -512", 0, 0, 0, -512, -512, -512},
		{"32768 is origin", 32768, 32768, 32768, 0, 0, 0},
		{"max raw", 65535, 32832, 32704, 511.984375, 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := DecompressBone(glatest.CompBone(glatest.QuatOne, glatest.QuatZero, glatest.QuatZero, glatest.QuatZero, tt.tx, tt.ty, tt.tz))
			got := m.Translation()
			if got[0] != tt.wantX || got[1] != tt.wantY || got[2] != tt.wantZ {
				t.Fatalf("translation: got %v want [%v %v %v]", got, tt.wantX, tt.wantY, tt.wantZ)
			}
		})
	}
}

func TestDecompressBoneRotation(t *testing.T) {
	t.Parallel()

	identity := DecompressBone(glatest.Translation(0, 0, 0))
	if identity != mathutil.Identity34() {
		t.Fatalf("identity: got %v", identity)
	}

	// Raw 0 dequantizes every component to -2; the result is not renormalized.
	m := DecompressBone(glatest.CompBone(0, 0, 0, 0, 0, 0, 0))
	want := mathutil.Mat34{
		-15, 0, 16, -512,
		16, -15, 0, -512,
		0, 16, -15, -512,
	}
	if m != want {
		t.Fatalf("all-zero record: got %v want %v", m, want)
	}

	// Raw 16383 dequantizes to -1: a half turn about z.
	half := DecompressBone(glatest.CompBone(glatest.QuatZero, glatest.QuatZero, glatest.QuatZero, 16383, glatest.TransZero, glatest.TransZero, glatest.TransZero))
	wantHalf := mathutil.Mat34{
		-1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, 1, 0,
	}
	if half != wantHalf {
		t.Fatalf("half turn: got %v want %v", half, wantHalf)
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	f := glatest.TwoBone()
	anim, err := Decode(f.Build(), DefaultOptions())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if anim.NumFrames() != 3 || anim.NumBones() != 2 {
		t.Fatalf("got %d frames %d bones", anim.NumFrames(), anim.NumBones())
	}
	if got, want := len(anim.Pool), int(anim.Frames.MaxIndex())+1; got != want {
		t.Fatalf("pool length: got %d want %d", got, want)
	}

	for frame := 0; frame < anim.NumFrames(); frame++ {
		for bone := 0; bone < anim.NumBones(); bone++ {
			idx, err := anim.Frames.At(frame, bone)
			if err != nil {
				t.Fatalf("At(%d,%d): %v", frame, bone, err)
			}
			if idx > anim.Frames.MaxIndex() {
				t.Fatalf("At(%d,%d) = %d exceeds max %d", frame, bone, idx, anim.Frames.MaxIndex())
			}
		}
	}

	delta, err := anim.BoneAtFrame(2, 0)
	if err != nil {
		t.Fatalf("BoneAtFrame: %v", err)
	}
	if got := delta.Translation(); got[0] != 1.5 || got[1] != -2 || got[2] != 10 {
		t.Fatalf("BoneAtFrame(2,0) translation: got %v", got)
	}
	if _, err := anim.BoneAtFrame(3, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("BoneAtFrame(3,0): got %v want ErrIndexOutOfRange", err)
	}
}

func TestDecodeDeterministic(t *testing.T) {
	t.Parallel()

	data := glatest.TwoBone().Build()
	a, err := Decode(data, DefaultOptions())
	if err != nil {
		t.Fatalf("first decode: %v", err)
	}
	b, err := Decode(data, DefaultOptions())
	if err != nil {
		t.Fatalf("second decode: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("decoding the same bytes twice produced different results")
	}
}

func TestDecodeDoesNotCheckFormat(t *testing.T) {
	t.Parallel()

	f := glatest.TwoBone()
	f.Ident = "IDP3"
	f.Version = 15
	anim, err := Decode(f.Build(), DefaultOptions())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := anim.Header.CheckFormat(); !errors.Is(err, ErrUnrecognizedFormat) {
		t.Fatalf("CheckFormat: got %v want ErrUnrecognizedFormat", err)
	}
}

func TestCheckFormat(t *testing.T) {
	t.Parallel()

	good := glatest.New().Build()
	anim, err := Decode(good, DefaultOptions())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := anim.Header.CheckFormat(); err != nil {
		t.Fatalf("CheckFormat: %v", err)
	}

	h := anim.Header
	h.Version = 5
	if err := h.CheckFormat(); !errors.Is(err, ErrUnrecognizedFormat) {
		t.Fatalf("version 5: got %v want ErrUnrecognizedFormat", err)
	}
}

func TestDecodeOffsetBeyondFile(t *testing.T) {
	t.Parallel()

	fields := map[string]int{
		"frames":    glatest.OffOfsFrames,
		"bone pool": glatest.OffOfsPool,
		"skeleton":  glatest.OffOfsSkel,
	}
	for name, off := range fields {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			for _, strict := range []bool{true, false} {
				data := glatest.TwoBone().Build()
				glatest.PutI32(data, off, int32(len(data)+100))

				anim, err := Decode(data, Options{StrictOffsets: strict})
				if anim != nil {
					t.Fatalf("strict=%v: expected no partial result", strict)
				}
				if !errors.Is(err, ErrStreamExhausted) {
					t.Fatalf("strict=%v: got %v want ErrStreamExhausted", strict, err)
				}
			}
		})
	}
}

func TestDecodeMalformedOffsets(t *testing.T) {
	t.Parallel()

	data := glatest.TwoBone().Build()
	glatest.PutI32(data, glatest.OffOfsEnd, int32(HeaderSize))
	if _, err := Decode(data, DefaultOptions()); !errors.Is(err, ErrMalformedOffset) {
		t.Fatalf("skeleton past OfsEnd: got %v want ErrMalformedOffset", err)
	}

	data = glatest.TwoBone().Build()
	glatest.PutI32(data, glatest.OffNumBones, -2)
	for _, strict := range []bool{true, false} {
		if _, err := Decode(data, Options{StrictOffsets: strict}); !errors.Is(err, ErrMalformedOffset) {
			t.Fatalf("strict=%v negative bones: got %v want ErrMalformedOffset", strict, err)
		}
	}
}

func TestDecodeFramesWithoutBones(t *testing.T) {
	t.Parallel()

	data := glatest.New().Build()
	glatest.PutI32(data, glatest.OffNumFrames, 1<<30)

	if _, err := Decode(data, DefaultOptions()); !errors.Is(err, ErrMalformedOffset) {
		t.Fatalf("strict: got %v want ErrMalformedOffset", err)
	}

	// Without the offset check the count is kept; nothing is sized from it.
	anim, err := Decode(data, Options{})
	if err != nil {
		t.Fatalf("non-strict: %v", err)
	}
	if anim.NumFrames() != 1<<30 || anim.NumBones() != 0 || len(anim.Pool) != 0 {
		t.Fatalf("got %d frames, %d bones, %d pool slots", anim.NumFrames(), anim.NumBones(), len(anim.Pool))
	}
}

func TestDecodeTruncatedPool(t *testing.T) {
	t.Parallel()

	f := glatest.TwoBone()
	f.Frames[1][1] = 5 // pool only has two records
	_, err := Decode(f.Build(), Options{})
	if !errors.Is(err, ErrStreamExhausted) {
		t.Fatalf("got %v want ErrStreamExhausted", err)
	}
}

func TestDecodeTruncatedHeader(t *testing.T) {
	t.Parallel()

	data := glatest.TwoBone().Build()
	for _, n := range []int{0, 4, HeaderSize - 1} {
		if _, err := Decode(data[:n], DefaultOptions()); !errors.Is(err, ErrStreamExhausted) {
			t.Fatalf("%d bytes: got %v want ErrStreamExhausted", n, err)
		}
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	data := glatest.TwoBone().Build()
	dir := t.TempDir()

	plain := filepath.Join(dir, "walk.gla")
	if err := os.WriteFile(plain, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	compressed, err := zstd.Compress(nil, data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	packed := filepath.Join(dir, "walk.gla.zst")
	if err := os.WriteFile(packed, compressed, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	want, err := Decode(data, DefaultOptions())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, path := range []string{plain, packed} {
		got, err := Open(context.Background(), path, DefaultOptions())
		if err != nil {
			t.Fatalf("Open(%s): %v", filepath.Base(path), err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Open(%s): result differs from Decode", filepath.Base(path))
		}
	}

	if _, err := Open(context.Background(), filepath.Join(dir, "missing.gla"), DefaultOptions()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestUnpackPassesThroughPlainData(t *testing.T) {
	t.Parallel()

	data := []byte("2LGA....")
	got, err := Unpack(data)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if &got[0] != &data[0] {
		t.Fatal("plain data should be returned as-is")
	}
}

func TestNewFrameTable(t *testing.T) {
	t.Parallel()

	tbl, err := NewFrameTable(2, 1, []uint32{4, 2})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if tbl.MaxIndex() != 4 || tbl.PoolSize() != 5 {
		t.Fatalf("max/pool size: got %d/%d want 4/5", tbl.MaxIndex(), tbl.PoolSize())
	}
	if got, _ := tbl.At(1, 0); got != 2 {
		t.Fatalf("At(1,0): got %d want 2", got)
	}

	if _, err := NewFrameTable(2, 2, []uint32{0}); err == nil {
		t.Fatal("expected error for short index")
	}
}

func TestUnpackLimit(t *testing.T) {
	t.Parallel()

	data := glatest.TwoBone().Build()
	packed, err := zstd.Compress(nil, data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	for _, in := range [][]byte{data, packed} {
		got, err := UnpackLimit(in, int64(len(data)))
		if err != nil {
			t.Fatalf("unpack at limit: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Fatal("unpacked image differs")
		}
		if _, err := UnpackLimit(in, int64(len(data))-1); !errors.Is(err, ErrTooLarge) {
			t.Fatalf("below limit: got %v want ErrTooLarge", err)
		}
	}
}

func TestUnpackLimitHighRatio(t *testing.T) {
	t.Parallel()

	bomb, err := zstd.Compress(nil, make([]byte, 16<<20))
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if len(bomb) > 64<<10 {
		t.Fatalf("compressed zeros unexpectedly large: %d bytes", len(bomb))
	}
	if _, err := UnpackLimit(bomb, 1<<20); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("got %v want ErrTooLarge", err)
	}
}

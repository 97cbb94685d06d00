package gla

import (
	"encoding/binary"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"gla2smd/internal/mathutil"
)

// CompBoneSize is the size of one mdxaCompQuatBone_t record.
const CompBoneSize = 14

// Dequantization constants of the compressed bone format.
const (
	quatScale  = 16383.0
	quatBias   = 2.0
	transScale = 64.0
	transBias  = 512.0
)

// DecompressBone expands a packed record of seven little-endian uint16
// (w, x, y, z, tx, ty, tz) into a 3×4 transform. The quaternion is
// dequantized into [-2, 2) and converted without renormalization; the
// translation is dequantized into [-512, 512).
func DecompressBone(comp [CompBoneSize]byte) mathutil.Mat34 {
	var raw [7]uint16
	for i := range raw {
		raw[i] = binary.LittleEndian.Uint16(comp[i*2:])
	}

	w := float32(raw[0])/quatScale - quatBias
	x := float32(raw[1])/quatScale - quatBias
	y := float32(raw[2])/quatScale - quatBias
	z := float32(raw[3])/quatScale - quatBias
	rot := mathutil.QuatToMat3Unnormalized(w, x, y, z)

	var t mgl32.Vec3
	for i := range t {
		t[i] = float32(raw[4+i])/transScale - transBias
	}
	return mathutil.FromRotationTranslation(rot, t)
}

func decodePool(c *cursor, ofs int64, size int) ([]mathutil.Mat34, error) {
	if err := c.seek(ofs); err != nil {
		return nil, err
	}
	if int64(size)*CompBoneSize > c.size()-ofs {
		return nil, fmt.Errorf("%w: %d compressed bones at %d exceed %d bytes", ErrStreamExhausted, size, ofs, c.size())
	}

	pool := make([]mathutil.Mat34, size)
	for i := range pool {
		b, err := c.readN(CompBoneSize)
		if err != nil {
			return nil, err
		}
		pool[i] = DecompressBone([CompBoneSize]byte(b))
	}
	return pool, nil
}

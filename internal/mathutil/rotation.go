package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Deg2Rad is the π/180 factor applied to exported rotation triples.
const Deg2Rad = float32(math.Pi / 180)

// ViewRotation returns a camera rotation: yaw around Y, then pitch around X. Angles in degrees.
func ViewRotation(yaw, pitch float32) mgl32.Mat3 {
	return mgl32.Rotate3DX(pitch * Deg2Rad).Mul3(mgl32.Rotate3DY(yaw * Deg2Rad))
}

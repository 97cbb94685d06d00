package mathutil

import "github.com/go-gl/mathgl/mgl32"

// QuatToMat3Unnormalized converts a quaternion to a 3×3 rotation matrix without
// normalizing it first. A non-unit quaternion yields a non-orthonormal matrix.
//
// The operation order matches the Ghoul2 runtime (doubled components first,
// then the pairwise products), so results are bit-identical to it. The
// explicit float32 conversions keep every product rounded on its own.
func QuatToMat3Unnormalized(w, x, y, z float32) mgl32.Mat3 {
	tx := 2 * x
	ty := 2 * y
	tz := 2 * z
	twx := float32(tx * w)
	twy := float32(ty * w)
	twz := float32(tz * w)
	txx := float32(tx * x)
	txy := float32(ty * x)
	txz := float32(tz * x)
	tyy := float32(ty * y)
	tyz := float32(tz * y)
	tzz := float32(tz * z)

	return mgl32.Mat3FromRows(
		mgl32.Vec3{1 - (tyy + tzz), txy - twz, txz + twy},
		mgl32.Vec3{txy + twz, 1 - (txx + tzz), tyz - twx},
		mgl32.Vec3{txz - twy, tyz + twx, 1 - (txx + tyy)},
	)
}

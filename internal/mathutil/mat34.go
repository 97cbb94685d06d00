package mathutil

import "github.com/go-gl/mathgl/mgl32"

// Mat34 is a 3×4 affine transform stored row-major: [r0c0, r0c1, r0c2, r0c3, r1c0, ...].
// This is the on-disk mdxaBone_t layout: a 3×3 rotation block with the
// translation in column 3.
type Mat34 [12]float32

func Identity34() Mat34 {
	return Mat34{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
	}
}

// At returns the element at row r, column c.
func (m Mat34) At(r, c int) float32 {
	return m[r*4+c]
}

// Mat4 promotes m to a homogeneous 4×4 matrix with an implicit [0 0 0 1] last row.
func (m Mat34) Mat4() mgl32.Mat4 {
	return mgl32.Mat4FromRows(
		mgl32.Vec4{m[0], m[1], m[2], m[3]},
		mgl32.Vec4{m[4], m[5], m[6], m[7]},
		mgl32.Vec4{m[8], m[9], m[10], m[11]},
		mgl32.Vec4{0, 0, 0, 1},
	)
}

// FromRotationTranslation builds an affine transform from a rotation block and translation.
func FromRotationTranslation(rot mgl32.Mat3, t mgl32.Vec3) Mat34 {
	return Mat34{
		rot.At(0, 0), rot.At(0, 1), rot.At(0, 2), t[0],
		rot.At(1, 0), rot.At(1, 1), rot.At(1, 2), t[1],
		rot.At(2, 0), rot.At(2, 1), rot.At(2, 2), t[2],
	}
}

// Translation returns column 3.
func (m Mat34) Translation() mgl32.Vec3 {
	return mgl32.Vec3{m[3], m[7], m[11]}
}

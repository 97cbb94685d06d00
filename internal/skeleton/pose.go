// Package skeleton composes per-frame bone transforms from a decoded GLA
// animation and reduces them to the position/rotation pairs written to SMD.
package skeleton

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"gla2smd/internal/gla"
	"gla2smd/internal/mathutil"
)

// Pose is the exported transform of one bone at one frame.
type Pose struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3 // radians
}

// World returns the transform of a bone at a frame: the bone's base pose
// times its pooled delta for that frame. Parent transforms are not chained
// in; the stored base pose is already in model space.
func World(anim *gla.Animation, frame, bone int) (mgl32.Mat4, error) {
	delta, err := anim.BoneAtFrame(frame, bone)
	if err != nil {
		return mgl32.Mat4{}, err
	}
	if bone >= len(anim.Bones) {
		return mgl32.Mat4{}, fmt.Errorf("%w: bone %d of %d", gla.ErrIndexOutOfRange, bone, len(anim.Bones))
	}
	return anim.Bones[bone].BasePose.Mat4().Mul4(delta.Mat4()), nil
}

// Export reduces a world transform to the SMD pose. Position is the
// translation column. Rotation is the third row of the rotation block scaled
// by π/180; it is not an Euler decomposition.
func Export(m mgl32.Mat4) Pose {
	return Pose{
		Position: mgl32.Vec3{m.At(0, 3), m.At(1, 3), m.At(2, 3)},
		Rotation: mgl32.Vec3{
			m.At(2, 0) * mathutil.Deg2Rad,
			m.At(2, 1) * mathutil.Deg2Rad,
			m.At(2, 2) * mathutil.Deg2Rad,
		},
	}
}

// FramePoses exports every bone of one frame, indexed by bone id.
func FramePoses(anim *gla.Animation, frame int) ([]Pose, error) {
	poses := make([]Pose, anim.NumBones())
	for bone := range poses {
		m, err := World(anim, frame, bone)
		if err != nil {
			return nil, fmt.Errorf("frame %d bone %d: %w", frame, bone, err)
		}
		poses[bone] = Export(m)
	}
	return poses, nil
}

// Package smd builds and writes StudioMDL skeletal animation (.smd) files.
package smd

import "github.com/go-gl/mathgl/mgl32"

// FrameDuration is the time step between frames. GLA stores no frame rate,
// so 30 frames per time unit is assumed.
const FrameDuration = float32(1.0 / 30.0)

// Document is the in-memory form of an SMD animation.
type Document struct {
	Nodes  []Node
	Frames []Frame
}

// Node is one entry of the nodes block.
type Node struct {
	ID       int
	Name     string
	ParentID int // -1 for a root
}

// Frame is one time block of the skeleton section.
type Frame struct {
	Time  float32
	Bones []BonePose
}

// BonePose is one bone line of a frame.
type BonePose struct {
	BoneID   int
	Position mgl32.Vec3
	Rotation mgl32.Vec3 // radians
}

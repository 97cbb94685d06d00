package smd

import (
	"fmt"
	"io"

	"gla2smd/internal/gla"
	"gla2smd/internal/skeleton"
)

// BuildOptions selects what FromAnimation exports.
type BuildOptions struct {
	// FrameDuration overrides the time step; zero means FrameDuration.
	FrameDuration float32
	// FirstFrame and NumFrames select a contiguous range of frames.
	// NumFrames <= 0 runs through the last frame.
	FirstFrame int
	NumFrames  int
}

// Range resolves the selected frames against an animation of total frames.
func (o BuildOptions) Range(total int) (first, count int, err error) {
	first, count = o.FirstFrame, o.NumFrames
	if first < 0 || first > total {
		return 0, 0, fmt.Errorf("smd: %w: first frame %d of %d", gla.ErrIndexOutOfRange, first, total)
	}
	if count <= 0 {
		count = total - first
	}
	if count > total-first {
		return 0, 0, fmt.Errorf("smd: %w: %d frames from %d of %d", gla.ErrIndexOutOfRange, count, first, total)
	}
	return first, count, nil
}

func (o BuildOptions) step() float32 {
	if o.FrameDuration == 0 {
		return FrameDuration
	}
	return o.FrameDuration
}

func nodes(anim *gla.Animation) []Node {
	out := make([]Node, len(anim.Bones))
	for i, b := range anim.Bones {
		out[i] = Node{ID: i, Name: b.Name, ParentID: int(b.Parent)}
	}
	return out
}

// composeFrame fills dst with the exported poses of one frame.
func composeFrame(anim *gla.Animation, frame int, dst []BonePose) error {
	poses, err := skeleton.FramePoses(anim, frame)
	if err != nil {
		return fmt.Errorf("smd: %w", err)
	}
	for bone, p := range poses {
		dst[bone] = BonePose{BoneID: bone, Position: p.Position, Rotation: p.Rotation}
	}
	return nil
}

// FromAnimation composes every selected frame of anim into a Document. Times
// keep the absolute frame index, so a range starting at frame 10 starts at
// time 10*FrameDuration. Encode writes the same text without holding every
// frame in memory.
func FromAnimation(anim *gla.Animation, opts BuildOptions) (*Document, error) {
	first, count, err := opts.Range(anim.NumFrames())
	if err != nil {
		return nil, err
	}

	doc := &Document{Nodes: nodes(anim)}
	for frame := first; frame < first+count; frame++ {
		f := Frame{
			Time:  float32(frame) * opts.step(),
			Bones: make([]BonePose, anim.NumBones()),
		}
		if err := composeFrame(anim, frame, f.Bones); err != nil {
			return nil, err
		}
		doc.Frames = append(doc.Frames, f)
	}
	return doc, nil
}

// Encode streams the selected frames of anim to w as SMD text, one frame at
// a time.
func Encode(w io.Writer, anim *gla.Animation, build BuildOptions, opts WriteOptions) error {
	first, count, err := build.Range(anim.NumFrames())
	if err != nil {
		return err
	}

	enc := newEncoder(w, opts)
	enc.nodes(nodes(anim))
	bones := make([]BonePose, anim.NumBones())
	for frame := first; frame < first+count && enc.err == nil; frame++ {
		if err := composeFrame(anim, frame, bones); err != nil {
			return err
		}
		enc.frame(float32(frame)*build.step(), bones)
	}
	return enc.finish()
}

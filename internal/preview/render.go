// Package preview draws a single animation frame as a stick figure: one dot
// per bone and a line from each bone to its parent, projected orthographically.
package preview

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"gla2smd/internal/gla"
	"gla2smd/internal/mathutil"
	"gla2smd/internal/skeleton"
)

// Options controls how a frame is drawn.
type Options struct {
	Size        int     // output edge length in pixels
	Supersample int     // render at Size*Supersample, then downsample
	Axes        string  // world axes mapped to image right and up, e.g. "xz"
	Yaw, Pitch  float32 // view rotation in degrees, applied before projection
	Background  RGBA
}

func DefaultOptions() Options {
	return Options{
		Size:        512,
		Supersample: 2,
		Axes:        "xz",
	}
}

var (
	linkColor = RGBA{150, 150, 160, 255}
	rootColor = RGBA{255, 255, 255, 255}

	// Bone dots cycle through these by hierarchy depth.
	depthPalette = []RGBA{
		{230, 80, 70, 255},
		{240, 170, 50, 255},
		{120, 200, 80, 255},
		{60, 170, 220, 255},
		{150, 110, 230, 255},
	}
)

// Render draws the bones of one frame into a Size×Size image.
func Render(anim *gla.Animation, frame int, opts Options) (*image.NRGBA, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("preview: size %d", opts.Size)
	}
	ss := max(opts.Supersample, 1)
	axes, err := parseAxes(opts.Axes)
	if err != nil {
		return nil, err
	}

	poses, err := skeleton.FramePoses(anim, frame)
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}

	// Rotate, then reorder to (right, up, depth)
	view := mathutil.ViewRotation(opts.Yaw, opts.Pitch)
	pts := make([]mgl32.Vec3, len(poses))
	for i, p := range poses {
		v := view.Mul3x1(p.Position)
		pts[i] = mgl32.Vec3{v[axes[0]], v[axes[1]], v[axes[2]]}
	}

	renderSize := opts.Size * ss
	fb := NewFrameBuffer(renderSize, renderSize)
	if opts.Background.A > 0 {
		for i := 0; i < len(fb.Color); i += 4 {
			fb.Color[i] = opts.Background.R
			fb.Color[i+1] = opts.Background.G
			fb.Color[i+2] = opts.Background.B
			fb.Color[i+3] = opts.Background.A
		}
	}

	if len(pts) > 0 {
		proj := fitProjection(pts, renderSize, 16*ss)
		for i := range pts {
			pts[i] = proj(pts[i])
		}
		drawSkeleton(fb, skeleton.NewHierarchy(anim.Bones), pts, ss)
	}

	img := image.NewNRGBA(image.Rect(0, 0, renderSize, renderSize))
	copy(img.Pix, fb.Color)

	if ss > 1 {
		img = Downsample(img, opts.Size)
	}
	return img, nil
}

// fitProjection returns a mapping from view space to pixel space that centers
// the points and fits their larger extent inside the margin.
func fitProjection(pts []mgl32.Vec3, size, margin int) func(mgl32.Vec3) mgl32.Vec3 {
	lo := mgl32.Vec3{float32(math.Inf(1)), float32(math.Inf(1)), 0}
	hi := mgl32.Vec3{float32(math.Inf(-1)), float32(math.Inf(-1)), 0}
	for _, p := range pts {
		for k := 0; k < 2; k++ {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}

	cx := (lo[0] + hi[0]) / 2
	cy := (lo[1] + hi[1]) / 2
	span := max(hi[0]-lo[0], hi[1]-lo[1], 0.001)
	scale := float32(size-2*margin) / span
	half := float32(size) / 2

	return func(p mgl32.Vec3) mgl32.Vec3 {
		return mgl32.Vec3{
			half + (p[0]-cx)*scale,
			half - (p[1]-cy)*scale, // image y grows downward
			p[2],
		}
	}
}

func drawSkeleton(fb *FrameBuffer, h *skeleton.Hierarchy, pts []mgl32.Vec3, ss int) {
	h.Walk(func(bone, _ int) {
		for _, c := range h.Children(bone) {
			a, b := pts[bone], pts[c]
			DrawLine(fb, a[0], a[1], a[2], b[0], b[1], b[2], ss, linkColor)
		}
	})

	// Dots go last so they sit on top of the links meeting at them.
	for bone, p := range pts {
		depth := h.Depth(bone)
		c, d := rootColor, 5*ss
		if depth != 0 {
			c, d = depthPalette[max(depth, 0)%len(depthPalette)], 3*ss
		}
		DrawDot(fb, p[0], p[1], p[2], d, c)
	}
}

// parseAxes maps a two-letter axis pair to component indices for right, up
// and the remaining depth axis.
func parseAxes(s string) ([3]int, error) {
	s = strings.ToLower(s)
	if s == "" {
		s = "xz"
	}
	if len(s) != 2 || s[0] == s[1] || !strings.ContainsRune("xyz", rune(s[0])) || !strings.ContainsRune("xyz", rune(s[1])) {
		return [3]int{}, fmt.Errorf("preview: bad axes %q, want two of x, y, z", s)
	}
	right := int(s[0] - 'x')
	up := int(s[1] - 'x')
	return [3]int{right, up, 3 - right - up}, nil
}

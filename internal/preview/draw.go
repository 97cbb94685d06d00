package preview

import "math"

// RGBA is a non-premultiplied pixel color.
type RGBA struct {
	R, G, B, A uint8
}

// DrawLine draws a segment with depth interpolated between its ends.
func DrawLine(fb *FrameBuffer, x0, y0, z0, x1, y1, z1 float32, width int, c RGBA) {
	dx, dy := x1-x0, y1-y0
	steps := int(math.Ceil(math.Max(math.Abs(float64(dx)), math.Abs(float64(dy)))))
	if steps == 0 {
		DrawDot(fb, x0, y0, max(z0, z1), width, c)
		return
	}
	r := width / 2
	for i := 0; i <= steps; i++ {
		t := float32(i) / float32(steps)
		x := int(math.Round(float64(x0 + dx*t)))
		y := int(math.Round(float64(y0 + dy*t)))
		z := z0 + (z1-z0)*t
		for oy := -r; oy <= r; oy++ {
			for ox := -r; ox <= r; ox++ {
				fb.Plot(x+ox, y+oy, z, c)
			}
		}
	}
}

// DrawDot draws a filled disc of the given diameter.
func DrawDot(fb *FrameBuffer, cx, cy, z float32, diameter int, c RGBA) {
	r := float32(diameter) / 2
	minX := int(math.Floor(float64(cx - r)))
	maxX := int(math.Ceil(float64(cx + r)))
	minY := int(math.Floor(float64(cy - r)))
	maxY := int(math.Ceil(float64(cy + r)))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			// Sample at the pixel center.
			fx := float32(x) + 0.5 - cx
			fy := float32(y) + 0.5 - cy
			if fx*fx+fy*fy <= r*r {
				fb.Plot(x, y, z, c)
			}
		}
	}
}

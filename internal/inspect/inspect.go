// Package inspect summarizes a decoded GLA file for humans and tools.
package inspect

import (
	"fmt"
	"io"
	"strings"

	"gla2smd/internal/gla"
	"gla2smd/internal/skeleton"
)

// Summary is the structural overview printed by `gla2smd inspect` and
// returned by the /v1/inspect endpoint.
type Summary struct {
	Name      string  `json:"name"`
	Ident     string  `json:"ident"`
	Version   int32   `json:"version"`
	Scale     float32 `json:"scale"`
	NumFrames int     `json:"num_frames"`
	NumBones  int     `json:"num_bones"`
	FileSize  int64   `json:"file_size"`

	Offsets []Offset `json:"offsets"`

	PoolSize     int     `json:"pool_size"`
	PoolRefs     int     `json:"pool_refs"`     // frames × bones
	PoolDistinct int     `json:"pool_distinct"` // slots actually referenced
	DedupRatio   float64 `json:"dedup_ratio"`   // refs per pool slot

	Bones    []Bone   `json:"bones"`
	Warnings []string `json:"warnings,omitempty"`
}

// Offset is one header offset checked against the file size.
type Offset struct {
	Name   string `json:"name"`
	Value  int32  `json:"value"`
	InFile bool   `json:"in_file"`
}

type Bone struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Parent   int32   `json:"parent"`
	Depth    int     `json:"depth"`
	Flags    uint32  `json:"flags"`
	Children []int32 `json:"children"`
}

// Summarize describes anim, decoded from fileSize bytes of input.
func Summarize(anim *gla.Animation, fileSize int64) Summary {
	h := anim.Header
	s := Summary{
		Name:      h.Name,
		Ident:     h.IdentString(),
		Version:   h.Version,
		Scale:     h.Scale,
		NumFrames: anim.NumFrames(),
		NumBones:  anim.NumBones(),
		FileSize:  fileSize,
		PoolSize:  len(anim.Pool),
		PoolRefs:  anim.NumFrames() * anim.NumBones(),
	}

	for _, o := range []Offset{
		{Name: "frames", Value: h.OfsFrames},
		{Name: "bone_pool", Value: h.OfsCompBonePool},
		{Name: "skeleton", Value: h.OfsSkel},
		{Name: "end", Value: h.OfsEnd},
	} {
		o.InFile = o.Value >= 0 && int64(o.Value) <= fileSize
		s.Offsets = append(s.Offsets, o)
	}
	if int64(h.OfsEnd) != fileSize {
		s.Warnings = append(s.Warnings, fmt.Sprintf("end offset %d differs from file size %d", h.OfsEnd, fileSize))
	}
	if err := h.CheckFormat(); err != nil {
		s.Warnings = append(s.Warnings, err.Error())
	}

	if s.PoolRefs > 0 {
		s.PoolDistinct = anim.Frames.Distinct()
	}
	if s.PoolSize > 0 {
		s.DedupRatio = float64(s.PoolRefs) / float64(s.PoolSize)
	}
	if s.PoolDistinct < s.PoolSize {
		s.Warnings = append(s.Warnings, fmt.Sprintf("%d pool slots are never referenced", s.PoolSize-s.PoolDistinct))
	}

	hier := skeleton.NewHierarchy(anim.Bones)
	s.Bones = make([]Bone, len(anim.Bones))
	for i, b := range anim.Bones {
		s.Bones[i] = Bone{
			ID:       i,
			Name:     b.Name,
			Parent:   b.Parent,
			Depth:    hier.Depth(i),
			Flags:    b.Flags,
			Children: b.Children,
		}
	}
	for _, w := range hier.Validate() {
		s.Warnings = append(s.Warnings, w.String())
	}
	return s
}

// WriteText prints the summary with an indented bone tree.
func WriteText(w io.Writer, s Summary, bones []gla.SkeletonNode) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "name:      %s\n", s.Name)
	fmt.Fprintf(&sb, "format:    %s v%d\n", s.Ident, s.Version)
	fmt.Fprintf(&sb, "scale:     %g\n", s.Scale)
	fmt.Fprintf(&sb, "frames:    %d\n", s.NumFrames)
	fmt.Fprintf(&sb, "bones:     %d\n", s.NumBones)
	fmt.Fprintf(&sb, "file size: %d\n", s.FileSize)

	sb.WriteString("offsets:\n")
	for _, o := range s.Offsets {
		mark := "ok"
		if !o.InFile {
			mark = "OUT OF FILE"
		}
		fmt.Fprintf(&sb, "  %-10s %10d  %s\n", o.Name, o.Value, mark)
	}

	fmt.Fprintf(&sb, "pool:      %d slots, %d distinct of %d refs (%.2f refs/slot)\n",
		s.PoolSize, s.PoolDistinct, s.PoolRefs, s.DedupRatio)

	sb.WriteString("skeleton:\n")
	skeleton.NewHierarchy(bones).Walk(func(bone, depth int) {
		fmt.Fprintf(&sb, "  %s%d %s\n", strings.Repeat("  ", depth), bone, bones[bone].Name)
	})

	if len(s.Warnings) > 0 {
		sb.WriteString("warnings:\n")
		for _, warn := range s.Warnings {
			fmt.Fprintf(&sb, "  %s\n", warn)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

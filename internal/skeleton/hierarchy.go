package skeleton

import (
	"fmt"

	"gla2smd/internal/gla"
)

// Hierarchy answers parent/child questions about a decoded skeleton. Parent
// links are taken as stored; malformed links are reported by Validate and
// otherwise treated as roots.
type Hierarchy struct {
	bones    []gla.SkeletonNode
	children [][]int
}

// Warning describes a structural oddity in the skeleton. None of them stop
// conversion.
type Warning struct {
	Bone    int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("bone %d: %s", w.Bone, w.Message)
}

func NewHierarchy(bones []gla.SkeletonNode) *Hierarchy {
	h := &Hierarchy{
		bones:    bones,
		children: make([][]int, len(bones)),
	}
	for i, b := range bones {
		if p := int(b.Parent); h.validParent(i, p) {
			h.children[p] = append(h.children[p], i)
		}
	}
	return h
}

func (h *Hierarchy) validParent(bone, parent int) bool {
	return parent >= 0 && parent < len(h.bones) && parent != bone
}

func (h *Hierarchy) Len() int { return len(h.bones) }

// Roots returns the bones without a usable parent, in index order.
func (h *Hierarchy) Roots() []int {
	var roots []int
	for i, b := range h.bones {
		if !h.validParent(i, int(b.Parent)) {
			roots = append(roots, i)
		}
	}
	return roots
}

// Children returns the bones whose parent link points at bone.
func (h *Hierarchy) Children(bone int) []int {
	if bone < 0 || bone >= len(h.children) {
		return nil
	}
	return h.children[bone]
}

// Depth counts the ancestors of bone, 0 for a root. It returns -1 for an
// unknown bone or when the parent chain loops.
func (h *Hierarchy) Depth(bone int) int {
	if bone < 0 || bone >= len(h.bones) {
		return -1
	}
	depth := 0
	for cur := bone; ; depth++ {
		p := int(h.bones[cur].Parent)
		if !h.validParent(cur, p) {
			return depth
		}
		if depth >= len(h.bones) {
			return -1
		}
		cur = p
	}
}

// Walk visits every bone reachable from the roots depth-first, children in
// index order. Bones caught in a parent cycle are never visited.
func (h *Hierarchy) Walk(fn func(bone, depth int)) {
	visited := make([]bool, len(h.bones))
	var visit func(bone, depth int)
	visit = func(bone, depth int) {
		if visited[bone] {
			return
		}
		visited[bone] = true
		fn(bone, depth)
		for _, c := range h.children[bone] {
			visit(c, depth+1)
		}
	}
	for _, r := range h.Roots() {
		visit(r, 0)
	}
}

// Validate reports parent links that do not point at an earlier bone, child
// indices outside the skeleton, child lists that disagree with parent links,
// and bones unreachable from any root.
func (h *Hierarchy) Validate() []Warning {
	var warns []Warning
	n := len(h.bones)

	for i, b := range h.bones {
		p := int(b.Parent)
		switch {
		case p < -1 || p >= n:
			warns = append(warns, Warning{i, fmt.Sprintf("parent %d out of range", p)})
		case p >= i:
			warns = append(warns, Warning{i, fmt.Sprintf("parent %d does not precede it", p)})
		}

		for _, c := range b.Children {
			switch {
			case c < 0 || int(c) >= n:
				warns = append(warns, Warning{i, fmt.Sprintf("child %d out of range", c)})
			case int(h.bones[c].Parent) != i:
				warns = append(warns, Warning{i, fmt.Sprintf("lists child %d whose parent is %d", c, h.bones[c].Parent)})
			}
		}
	}

	reached := make([]bool, n)
	h.Walk(func(bone, _ int) { reached[bone] = true })
	for i, ok := range reached {
		if !ok {
			warns = append(warns, Warning{i, "unreachable from any root"})
		}
	}
	return warns
}

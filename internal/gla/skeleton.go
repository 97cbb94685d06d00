package gla

import (
	"fmt"

	"gla2smd/internal/mathutil"
)

// SkelPrefixSize is the fixed part of an mdxaSkel_t record, before its
// variable-length child list.
const SkelPrefixSize = NameSize + 4 + 4 + 48 + 48 + 4

// SkeletonNode is one bone of the skeleton. Its index in Animation.Bones is the bone id.
type SkeletonNode struct {
	Name        string
	Flags       uint32 // opaque, passed through
	Parent      int32  // -1 for a root
	BasePose    mathutil.Mat34
	BasePoseInv mathutil.Mat34
	Children    []int32
}

// decodeSkeleton reads numBones records sequentially from ofs. Records vary in
// length, so none can be located without decoding the ones before it.
func decodeSkeleton(c *cursor, ofs int64, numBones int, names nameDecoder) ([]SkeletonNode, error) {
	if err := c.seek(ofs); err != nil {
		return nil, err
	}
	// Each record needs at least the fixed prefix; reject absurd counts
	// before allocating for them.
	if int64(numBones)*SkelPrefixSize > c.size()-ofs {
		return nil, fmt.Errorf("%w: %d skeleton records at %d exceed %d bytes", ErrStreamExhausted, numBones, ofs, c.size())
	}

	bones := make([]SkeletonNode, numBones)
	for i := range bones {
		n, err := decodeSkelNode(c, names)
		if err != nil {
			return nil, fmt.Errorf("bone %d: %w", i, err)
		}
		bones[i] = n
	}
	return bones, nil
}

func decodeSkelNode(c *cursor, names nameDecoder) (SkeletonNode, error) {
	var n SkeletonNode
	var err error

	if n.Name, err = c.readName(NameSize, names); err != nil {
		return n, err
	}
	if n.Flags, err = c.readU32(); err != nil {
		return n, err
	}
	if n.Parent, err = c.readI32(); err != nil {
		return n, err
	}
	if n.BasePose, err = c.readMat34(); err != nil {
		return n, err
	}
	if n.BasePoseInv, err = c.readMat34(); err != nil {
		return n, err
	}

	numChildren, err := c.readI32()
	if err != nil {
		return n, err
	}
	if numChildren < 0 || int64(numChildren)*4 > c.size()-c.off {
		return n, fmt.Errorf("%w: %d children at %d", ErrStreamExhausted, numChildren, c.off)
	}

	n.Children = make([]int32, numChildren)
	for i := range n.Children {
		if n.Children[i], err = c.readI32(); err != nil {
			return n, err
		}
	}
	return n, nil
}

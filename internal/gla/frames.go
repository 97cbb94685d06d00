package gla

import "fmt"

// FrameIndexSize is the width of one packed frame index entry.
const FrameIndexSize = 3

// FrameTable maps every (frame, bone) pair to a slot in the compressed bone
// pool. It is fully materialized because the pool size is only known once the
// largest index in the whole table has been seen.
type FrameTable struct {
	numFrames int
	numBones  int
	index     []uint32 // frame-major, bone-minor
	max       uint32
}

// decodeFrameTable reads the 24-bit index of each (frame, bone) pair from
// ofs + 3*(frame*numBones + bone), tracking the running maximum.
func decodeFrameTable(c *cursor, ofs int64, numFrames, numBones int) (*FrameTable, error) {
	n := int64(numFrames) * int64(numBones)
	if ofs < 0 || n*FrameIndexSize > c.size()-ofs {
		return nil, fmt.Errorf("%w: %d frame index entries at %d exceed %d bytes", ErrStreamExhausted, n, ofs, c.size())
	}

	t := &FrameTable{
		numFrames: numFrames,
		numBones:  numBones,
		index:     make([]uint32, n),
	}
	for frame := 0; frame < numFrames; frame++ {
		for bone := 0; bone < numBones; bone++ {
			row := frame*numBones + bone
			if err := c.seek(ofs + int64(row)*FrameIndexSize); err != nil {
				return nil, err
			}
			idx, err := c.readU24()
			if err != nil {
				return nil, err
			}
			t.index[row] = idx
			if idx > t.max {
				t.max = idx
			}
		}
	}
	return t, nil
}

// NewFrameTable builds a table from frame-major pool indices, as produced by
// an encoder or a test.
func NewFrameTable(numFrames, numBones int, index []uint32) (*FrameTable, error) {
	if numFrames < 0 || numBones < 0 || len(index) != numFrames*numBones {
		return nil, fmt.Errorf("gla: frame table: %d entries for %d frames of %d bones", len(index), numFrames, numBones)
	}
	t := &FrameTable{
		numFrames: numFrames,
		numBones:  numBones,
		index:     append([]uint32(nil), index...),
	}
	for _, idx := range t.index {
		t.max = max(t.max, idx)
	}
	return t, nil
}

func (t *FrameTable) NumFrames() int { return t.numFrames }
func (t *FrameTable) NumBones() int  { return t.numBones }

// At returns the pool index for a (frame, bone) pair.
func (t *FrameTable) At(frame, bone int) (uint32, error) {
	if frame < 0 || frame >= t.numFrames || bone < 0 || bone >= t.numBones {
		return 0, fmt.Errorf("%w: frame %d bone %d (have %d×%d)", ErrIndexOutOfRange, frame, bone, t.numFrames, t.numBones)
	}
	return t.index[frame*t.numBones+bone], nil
}

// MaxIndex returns the largest pool index referenced anywhere in the table.
func (t *FrameTable) MaxIndex() uint32 {
	return t.max
}

// PoolSize is MaxIndex()+1, or 0 for an empty table.
func (t *FrameTable) PoolSize() int {
	if len(t.index) == 0 {
		return 0
	}
	return int(t.max) + 1
}

// Distinct counts the pool slots actually referenced.
func (t *FrameTable) Distinct() int {
	seen := make(map[uint32]struct{}, t.PoolSize())
	for _, idx := range t.index {
		seen[idx] = struct{}{}
	}
	return len(seen)
}

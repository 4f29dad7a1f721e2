package octree

import "math/bits"

// ID identifies a node by its octant path from the root. The root is 0 and
// the child of id at octant i is id*8+i+1, so ids of one level are
// contiguous and levels are laid out one after another.
type ID uint64

// MaxLevel is the deepest level whose ids fit in an ID.
const MaxLevel = 20

// LevelStart returns the smallest id at the given level.
func LevelStart(level int) ID {
	return ID((uint64(1)<<(3*level) - 1) / 7)
}

// Child returns the id of the child at the given octant.
func (id ID) Child(local int) ID {
	return id*8 + ID(local) + 1
}

// Local returns the octant of id within its parent. The root has no
// parent and reports 0.
func (id ID) Local() int {
	if id == 0 {
		return 0
	}
	return int((id - 1) % 8)
}

// Parent returns the id of the parent node. The parent of the root is the root.
func (id ID) Parent() ID {
	if id == 0 {
		return 0
	}
	return (id - 1 - ID(id.Local())) / 8
}

// Level returns the depth of id.
func (id ID) Level() int {
	return (bits.Len64(7*uint64(id)+1) - 1) / 3
}

// Valid reports whether id can be addressed without overflow.
func (id ID) Valid() bool {
	return id < LevelStart(MaxLevel+1)
}

// Path returns the octants leading from the root to id.
func (id ID) Path() []int {
	path := make([]int, id.Level())
	for i := len(path) - 1; i >= 0; i-- {
		path[i] = id.Local()
		id = id.Parent()
	}
	return path
}

// Ancestor returns the ancestor of id at the given level, or id itself when
// level is not above it.
func (id ID) Ancestor(level int) ID {
	for l := id.Level(); l > level; l-- {
		id = id.Parent()
	}
	return id
}

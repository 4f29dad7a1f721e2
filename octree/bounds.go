package octree

import (
	"math"

	"github.com/golang/geo/r3"
)

// Bounds is an axis-aligned box laid out as [x, y, z, width, height, depth].
type Bounds [6]float64

// NewBounds returns the box with the given origin (minimum corner) and size.
func NewBounds(origin, size r3.Vector) Bounds {
	return Bounds{origin.X, origin.Y, origin.Z, size.X, size.Y, size.Z}
}

// BoundsFromMinMax converts [minX, minY, minZ, maxX, maxY, maxZ] scene bounds.
func BoundsFromMinMax(scene [6]float64) Bounds {
	return Bounds{
		scene[0], scene[1], scene[2],
		scene[3] - scene[0], scene[4] - scene[1], scene[5] - scene[2],
	}
}

func (b Bounds) Origin() r3.Vector {
	return r3.Vector{X: b[0], Y: b[1], Z: b[2]}
}

func (b Bounds) Size() r3.Vector {
	return r3.Vector{X: b[3], Y: b[4], Z: b[5]}
}

// Max returns the corner opposite to the origin.
func (b Bounds) Max() r3.Vector {
	return b.Origin().Add(b.Size())
}

func (b Bounds) Volume() float64 {
	return b[3] * b[4] * b[5]
}

// Contains reports whether p lies inside the box, boundary included.
func (b Bounds) Contains(p r3.Vector) bool {
	lo, hi := b.Origin(), b.Max()
	return p.X >= lo.X && p.X <= hi.X &&
		p.Y >= lo.Y && p.Y <= hi.Y &&
		p.Z >= lo.Z && p.Z <= hi.Z
}

// IntersectionVolume returns the volume shared by two boxes. Boxes touching
// only on a face, edge or corner share zero volume.
func (b Bounds) IntersectionVolume(other Bounds) float64 {
	overlap := func(lo1, hi1, lo2, hi2 float64) float64 {
		return math.Max(0, math.Min(hi1, hi2)-math.Max(lo1, lo2))
	}
	lo1, hi1 := b.Origin(), b.Max()
	lo2, hi2 := other.Origin(), other.Max()
	return overlap(lo1.X, hi1.X, lo2.X, hi2.X) *
		overlap(lo1.Y, hi1.Y, lo2.Y, hi2.Y) *
		overlap(lo1.Z, hi1.Z, lo2.Z, hi2.Z)
}

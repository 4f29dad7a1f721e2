// Package octree implements a lazily subdivided octree used to pick which
// parts of a large scene are loaded and drawn at which level of detail.
//
// Nodes are created on first access, either by octant (Node.Child) or by id
// (Node.Resolve), and live as long as the tree. The tree is not safe for
// concurrent use.
package octree

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

var (
	ErrInvalidOctant = errors.New("octiles: invalid octant")
	ErrIDMismatch    = errors.New("octiles: node id mismatch")
	ErrMaxLevel      = errors.New("octiles: maximum level exceeded")
)

// Quantizer produces the vertex quantization transform of a node box and its
// inverse. It is called exactly once per node.
type Quantizer interface {
	QuantizationMatrices(bounds Bounds) (forward, inverse mgl64.Mat4)
}

type identityQuantizer struct{}

func (identityQuantizer) QuantizationMatrices(Bounds) (mgl64.Mat4, mgl64.Mat4) {
	return mgl64.Ident4(), mgl64.Ident4()
}

// octantOffsets selects the upper half of an axis per set bit:
// bit 0 is z, bit 1 is y, bit 2 is x.
var octantOffsets = [8]r3.Vector{
	{X: 0, Y: 0, Z: 0},
	{X: 0, Y: 0, Z: 1},
	{X: 0, Y: 1, Z: 0},
	{X: 0, Y: 1, Z: 1},
	{X: 1, Y: 0, Z: 0},
	{X: 1, Y: 0, Z: 1},
	{X: 1, Y: 1, Z: 0},
	{X: 1, Y: 1, Z: 1},
}

// Node is a cuboid cell of the octree.
type Node struct {
	quantizer Quantizer
	parent    *Node
	children  [8]*Node
	leaf      bool

	id           ID
	level        int
	deepestLevel int
	objectCount  int

	bounds          Bounds
	center          mgl64.Vec4
	radius          float64
	transform       mgl64.Mat4
	largestFaceArea float64
	largestEdge     float64

	quantization        mgl64.Mat4
	inverseQuantization mgl64.Mat4
}

func newNode(quantizer Quantizer, parent *Node, id ID, bounds Bounds, level int) *Node {
	size := bounds.Size()
	c := bounds.Origin().Add(size.Mul(0.5))
	faceArea := math.Max(size.X*size.Y, math.Max(size.X*size.Z, size.Z*size.Y))
	edge := math.Max(size.X, math.Max(size.Y, size.Z))

	n := &Node{
		quantizer:       quantizer,
		parent:          parent,
		leaf:            true,
		id:              id,
		level:           level,
		deepestLevel:    level,
		bounds:          bounds,
		center:          mgl64.Vec4{c.X, c.Y, c.Z, 1},
		radius:          size.Norm() / 2,
		transform:       mgl64.Translate3D(c.X, c.Y, c.Z).Mul4(mgl64.Scale3D(size.X, size.Y, size.Z)),
		largestFaceArea: faceArea,
		largestEdge:     edge,
	}
	n.quantization, n.inverseQuantization = quantizer.QuantizationMatrices(bounds)

	for a := parent; a != nil && a.deepestLevel < level; a = a.parent {
		a.deepestLevel = level
	}
	return n
}

func (n *Node) ID() ID { return n.id }

// Parent returns the owning node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

func (n *Node) Level() int { return n.level }

// DeepestLevel returns the level of the deepest node materialized in the
// subtree of n, n included.
func (n *Node) DeepestLevel() int { return n.deepestLevel }

// IsLeaf reports whether no child of n has been created yet.
func (n *Node) IsLeaf() bool { return n.leaf }

func (n *Node) Bounds() Bounds { return n.bounds }

func (n *Node) Origin() r3.Vector { return n.bounds.Origin() }

func (n *Node) Size() r3.Vector { return n.bounds.Size() }

// Center returns the box center as a homogeneous point.
func (n *Node) Center() mgl64.Vec4 { return n.center }

// BoundingSphereRadius returns half the length of the box diagonal.
func (n *Node) BoundingSphereRadius() float64 { return n.radius }

// Transform maps the unit cube centered at the origin onto the node box.
func (n *Node) Transform() mgl64.Mat4 { return n.transform }

func (n *Node) LargestFaceArea() float64 { return n.largestFaceArea }

func (n *Node) LargestEdge() float64 { return n.largestEdge }

func (n *Node) QuantizationMatrix() mgl64.Mat4 { return n.quantization }

func (n *Node) InverseQuantizationMatrix() mgl64.Mat4 { return n.inverseQuantization }

// ObjectCount returns the counter maintained by the tiling layer.
func (n *Node) ObjectCount() int { return n.objectCount }

// AddObjects adds delta to the object counter.
func (n *Node) AddObjects(delta int) { n.objectCount += delta }

// Peek returns the child at the given octant if it has been created.
func (n *Node) Peek(local int) *Node {
	if local < 0 || local > 7 {
		return nil
	}
	return n.children[local]
}

// Child returns the child at the given octant, creating it on first access.
func (n *Node) Child(local int) (*Node, error) {
	if local < 0 || local > 7 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOctant, local)
	}
	child := n.children[local]
	if child == nil {
		if n.level >= MaxLevel {
			return nil, fmt.Errorf("%w: node %d is at level %d", ErrMaxLevel, n.id, n.level)
		}
		half := n.Size().Mul(0.5)
		offset := octantOffsets[local]
		origin := n.Origin().Add(r3.Vector{X: offset.X * half.X, Y: offset.Y * half.Y, Z: offset.Z * half.Z})
		child = newNode(n.quantizer, n, n.id.Child(local), NewBounds(origin, half), n.level+1)
		n.children[local] = child
	}
	n.leaf = false
	return child, nil
}

// Resolve returns the node with the given id, creating every missing node on
// the way. The id must belong to the subtree of n; resolving from the root
// accepts any valid id.
func (n *Node) Resolve(id ID) (*Node, error) {
	if id == n.id {
		return n, nil
	}
	if !id.Valid() || id.Level() <= n.level || id.Ancestor(n.level) != n.id {
		return nil, fmt.Errorf("%w: %d is not below %d", ErrIDMismatch, id, n.id)
	}
	node := n
	for _, local := range id.Path()[n.level:] {
		child, err := node.Child(local)
		if err != nil {
			return nil, err
		}
		node = child
	}
	if node.id != id {
		return nil, fmt.Errorf("%w: resolved %d, want %d", ErrIDMismatch, node.id, id)
	}
	return node, nil
}

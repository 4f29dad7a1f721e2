package octree_test

import (
	"errors"
	"math"
	"testing"

	"github.com/eak1mov/go-octiles/octree"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T, scene [6]float64, maxDepth int, opts ...octree.Option) *octree.Tree {
	t.Helper()
	tree, err := octree.NewTree(scene, maxDepth, opts...)
	require.NoError(t, err)
	return tree
}

func mustChild(t *testing.T, n *octree.Node, local int) *octree.Node {
	t.Helper()
	child, err := n.Child(local)
	require.NoError(t, err)
	return child
}

func TestChildScenario(t *testing.T) {
	tree := newTestTree(t, [6]float64{0, 0, 0, 8, 8, 8}, 2)
	root := tree.Root()

	first := mustChild(t, root, 0)
	if diff := cmp.Diff(octree.Bounds{0, 0, 0, 4, 4, 4}, first.Bounds()); diff != "" {
		t.Errorf("Bounds() mismatch (-want+got):\n%v", diff)
	}
	require.Equal(t, 1, first.Level())
	require.Equal(t, octree.ID(1), first.ID())

	second := mustChild(t, first, 7)
	if diff := cmp.Diff(octree.Bounds{2, 2, 2, 2, 2, 2}, second.Bounds()); diff != "" {
		t.Errorf("Bounds() mismatch (-want+got):\n%v", diff)
	}
	require.Equal(t, 2, second.Level())
	require.Equal(t, octree.ID(16), second.ID())

	resolved, err := root.Resolve(16)
	require.NoError(t, err)
	require.Same(t, second, resolved)
}

func TestChildIdempotent(t *testing.T) {
	tree := newTestTree(t, [6]float64{0, 0, 0, 1, 1, 1}, 3)
	for local := range 8 {
		a := mustChild(t, tree.Root(), local)
		b := mustChild(t, tree.Root(), local)
		require.Same(t, a, b)
		require.Same(t, tree.Root(), a.Parent())
		require.Equal(t, tree.Root().Level()+1, a.Level())
	}
}

func TestChildInvalidOctant(t *testing.T) {
	tree := newTestTree(t, [6]float64{0, 0, 0, 1, 1, 1}, 3)
	for _, local := range []int{-1, 8, 100} {
		_, err := tree.Root().Child(local)
		require.Truef(t, errors.Is(err, octree.ErrInvalidOctant), "%v", err)
		require.Nil(t, tree.Root().Peek(local))
	}
	require.True(t, tree.Root().IsLeaf())
}

func TestChildMaxLevel(t *testing.T) {
	tree := newTestTree(t, [6]float64{0, 0, 0, 1, 1, 1}, 3)
	node := tree.Root()
	for range octree.MaxLevel {
		node = mustChild(t, node, 7)
	}
	require.Equal(t, octree.MaxLevel, node.Level())
	_, err := node.Child(0)
	require.Truef(t, errors.Is(err, octree.ErrMaxLevel), "%v", err)
}

func TestPartition(t *testing.T) {
	tree := newTestTree(t, [6]float64{-3, 1, 2, 5, 7, 3}, 2)
	root := tree.Root()

	children := make([]*octree.Node, 8)
	volume := 0.0
	for local := range 8 {
		children[local] = mustChild(t, root, local)
		volume += children[local].Bounds().Volume()
	}
	require.InDelta(t, root.Bounds().Volume(), volume, 1e-9)

	for i := range children {
		size := children[i].Size()
		require.InDelta(t, root.Size().X/2, size.X, 1e-12)
		require.InDelta(t, root.Size().Y/2, size.Y, 1e-12)
		require.InDelta(t, root.Size().Z/2, size.Z, 1e-12)
		for j := i + 1; j < len(children); j++ {
			require.Zerof(t, children[i].Bounds().IntersectionVolume(children[j].Bounds()),
				"octants %d and %d overlap", i, j)
		}
	}
}

func TestOctantBits(t *testing.T) {
	tree := newTestTree(t, [6]float64{0, 0, 0, 2, 2, 2}, 1)
	for local := range 8 {
		child := mustChild(t, tree.Root(), local)
		origin := child.Origin()
		want := [3]float64{float64(local>>2&1), float64(local>>1&1), float64(local&1)}
		if diff := cmp.Diff(want, [3]float64{origin.X, origin.Y, origin.Z}); diff != "" {
			t.Errorf("octant %d origin mismatch (-want+got):\n%v", local, diff)
		}
	}
}

func TestDerivedAttributes(t *testing.T) {
	tree := newTestTree(t, [6]float64{1, 2, 3, 3, 6, 4}, 1)
	root := tree.Root()

	require.Equal(t, octree.Bounds{1, 2, 3, 2, 4, 1}, root.Bounds())
	require.Equal(t, mgl64.Vec4{2, 4, 3.5, 1}, root.Center())
	require.InDelta(t, math.Sqrt(4+16+1)/2, root.BoundingSphereRadius(), 1e-12)
	require.Equal(t, 8.0, root.LargestFaceArea())
	require.Equal(t, 4.0, root.LargestEdge())

	transform := root.Transform()
	for _, tc := range []struct{ in, want mgl64.Vec4 }{
		{in: mgl64.Vec4{-0.5, -0.5, -0.5, 1}, want: mgl64.Vec4{1, 2, 3, 1}},
		{in: mgl64.Vec4{0.5, 0.5, 0.5, 1}, want: mgl64.Vec4{3, 6, 4, 1}},
		{in: mgl64.Vec4{0, 0, 0, 1}, want: root.Center()},
	} {
		got := transform.Mul4x1(tc.in)
		require.Truef(t, got.ApproxEqual(tc.want), "Transform() * %v = %v, want = %v", tc.in, got, tc.want)
	}
}

func TestBoundingSphereRadius(t *testing.T) {
	tree := newTestTree(t, [6]float64{0, 0, 0, 3, 5, 7}, 3)
	node, err := tree.Resolve(octree.ID(0).Child(2).Child(6).Child(1))
	require.NoError(t, err)
	for n := node; n != nil; n = n.Parent() {
		size := n.Size()
		want := math.Sqrt(size.X*size.X+size.Y*size.Y+size.Z*size.Z) / 2
		require.InDelta(t, want, n.BoundingSphereRadius(), 1e-12)
	}
}

func TestLeafFlag(t *testing.T) {
	tree := newTestTree(t, [6]float64{0, 0, 0, 1, 1, 1}, 2)
	root := tree.Root()
	require.True(t, root.IsLeaf())

	child := mustChild(t, root, 5)
	require.False(t, root.IsLeaf())
	require.True(t, child.IsLeaf())
	for local := range 8 {
		require.Equal(t, local == 5, root.Peek(local) != nil)
	}
}

func TestDeepestLevel(t *testing.T) {
	tree := newTestTree(t, [6]float64{0, 0, 0, 16, 16, 16}, 4)
	root := tree.Root()
	require.Equal(t, 0, root.DeepestLevel())

	deep, err := root.Resolve(octree.ID(0).Child(1).Child(2).Child(3))
	require.NoError(t, err)
	for n := deep.Parent(); n != nil; n = n.Parent() {
		require.Equal(t, 3, n.DeepestLevel())
	}
	require.Equal(t, 3, deep.DeepestLevel())

	shallow := mustChild(t, mustChild(t, root, 1), 7)
	require.Equal(t, 2, shallow.Level())
	require.Equal(t, 3, root.DeepestLevel())
	require.Equal(t, 3, shallow.Parent().DeepestLevel())
	require.Equal(t, 2, shallow.DeepestLevel())

	other := mustChild(t, root, 6)
	require.Equal(t, 1, other.DeepestLevel())
	require.Equal(t, 3, root.DeepestLevel())
}

func TestResolveRoundTrip(t *testing.T) {
	tree := newTestTree(t, [6]float64{0, 0, 0, 1, 1, 1}, 4)
	created := make([]*octree.Node, 0)
	node := tree.Root()
	for _, local := range []int{3, 0, 7, 7, 2, 5} {
		node = mustChild(t, node, local)
		created = append(created, node)
		created = append(created, mustChild(t, node.Parent(), 7-local))
	}

	for _, n := range created {
		resolved, err := tree.Resolve(n.ID())
		require.NoError(t, err)
		require.Same(t, n, resolved)
	}
}

func TestResolveCreatesPath(t *testing.T) {
	tree := newTestTree(t, [6]float64{0, 0, 0, 1, 1, 1}, 4)
	id := octree.ID(0).Child(4).Child(4).Child(1)
	node, err := tree.Resolve(id)
	require.NoError(t, err)
	require.Equal(t, id, node.ID())
	require.Equal(t, 3, node.Level())

	count := 0
	tree.Walk(func(*octree.Node, int) { count++ }, false)
	require.Equal(t, 4, count)
}

func TestResolveFromSubtree(t *testing.T) {
	tree := newTestTree(t, [6]float64{0, 0, 0, 1, 1, 1}, 4)
	sub := mustChild(t, tree.Root(), 2)

	node, err := sub.Resolve(sub.ID().Child(6))
	require.NoError(t, err)
	require.Same(t, sub, node.Parent())

	self, err := sub.Resolve(sub.ID())
	require.NoError(t, err)
	require.Same(t, sub, self)

	for _, id := range []octree.ID{0, octree.ID(0).Child(3), octree.ID(0).Child(3).Child(1)} {
		_, err := sub.Resolve(id)
		require.Truef(t, errors.Is(err, octree.ErrIDMismatch), "Resolve(%d): %v", id, err)
	}
	require.Nil(t, tree.Root().Peek(3))
}

func TestResolveOutOfRange(t *testing.T) {
	tree := newTestTree(t, [6]float64{0, 0, 0, 1, 1, 1}, 4)

	for _, id := range []octree.ID{octree.LevelStart(octree.MaxLevel + 1), octree.LevelStart(octree.MaxLevel+1) + 5, math.MaxUint64} {
		_, err := tree.Resolve(id)
		require.Truef(t, errors.Is(err, octree.ErrIDMismatch), "Resolve(%d): %v", id, err)
	}

	count := 0
	tree.Walk(func(*octree.Node, int) { count++ }, false)
	require.Equal(t, 1, count)
	require.True(t, tree.Root().IsLeaf())
}

func TestObjectCount(t *testing.T) {
	tree := newTestTree(t, [6]float64{0, 0, 0, 1, 1, 1}, 1)
	root := tree.Root()
	require.Zero(t, root.ObjectCount())
	root.AddObjects(3)
	root.AddObjects(-1)
	require.Equal(t, 2, root.ObjectCount())
}

type recordingQuantizer struct {
	calls []octree.Bounds
}

func (q *recordingQuantizer) QuantizationMatrices(b octree.Bounds) (mgl64.Mat4, mgl64.Mat4) {
	q.calls = append(q.calls, b)
	forward := mgl64.Scale3D(1/b[3], 1/b[4], 1/b[5])
	return forward, forward.Inv()
}

func TestQuantizerCalledOncePerNode(t *testing.T) {
	q := &recordingQuantizer{}
	tree := newTestTree(t, [6]float64{0, 0, 0, 4, 4, 4}, 2, octree.WithQuantizer(q))
	require.Len(t, q.calls, 1)

	child := mustChild(t, tree.Root(), 3)
	mustChild(t, tree.Root(), 3)
	_, err := tree.Resolve(child.ID())
	require.NoError(t, err)
	require.Len(t, q.calls, 2)
	require.Equal(t, child.Bounds(), q.calls[1])
	require.Equal(t, mgl64.Scale3D(0.5, 0.5, 0.5), child.QuantizationMatrix())
	require.True(t, child.InverseQuantizationMatrix().ApproxEqual(mgl64.Scale3D(2, 2, 2)))
}

func TestDefaultQuantizer(t *testing.T) {
	tree := newTestTree(t, [6]float64{0, 0, 0, 4, 4, 4}, 2)
	require.Equal(t, mgl64.Ident4(), tree.Root().QuantizationMatrix())
	require.Equal(t, mgl64.Ident4(), tree.Root().InverseQuantizationMatrix())
}

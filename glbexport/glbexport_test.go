package glbexport_test

import (
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-octiles/glbexport"
	"github.com/eak1mov/go-octiles/octree"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	tree, err := octree.NewTree([6]float64{0, 0, 0, 8, 4, 2}, 3)
	require.NoError(t, err)
	child, err := tree.Resolve(octree.ID(0).Child(7))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nodes.glb")
	require.NoError(t, glbexport.Write(path, []*octree.Node{tree.Root(), child}))

	doc, err := gltf.Open(path)
	require.NoError(t, err)
	require.Len(t, doc.Meshes, 1)
	require.Len(t, doc.Nodes, 2)
	require.Equal(t, []int{0, 1}, doc.Scenes[0].Nodes)

	require.Equal(t, "node-0", doc.Nodes[0].Name)
	require.Equal(t, "node-8", doc.Nodes[1].Name)

	// column-major: scale on the diagonal, translation in the last column
	require.Equal(t, [16]float64{
		4, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 1, 0,
		6, 3, 1.5, 1,
	}, doc.Nodes[1].Matrix)
}

func TestWriteEmpty(t *testing.T) {
	err := glbexport.Write(filepath.Join(t.TempDir(), "nodes.glb"), nil)
	require.ErrorIs(t, err, glbexport.ErrNoNodes)
}

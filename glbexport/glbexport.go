// Package glbexport writes node boxes to binary glTF for inspection in any
// glTF viewer.
package glbexport

import (
	"errors"
	"fmt"

	"github.com/eak1mov/go-octiles/octree"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var ErrNoNodes = errors.New("octiles: no nodes to export")

// unit cube centered at the origin; node transforms scale and move it onto
// the node box
var (
	cubeCorners = [][3]float32{
		{-0.5, -0.5, -0.5}, {-0.5, -0.5, 0.5}, {-0.5, 0.5, -0.5}, {-0.5, 0.5, 0.5},
		{0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5},
	}
	cubeEdges = []uint16{
		0, 1, 2, 3, 4, 5, 6, 7, // along z
		0, 2, 1, 3, 4, 6, 5, 7, // along y
		0, 4, 1, 5, 2, 6, 3, 7, // along x
	}
)

// Document builds a glTF document with one wireframe box per node. All boxes
// share a single mesh; each glTF node carries the node Transform as its
// matrix and is named after the node id.
func Document(nodes []*octree.Node) (*gltf.Document, error) {
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "octiles"

	positions := modeler.WritePosition(doc, cubeCorners)
	indices := modeler.WriteIndices(doc, cubeEdges)
	doc.Meshes = []*gltf.Mesh{{
		Name: "box",
		Primitives: []*gltf.Primitive{{
			Attributes: gltf.PrimitiveAttributes{gltf.POSITION: positions},
			Indices:    gltf.Index(indices),
			Mode:       gltf.PrimitiveLines,
		}},
	}}

	for _, node := range nodes {
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:   fmt.Sprintf("node-%d", node.ID()),
			Mesh:   gltf.Index(0),
			Matrix: node.Transform(),
			Extras: map[string]any{
				"level":   node.Level(),
				"objects": node.ObjectCount(),
			},
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}
	return doc, nil
}

// Write saves the boxes of nodes as a .glb file at path.
func Write(path string, nodes []*octree.Node) error {
	doc, err := Document(nodes)
	if err != nil {
		return err
	}
	return gltf.SaveBinary(doc, path)
}

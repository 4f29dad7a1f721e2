package main

import (
	"testing"

	"github.com/eak1mov/go-octiles/octree"
	"github.com/stretchr/testify/require"
)

func TestDeduceFormat(t *testing.T) {
	require.Equal(t, "octiles", deduceFormat("", "a/nodes.octiles"))
	require.Equal(t, "sqlite", deduceFormat("", "nodes.sqlite"))
	require.Equal(t, "dir", deduceFormat("", "out/{level}/{id}.bin"))
	require.Equal(t, "sqlite", deduceFormat("sqlite", "nodes.db"))
	require.Equal(t, "", deduceFormat("", "nodes.db"))
}

func TestBoundsRoundTrip(t *testing.T) {
	bounds := [6]float64{-1.5, 0, 2, 10, 20.25, 1e6}
	got, err := parseBounds(formatBounds(bounds))
	require.NoError(t, err)
	require.Equal(t, bounds, got)

	_, err = parseBounds("1,2,3")
	require.Error(t, err)
}

func TestSceneFromSqlite(t *testing.T) {
	s, err := sceneFromSqlite(map[string]string{
		"bounds":   "0,0,0,8,8,8",
		"maxdepth": "5",
		"json":     `{"a":1}`,
	})
	require.NoError(t, err)
	require.True(t, s.known)
	require.Equal(t, 5, s.maxDepth)
	require.Equal(t, [6]float64{0, 0, 0, 8, 8, 8}, s.bounds)
	require.Equal(t, []byte(`{"a":1}`), s.metadata)
	require.Equal(t, map[string]string{
		"bounds":   "0,0,0,8,8,8",
		"maxdepth": "5",
		"json":     `{"a":1}`,
	}, s.sqliteMetadata())

	s, err = sceneFromSqlite(map[string]string{})
	require.NoError(t, err)
	require.False(t, s.known)
	_, err = s.newTree()
	require.ErrorIs(t, err, errUnknownScene)

	_, err = sceneFromSqlite(map[string]string{"bounds": "x", "maxdepth": "1"})
	require.Error(t, err)

	_, err = sceneFromSqlite(map[string]string{"bounds": "0,0,0,1,1,1", "maxdepth": "256"})
	require.ErrorIs(t, err, octree.ErrInvalidDepth)
}

func TestSceneFlags(t *testing.T) {
	flags := sceneFlags{maxDepth: -1}
	s, err := flags.apply(scene{})
	require.NoError(t, err)
	require.False(t, s.known)

	for _, flags := range []sceneFlags{{bounds: "0,0,0,1,2,3", maxDepth: -1}, {maxDepth: 3}} {
		_, err := flags.apply(scene{})
		require.ErrorIs(t, err, errIncompleteScene)
	}

	flags = sceneFlags{bounds: "0,0,0,1,2,3", maxDepth: 300}
	_, err = flags.apply(scene{})
	require.ErrorIs(t, err, octree.ErrInvalidDepth)

	flags = sceneFlags{bounds: "0,0,0,1,2,3", maxDepth: 4}
	s, err = flags.apply(scene{})
	require.NoError(t, err)
	require.True(t, s.known)
	tree, err := s.newTree()
	require.NoError(t, err)
	require.Equal(t, 4, tree.MaxDepth())
}

func TestSceneFlagsPartialOverride(t *testing.T) {
	stored := scene{bounds: [6]float64{0, 0, 0, 8, 8, 8}, maxDepth: 5, known: true}

	flags := sceneFlags{maxDepth: 2}
	s, err := flags.apply(stored)
	require.NoError(t, err)
	require.Equal(t, 2, s.maxDepth)
	require.Equal(t, stored.bounds, s.bounds)

	flags = sceneFlags{bounds: "1,1,1,2,2,2", maxDepth: -1}
	s, err = flags.apply(stored)
	require.NoError(t, err)
	require.Equal(t, 5, s.maxDepth)
	require.Equal(t, [6]float64{1, 1, 1, 2, 2, 2}, s.bounds)
}

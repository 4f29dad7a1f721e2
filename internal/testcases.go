// Package internal holds deterministic node payload sets shared by store tests.
package internal

import (
	"fmt"
	"math/rand/v2"

	"github.com/eak1mov/go-octiles/octree"
)

type Case struct {
	Name     string
	Payloads map[octree.ID][]byte
}

// Cases returns payload sets of increasing size. Generation is seeded so
// every call returns the same data.
func Cases() []Case {
	return []Case{
		{Name: "empty", Payloads: map[octree.ID][]byte{}},
		{Name: "root", Payloads: map[octree.ID][]byte{0: []byte("root")}},
		{Name: "full3", Payloads: fullLevels(3)},
		{Name: "sparse", Payloads: randomPaths(2000, 8, 1)},
		{Name: "duplicates", Payloads: duplicates(1000)},
		{Name: "large", Payloads: randomPaths(50000, 10, 2)},
	}
}

func payload(id octree.ID) []byte {
	return fmt.Appendf(nil, "node-%d-level-%d", id, id.Level())
}

func fullLevels(depth int) map[octree.ID][]byte {
	payloads := make(map[octree.ID][]byte)
	for id := range octree.LevelStart(depth + 1) {
		payloads[id] = payload(id)
	}
	return payloads
}

func randomPaths(count, maxLevel int, seed uint64) map[octree.ID][]byte {
	rnd := rand.New(rand.NewPCG(seed, 0x6f6374696c6573))
	payloads := make(map[octree.ID][]byte)
	for range count {
		id := octree.ID(0)
		for range 1 + rnd.IntN(maxLevel) {
			id = id.Child(rnd.IntN(8))
		}
		payloads[id] = payload(id)
	}
	return payloads
}

// duplicates shares a handful of payloads between consecutive ids, so
// stores that deduplicate content get runs to compact.
func duplicates(count int) map[octree.ID][]byte {
	payloads := make(map[octree.ID][]byte)
	for i := range count {
		payloads[octree.ID(i)] = fmt.Appendf(nil, "shared-%d", i/50)
	}
	return payloads
}

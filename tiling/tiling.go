// Package tiling drives an octree as a streaming index: it learns which
// nodes carry payloads from a store, selects a level-of-detail node set for a
// viewpoint and loads the payloads of that selection.
package tiling

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/eak1mov/go-octiles/octree"
	"github.com/eak1mov/go-octiles/store"
	"github.com/golang/geo/r3"
)

var ErrTooDeep = errors.New("octiles: node deeper than tree max depth")

// DefaultErrorThreshold is the minimum ratio between a node bounding sphere
// radius and its distance to the eye for the node to be refined.
const DefaultErrorThreshold = 0.05

const minDistance = 1e-9

// Tiler selects and loads nodes of a single tree. It is not safe for
// concurrent use.
type Tiler struct {
	tree      *octree.Tree
	logger    *slog.Logger
	threshold float64

	// subtree payload counts, including the node itself
	subtreeObjects map[octree.ID]int
	// objects added to each node by the last Populate
	populated map[*octree.Node]int
}

type config struct {
	Logger    *slog.Logger
	Threshold float64
}

type Option func(*config)

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.Logger = logger }
}

// WithErrorThreshold overrides DefaultErrorThreshold. Lower values select
// more, deeper nodes.
func WithErrorThreshold(threshold float64) Option {
	return func(c *config) { c.Threshold = threshold }
}

func New(tree *octree.Tree, opts ...Option) *Tiler {
	cfg := config{
		Logger:    slog.New(slog.DiscardHandler),
		Threshold: DefaultErrorThreshold,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Tiler{
		tree:           tree,
		logger:         cfg.Logger,
		threshold:      cfg.Threshold,
		subtreeObjects: make(map[octree.ID]int),
		populated:      make(map[*octree.Node]int),
	}
}

func (t *Tiler) Tree() *octree.Tree { return t.tree }

// SubtreeObjects returns the number of populated payloads in the subtree
// rooted at id.
func (t *Tiler) SubtreeObjects(id octree.ID) int {
	return t.subtreeObjects[id]
}

// Populate materializes the node of every non-empty payload in v and counts
// it as one object. Stores implementing store.LocationVisitor are scanned
// without reading payload data.
//
// Counts from a previous Populate are withdrawn first, so calling it again
// recounts rather than accumulates. Nodes materialized by a failed call stay
// in the tree with their partial counts until the next Populate.
func (t *Tiler) Populate(v store.Visitor) error {
	t.reset()
	count := 0
	add := func(id octree.ID) error {
		if id.Valid() && id.Level() > t.tree.MaxDepth() {
			return fmt.Errorf("%w: node %d at level %d", ErrTooDeep, id, id.Level())
		}
		node, err := t.tree.Resolve(id)
		if err != nil {
			return err
		}
		node.AddObjects(1)
		t.populated[node]++
		for n := node; n != nil; n = n.Parent() {
			t.subtreeObjects[n.ID()]++
		}
		count++
		return nil
	}

	var err error
	if lv, ok := v.(store.LocationVisitor); ok {
		err = lv.VisitLocations(func(id octree.ID, location store.Location) error {
			if location.Length == 0 {
				return nil
			}
			return add(id)
		})
	} else {
		err = v.VisitPayloads(func(id octree.ID, data []byte) error {
			if len(data) == 0 {
				return nil
			}
			return add(id)
		})
	}
	t.logger.Debug("octiles: populated", "objects", count)
	return err
}

func (t *Tiler) reset() {
	for node, count := range t.populated {
		node.AddObjects(-count)
	}
	clear(t.populated)
	clear(t.subtreeObjects)
}

func (t *Tiler) refine(eye r3.Vector, node *octree.Node) bool {
	if t.subtreeObjects[node.ID()] == 0 {
		return false
	}
	if node.Level() == 0 {
		return true
	}
	c := node.Center()
	radius := node.BoundingSphereRadius()
	distance := max(eye.Distance(r3.Vector{X: c[0], Y: c[1], Z: c[2]})-radius, minDistance)
	return radius/distance >= t.threshold
}

// Select returns, in level order, the nodes to show from eye: the root and
// every node with payloads in its subtree whose projected size passes the
// error threshold, provided its parent was selected. The selection replaces
// the tree's cached list.
func (t *Tiler) Select(eye r3.Vector) []*octree.Node {
	nodes := t.tree.ExtractList(func(node *octree.Node) bool {
		return t.refine(eye, node)
	})
	t.tree.SetCached(nodes)
	t.logger.Debug("octiles: selected", "nodes", len(nodes), "eye", eye)
	return nodes
}

// Replay visits the last selection again without re-evaluating it.
func (t *Tiler) Replay(visit func(node *octree.Node)) {
	t.tree.ReplayCached(visit)
}

// Load reads the payloads of the last selection from r and passes the
// non-empty ones to fn, in selection order.
func (t *Tiler) Load(r store.Reader, fn func(node *octree.Node, data []byte) error) error {
	for _, node := range t.tree.Cached() {
		data, err := r.ReadPayload(node.ID())
		if err != nil {
			return err
		}
		if len(data) == 0 {
			continue
		}
		if err := fn(node, data); err != nil {
			return err
		}
	}
	return nil
}

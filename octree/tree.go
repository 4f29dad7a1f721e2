package octree

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
)

var (
	ErrInvalidBounds = errors.New("octiles: invalid scene bounds")
	ErrInvalidDepth  = errors.New("octiles: invalid max depth")
)

// Tree wraps the root node of an octree covering the whole scene.
type Tree struct {
	root     *Node
	maxDepth int
	cached   []*Node
	logger   *slog.Logger
}

type treeConfig struct {
	Quantizer Quantizer
	Logger    *slog.Logger
}

type Option func(*treeConfig)

// WithQuantizer sets the provider of per-node quantization matrices.
// Without it every node gets identity matrices.
func WithQuantizer(q Quantizer) Option {
	return func(c *treeConfig) { c.Quantizer = q }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *treeConfig) { c.Logger = logger }
}

// NewTree creates a tree over scene bounds given as
// [minX, minY, minZ, maxX, maxY, maxZ]. maxDepth is the deepest level swept by
// TraverseAll; nodes below it can still be created explicitly.
func NewTree(scene [6]float64, maxDepth int, opts ...Option) (*Tree, error) {
	config := treeConfig{
		Quantizer: identityQuantizer{},
		Logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	bounds := BoundsFromMinMax(scene)
	for _, extent := range bounds[3:] {
		if !(extent >= 0) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBounds, scene)
		}
	}
	if maxDepth < 0 || maxDepth > MaxLevel {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, maxDepth)
	}

	return &Tree{
		root:     newNode(config.Quantizer, nil, 0, bounds, 0),
		maxDepth: maxDepth,
		logger:   config.Logger,
	}, nil
}

func (t *Tree) Root() *Node { return t.root }

func (t *Tree) MaxDepth() int { return t.maxDepth }

// Resolve returns the node with the given id, creating it if needed.
func (t *Tree) Resolve(id ID) (*Node, error) {
	return t.root.Resolve(id)
}

// Walk visits every materialized node in pre-order, see Node.Walk.
func (t *Tree) Walk(visit func(node *Node, level int), leavesOnly bool) {
	t.root.Walk(visit, leavesOnly, 0)
}

// TraverseAll visits the materialized nodes level by level, from the root
// down to MaxDepth. When visit returns false for a node, none of its
// descendants are visited later in the sweep.
func (t *Tree) TraverseAll(visit func(node *Node) bool) {
	skip := make(SkipSet)
	for level := 0; level <= t.maxDepth; level++ {
		t.root.TraverseLevel(visit, level, skip)
	}
}

// Levels returns an iterator over the materialized nodes in level order,
// without pruning.
func (t *Tree) Levels() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		stopped := false
		visit := func(node *Node) bool {
			if stopped {
				return false
			}
			if !yield(node) {
				stopped = true
				return false
			}
			return true
		}
		skip := make(SkipSet)
		for level := 0; level <= t.maxDepth && !stopped; level++ {
			t.root.TraverseLevel(visit, level, skip)
		}
	}
}

// ExtractList returns, in level order, the nodes accepted by keep. The
// subtree of a rejected node is not considered.
func (t *Tree) ExtractList(keep func(node *Node) bool) []*Node {
	list := make([]*Node, 0)
	t.TraverseAll(func(node *Node) bool {
		if keep(node) {
			list = append(list, node)
			return true
		}
		return false
	})
	t.logger.Debug("octiles: extracted nodes", "count", len(list))
	return list
}

// SetCached stores a node list for ReplayCached.
func (t *Tree) SetCached(nodes []*Node) {
	t.cached = nodes
}

func (t *Tree) Cached() []*Node { return t.cached }

func (t *Tree) ClearCache() { t.cached = nil }

// ReplayCached visits the stored node list in order.
func (t *Tree) ReplayCached(visit func(node *Node)) {
	for _, node := range t.cached {
		visit(node)
	}
}

package octree

import "iter"

// SkipSet holds the ids of nodes whose subtrees are pruned from a
// level-order sweep.
type SkipSet map[ID]struct{}

func (s SkipSet) Add(id ID) { s[id] = struct{}{} }

func (s SkipSet) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Walk visits the materialized subtree of n in pre-order, passing each node
// with its depth relative to the starting level. Children are visited in
// octant order. With leavesOnly set, only nodes without children are visited.
// Walk never creates nodes.
func (n *Node) Walk(visit func(node *Node, level int), leavesOnly bool, level int) {
	if !leavesOnly || n.leaf {
		visit(n, level)
	}
	for _, child := range n.children {
		if child != nil {
			child.Walk(visit, leavesOnly, level+1)
		}
	}
}

// All returns an iterator over the same sequence Walk visits, starting at
// level 0.
func (n *Node) All(leavesOnly bool) iter.Seq2[*Node, int] {
	return func(yield func(*Node, int) bool) {
		var walk func(node *Node, level int) bool
		walk = func(node *Node, level int) bool {
			if (!leavesOnly || node.leaf) && !yield(node, level) {
				return false
			}
			for _, child := range node.children {
				if child != nil && !walk(child, level+1) {
					return false
				}
			}
			return true
		}
		walk(n, 0)
	}
}

// TraverseLevel visits the materialized nodes of the subtree of n lying at
// the given absolute level. Nodes listed in skip are not visited and their
// subtrees are not entered. When visit returns false the node is added to
// skip, so that sweeps over deeper levels sharing the same set leave its
// descendants out. A nil skip set disables pruning.
func (n *Node) TraverseLevel(visit func(node *Node) bool, level int, skip SkipSet) {
	if skip != nil && skip.Has(n.id) {
		return
	}
	if n.level == level {
		if !visit(n) && skip != nil {
			skip.Add(n.id)
		}
	}
	if n.level >= level {
		return
	}
	for _, child := range n.children {
		if child != nil {
			child.TraverseLevel(visit, level, skip)
		}
	}
}

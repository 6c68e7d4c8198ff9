package lattice

// CollapsedSet tracks which nodes currently hide their children. The subtree
// below a collapsed node stays loaded in the snapshot but is skipped by the
// layout pass, so expanding again needs no rebuild.
//
// The set starts empty for every new center node and is mutated only by
// explicit toggles or the bulk operations; it survives re-layouts triggered
// by container resizes.
type CollapsedSet struct {
	ids map[string]struct{}
}

// NewCollapsedSet returns an empty set.
func NewCollapsedSet() *CollapsedSet {
	return &CollapsedSet{ids: make(map[string]struct{})}
}

// Contains reports whether the node is collapsed.
func (s *CollapsedSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Toggle flips a node's collapsed state.
func (s *CollapsedSet) Toggle(id string) {
	if s.Contains(id) {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
}

// Len returns the number of collapsed nodes.
func (s *CollapsedSet) Len() int {
	return len(s.ids)
}

// ExpandAll clears the set.
func (s *CollapsedSet) ExpandAll() {
	clear(s.ids)
}

// CollapseAll marks every node in the tree that has at least one child.
// Leaves are never members; collapsing a leaf would hide nothing.
func (s *CollapsedSet) CollapseAll(root *TreeNode) {
	if root == nil {
		return
	}
	root.Walk(func(n *TreeNode) {
		if n.HasChildren() {
			s.ids[n.ID] = struct{}{}
		}
	})
}

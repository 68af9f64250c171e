package node

import "mctscore/position"

// Tree owns a search tree's root and implements reuse across moves: rather
// than rebuilding from scratch after the host plays a move, it walks the old
// root down to the matching child and promotes that subtree, discarding
// siblings. Grounded on the teacher's findRoot/traverse walk in
// searcher/mcts.go, which does the same thing over its Segment{Move,
// StateHash} path.
type Tree struct {
	root *Node
}

// NewTree starts a fresh tree with an unexpanded root.
func NewTree() *Tree {
	return &Tree{root: New(nil, nil)}
}

// Root returns the current root node.
func (t *Tree) Root() *Node {
	return t.root
}

// Reuse walks the current root along the given sequence of moves (the moves
// played since the last search) and, if every move matches an already
// expanded child, promotes that descendant to be the new root. If any move
// along the path has no matching child — because the old search never
// visited it, or the position was reset out-of-band — the tree is discarded
// and rebuilt fresh, which is always correct, just slower.
func (t *Tree) Reuse(moves []position.Move) {
	cur := t.root
	for _, m := range moves {
		if cur == nil {
			break
		}
		cur = cur.ChildByMove(m)
	}
	if cur == nil {
		t.root = New(nil, nil)
		return
	}
	cur.parent = nil
	t.root = cur
}

// Reset discards the current tree outright, used when the host sets a
// position that isn't a descendant of the current root (UCI "position"
// without a preceding "go", or a new game).
func (t *Tree) Reset() {
	t.root = New(nil, nil)
}

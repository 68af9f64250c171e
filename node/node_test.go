package node

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mctscore/position"
)

type stubMove struct{ idx uint16 }

func (m stubMove) Index() uint16                  { return m.idx }
func (m stubMove) String(blackToMove bool) string { return "m" }

func legalMoves(n int) []position.Move {
	moves := make([]position.Move, n)
	for i := range moves {
		moves[i] = stubMove{idx: uint16(i)}
	}
	return moves
}

// extendRoot is shorthand for the common case in these tests: extending a
// root node (no draw-by-rule shortcut, white to move) with no check.
func extendRoot(n *Node, moves []position.Move) {
	n.Extend(moves, false, false, true, false)
}

func TestExtendCreatesOneChildPerMove(t *testing.T) {
	root := New(nil, nil)
	extendRoot(root, legalMoves(3))

	require.True(t, root.IsExtended())
	require.True(t, root.HasChildren())
	require.Len(t, root.Children(), 3)
	require.False(t, root.IsTerminal())
}

func TestExtendWithNoMovesAndNotInCheckIsStalemateDraw(t *testing.T) {
	n := New(nil, nil)
	n.Extend(nil, false, false, false, false)

	require.True(t, n.IsTerminal())
	require.Equal(t, position.Draw, n.TerminalResult())
	require.False(t, n.HasChildren())
}

func TestExtendWithNoMovesAndInCheckIsCheckmate(t *testing.T) {
	n := New(nil, nil)
	n.Extend(nil, true, true, false, false) // black to move, checkmated

	require.True(t, n.IsTerminal())
	require.Equal(t, position.WhiteWon, n.TerminalResult())
}

func TestExtendTwicePanics(t *testing.T) {
	n := New(nil, nil)
	extendRoot(n, legalMoves(1))
	require.Panics(t, func() {
		extendRoot(n, legalMoves(1))
	})
}

func TestExtendNonRootDrawByRule(t *testing.T) {
	n := New(nil, nil)
	n.Extend(legalMoves(2), false, false, false, true)

	require.True(t, n.IsTerminal())
	require.Equal(t, position.Draw, n.TerminalResult())
}

// TestTryStartScoreUpdateCollision covers invariant 4 (collision safety): a
// second visit reaching an unexpanded leaf while a first visit is still
// in-flight must be reported as a collision, not double-counted.
func TestTryStartScoreUpdateCollision(t *testing.T) {
	n := New(nil, nil)

	collided := n.TryStartScoreUpdate()
	require.False(t, collided)
	require.Equal(t, 1, n.NStarted())

	collided = n.TryStartScoreUpdate()
	require.True(t, collided, "second in-flight visit to an unexpanded leaf must collide")
	require.Equal(t, 1, n.NStarted(), "a collision must not increment NStarted")
}

func TestTryStartScoreUpdateAllowedOnceExtended(t *testing.T) {
	n := New(nil, nil)
	n.TryStartScoreUpdate()
	extendRoot(n, legalMoves(1))

	collided := n.TryStartScoreUpdate()
	require.False(t, collided, "once a node has children, further visits descend instead of colliding")
	require.Equal(t, 2, n.NStarted())
}

func TestCancelScoreUpdateUndoesInFlightVisit(t *testing.T) {
	n := New(nil, nil)
	n.TryStartScoreUpdate()
	n.CancelScoreUpdate()
	require.Equal(t, 0, n.NStarted())
	require.Equal(t, 0, n.N())
}

// TestFinalizeScoreUpdateBalance covers invariant 1: after every in-flight
// visit is either finalized or cancelled, NStarted must equal N.
func TestFinalizeScoreUpdateBalance(t *testing.T) {
	n := New(nil, nil)
	n.TryStartScoreUpdate()
	n.FinalizeScoreUpdate(0.5, DefaultBackupParams)

	require.Equal(t, 1, n.N())
	require.Equal(t, n.N(), n.NStarted())
	require.InDelta(t, 0.5, n.Q(0), 1e-9)
}

func TestFinalizeScoreUpdateAveragesAtDefaultParams(t *testing.T) {
	n := New(nil, nil)
	for _, v := range []float64{1, 0, 0.5} {
		n.TryStartScoreUpdate()
		n.FinalizeScoreUpdate(v, DefaultBackupParams)
	}
	require.InDelta(t, 0.5, n.Q(0), 1e-9)
	require.Equal(t, 3, n.N())
}

func TestQFallbackWhenUnvisited(t *testing.T) {
	n := New(nil, nil)
	require.InDelta(t, -0.3, n.Q(-0.3), 1e-9)
}

func TestUDecreasesAsVisitsAccumulate(t *testing.T) {
	n := New(nil, nil)
	n.SetP(0.5)
	first := n.U()

	n.TryStartScoreUpdate()
	second := n.U()

	require.Greater(t, first, second, "U must shrink as NStarted grows")
}

func TestMaxDepthIsMonotonic(t *testing.T) {
	n := New(nil, nil)
	n.UpdateMaxDepth(3)
	n.UpdateMaxDepth(1)
	require.Equal(t, uint16(3), n.MaxDepth())
}

func TestMakeTerminalIsMonotonic(t *testing.T) {
	n := New(nil, nil)
	n.MakeTerminal(position.WhiteWon)
	require.NotPanics(t, func() { n.MakeTerminal(position.WhiteWon) })
	require.Panics(t, func() { n.MakeTerminal(position.Draw) })
}

func TestChildrenVisitsSumsChildN(t *testing.T) {
	root := New(nil, nil)
	extendRoot(root, legalMoves(2))
	children := root.Children()

	children[0].TryStartScoreUpdate()
	children[0].FinalizeScoreUpdate(1, DefaultBackupParams)
	children[1].TryStartScoreUpdate()
	children[1].FinalizeScoreUpdate(0, DefaultBackupParams)

	require.Equal(t, 2, root.ChildrenVisits())
}

func TestTreeReusePromotesMatchingChild(t *testing.T) {
	tree := NewTree()
	extendRoot(tree.Root(), legalMoves(2))
	target := tree.Root().ChildByMove(stubMove{idx: 1})

	tree.Reuse([]position.Move{stubMove{idx: 1}})

	require.Same(t, target, tree.Root())
	require.Nil(t, tree.Root().Parent())
}

func TestTreeReuseRebuildsOnUnknownMove(t *testing.T) {
	tree := NewTree()
	extendRoot(tree.Root(), legalMoves(1))

	tree.Reuse([]position.Move{stubMove{idx: 99}})

	require.False(t, tree.Root().IsExtended())
}

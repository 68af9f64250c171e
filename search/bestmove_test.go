package search

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"mctscore/node"
	"mctscore/position"
)

type stubMove struct{ idx uint16 }

func (m stubMove) Index() uint16                  { return m.idx }
func (m stubMove) String(blackToMove bool) string { return "m" }

func extendRoot(n *node.Node, count int) {
	moves := make([]position.Move, count)
	for i := range moves {
		moves[i] = stubMove{idx: uint16(i)}
	}
	n.Extend(moves, false, false, true, false)
}

func visit(n *node.Node, times int, value float64) {
	for i := 0; i < times; i++ {
		n.TryStartScoreUpdate()
		n.FinalizeScoreUpdate(value, node.DefaultBackupParams)
	}
}

func TestEffectiveTemperatureDecaysLinearly(t *testing.T) {
	temp := effectiveTemperature(1.0, 10, 5)
	require.InDelta(t, 0.5, temp, 1e-9)
}

func TestEffectiveTemperatureZeroAfterDecayMoves(t *testing.T) {
	require.Equal(t, 0.0, effectiveTemperature(1.0, 10, 10))
	require.Equal(t, 0.0, effectiveTemperature(1.0, 10, 20))
}

func TestEffectiveTemperatureConstantWhenNoDecayConfigured(t *testing.T) {
	require.Equal(t, 0.7, effectiveTemperature(0.7, 0, 50))
}

func TestArgMaxByVisitsPicksHighestN(t *testing.T) {
	root := node.New(nil, nil)
	extendRoot(root, 3)
	children := root.Children()
	visit(children[0], 2, 0)
	visit(children[1], 5, 0)
	visit(children[2], 1, 0)

	best := argMaxByVisits(children)
	require.Same(t, children[1], best)
}

func TestSampleByTemperatureZeroEqualsArgMax(t *testing.T) {
	root := node.New(nil, nil)
	extendRoot(root, 2)
	children := root.Children()
	visit(children[0], 1, 0)
	visit(children[1], 9, 0)

	rng := rand.New(rand.NewSource(1))
	chosen := sampleByTemperature(children, 0, rng)
	require.Same(t, children[1], chosen)
}

func TestSampleByTemperatureFallsBackToArgMaxWhenAllUnvisited(t *testing.T) {
	root := node.New(nil, nil)
	extendRoot(root, 2)
	children := root.Children()

	rng := rand.New(rand.NewSource(1))
	chosen := sampleByTemperature(children, 1.0, rng)
	require.NotNil(t, chosen)
}

func TestPVStopsAtUnvisitedChild(t *testing.T) {
	root := node.New(nil, nil)
	extendRoot(root, 2)
	children := root.Children()
	visit(children[0], 3, 0)
	// children[0] extended one level further; children[1] never visited.
	extendRoot(children[0], 2)

	line := pv(root, 10)
	require.Len(t, line, 1, "pv stops once it reaches a node with no visited children")
	require.Equal(t, uint16(0), line[0].Index())
}

func TestScoreCentipawnsIsMonotonicInQ(t *testing.T) {
	low := scoreCentipawns(-0.5)
	mid := scoreCentipawns(0)
	high := scoreCentipawns(0.5)
	require.Less(t, low, mid)
	require.Less(t, mid, high)
	require.InDelta(t, 0, mid, 1e-9)
}

func TestVerboseMoveStatsReportsOneEntryPerChild(t *testing.T) {
	root := node.New(nil, nil)
	extendRoot(root, 3)
	stats := verboseMoveStats(root, 0)
	require.Len(t, stats, 3)
}

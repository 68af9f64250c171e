package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mctscore/chess"
	"mctscore/internal/config"
	"mctscore/netstub"
	"mctscore/position"
)

func newTestController(t *testing.T, threads, miniBatch int) *Controller {
	t.Helper()
	cfg := config.New(
		config.WithThreads(threads),
		config.WithMiniBatchSize(miniBatch),
		config.WithDirichletNoise(false),
	)
	return NewController(
		WithConfig(cfg),
		WithEvaluator(netstub.New()),
		WithEncoder(chess.EncodePlanes),
	)
}

func isLegalMove(pos position.Position, m position.Move) bool {
	for _, legal := range pos.LegalMoves() {
		if legal.Index() == m.Index() {
			return true
		}
	}
	return false
}

func TestControllerReturnsLegalMoveWithinPlayoutBudget(t *testing.T) {
	c := newTestController(t, 2, 8)
	root := chess.NewGame()

	err := c.Start(root, Limits{Playouts: 64})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	result, err := c.Wait(ctx)
	require.NoError(t, err)
	require.True(t, isLegalMove(root, result.Move))
}

func TestControllerNStartedBalancesAfterWait(t *testing.T) {
	c := newTestController(t, 3, 16)
	root := chess.NewGame()

	require.NoError(t, c.Start(root, Limits{Playouts: 128}))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := c.Wait(ctx)
	require.NoError(t, err)

	rootNode := c.tree.Root()
	require.Equal(t, rootNode.N(), rootNode.NStarted(), "every in-flight visit must be finalized or cancelled by the time the search is done")
	require.False(t, c.IsRunning())
}

func TestControllerSearchMovesRestrictsToOneMoveStopsImmediately(t *testing.T) {
	c := newTestController(t, 2, 8)
	root := chess.NewGame()
	legal := root.LegalMoves()
	require.NotEmpty(t, legal)

	err := c.Start(root, Limits{SearchMoves: []position.Move{legal[0]}, Playouts: 100000})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	result, err := c.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, legal[0].Index(), result.Move.Index(), "restricted to one legal move, the search must return exactly that move")
}

func TestControllerPVNonEmptyAfterSearch(t *testing.T) {
	c := newTestController(t, 2, 8)
	root := chess.NewGame()
	require.NoError(t, c.Start(root, Limits{Playouts: 64}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := c.Wait(ctx)
	require.NoError(t, err)

	line := c.PV(10)
	require.NotEmpty(t, line)
}

func TestControllerVerboseMoveStatsCoversEveryRootChild(t *testing.T) {
	c := newTestController(t, 2, 8)
	root := chess.NewGame()
	require.NoError(t, c.Start(root, Limits{Playouts: 64}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := c.Wait(ctx)
	require.NoError(t, err)

	stats := c.VerboseMoveStats()
	require.Len(t, stats, len(root.LegalMoves()))
}

func TestControllerRejectsConcurrentStart(t *testing.T) {
	c := newTestController(t, 1, 4)
	root := chess.NewGame()
	require.NoError(t, c.Start(root, Limits{MoveTime: 200 * time.Millisecond}))

	err := c.Start(root, Limits{MoveTime: 200 * time.Millisecond})
	require.ErrorIs(t, err, ErrAlreadyRunning)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = c.Wait(ctx)
}

func TestControllerNewGameResetsRootVisits(t *testing.T) {
	c := newTestController(t, 2, 8)
	root := chess.NewGame()
	require.NoError(t, c.Start(root, Limits{Playouts: 32}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := c.Wait(ctx)
	require.NoError(t, err)
	require.Greater(t, c.tree.Root().N(), 0)

	c.NewGame()
	require.Equal(t, 0, c.tree.Root().N())
}

func TestControllerStopEndsAnInfiniteSearch(t *testing.T) {
	c := newTestController(t, 2, 8)
	root := chess.NewGame()
	require.NoError(t, c.Start(root, Limits{Infinite: true}))

	time.Sleep(50 * time.Millisecond)
	c.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := c.Wait(ctx)
	require.NoError(t, err)
	require.False(t, c.IsRunning())
}

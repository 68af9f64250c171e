package protocol

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mctscore/chess"
	"mctscore/internal/config"
	"mctscore/netstub"
	"mctscore/nn"
	"mctscore/position"
	"mctscore/search"
)

func isLegalMove(pos position.Position, m position.Move) bool {
	for _, legal := range pos.LegalMoves() {
		if legal.Index() == m.Index() {
			return true
		}
	}
	return false
}

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	return NewAdapter(
		WithConfig(config.New(
			config.WithThreads(2),
			config.WithMiniBatchSize(8),
			config.WithDirichletNoise(false),
		)),
		WithEvaluatorFactory(func() (nn.Evaluator, error) { return netstub.New(), nil }),
		WithEncoder(chess.EncodePlanes),
	)
}

func TestAdapterGoRequiresSetPositionFirst(t *testing.T) {
	a := newTestAdapter(t)
	_, err := a.Go(search.Limits{Playouts: 8})
	require.Error(t, err)
}

func TestAdapterSetPositionThenGoReturnsLegalMove(t *testing.T) {
	a := newTestAdapter(t)
	root := chess.NewGame()
	require.NoError(t, a.SetPosition(root, nil))

	id, err := a.Go(search.Limits{Playouts: 32})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	result, err := a.Wait(ctx)
	require.NoError(t, err)
	require.True(t, isLegalMove(root, result.Move))
}

func TestAdapterNewGameThenSetPositionSearchesAgain(t *testing.T) {
	a := newTestAdapter(t)
	root := chess.NewGame()
	require.NoError(t, a.SetPosition(root, nil))
	_, err := a.Go(search.Limits{Playouts: 16})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = a.Wait(ctx)
	require.NoError(t, err)

	require.NoError(t, a.NewGame())
	require.NoError(t, a.SetPosition(root, nil))
	_, err = a.Go(search.Limits{Playouts: 16})
	require.NoError(t, err)
	_, err = a.Wait(ctx)
	require.NoError(t, err)
}

func TestAdapterSetOptionRejectsUnknownName(t *testing.T) {
	a := newTestAdapter(t)
	err := a.SetOption("not-a-real-option", "1")
	require.Error(t, err)
}

func TestAdapterSetOptionAppliesBeforeNextGame(t *testing.T) {
	a := newTestAdapter(t)
	require.NoError(t, a.SetOption("threads", "4"))
	root := chess.NewGame()
	require.NoError(t, a.SetPosition(root, nil))
	require.Equal(t, 4, a.cfg.Threads)
}

func TestAdapterEnsureReadyWithNoEvaluatorFactoryFails(t *testing.T) {
	a := NewAdapter(WithEncoder(chess.EncodePlanes))
	err := a.EnsureReady()
	require.ErrorIs(t, err, ErrNoWeights)
}

func TestAdapterStopEndsAnInfiniteSearch(t *testing.T) {
	a := newTestAdapter(t)
	root := chess.NewGame()
	require.NoError(t, a.SetPosition(root, nil))
	_, err := a.Go(search.Limits{Infinite: true})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	a.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = a.Wait(ctx)
	require.NoError(t, err)
	require.False(t, a.IsRunning())
}

package selfplay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mctscore/chess"
	"mctscore/internal/config"
	"mctscore/netstub"
	"mctscore/position"
	"mctscore/search"
)

func newTestController(t *testing.T) *search.Controller {
	t.Helper()
	cfg := config.New(
		config.WithThreads(2),
		config.WithMiniBatchSize(8),
		config.WithDirichletNoise(false),
	)
	return search.NewController(
		search.WithConfig(cfg),
		search.WithEvaluator(netstub.New()),
		search.WithEncoder(chess.EncodePlanes),
	)
}

func TestPlayGameReachesATerminalOrTruncatedResult(t *testing.T) {
	controller := newTestController(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := PlayGame(ctx, controller, controller, chess.NewGame(), Config{
		MaxPlies: 4,
		Limits:   search.Limits{Playouts: 16},
	})
	require.NoError(t, err)
	require.LessOrEqual(t, result.Plies, 4)
	require.Len(t, result.Moves, result.Plies)
	require.Len(t, result.Examples, result.Plies)
}

func TestPlayGameRecordsAPolicyThatSumsToOne(t *testing.T) {
	controller := newTestController(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := PlayGame(ctx, controller, controller, chess.NewGame(), Config{
		MaxPlies: 1,
		Limits:   search.Limits{Playouts: 32},
	})
	require.NoError(t, err)
	require.Len(t, result.Examples, 1)

	var total float64
	for _, p := range result.Examples[0].Policy {
		total += p
	}
	require.InDelta(t, 1.0, total, 1e-6)
}

func TestBackfillValuesAssignsWinnerPlusOneAndLoserMinusOne(t *testing.T) {
	// index 0/2 are white-to-move examples, index 1 is black-to-move.
	examples := []TrainingExample{{}, {}, {}}
	backfillValues(examples, position.WhiteWon, 3)

	require.Equal(t, 1.0, examples[0].Value)
	require.Equal(t, -1.0, examples[1].Value)
	require.Equal(t, 1.0, examples[2].Value)
}

func TestBackfillValuesAssignsZeroOnDraw(t *testing.T) {
	examples := []TrainingExample{{}, {}}
	backfillValues(examples, position.Draw, 2)

	require.Equal(t, 0.0, examples[0].Value)
	require.Equal(t, 0.0, examples[1].Value)
}

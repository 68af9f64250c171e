package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mctscore/chess"
	"mctscore/internal/metrics"
	"mctscore/netstub"
	"mctscore/position"
	"mctscore/search"
	"mctscore/selfplay"
)

var (
	selfplayGames    int
	selfplayPlayouts int
	selfplayMaxPlies int
)

var selfplayCmd = &cobra.Command{
	Use:   "selfplay",
	Short: "Play engine-vs-itself games and report the results",
	RunE:  runSelfplay,
}

func init() {
	selfplayCmd.Flags().IntVar(&selfplayGames, "games", 1, "number of games to play")
	selfplayCmd.Flags().IntVar(&selfplayPlayouts, "playouts", 800, "playout budget per move")
	selfplayCmd.Flags().IntVar(&selfplayMaxPlies, "max-plies", 0, "ply cap per game (0 = package default)")
}

func runSelfplay(cmd *cobra.Command, args []string) error {
	newController := func() *search.Controller {
		return search.NewController(
			search.WithConfig(cfg),
			search.WithEvaluator(netstub.New()),
			search.WithEncoder(chess.EncodePlanes),
			search.WithMetrics(metrics.NoOp()),
			search.WithLogger(log),
		)
	}

	newGame := func() position.Position { return chess.NewGame() }

	wins, draws, losses, games, err := selfplay.PlayMatch(
		context.Background(),
		newController(), newController(),
		newGame,
		selfplay.Config{
			MaxPlies: selfplayMaxPlies,
			Limits:   search.Limits{Playouts: selfplayPlayouts},
			Log:      log,
		},
		selfplayGames,
	)
	if err != nil {
		return err
	}

	fmt.Printf("games=%d wins=%d draws=%d losses=%d\n", len(games), wins, draws, losses)
	for i, g := range games {
		fmt.Printf("game %d: result=%s plies=%d truncated=%v\n", i, g.Result, g.Plies, g.Truncated)
	}
	return nil
}

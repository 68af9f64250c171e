package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mctscore/chess"
	"mctscore/internal/metrics"
	"mctscore/netstub"
	"mctscore/search"
)

var (
	benchPlayouts int
	benchMoveTime time.Duration
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run one fixed-budget search from the starting position and report throughput",
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchPlayouts, "playouts", 10000, "number of playouts to run (0 to use --movetime instead)")
	benchCmd.Flags().DurationVar(&benchMoveTime, "movetime", 0, "fixed search duration (overrides --playouts when non-zero)")
}

func runBench(cmd *cobra.Command, args []string) error {
	controller := search.NewController(
		search.WithConfig(cfg),
		search.WithEvaluator(netstub.New()),
		search.WithEncoder(chess.EncodePlanes),
		search.WithMetrics(metrics.NoOp()),
		search.WithLogger(log),
	)

	limits := search.Limits{Playouts: benchPlayouts}
	if benchMoveTime > 0 {
		limits = search.Limits{MoveTime: benchMoveTime}
	}

	root := chess.NewGame()
	start := time.Now()
	if err := controller.Start(root, limits); err != nil {
		return fmt.Errorf("enginectl: bench: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	result, err := controller.Wait(ctx)
	if err != nil {
		return fmt.Errorf("enginectl: bench: %w", err)
	}
	elapsed := time.Since(start)

	stats := controller.VerboseMoveStats()
	var nodes int
	for _, s := range stats {
		nodes += s.N
	}

	fmt.Printf("bestmove %s\n", result.Move.String(root.IsBlackToMove()))
	fmt.Printf("nodes %d\n", nodes)
	fmt.Printf("elapsed %s\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("nps %.0f\n", float64(nodes)/elapsed.Seconds())
	}
	return nil
}

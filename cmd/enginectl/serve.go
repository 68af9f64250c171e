package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mctscore/internal/metrics"
	"mctscore/netstub"
	"mctscore/nn"
	"mctscore/protocol"

	"mctscore/chess"
)

var streamAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin HTTP API and event stream against a long-lived search adapter",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "address for the admin HTTP API")
	serveCmd.Flags().StringVar(&streamAddr, "stream-addr", ":8081", "address for the live event stream (websocket)")
	serveCmd.Flags().BoolVar(&watchWeights, "watch-weights", true, "hot-reload the evaluator when the weights file changes")
	serveCmd.Flags().DurationVar(&debounce, "weights-debounce", 500*time.Millisecond, "debounce window for weights file change notifications")
}

// evaluatorFactory builds an EvaluatorFactory bound to weightsPath.
// Weight parsing itself stays out of scope (spec.md §1 Non-goals); this
// factory only checks the file exists before handing back package
// netstub's deterministic stand-in: an empty path surfaces as
// protocol.ErrNoWeights and a missing file as a wrapped stat error, the
// same way a real backend's load failure would. The file's contents are
// never read.
func evaluatorFactory(path string) protocol.EvaluatorFactory {
	return func() (nn.Evaluator, error) {
		if path == "" {
			return nil, protocol.ErrNoWeights
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("enginectl: weights file %q: %w", path, err)
		}
		return netstub.New(), nil
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// NewPrometheus registers against the default registerer/gatherer so
	// AdminServer's /metrics (backed by promhttp.Handler's default
	// gatherer) actually serves these series.
	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer)

	stream := protocol.NewStream(log)

	adapter := protocol.NewAdapter(
		protocol.WithConfig(cfg),
		protocol.WithEvaluatorFactory(evaluatorFactory(weightsPath)),
		protocol.WithEncoder(chess.EncodePlanes),
		protocol.WithMetrics(collector),
		protocol.WithLogger(log),
		protocol.WithOnProgress(stream.OnProgress),
		protocol.WithOnBestMove(stream.OnBestMove),
	)
	defer adapter.Close()

	if watchWeights && weightsPath != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := adapter.WatchWeights(ctx, weightsPath, debounce); err != nil {
			log.Warn().Err(err).Msg("enginectl: weights watcher failed to start")
		}
	}

	server := protocol.NewAdminServer(adapter, chessCodec{})

	streamEngine := gin.Default()
	streamEngine.GET("/stream", stream.Handler())

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", streamAddr).Msg("enginectl: serving event stream")
		errCh <- streamEngine.Run(streamAddr)
	}()
	go func() {
		log.Info().Str("addr", addr).Msg("enginectl: serving admin API")
		errCh <- server.Run(addr)
	}()
	return <-errCh
}

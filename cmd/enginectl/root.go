package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mctscore/internal/config"
)

// --- Global flags, package-level the way AleutianLocal/cmd/aleutian
// keeps its cobra flags (backendType, profile, ...) as package vars
// populated by PersistentFlags rather than threaded through every
// subcommand's Run signature. ---
var (
	configPath   string
	weightsPath  string
	verbose      bool
	addr         string
	watchWeights bool
	debounce     time.Duration

	cfg config.Config
	log zerolog.Logger

	rootCmd = &cobra.Command{
		Use:   "enginectl",
		Short: "Drive the search engine: serve it, run self-play games, or benchmark it",
		Long: `enginectl is the host process around the search core: it wires a
position/evaluator pair to the engine and exposes that through a
JSON admin API, a self-play game driver, or a one-shot benchmark,
depending on the subcommand.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).With().Timestamp().Logger()

			if configPath == "" {
				cfg = config.Default()
				return
			}
			loaded, err := config.LoadFile(configPath)
			if err != nil {
				log.Fatal().Err(err).Str("path", configPath).Msg("enginectl: failed to load config file")
			}
			cfg = loaded
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML option-table file (defaults baked in if omitted)")
	rootCmd.PersistentFlags().StringVar(&weightsPath, "weights", "", "path to the network weights file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(selfplayCmd)
	rootCmd.AddCommand(benchCmd)
}

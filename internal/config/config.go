// Package config centralizes the engine's tunable options: the table spec.md
// §6 describes as "configuration options" (threads, cpuct, temperature,
// noise, smart pruning, ...), loaded once at startup and threaded down into
// package search and package nn.
//
// Grounded on meta/meta.go's UPPER_SNAKE const-defaults idiom
// (GO_ROUTINES, EPISODES, WITH_CUTOFF, MAX_TURNS), generalized from a bag of
// package-level constants into a struct populated through the teacher's
// functional-options pattern (searcher/args.go, searcher/mcts.go's Option).
package config

import "time"

// Config holds every tunable the host protocol adapter can set via
// set_option before a search starts.
type Config struct {
	// Threads is the number of search worker goroutines.
	Threads int
	// MiniBatchSize is the number of leaves gathered before running the NN.
	MiniBatchSize int
	// MaxPrefetchBatch bounds how many extra cache-only prefetch requests
	// ride along with a real minibatch.
	MaxPrefetchBatch int
	// Cpuct is the PUCT exploration constant.
	Cpuct float64
	// FpuReduction lowers the first-play-urgency value used for an
	// unvisited child relative to its parent's Q.
	FpuReduction float64
	// CacheHistoryLength is how many preceding plies are folded into the
	// NN-cache hash alongside the current position.
	CacheHistoryLength int
	// PolicySoftmaxTemp divides policy logits before the softmax that
	// produces move priors.
	PolicySoftmaxTemp float64
	// Temperature controls move-selection randomness at the end of a
	// search; 0 means always pick the most-visited move.
	Temperature float64
	// TempDecayMoves is how many plies the temperature linearly decays to
	// zero over; 0 means no decay (constant temperature).
	TempDecayMoves int
	// DirichletNoise enables Dirichlet noise mixed into the root's priors.
	DirichletNoise bool
	// DirichletEpsilon and DirichletAlpha parameterize that noise.
	DirichletEpsilon float64
	DirichletAlpha   float64
	// VerboseMoveStats is loaded and carried with the rest of the
	// configuration, but the search core does not read it: progress events
	// carry no per-move stats, and Controller.VerboseMoveStats reports
	// per-move N/V/P/Q/U whether or not it is set.
	VerboseMoveStats bool
	// SmartPruning enables the early-stop heuristic that abandons a search
	// once no remaining playout budget could change the best move.
	SmartPruning bool
	// VirtualLossBug nudges Q away from 0 while a visit is in flight,
	// reducing (when positive) how strongly virtual losses discourage
	// revisiting a node before its real result lands.
	VirtualLossBug float64
	// AllowedNodeCollisions caps how many consecutive collisions (on any
	// leaves) a single GatherMinibatch call tolerates: once more than this
	// many occur in a row, the call stops gathering and the batch runs with
	// the leaves it already has. A successful pick resets the count; 0
	// disables the cap.
	AllowedNodeCollisions int
	// BackpropagateBeta and BackpropagateGamma are node.BackupParams'
	// gamma/beta, threaded through from configuration.
	BackpropagateBeta  float64
	BackpropagateGamma float64
	// NNCacheCapacity bounds the number of entries in the NN cache.
	NNCacheCapacity int
	// MoveOverhead is subtracted from the time manager's allocation to
	// account for non-search latency (network/UI round-trip).
	MoveOverhead time.Duration
}

// Option mutates a Config, following the teacher's functional-options
// pattern.
type Option func(*Config)

// Default returns the engine's default configuration. Numeric defaults
// follow spec.md §6's configuration table.
func Default() Config {
	return Config{
		Threads:                2,
		MiniBatchSize:          256,
		MaxPrefetchBatch:       32,
		Cpuct:                  3.4,
		FpuReduction:           0.9,
		CacheHistoryLength:     7,
		PolicySoftmaxTemp:      2.2,
		Temperature:            0,
		TempDecayMoves:         0,
		DirichletNoise:         false,
		DirichletEpsilon:       0.25,
		DirichletAlpha:         0.3,
		VerboseMoveStats:       false,
		SmartPruning:           true,
		VirtualLossBug:         0,
		AllowedNodeCollisions:  32,
		BackpropagateBeta:      1.0,
		BackpropagateGamma:     1.0,
		NNCacheCapacity:        200_000,
		MoveOverhead:           100 * time.Millisecond,
	}
}

// New builds a Config starting from the defaults and applying options in
// order, the same way searcher/mcts.go's NewMCTS applies its Option list.
func New(options ...Option) Config {
	cfg := Default()
	for _, opt := range options {
		opt(&cfg)
	}
	return cfg
}

func WithThreads(n int) Option              { return func(c *Config) { c.Threads = n } }
func WithMiniBatchSize(n int) Option        { return func(c *Config) { c.MiniBatchSize = n } }
func WithCpuct(v float64) Option            { return func(c *Config) { c.Cpuct = v } }
func WithTemperature(v float64) Option      { return func(c *Config) { c.Temperature = v } }
func WithTempDecayMoves(n int) Option       { return func(c *Config) { c.TempDecayMoves = n } }
func WithDirichletNoise(enabled bool) Option {
	return func(c *Config) { c.DirichletNoise = enabled }
}
func WithSmartPruning(enabled bool) Option {
	return func(c *Config) { c.SmartPruning = enabled }
}
func WithVerboseMoveStats(enabled bool) Option {
	return func(c *Config) { c.VerboseMoveStats = enabled }
}
func WithNNCacheCapacity(n int) Option { return func(c *Config) { c.NNCacheCapacity = n } }
func WithMoveOverhead(d time.Duration) Option {
	return func(c *Config) { c.MoveOverhead = d }
}

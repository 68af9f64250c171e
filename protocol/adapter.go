// Package protocol is the Host Protocol Adapter: a stateful command
// dispatcher (new_game/set_position/go/stop/ensure_ready) sitting between a
// text- or wire-framed host and package search's Controller, plus the
// operational surface (admin HTTP API, live event stream, weights hot
// reload) that turns the core into something actually operable.
//
// Grounded on engine/local.go's Engine/Run turn-loop and MCTSAdapter.FindMove
// adapter shape, generalized from Risk's per-turn action loop into a
// command dispatcher, and on communication/server/http_comm_server.go's
// stateful-mutex-guarded server pattern for the locking discipline below.
package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mctscore/internal/config"
	"mctscore/internal/metrics"
	"mctscore/nn"
	"mctscore/position"
	"mctscore/search"
	"mctscore/timemanager"
)

// ErrNoWeights is returned by NewGame, SetPosition and EnsureReady when no
// EvaluatorFactory was configured. An error from the factory itself is
// returned wrapped ("protocol: build evaluator: ...") instead.
var ErrNoWeights = errors.New("protocol: no evaluator available")

// EvaluatorFactory builds (or reloads) the network the adapter hands to
// every Controller it constructs. Weight file parsing and the actual
// backend are out of scope (spec.md §1 Non-goals); the factory is whatever
// the host wired in — package netstub's New for tests, something that
// parses a real weights file in a production host.
type EvaluatorFactory func() (nn.Evaluator, error)

// Option configures an Adapter, following the same functional-options
// idiom as search.Option and config.Option.
type Option func(*Adapter)

func WithConfig(cfg config.Config) Option              { return func(a *Adapter) { a.cfg = cfg } }
func WithEvaluatorFactory(f EvaluatorFactory) Option    { return func(a *Adapter) { a.evalFactory = f } }
func WithEncoder(enc nn.PlaneEncoder) Option            { return func(a *Adapter) { a.encoder = enc } }
func WithMetrics(m metrics.Collector) Option            { return func(a *Adapter) { a.metrics = m } }
func WithLogger(l zerolog.Logger) Option                { return func(a *Adapter) { a.log = l } }
func WithTimeManager(tm *timemanager.Manager) Option    { return func(a *Adapter) { a.timeManager = tm } }

// WithOnProgress registers a callback fired for every info-style snapshot
// emitted by the active search, tagged with the search ID that produced it.
func WithOnProgress(f func(searchID string, p search.Progress)) Option {
	return func(a *Adapter) { a.onProgress = f }
}

// WithOnBestMove registers a callback fired once when a search concludes.
func WithOnBestMove(f func(searchID string, r search.Result)) Option {
	return func(a *Adapter) { a.onBestMove = f }
}

// Adapter is the stateful dispatcher a host (UCI-speaking process, HTTP
// handler, or test) drives through new_game/set_position/go/stop/
// ensure_ready. It owns exactly one long-lived search.Controller so the
// node tree can be reused across successive searches (node.Tree.Reuse);
// the controller is only torn down and rebuilt when a set_option change or
// a weights reload is pending, at the next NewGame, SetPosition or
// EnsureReady call.
//
// mu is the spec's "busy lock": shared access for go/stop (they only read
// the controller pointer and delegate all real synchronization to the
// Controller itself), exclusive access for anything that replaces the
// controller or its configuration.
type Adapter struct {
	mu sync.RWMutex

	cfg         config.Config
	evalFactory EvaluatorFactory
	encoder     nn.PlaneEncoder
	metrics     metrics.Collector
	log         zerolog.Logger
	timeManager *timemanager.Manager
	onProgress  func(searchID string, p search.Progress)
	onBestMove  func(searchID string, r search.Result)

	controller *search.Controller
	evaluator  nn.Evaluator
	rootPos    position.Position

	configDirty    bool
	weightsChanged bool

	watcher *WeightsWatcher

	curSearchID string
}

// NewAdapter builds an Adapter. The evaluator factory is invoked lazily,
// the first time it's needed (SetPosition, NewGame, or EnsureReady), so a
// host can wire in a factory that only succeeds once weights actually
// exist on disk.
func NewAdapter(options ...Option) *Adapter {
	a := &Adapter{
		cfg:         config.Default(),
		encoder:     nil,
		metrics:     metrics.NoOp(),
		log:         zerolog.Nop(),
		timeManager: timemanager.NewManager(),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Close stops any running weights watcher. Safe to call even if
// WatchWeights was never called.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.watcher != nil {
		a.watcher.Stop()
	}
}

// ensureEvaluatorLocked lazily resolves an evaluator via the factory. Must
// be called with mu held exclusively.
func (a *Adapter) ensureEvaluatorLocked() error {
	if a.evaluator != nil {
		return nil
	}
	if a.evalFactory == nil {
		return ErrNoWeights
	}
	ev, err := a.evalFactory()
	if err != nil {
		return fmt.Errorf("protocol: build evaluator: %w", err)
	}
	a.evaluator = ev
	return nil
}

// ensureControllerLocked builds the long-lived Controller the first time
// it's needed, or rebuilds it (carrying configDirty/weightsChanged
// forward) once either flag asks for it. Must be called with mu held
// exclusively.
func (a *Adapter) ensureControllerLocked() error {
	if err := a.ensureEvaluatorLocked(); err != nil {
		return err
	}
	if a.controller != nil && !a.configDirty && !a.weightsChanged {
		return nil
	}
	a.controller = search.NewController(
		search.WithConfig(a.cfg),
		search.WithEvaluator(a.evaluator),
		search.WithEncoder(a.encoder),
		search.WithMetrics(a.metrics),
		search.WithLogger(a.log),
		search.WithTimeManager(a.timeManager),
		search.WithOnProgress(func(p search.Progress) {
			if a.onProgress != nil {
				a.onProgress(a.currentSearchID(), p)
			}
		}),
		search.WithOnBestMove(func(r search.Result) {
			if a.onBestMove != nil {
				a.onBestMove(a.currentSearchID(), r)
			}
		}),
	)
	a.configDirty = false
	a.weightsChanged = false
	return nil
}

func (a *Adapter) currentSearchID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.curSearchID
}

// SetOption updates one configuration option, matching spec.md §6's
// set_option(name, value, ctx): the change is recorded immediately but its
// effect is deferred until the next NewGame, SetPosition or EnsureReady, per the
// spec's "deferred apply until next action" rule — an in-flight search
// keeps running against the controller it already has.
func (a *Adapter) SetOption(name string, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := applyOption(&a.cfg, name, value); err != nil {
		return err
	}
	a.configDirty = true
	return nil
}

// NewGame clears the cache and the tree (spec.md §6's new_game), rebuilding
// the controller if any option/weights change is pending.
func (a *Adapter) NewGame() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureControllerLocked(); err != nil {
		return err
	}
	a.controller.NewGame()
	a.rootPos = nil
	return nil
}

// SetPosition resets the tree to the given position and applied move
// sequence (spec.md §6's set_position). FEN parsing is the host's
// responsibility (chess-board text framing is a Non-goal); the adapter
// only ever deals in position.Position values.
func (a *Adapter) SetPosition(pos position.Position, movesSincePrevious []position.Move) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureControllerLocked(); err != nil {
		return err
	}
	a.controller.SetPosition(pos, movesSincePrevious)
	a.rootPos = pos
	return nil
}

// Go starts a search with the given limits (spec.md §6's go(params)) and
// returns the search ID a client can correlate against streamed events.
// It returns once the search has started, not once it's finished — call
// Wait or watch the bestmove event for the result.
func (a *Adapter) Go(limits search.Limits) (string, error) {
	a.mu.RLock()
	controller := a.controller
	rootPos := a.rootPos
	a.mu.RUnlock()

	if controller == nil || rootPos == nil {
		return "", errors.New("protocol: set_position must precede go")
	}

	id := uuid.NewString()
	a.mu.Lock()
	a.curSearchID = id
	a.mu.Unlock()

	if err := controller.Start(rootPos, limits); err != nil {
		return "", err
	}
	return id, nil
}

// Stop asks the active search to stop gracefully; a bestmove event
// follows once the workers have wound down (spec.md §6's stop).
func (a *Adapter) Stop() {
	a.mu.RLock()
	controller := a.controller
	a.mu.RUnlock()
	if controller != nil {
		controller.Stop()
	}
}

// Abort asks the active search to stop through Controller.Abort, which
// behaves exactly like Stop: the best-move event is not suppressed and
// still fires once the workers have wound down.
func (a *Adapter) Abort() {
	a.mu.RLock()
	controller := a.controller
	a.mu.RUnlock()
	if controller != nil {
		controller.Abort()
	}
}

// Wait blocks until the active search finishes or ctx is done.
func (a *Adapter) Wait(ctx context.Context) (search.Result, error) {
	a.mu.RLock()
	controller := a.controller
	a.mu.RUnlock()
	if controller == nil {
		return search.Result{}, errors.New("protocol: no search in progress")
	}
	return controller.Wait(ctx)
}

// IsRunning reports whether a search is currently active.
func (a *Adapter) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.controller != nil && a.controller.IsRunning()
}

// PV returns the active controller's current principal variation, or nil
// if no controller has been built yet.
func (a *Adapter) PV(maxLen int) []position.Move {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.controller == nil {
		return nil
	}
	return a.controller.PV(maxLen)
}

// VerboseMoveStats mirrors search.Controller.VerboseMoveStats, reinstated
// here (spec.md §9's SendMovesStats) for the admin surface.
func (a *Adapter) VerboseMoveStats() []search.MoveStat {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.controller == nil {
		return nil
	}
	return a.controller.VerboseMoveStats()
}

// WatchWeights starts (or restarts) a WeightsWatcher on path: when the
// file changes, the adapter's "needs re-apply" flag is set, and the next
// EnsureReady call rebuilds the controller with a freshly-factoried
// evaluator before letting any further action through — spec.md §4.7's
// "Weight-file/backend changes are re-applied on a ready-gate before each
// action."
func (a *Adapter) WatchWeights(ctx context.Context, path string, debounce time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.watcher != nil {
		a.watcher.Stop()
	}
	w, err := NewWeightsWatcher(path, debounce, func() {
		a.mu.Lock()
		a.weightsChanged = true
		a.evaluator = nil
		a.mu.Unlock()
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	a.watcher = w
	return nil
}

// EnsureReady blocks until any pending weights/config change has been
// applied (spec.md §6's initialize/ensure_ready handshake). Acquiring the
// busy lock exclusively also gates out any in-flight search, matching
// §5's "ensure_ready acquires exclusive to gate against in-flight
// searches" — EnsureReady therefore must not be called while a search the
// caller still wants to run is active.
func (a *Adapter) EnsureReady() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ensureControllerLocked()
}

// applyOption maps one spec.md §6 option name/value pair onto Config,
// following the same option table the host protocol exposes.
func applyOption(cfg *config.Config, name, value string) error {
	switch name {
	case "threads":
		return setInt(&cfg.Threads, value)
	case "minibatch-size":
		return setInt(&cfg.MiniBatchSize, value)
	case "max-prefetch":
		return setInt(&cfg.MaxPrefetchBatch, value)
	case "cpuct":
		return setFloat(&cfg.Cpuct, value)
	case "temperature":
		return setFloat(&cfg.Temperature, value)
	case "tempdecay-moves":
		return setInt(&cfg.TempDecayMoves, value)
	case "noise":
		return setBool(&cfg.DirichletNoise, value)
	case "smart-pruning":
		return setBool(&cfg.SmartPruning, value)
	case "virtual-loss-bug":
		return setFloat(&cfg.VirtualLossBug, value)
	case "fpu-reduction":
		return setFloat(&cfg.FpuReduction, value)
	case "cache-history-length":
		return setInt(&cfg.CacheHistoryLength, value)
	case "policy-softmax-temp":
		return setFloat(&cfg.PolicySoftmaxTemp, value)
	case "allowed-node-collisions":
		return setInt(&cfg.AllowedNodeCollisions, value)
	case "nncache":
		return setInt(&cfg.NNCacheCapacity, value)
	case "move-overhead":
		var ms int
		if err := setInt(&ms, value); err != nil {
			return err
		}
		cfg.MoveOverhead = time.Duration(ms) * time.Millisecond
		return nil
	default:
		return fmt.Errorf("protocol: unknown option %q", name)
	}
}

func setInt(dst *int, value string) error {
	var v int
	if _, err := fmt.Sscanf(value, "%d", &v); err != nil {
		return fmt.Errorf("protocol: invalid integer option value %q: %w", value, err)
	}
	*dst = v
	return nil
}

func setFloat(dst *float64, value string) error {
	var v float64
	if _, err := fmt.Sscanf(value, "%g", &v); err != nil {
		return fmt.Errorf("protocol: invalid float option value %q: %w", value, err)
	}
	*dst = v
	return nil
}

func setBool(dst *bool, value string) error {
	switch value {
	case "true", "1":
		*dst = true
	case "false", "0":
		*dst = false
	default:
		return fmt.Errorf("protocol: invalid bool option value %q", value)
	}
	return nil
}

// Package search implements the Search Worker and Search Controller: the
// goroutine pool that runs PUCT descents against a node.Tree, batches
// leaves through an nn.Evaluator, and reports progress/best-move results
// back to whatever host protocol adapter started the search.
package search

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"mctscore/internal/config"
	"mctscore/internal/metrics"
	"mctscore/nn"
	"mctscore/node"
	"mctscore/position"
	"mctscore/timemanager"
)

// ErrAlreadyRunning is returned by Start when a search is already in
// progress on this Controller.
var ErrAlreadyRunning = errors.New("search: already running")

// Option configures a Controller, following the teacher's functional-options
// pattern (searcher/mcts.go's Option).
type Option func(*Controller)

func WithConfig(cfg config.Config) Option               { return func(c *Controller) { c.cfg = cfg } }
func WithEvaluator(e nn.Evaluator) Option                { return func(c *Controller) { c.evaluator = e } }
func WithEncoder(enc nn.PlaneEncoder) Option             { return func(c *Controller) { c.encoder = enc } }
func WithMetrics(m metrics.Collector) Option             { return func(c *Controller) { c.metrics = m } }
func WithLogger(l zerolog.Logger) Option                 { return func(c *Controller) { c.log = l } }
func WithTimeManager(tm *timemanager.Manager) Option     { return func(c *Controller) { c.timeManager = tm } }
func WithOnProgress(f func(Progress)) Option             { return func(c *Controller) { c.onProgress = f } }
func WithOnBestMove(f func(Result)) Option               { return func(c *Controller) { c.onBestMove = f } }
func WithRandSource(seed uint64) Option {
	return func(c *Controller) { c.rng = rand.New(rand.NewSource(seed)) }
}

// Controller owns one search tree and drives a pool of workers against it,
// grounded on searcher/mcts.go's goroutine-pool-plus-WaitGroup shape,
// generalized from the teacher's fixed-episode-count loop to the spec's
// multi-condition stop decision (deadlines, counts, smart pruning).
//
// Three locks, simplified from the four the original lc0 implementation
// uses (nodes_mutex_/counters_mutex_/threads_mutex_/busy_mutex_, see
// original_source/src/mcts/search.h): treeMu serializes the PUCT-descent-
// plus-Extend portion of selection (lc0's nodes lock), countersMu guards
// the playout/collision/cache bookkeeping used by the stop decision (lc0's
// counters lock), and stateMu guards only the running/stopCh/doneCh
// lifecycle (folding lc0's separate threads/busy locks together, since this
// Controller doesn't expose a "pause and inspect" operation that would need
// them kept apart).
type Controller struct {
	cfg       config.Config
	evaluator nn.Evaluator
	cache     *nn.Cache
	encoder   nn.PlaneEncoder
	metrics   metrics.Collector
	log       zerolog.Logger

	timeManager *timemanager.Manager
	rng         *rand.Rand

	tree    *node.Tree
	rootPos position.Position

	treeMu     sync.Mutex
	countersMu sync.Mutex
	totalPlayouts     int
	collisions        int
	cacheHits         int
	cacheRequests     int
	remainingPlayouts int
	lastProgress      time.Time
	lastProgressNodes int

	stateMu  sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	limits       Limits
	startTime    time.Time
	softDeadline time.Time
	hardDeadline time.Time
	singleReply  bool

	onProgress func(Progress)
	onBestMove func(Result)
}

// NewController builds a Controller with defaults (config.Default, a fresh
// node.Tree, a no-op metrics.Collector, a disabled logger) overridden by
// options. At least WithEvaluator and WithEncoder must be supplied by the
// caller for searches to do anything useful; netstub.New and
// chess.EncodePlanes are the reference stand-ins.
func NewController(options ...Option) *Controller {
	c := &Controller{
		cfg:         config.Default(),
		metrics:     metrics.NoOp(),
		log:         zerolog.Nop(),
		timeManager: timemanager.NewManager(),
		tree:        node.NewTree(),
		rng:         rand.New(rand.NewSource(1)),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.cache == nil {
		c.cache = nn.NewCache(c.cfg.NNCacheCapacity)
	}
	return c
}

// NewGame discards the current tree and NN cache, used on the host's
// ucinewgame-equivalent command so stale statistics from a previous
// opponent never leak into a new game.
func (c *Controller) NewGame() {
	c.tree.Reset()
	c.cache = nn.NewCache(c.cfg.NNCacheCapacity)
}

// SetPosition reuses the current tree along movesSincePrevious (moves
// played since the position this Controller last searched) and records the
// position the next Start call will search from. An empty slice, or a move
// the current tree never explored, rebuilds the tree from scratch.
func (c *Controller) SetPosition(pos position.Position, movesSincePrevious []position.Move) {
	c.tree.Reuse(movesSincePrevious)
	c.rootPos = pos
}

// Start begins searching rootPos under the given limits, spawning
// cfg.Threads worker goroutines. Returns ErrAlreadyRunning if a search is
// already active; callers must Wait or Stop that one first.
func (c *Controller) Start(rootPos position.Position, limits Limits) error {
	c.stateMu.Lock()
	if c.running {
		c.stateMu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	c.stopOnce = sync.Once{}
	c.stateMu.Unlock()

	searchID := uuid.NewString()
	c.log = c.log.With().Str("search_id", searchID).Logger()
	c.metrics.IncSearchesStarted()

	c.rootPos = rootPos
	c.limits = limits
	c.startTime = time.Now()
	c.lastProgress = c.startTime
	c.computeDeadlines()

	c.countersMu.Lock()
	c.totalPlayouts = c.tree.Root().N()
	c.collisions = 0
	c.cacheHits = 0
	c.cacheRequests = 0
	c.remainingPlayouts = math.MaxInt32
	c.lastProgressNodes = c.totalPlayouts
	c.countersMu.Unlock()

	root := c.tree.Root()
	if !root.IsExtended() {
		extendNode(root, position.NewHistory(rootPos), true)
	}
	if !root.IsTerminal() && root.N() == 0 {
		c.evaluateRootPriors(rootPos)
		if c.cfg.DirichletNoise {
			applyDirichletNoise(root.Children(), c.cfg.DirichletEpsilon, c.cfg.DirichletAlpha, c.rng)
		}
	}

	rootChildren := c.filterRootChildren(root.Children())
	c.singleReply = len(rootChildren) == 1

	c.wg.Add(c.cfg.Threads)
	for i := 0; i < c.cfg.Threads; i++ {
		w := &worker{id: i, controller: c, history: position.NewHistory(rootPos)}
		go w.run()
	}

	go func() {
		c.wg.Wait()
		c.finish()
	}()

	return nil
}

// evaluateRootPriors runs one synchronous NN evaluation of the root so its
// children have real priors (and, when enabled, somewhere to mix Dirichlet
// noise into) before any worker starts descending. Grounded on search.cc's
// Search::Search constructor pre-evaluating the root ahead of
// StartThreads.
func (c *Controller) evaluateRootPriors(rootPos position.Position) {
	root := c.tree.Root()
	hist := position.NewHistory(rootPos)
	legal := rootPos.LegalMoves()

	comp := nn.NewCachingComputation(c.evaluator, c.cache)
	slot := comp.AddInput(hist.HashLast(c.cfg.CacheHistoryLength+1), c.encoder(hist), legal)
	if err := comp.ComputeBlocking(); err != nil {
		c.log.Error().Err(err).Msg("root nn evaluation failed")
		return
	}
	root.SetV(comp.Q(slot))
	for _, child := range root.Children() {
		child.SetP(comp.P(slot, child.Move().Index()))
	}
	applyPolicySoftmax(root.Children(), c.cfg.PolicySoftmaxTemp)
}

// computeDeadlines turns limits into absolute soft/hard stop times, or
// leaves them zero when the search is bounded only by node counts or is
// explicitly infinite.
func (c *Controller) computeDeadlines() {
	c.softDeadline = time.Time{}
	c.hardDeadline = time.Time{}
	if c.limits.Infinite {
		return
	}
	if c.limits.MoveTime > 0 {
		c.hardDeadline = c.startTime.Add(c.limits.MoveTime)
		c.softDeadline = c.hardDeadline
		return
	}

	var timeLeft, increment time.Duration
	if c.rootPos.IsBlackToMove() {
		timeLeft, increment = c.limits.BlackTime, c.limits.BlackIncrement
	} else {
		timeLeft, increment = c.limits.WhiteTime, c.limits.WhiteIncrement
	}
	if timeLeft <= 0 {
		return
	}

	soft, hard := c.timeManager.Allocate(timemanager.Limits{
		TimeLeft:  timeLeft - c.cfg.MoveOverhead,
		Increment: increment,
		MovesToGo: c.limits.MovesToGo,
		Ply:       c.rootPos.Ply(),
	})
	c.softDeadline = c.startTime.Add(soft)
	c.hardDeadline = c.startTime.Add(hard)
}

// recordCollision is called by a worker's gatherMinibatch on every
// TryStartScoreUpdate collision.
func (c *Controller) recordCollision() {
	c.countersMu.Lock()
	c.collisions++
	c.countersMu.Unlock()
	c.metrics.IncCollisions()
}

// updateCounters is the loop's final step: fold one iteration's results
// into the shared counters, recompute the smart-pruning estimate, and
// decide whether to stop or emit progress.
func (c *Controller) updateCounters(realVisits, collisions, cacheMisses, cacheRequests int) {
	c.countersMu.Lock()
	c.totalPlayouts += realVisits
	c.cacheRequests += cacheRequests
	c.cacheHits += cacheRequests - cacheMisses
	c.recomputeRemainingPlayoutsLocked(realVisits)
	emit := c.shouldEmitProgressLocked()
	c.countersMu.Unlock()

	if emit && c.onProgress != nil {
		c.onProgress(c.snapshotProgress())
	}
	if c.shouldStop() {
		c.requestStop()
	}
}

// recomputeRemainingPlayoutsLocked implements the four-branch remaining-
// playout estimate: a hard playout count limit, a hard total-visits limit
// (covering visits carried over from tree reuse), a soft time deadline
// extrapolated from the observed nodes-per-second, or unbounded when none
// applies. The two hard-count branches are kept mutually exclusive (never
// mixed in the same expression, the "typo" the upstream lc0 implementation
// is flagged for) -- an Open Question resolved in DESIGN.md. totalPlayouts
// is seeded from the root's carried-over visit count in Start and tracks
// the root's total visit count thereafter, so it already stands in for
// lc0's total_playouts+initial_visits sum. Caller holds countersMu.
func (c *Controller) recomputeRemainingPlayoutsLocked(batchSize int) {
	switch {
	case c.limits.Playouts > 0:
		c.remainingPlayouts = c.limits.Playouts - c.totalPlayouts + batchSize + 1
	case c.limits.Visits > 0:
		c.remainingPlayouts = c.limits.Visits - c.totalPlayouts + batchSize - 1
	case !c.softDeadline.IsZero():
		elapsed := time.Since(c.startTime)
		remainingTime := time.Until(c.softDeadline)
		if elapsed <= 0 || remainingTime <= 0 {
			c.remainingPlayouts = 0
		} else {
			nps := float64(c.totalPlayouts) / elapsed.Seconds()
			c.remainingPlayouts = int(nps * remainingTime.Seconds())
		}
	default:
		c.remainingPlayouts = math.MaxInt32
	}
	if c.remainingPlayouts < 0 {
		c.remainingPlayouts = 0
	}
}

// remainingPlayoutsSnapshot reads the current estimate for use in root
// selection filtering. It is math.MaxInt32 (unbounded) until the first
// iteration's counters land, and never negative.
func (c *Controller) remainingPlayoutsSnapshot() int {
	c.countersMu.Lock()
	defer c.countersMu.Unlock()
	return c.remainingPlayouts
}

// shouldEmitProgressLocked rate-limits progress events to roughly 5/sec or
// whenever at least 1000 new nodes have landed, whichever comes first,
// mirroring search.cc's MaybeOutputInfo throttle. Caller holds countersMu.
func (c *Controller) shouldEmitProgressLocked() bool {
	const minInterval = 200 * time.Millisecond
	const minNodeDelta = 1000
	now := time.Now()
	if now.Sub(c.lastProgress) < minInterval && c.totalPlayouts-c.lastProgressNodes < minNodeDelta {
		return false
	}
	c.lastProgress = now
	c.lastProgressNodes = c.totalPlayouts
	return true
}

// snapshotProgress builds one Progress event from the tree's current
// state. Called without countersMu held (PV/VerboseMoveStats each take
// their own brief lock on individual nodes), so it may occasionally read a
// slightly stale totalPlayouts relative to the PV -- acceptable for a
// best-effort reporting sideband, not a correctness-critical path.
func (c *Controller) snapshotProgress() Progress {
	root := c.tree.Root()
	elapsed := time.Since(c.startTime).Seconds()

	c.countersMu.Lock()
	nodes := c.totalPlayouts
	hitRatio := 0.0
	if c.cacheRequests > 0 {
		hitRatio = float64(c.cacheHits) / float64(c.cacheRequests)
	}
	c.countersMu.Unlock()

	nps := 0.0
	if elapsed > 0 {
		nps = float64(nodes) / elapsed
	}
	c.metrics.ObserveNodesPerSecond(nps)
	c.metrics.SetCacheHitRatio(hitRatio)

	line := pv(root, 64)
	return Progress{
		Depth:           len(line),
		SelDepth:        int(root.MaxDepth()),
		Nodes:           nodes,
		NodesPerSecond:  nps,
		ScoreCentipawns: scoreCentipawns(root.Q(0)),
		PV:              line,
		Hashfull:        c.cache.Hashfull(),
		CacheHitRatio:   hitRatio,
	}
}

// shouldStop evaluates every stopping condition: explicit infinite mode
// disables all of them but an outside Stop call, which workers observe
// directly via stopCh rather than through this function.
func (c *Controller) shouldStop() bool {
	if c.limits.Infinite {
		return false
	}
	if c.singleReply {
		return true
	}
	now := time.Now()
	if !c.hardDeadline.IsZero() && now.After(c.hardDeadline) {
		return true
	}
	if !c.softDeadline.IsZero() && now.After(c.softDeadline) {
		return true
	}

	c.countersMu.Lock()
	playouts := c.totalPlayouts
	visits := c.tree.Root().N()
	c.countersMu.Unlock()
	if c.limits.Playouts > 0 && playouts >= c.limits.Playouts {
		return true
	}
	if c.limits.Visits > 0 && visits >= c.limits.Visits {
		return true
	}

	if c.cfg.SmartPruning && c.smartPruningTriggered() {
		return true
	}
	return false
}

// smartPruningTriggered reports whether every root child but one has been
// mathematically eliminated: even with all remaining playout budget, it
// could never catch up to the current leader, so continuing to search
// cannot change the eventual best move.
func (c *Controller) smartPruningTriggered() bool {
	children := c.tree.Root().Children()
	if len(children) <= 1 {
		return false
	}
	remaining := c.remainingPlayoutsSnapshot()

	bestN := -1
	for _, ch := range children {
		if n := ch.N(); n > bestN {
			bestN = n
		}
	}
	viable := 0
	for _, ch := range children {
		if ch.N()+remaining >= bestN {
			viable++
		}
	}
	return viable <= 1
}

// requestStop closes stopCh exactly once, signalling every worker to finish
// its current iteration and return.
func (c *Controller) requestStop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Stop asks the search to wind down at the next safe point (the end of a
// worker's current iteration). Use Wait to block until it actually has.
func (c *Controller) Stop() {
	c.requestStop()
}

// Abort is Stop under another name: this Controller only checks for a stop
// request at iteration boundaries, so there is no finer-grained "abort
// mid-batch" to distinguish (a deliberate simplification from engines that
// can interrupt an in-flight NN call).
func (c *Controller) Abort() {
	c.requestStop()
}

// Wait blocks until the current search's workers have all exited and the
// final best move has been computed, or ctx is done first.
func (c *Controller) Wait(ctx context.Context) (Result, error) {
	select {
	case <-c.doneCh:
		result, _ := c.BestMoveNow()
		return result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// finish runs once, after every worker has exited: it marks the Controller
// idle and fires the onBestMove callback, mirroring searcher/mcts.go's
// countdown-then-report shape.
func (c *Controller) finish() {
	result, ok := c.BestMoveNow()

	c.stateMu.Lock()
	c.running = false
	c.stateMu.Unlock()

	if ok && c.onBestMove != nil {
		c.onBestMove(result)
	}
	close(c.doneCh)
}

// IsRunning reports whether a search is currently active.
func (c *Controller) IsRunning() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.running
}

// BestMoveNow samples (or argmax-selects, at zero temperature) the root's
// best move given its statistics as they currently stand; callers may call
// this before the search has stopped to peek at an in-progress result.
func (c *Controller) BestMoveNow() (Result, bool) {
	root := c.tree.Root()
	children := root.Children()
	if len(children) == 0 {
		return Result{}, false
	}

	ply := 0
	if c.rootPos != nil {
		ply = c.rootPos.Ply()
	}
	temp := effectiveTemperature(c.cfg.Temperature, c.cfg.TempDecayMoves, ply)
	chosen := sampleByTemperature(children, temp, c.rng)
	if chosen == nil {
		return Result{}, false
	}
	return Result{Move: chosen.Move(), Eval: chosen.Q(0)}, true
}

// BestEvalNow returns the root's own accumulated value, from the
// perspective of the side to move at the root.
func (c *Controller) BestEvalNow() float64 {
	return c.tree.Root().Q(0)
}

// PV returns up to maxLen plies of the current principal variation.
func (c *Controller) PV(maxLen int) []position.Move {
	return pv(c.tree.Root(), maxLen)
}

// VerboseMoveStats reports every root child's N/V/P/Q/U on request; it does
// not consult cfg.VerboseMoveStats.
func (c *Controller) VerboseMoveStats() []MoveStat {
	root := c.tree.Root()
	var fpu float64
	if c.cfg.DirichletNoise {
		fpu = -root.Q(0)
	} else {
		fpu = -root.Q(0) - c.cfg.FpuReduction*math.Sqrt(root.VisitedPolicy())
	}
	return verboseMoveStats(root, fpu)
}

// Package timemanager turns a clock budget (time left, increment, moves to
// go) into a concrete per-move search time allocation.
//
// Neither the teacher nor any other example repo in the pack runs a
// clock-budget allocator (risk-agent always searches for a fixed duration
// or episode count, configured once up front), so this package has no
// direct grounding source; it is written fresh from the move-time formula,
// but kept in the teacher's functional-options-plus-named-constants idiom
// (searcher/args.go, searcher/mcts.go's Option type) so it reads as part of
// the same codebase.
package timemanager

import (
	"math"
	"time"
)

// Limits describes the clock state at the start of a move, in the host's
// own units (see protocol's "go" command fields).
type Limits struct {
	// TimeLeft is the time remaining on the mover's clock.
	TimeLeft time.Duration
	// Increment is added to the clock after the move completes.
	Increment time.Duration
	// MovesToGo is the number of moves left until the next time control,
	// or zero if the control is sudden-death (increment only, or none).
	MovesToGo int
	// Ply is the current position's ply count, used to estimate how many
	// moves remain when MovesToGo is unknown.
	Ply int
}

// Option configures a Manager, following the teacher's functional-options
// pattern.
type Option func(*Manager)

// WithSafetyMargin reserves a fixed cushion of clock time that is never
// allocated to a single move, guarding against overstepping when move
// overhead (legality checks, I/O) eats a few extra milliseconds.
func WithSafetyMargin(d time.Duration) Option {
	return func(m *Manager) { m.safetyMargin = d }
}

// WithPeakPly sets the ply at which the allocation curve is widest, i.e.
// where the engine spends the most time per move (by default the
// middlegame, around move 20).
func WithPeakPly(ply int) Option {
	return func(m *Manager) { m.peakPly = float64(ply) }
}

// WithSpread controls how quickly the curve tapers away from PeakPly; a
// larger spread allocates generously over more of the game, a smaller one
// concentrates time sharply around the peak.
func WithSpread(spread float64) Option {
	return func(m *Manager) { m.spread = spread }
}

// WithHardLimitMultiplier bounds the hard stop (the point at which
// Controller aborts a move outright rather than merely preferring to stop)
// as a multiple of the soft allocation.
func WithHardLimitMultiplier(mult float64) Option {
	return func(m *Manager) { m.hardMultiplier = mult }
}

// Manager allocates per-move search time from a cosh-weighted curve: moves
// near PeakPly get a larger share of the remaining clock than moves in the
// opening or a drawn-out endgame, tapering off smoothly on both sides
// (1/cosh is a bell-shaped curve with no sharp corners, so neighbors get
// similar budgets). When the curve would claim more than a safe fraction of
// what's left, the allocation is clamped back down.
type Manager struct {
	safetyMargin   time.Duration
	peakPly        float64
	spread         float64
	hardMultiplier float64
}

// NewManager builds a Manager with defaults matching a roughly
// 40-move-control game: peak effort around move 20 (ply 40), tapering
// over about 15 plies either side, a one-second safety margin, and a hard
// limit at 3x the soft allocation.
func NewManager(options ...Option) *Manager {
	m := &Manager{
		safetyMargin:   time.Second,
		peakPly:        40,
		spread:         15,
		hardMultiplier: 3,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// weight is the cosh-shaped allocation curve, normalized to 1 at PeakPly.
func (m *Manager) weight(ply int) float64 {
	x := (float64(ply) - m.peakPly) / m.spread
	return 1.0 / math.Cosh(x)
}

// Allocate computes the soft and hard time budgets for a move at the given
// limits. Soft is the time the controller should stop at if nothing forces
// it to keep going (smart pruning, a single legal move); hard is the
// absolute ceiling the controller must never exceed.
func (m *Manager) Allocate(limits Limits) (soft, hard time.Duration) {
	usable := limits.TimeLeft - m.safetyMargin
	if usable < 0 {
		usable = 0
	}

	movesToGo := limits.MovesToGo
	if movesToGo <= 0 {
		movesToGo = m.estimateMovesToGo(limits.Ply)
	}

	baseShare := float64(usable) / float64(movesToGo)
	soft = time.Duration(baseShare*m.weight(limits.Ply)) + limits.Increment

	if soft > usable {
		soft = usable
	}
	if soft < 0 {
		soft = 0
	}

	hard = time.Duration(float64(soft) * m.hardMultiplier)
	if hard > usable {
		hard = usable
	}
	if hard < soft {
		hard = soft
	}
	return soft, hard
}

// estimateMovesToGo guesses how many moves remain when the host hasn't told
// us, using the same cosh curve: the further a ply is from PeakPly, the
// fewer moves are assumed to remain at similar intensity, which in turn
// means less of the clock should be reserved for the far side of the game.
func (m *Manager) estimateMovesToGo(ply int) int {
	const baseline = 30
	estimate := int(baseline * m.weight(ply))
	if estimate < 10 {
		estimate = 10
	}
	return estimate
}

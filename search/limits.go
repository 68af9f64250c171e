package search

import (
	"time"

	"mctscore/position"
)

// Limits bounds a single search, mirroring the host protocol's "go" command
// fields (spec.md §6). Any subset of the time/count fields may be set
// simultaneously; Controller stops at whichever is reached first.
type Limits struct {
	// Playouts caps the number of new visits this search may add to the
	// root (0 = unbounded).
	Playouts int
	// Visits caps the root's total visit count, including visits carried
	// over from tree reuse (0 = unbounded).
	Visits int
	// MoveTime fixes exactly how long to search, ignoring the time
	// manager (0 = not fixed).
	MoveTime time.Duration
	// WhiteTime/BlackTime/WhiteIncrement/BlackIncrement/MovesToGo feed the
	// time manager when MoveTime is not set.
	WhiteTime       time.Duration
	BlackTime       time.Duration
	WhiteIncrement  time.Duration
	BlackIncrement  time.Duration
	MovesToGo       int
	// Infinite disables every stopping condition except an explicit Stop
	// call (used for "go infinite" / analysis mode).
	Infinite bool
	// SearchMoves restricts the root to only these moves, when non-empty.
	SearchMoves []position.Move
}

// hasCount reports whether any node-count limit is configured.
func (l Limits) hasCount() bool {
	return l.Playouts > 0 || l.Visits > 0
}

// searchMovesIndex builds a lookup set of allowed root move indices, or nil
// if SearchMoves wasn't restricted.
func (l Limits) searchMovesIndex() map[uint16]bool {
	if len(l.SearchMoves) == 0 {
		return nil
	}
	set := make(map[uint16]bool, len(l.SearchMoves))
	for _, m := range l.SearchMoves {
		set[m.Index()] = true
	}
	return set
}

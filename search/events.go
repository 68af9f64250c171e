package search

import "mctscore/position"

// Progress is one "info"-style snapshot emitted periodically while a search
// runs (spec.md §6's outgoing events, §4.4's progress-emission rule).
type Progress struct {
	Depth         int
	SelDepth      int
	Nodes         int
	NodesPerSecond float64
	ScoreCentipawns float64
	PV            []position.Move
	Hashfull      int
	CacheHitRatio float64
}

// MoveStat is one root move's full line of statistics, emitted only when
// VerboseMoveStats is enabled (grounded on search.cc's SendMovesStats,
// supplemented into this module per SPEC_FULL.md §11).
type MoveStat struct {
	Move position.Move
	N    int
	V    float64
	P    float64
	Q    float64
	U    float64
}

// Result is the final outcome of a search: the chosen move and, where
// available, the engine's own evaluation of the position after it.
type Result struct {
	Move position.Move
	Eval float64
}

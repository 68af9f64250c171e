// Package nn defines the neural-network evaluator contract the search core
// consumes, plus a position-hash-keyed LRU cache that sits in front of it so
// repeated transpositions and repeated prefetch requests skip inference
// entirely.
//
// Weight loading and the actual forward pass (BLAS/OpenCL/whatever backend)
// are explicitly out of scope (see spec.md §1 Non-goals); package netstub
// supplies a deterministic stand-in implementation so the rest of the
// module is exercisable without a real network.
package nn

import "mctscore/position"

// InputPlanes is the opaque encoded input to the network: one plane per
// piece type/color/history-ply, flattened row-major. The core never
// interprets these values; it only threads them from position encoding
// through to Evaluator.
type InputPlanes []float32

// PlaneEncoder turns a position history into the network's input planes.
// The search core is deliberately board-agnostic (spec.md §1 Non-goals),
// so it never encodes positions itself — it calls whatever PlaneEncoder the
// host wired in (see package chess's EncodePlanes for the reference board's
// implementation).
type PlaneEncoder func(h *position.History) InputPlanes

// Evaluator is the capability the search core needs from a neural network:
// the ability to open a new batch.
type Evaluator interface {
	NewComputation() Computation
}

// Computation is a single in-flight batch: inputs are appended one at a
// time (mirroring GatherMinibatch's one-leaf-per-slot loop), then the whole
// batch runs in one blocking call.
type Computation interface {
	// AddInput appends one position's encoded planes to the batch and
	// returns its slot index.
	AddInput(planes InputPlanes) int
	// BatchSize returns the number of inputs added so far.
	BatchSize() int
	// ComputeBlocking runs the forward pass over every input added so far.
	// Does nothing (and must not be called by search.Worker) when
	// BatchSize is zero.
	ComputeBlocking() error
	// Q returns the value head's output for the input at the given index,
	// from the perspective of the side to move in that input.
	Q(index int) float64
	// P returns the policy head's probability for the given move index at
	// the given batch slot, before renormalization over legal moves.
	P(index int, moveIndex uint16) float64
}

// legalMoveIndices extracts the policy-vector slots a position cares about,
// a small helper used by CachingComputation.
func legalMoveIndices(moves []position.Move) []uint16 {
	idx := make([]uint16, len(moves))
	for i, m := range moves {
		idx[i] = m.Index()
	}
	return idx
}

package search

import (
	"math"

	"golang.org/x/exp/rand"

	"mctscore/node"
	"mctscore/position"
)

// effectiveTemperature applies the linear temperature decay: from the
// configured Temperature at ply 0, decaying to 0 by TempDecayMoves plies,
// and staying flat at Temperature if TempDecayMoves is unset. Grounded on
// searcher/agent/train.go's adjustTemperature in the teacher repo.
func effectiveTemperature(temperature float64, tempDecayMoves, ply int) float64 {
	if tempDecayMoves <= 0 {
		return temperature
	}
	if ply >= tempDecayMoves {
		return 0
	}
	return temperature * (1 - float64(ply)/float64(tempDecayMoves))
}

// argMaxByVisits returns the most-visited child, the selection rule used
// whenever temperature is zero (the evaluationAgent path in
// searcher/agent/eval.go's findMax). N-ties are broken by higher Q(-10)
// (search.cc's GetBestChildNoTemperature: an arbitrarily low FPU so ties
// are decided by completed results rather than the fallback value), and
// remaining ties by higher P.
func argMaxByVisits(children []*node.Node) *node.Node {
	var best *node.Node
	bestN := -1
	var bestQ, bestP float64
	for _, c := range children {
		n := c.N()
		switch {
		case n > bestN:
			bestN, bestQ, bestP = n, c.Q(-10), c.P()
			best = c
		case n == bestN:
			q := c.Q(-10)
			switch {
			case q > bestQ:
				bestQ, bestP = q, c.P()
				best = c
			case q == bestQ && c.P() > bestP:
				bestP = c.P()
				best = c
			}
		}
	}
	return best
}

// sampleByTemperature draws a child with probability proportional to
// N^(1/temperature), the same softmax-by-visits sampling as
// searcher/agent/train.go's sample, rewired from a map[game.Move]float64
// policy onto *node.Node visit counts.
func sampleByTemperature(children []*node.Node, temperature float64, rng *rand.Rand) *node.Node {
	if temperature <= 1e-9 {
		return argMaxByVisits(children)
	}

	weights := make([]float64, len(children))
	var total float64
	for i, c := range children {
		w := math.Pow(float64(c.N()), 1/temperature)
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return argMaxByVisits(children)
	}

	r := rng.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if r <= cum {
			return children[i]
		}
	}
	return children[len(children)-1]
}

// pv walks the most-visited child at each step from root, stopping at the
// first unvisited or childless node, to build the principal variation.
// Supplemented from search.cc's GetBestEval/PV-reporting behavior per
// SPEC_FULL.md §11.
func pv(root *node.Node, maxLen int) []position.Move {
	var line []position.Move
	cur := root
	for len(line) < maxLen {
		children := cur.Children()
		if len(children) == 0 {
			break
		}
		best := argMaxByVisits(children)
		if best == nil || best.N() == 0 {
			break
		}
		line = append(line, best.Move())
		cur = best
	}
	return line
}

// verboseMoveStats reports per-child N/V/P/Q/U, supplemented from
// search.cc's SendMovesStats per SPEC_FULL.md §11.
func verboseMoveStats(root *node.Node, fpu float64) []MoveStat {
	children := root.Children()
	stats := make([]MoveStat, len(children))
	for i, c := range children {
		stats[i] = MoveStat{
			Move: c.Move(),
			N:    c.N(),
			V:    c.V(),
			P:    c.P(),
			Q:    c.Q(fpu),
			U:    c.U(),
		}
	}
	return stats
}

// scoreCentipawns converts a [-1,1] Q value into an approximate centipawn
// score using the same nonlinear mapping search.cc's SendUciInfo uses:
// score = 290.680623072 * tan(1.548090806 * Q), which stretches values near
// +-1 toward mate-sized scores instead of clipping.
func scoreCentipawns(q float64) float64 {
	return 290.680623072 * math.Tan(1.548090806*q)
}

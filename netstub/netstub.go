// Package netstub is a deterministic stand-in for the real neural network.
// Weight loading and actual inference (BLAS/OpenCL/whatever backend) are
// explicitly out of scope for this module (spec.md §1 Non-goals); netstub
// exists purely so package search has something to call through nn.Evaluator
// that behaves like a network (stable Q/P per input, no side effects, cheap)
// without requiring real trained weights.
//
// Grounded on risk/game/eval.go's evaluation-function idiom
// (EvaluateResources, EvaluateBorderStrength: pure `func(State) float64`),
// generalized here to also emit a policy distribution over move indices.
package netstub

import (
	"math"

	"mctscore/nn"
)

// Evaluator is a pure function of its input planes: same input, same
// output, every time, with no cache, no batching benefit, and no claim to
// playing strength.
type Evaluator struct{}

// New returns a ready-to-use stub evaluator.
func New() *Evaluator { return &Evaluator{} }

// NewComputation opens a new batch.
func (e *Evaluator) NewComputation() nn.Computation {
	return &computation{}
}

type computation struct {
	inputs [][]float32
}

func (c *computation) AddInput(planes nn.InputPlanes) int {
	c.inputs = append(c.inputs, planes)
	return len(c.inputs) - 1
}

func (c *computation) BatchSize() int { return len(c.inputs) }

// ComputeBlocking does nothing: Q and P are pure functions of the input,
// computed on demand, so there's no batched step to run.
func (c *computation) ComputeBlocking() error { return nil }

// Q squashes the sum of the input planes through tanh, so it behaves like a
// value head: bounded to (-1, 1), deterministic, and sensitive to the
// actual input rather than a constant.
func (c *computation) Q(index int) float64 {
	var sum float64
	for _, v := range c.inputs[index] {
		sum += float64(v)
	}
	return math.Tanh(sum / 64)
}

// P returns a smoothly decaying prior over move indices. It has no
// knowledge of which moves are actually legal for this input — exactly
// like a real network's raw policy head, whose output over the whole fixed
// move space is masked down to legal moves by the caller, not by the
// network itself.
func (c *computation) P(index int, moveIndex uint16) float64 {
	return 1.0 / float64(1+int(moveIndex)%64)
}

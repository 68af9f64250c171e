package search

import (
	"math"

	"golang.org/x/exp/rand"

	"mctscore/node"
)

// sampleDirichlet draws one vector from Dirichlet(alpha, alpha, ..., alpha)
// over n components, via the standard gamma-then-normalize construction:
// each component is an independent Gamma(alpha,1) draw, and the vector is
// renormalized to sum to 1. No pack example implements Dirichlet sampling
// (the teacher never injects exploration noise), so this is grounded
// directly on the mathematical definition lc0 itself implements in
// search.cc's PopulateRootNoNoise sibling, GetNoiseEpsilon.
func sampleDirichlet(n int, alpha float64, rng *rand.Rand) []float64 {
	samples := make([]float64, n)
	var total float64
	for i := range samples {
		g := sampleGamma(alpha, rng)
		samples[i] = g
		total += g
	}
	if total <= 0 {
		for i := range samples {
			samples[i] = 1 / float64(n)
		}
		return samples
	}
	for i := range samples {
		samples[i] /= total
	}
	return samples
}

// sampleGamma draws from Gamma(shape, 1) via Marsaglia and Tsang's method,
// the standard rejection sampler used when a Gamma distribution isn't
// provided by the RNG library directly (golang.org/x/exp/rand, like
// math/rand, only ships Normal/Exponential, not Gamma).
func sampleGamma(shape float64, rng *rand.Rand) float64 {
	if shape < 1 {
		// Boost by one and correct with a Uniform(0,1)^(1/shape) factor.
		u := rng.Float64()
		return sampleGamma(shape+1, rng) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		x2 := x * x
		if u < 1-0.0331*x2*x2 {
			return d * v
		}
		if math.Log(u) < 0.5*x2+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// applyDirichletNoise mixes Dirichlet noise into the root children's
// priors: P' = (1-epsilon)*P + epsilon*noise, the same root-exploration
// trick AlphaZero/lc0 use so self-play never collapses onto a single line.
func applyDirichletNoise(children []*node.Node, epsilon, alpha float64, rng *rand.Rand) {
	if len(children) == 0 {
		return
	}
	noise := sampleDirichlet(len(children), alpha, rng)
	for i, c := range children {
		c.SetP((1-epsilon)*c.P() + epsilon*noise[i])
	}
}

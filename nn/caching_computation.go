package nn

import "mctscore/position"

// pendingInput is one slot requested from a CachingComputation: either
// already satisfied from the cache, or waiting on the underlying
// Computation's batch slot.
type pendingInput struct {
	hash      position.Hash
	moves     []uint16
	cached    bool
	entry     CacheEntry
	batchSlot int // valid only when !cached
}

// CachingComputation wraps a raw Evaluator with the NN cache: AddInput first
// checks the cache, and only forwards genuine misses to the underlying
// batch. This is the component search.Worker's GatherMinibatch step talks
// to, so a transposition reached twice in the same minibatch (or served
// straight from a previous batch's cache insert) never costs a second
// inference. Grounded on search.cc's CachingComputation class and on the
// teacher's Agent interface (searcher/agent/agent.go), generalized from
// whole-move evaluation to single-batch-slot evaluation.
type CachingComputation struct {
	cache   *Cache
	inner   Computation
	pending []pendingInput
	misses  int
}

// NewCachingComputation opens a new underlying batch wrapped by the given
// cache.
func NewCachingComputation(evaluator Evaluator, cache *Cache) *CachingComputation {
	return &CachingComputation{
		cache: cache,
		inner: evaluator.NewComputation(),
	}
}

// AddInput requests evaluation of a position, identified by its hash for
// cache lookup and described by planes/legal moves for the cases that miss.
// Returns the slot index to later read Q/P back from, stable across the
// cache-hit/miss distinction.
func (c *CachingComputation) AddInput(hash position.Hash, planes InputPlanes, legalMoves []position.Move) int {
	if entry, ok := c.cache.Get(hash); ok {
		c.pending = append(c.pending, pendingInput{hash: hash, cached: true, entry: entry})
		return len(c.pending) - 1
	}

	c.misses++
	slot := c.inner.AddInput(planes)
	c.pending = append(c.pending, pendingInput{
		hash:      hash,
		moves:     legalMoveIndices(legalMoves),
		cached:    false,
		batchSlot: slot,
	})
	return len(c.pending) - 1
}

// BatchSize is the number of inputs requested, cached or not.
func (c *CachingComputation) BatchSize() int {
	return len(c.pending)
}

// CacheMisses is the number that required an actual inference call, the
// statistic search.Worker reports alongside NPS.
func (c *CachingComputation) CacheMisses() int {
	return c.misses
}

// ComputeBlocking runs inference for every miss (skipping the call entirely
// if there were none) and populates the cache with the fresh results.
func (c *CachingComputation) ComputeBlocking() error {
	if c.inner.BatchSize() == 0 {
		return nil
	}
	if err := c.inner.ComputeBlocking(); err != nil {
		return err
	}

	for i := range c.pending {
		p := &c.pending[i]
		if p.cached {
			continue
		}
		entry := CacheEntry{
			Q: c.inner.Q(p.batchSlot),
			P: make(map[uint16]float64, len(p.moves)),
		}
		for _, mi := range p.moves {
			entry.P[mi] = c.inner.P(p.batchSlot, mi)
		}
		p.entry = entry
		c.cache.Put(p.hash, entry)
	}
	return nil
}

// Q returns the cached or freshly computed value for the given slot.
func (c *CachingComputation) Q(index int) float64 {
	return c.pending[index].entry.Q
}

// P returns the cached or freshly computed policy probability for a move at
// the given slot. Moves never requested for that slot read back as zero.
func (c *CachingComputation) P(index int, moveIndex uint16) float64 {
	return c.pending[index].entry.P[moveIndex]
}

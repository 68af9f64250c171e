package search

import (
	"math"
	"sort"

	"mctscore/nn"
	"mctscore/node"
	"mctscore/position"
)

var negInf = math.Inf(-1)

// gatheredLeaf is one slot produced by gatherMinibatch: either a terminal
// node whose value is already known, or a freshly extended leaf waiting on
// an NN evaluation at the given CachingComputation slot.
type gatheredLeaf struct {
	path          []*node.Node // root..leaf, only the nodes whose TryStartScoreUpdate actually incremented
	leaf          *node.Node
	terminal      bool
	terminalValue float64
	legalMoves    []position.Move
	slot          int
}

// worker runs one goroutine's share of a Controller's search: the
// Init->GatherMinibatch->Prefetch->RunNN->FetchResults->Backup->
// UpdateCounters loop, grounded step-for-step on search.cc's
// SearchWorker::ExecuteOneIteration. history is scratch space private to
// this goroutine, trimmed back to the root before every descent so one
// worker's in-progress path never leaks into another's.
type worker struct {
	id         int
	controller *Controller
	history    *position.History
}

func (w *worker) run() {
	defer w.controller.wg.Done()
	for {
		select {
		case <-w.controller.stopCh:
			return
		default:
		}
		w.iterate()
	}
}

// iterate is one pass of the seven-step loop: Init is the worker's own
// scratch history (already in place), GatherMinibatch/Prefetch happen
// together inside gatherMinibatch, RunNN is the single ComputeBlocking
// call, and FetchResults/Backup/UpdateCounters follow.
func (w *worker) iterate() {
	cfg := w.controller.cfg
	comp := nn.NewCachingComputation(w.controller.evaluator, w.controller.cache)

	gathered, collisions := w.gatherMinibatch(comp)
	w.controller.metrics.ObserveBatchSize(len(gathered))

	if err := comp.ComputeBlocking(); err != nil {
		w.controller.log.Error().Err(err).Msg("nn computation failed")
		w.controller.requestStop()
		return
	}

	realVisits := 0
	for _, g := range gathered {
		var v float64
		if g.terminal {
			v = g.terminalValue
		} else {
			v = comp.Q(g.slot)
			g.leaf.SetV(v)
			for _, mv := range g.legalMoves {
				if child := g.leaf.ChildByMove(mv); child != nil {
					child.SetP(comp.P(g.slot, mv.Index()))
				}
			}
			applyPolicySoftmax(g.leaf.Children(), cfg.PolicySoftmaxTemp)
		}
		backupPath(g.path, v, node.BackupParams{Gamma: cfg.BackpropagateGamma, Beta: cfg.BackpropagateBeta})
		realVisits++
	}

	w.controller.updateCounters(realVisits, collisions, comp.CacheMisses(), comp.BatchSize())
}

// gatherMinibatch repeatedly descends from the root via PUCT selection,
// extending whatever leaf it reaches and either recording its terminal
// value or queueing it for NN evaluation, up to MiniBatchSize leaves. Each
// non-terminal leaf also triggers a small Prefetch of its most promising
// unvisited siblings, riding along in the same NN batch (folded into the
// per-leaf loop rather than a separate batch-end pass, since the opaque
// Position interface has no cheap random-access replay to reconstruct a
// sibling's planes after the fact -- see DESIGN.md).
func (w *worker) gatherMinibatch(comp *nn.CachingComputation) (gathered []*gatheredLeaf, collisions int) {
	cfg := w.controller.cfg
	prefetchBudget := cfg.MaxPrefetchBatch
	consecutiveCollisions := 0

	for i := 0; i < cfg.MiniBatchSize; i++ {
		w.history.Trim(1)
		path, leaf, collided := w.pickLeaf(w.history)
		if collided {
			backupCollision(path)
			w.controller.recordCollision()
			collisions++
			consecutiveCollisions++
			if cfg.AllowedNodeCollisions > 0 && consecutiveCollisions > cfg.AllowedNodeCollisions {
				break
			}
			continue
		}
		consecutiveCollisions = 0

		g := &gatheredLeaf{path: path, leaf: leaf}
		if leaf.IsTerminal() {
			g.terminal = true
			g.terminalValue = terminalValueFor(leaf.TerminalResult())
		} else {
			legal := w.history.Last().LegalMoves()
			hash := w.history.HashLast(cfg.CacheHistoryLength + 1)
			planes := w.controller.encoder(w.history)
			g.legalMoves = legal
			g.slot = comp.AddInput(hash, planes, legal)

			if len(path) >= 2 {
				w.prefetchSiblings(comp, w.history, path[len(path)-2], leaf.Move(), &prefetchBudget)
			}
		}
		gathered = append(gathered, g)

		if i == 0 && len(gathered) == 1 && w.controller.singleReply {
			// One legal reply at the root: shouldStop's single-reply check
			// stops the search right after this batch lands, no point
			// gathering more.
			break
		}
	}
	return gathered, collisions
}

// pickLeaf walks from the root by PUCT selection, applying the root-only
// searchmoves/smart-pruning filter, until it reaches an unexpanded or
// terminal node. Holds the controller's tree lock for the whole descent
// (search.cc's nodes_mutex_): PUCT's child scores and Extend's child-list
// creation must be observed consistently by every concurrent worker.
func (w *worker) pickLeaf(history *position.History) (path []*node.Node, leaf *node.Node, collided bool) {
	c := w.controller
	c.treeMu.Lock()
	defer c.treeMu.Unlock()

	cur := c.tree.Root()
	isRoot := true
	for {
		if cur.TryStartScoreUpdate() {
			return path, cur, true
		}
		path = append(path, cur)

		if !cur.HasChildren() {
			if !cur.IsExtended() {
				extendNode(cur, history, isRoot)
			}
			return path, cur, false
		}

		children := cur.Children()
		if isRoot {
			children = c.filterRootChildren(children)
		}
		next := selectChild(cur, children, c.cfg.Cpuct, c.cfg.FpuReduction, c.cfg.VirtualLossBug, isRoot, c.cfg.DirichletNoise)
		history.Append(next.Move())
		cur = next
		isRoot = false
	}
}

// selectChild is the PUCT rule: argmax over Q(fpu) + Cpuct*P*sqrt(parent
// children visits)/(1+NStarted). Q uses the pessimistic virtual-loss value
// so a sibling worker already descending into a child is steered away from,
// blended back toward the real Q by VirtualLossBug (0 = full virtual loss,
// 1 = ignore virtual loss entirely).
//
// fpu (first-play urgency, the fallback Q handed to an unvisited child) is
// grounded on search.cc:568-572: parent_q = -node.GetQ(0) -
// fpuReduction*sqrt(node.GetVisitedPolicy()), with the reduction term
// dropped when this is the root and Dirichlet noise was injected (the
// noise already provides enough exploration pressure at the root).
// node.Q is stored own-perspective (negamax), so the parent's Q must be
// negated to read as a value from the child's perspective.
func selectChild(parent *node.Node, children []*node.Node, cpuct, fpuReduction, virtualLossBug float64, isRoot, noise bool) *node.Node {
	var fpu float64
	if isRoot && noise {
		fpu = -parent.Q(0)
	} else {
		fpu = -parent.Q(0) - fpuReduction*math.Sqrt(parent.VisitedPolicy())
	}
	sqrtParentVisits := math.Sqrt(math.Max(float64(parent.ChildrenVisits()), 1))

	var best *node.Node
	bestScore := negInf
	for _, child := range children {
		q := child.QVirtualLoss(fpu)
		if virtualLossBug > 0 {
			q += virtualLossBug * (child.Q(fpu) - q)
		}
		u := cpuct * child.P() * sqrtParentVisits / float64(1+child.NStarted())
		if score := q + u; score > bestScore {
			bestScore = score
			best = child
		}
	}
	return best
}

// applyPolicySoftmax sharpens or flattens a freshly-primed node's
// children priors by policySoftmaxTemp and renormalizes them back to a
// probability distribution, grounded on search.cc:808-819: each prior is
// raised to the power 1/temp (skipped when temp == 1) before the
// children are rescaled to sum to 1.
func applyPolicySoftmax(children []*node.Node, policySoftmaxTemp float64) {
	if len(children) == 0 {
		return
	}
	var total float64
	for _, child := range children {
		p := child.P()
		if policySoftmaxTemp != 1 {
			p = math.Pow(p, 1/policySoftmaxTemp)
			child.SetP(p)
		}
		total += p
	}
	if total <= 0 {
		return
	}
	scale := 1 / total
	for _, child := range children {
		child.SetP(child.P() * scale)
	}
}

// filterRootChildren narrows root selection to the host's searchmoves, if
// any, and drops children smart pruning has already ruled out: a child
// whose visit count could not catch up to the current leader even with
// every remaining playout is no longer worth descending into. At least one
// child always survives.
func (c *Controller) filterRootChildren(children []*node.Node) []*node.Node {
	allowed := c.limits.searchMovesIndex()
	remaining := c.remainingPlayoutsSnapshot()

	bestN := -1
	for _, ch := range children {
		if n := ch.N(); n > bestN {
			bestN = n
		}
	}

	filtered := make([]*node.Node, 0, len(children))
	for _, ch := range children {
		if allowed != nil && !allowed[ch.Move().Index()] {
			continue
		}
		if c.cfg.SmartPruning && remaining >= 0 && ch.N()+remaining < bestN {
			continue
		}
		filtered = append(filtered, ch)
	}
	if len(filtered) == 0 {
		return children
	}
	return filtered
}

// prefetchSiblings queues cache-only lookups for a leaf's top unvisited
// siblings, up to the shared budget. A cache hit costs nothing (the inner
// Computation is never touched); a miss rides the same NN batch as the real
// leaf it's gathered alongside, a cheap approximation of search.cc's
// recursive PrefetchIntoCache proportional-budget split.
func (w *worker) prefetchSiblings(comp *nn.CachingComputation, history *position.History, parent *node.Node, exclude position.Move, budget *int) {
	if *budget <= 0 {
		return
	}
	cfg := w.controller.cfg

	type candidate struct {
		move position.Move
		p    float64
	}
	var candidates []candidate
	for _, sib := range parent.Children() {
		if sib.Move().Index() == exclude.Index() || sib.N() > 0 {
			continue
		}
		candidates = append(candidates, candidate{move: sib.Move(), p: sib.P()})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].p > candidates[j].p })

	const maxPerLeaf = 2
	parentPos := history.Ancestor(1)
	for i, cand := range candidates {
		if i >= maxPerLeaf || *budget <= 0 {
			return
		}
		siblingPos := parentPos.Play(cand.move)
		siblingHistory := history.Copy()
		siblingHistory.Pop()
		siblingHistory.Append(cand.move)

		legal := siblingPos.LegalMoves()
		hash := siblingHistory.HashLast(cfg.CacheHistoryLength + 1)
		planes := w.controller.encoder(siblingHistory)
		comp.AddInput(hash, planes, legal)
		*budget--
	}
}

// extendNode is Extend with the by-rule draw decision computed from the
// position at history.Last(), the policy-agnostic glue between package
// position and package node.
func extendNode(n *node.Node, history *position.History, isRoot bool) {
	pos := history.Last()
	legal := pos.LegalMoves()
	inCheck := pos.IsCheck()
	drawByRule := !pos.HasMatingMaterial() || pos.HalfmoveClock() >= 100 || pos.Repetitions() >= 2
	n.Extend(legal, inCheck, pos.IsBlackToMove(), isRoot, drawByRule)
}

// terminalValueFor converts a classified result into a value from the
// perspective of the side to move at that terminal node. Extend only ever
// assigns WhiteWon/BlackWon when the side to move has just been mated, so
// any non-draw result is always a loss from this node's own perspective.
func terminalValueFor(result position.Result) float64 {
	if result == position.Draw {
		return 0
	}
	return -1
}

// backupPath folds a leaf value into every node on its path, flipping sign
// at each step up (negamax: a parent and its child represent opposite sides
// to move), and advances the max-depth/full-depth statistics in the same
// walk. Grounded on search.cc's DoBackupUpdate.
func backupPath(path []*node.Node, leafValue float64, params node.BackupParams) {
	if len(path) == 0 {
		return
	}

	depth := path[len(path)-1].FullDepth()
	v := leafValue
	for i := len(path) - 1; i >= 0; i-- {
		path[i].FinalizeScoreUpdate(v, params)
		path[i].UpdateMaxDepth(uint16(len(path) - 1 - i))
		v = -v
	}
	for i := len(path) - 2; i >= 0; i-- {
		if !path[i].UpdateFullDepth(&depth) {
			break
		}
	}
}

// backupCollision undoes the in-flight visit recorded by pickLeaf's
// TryStartScoreUpdate calls along a colliding path, without recording any
// result.
func backupCollision(path []*node.Node) {
	for _, n := range path {
		n.CancelScoreUpdate()
	}
}

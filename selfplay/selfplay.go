// Package selfplay drives two search.Controllers through a full game
// against package chess's reference board, the way an AlphaZero-style
// training pipeline generates games: at every ply the side to move runs a
// search, samples (or argmaxes) its move from the resulting visit
// distribution, and the game continues until a terminal position or a
// ply cap is reached.
//
// Grounded on gamemaster/local.go's Init/Play/UpdateGetter turn loop and
// engine/local.go's Engine.Run loop — generalized from Risk's two-player
// turn alternation into a generic "run N plies against a board" driver —
// and on player/training.go's adjustTemperature/sample move-selection
// idiom, which is already implemented as search.Controller.BestMoveNow
// (this package calls that rather than re-implementing sampling, since a
// full-game driver treats the controller as a black box, matching the
// teacher's own split between package searcher/agent and package player).
package selfplay

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mctscore/position"
	"mctscore/search"
)

// TrainingExample is one position visited during a self-play game, paired
// with the search's visit-count policy and (once the game ends) the
// eventual outcome from that position's own side to move — the AlphaZero
// training triple (position, policy, value). Reinstated from
// original_source/'s self-play data generation, which spec.md's
// distillation dropped entirely.
type TrainingExample struct {
	Position position.Position
	Policy   map[uint16]float64
	// Value is filled in by PlayGame once the game concludes: +1 if the
	// side to move at Position eventually won, -1 if it lost, 0 for a
	// draw.
	Value float64
}

// MoveRecord is one completed ply: the move played and the controller's
// evaluation of the position it left behind.
type MoveRecord struct {
	Move position.Move
	Eval float64
}

// GameResult is a finished self-play game.
type GameResult struct {
	Result    position.Result
	Moves     []MoveRecord
	Plies     int
	Examples  []TrainingExample
	Truncated bool // hit MaxPlies before reaching a terminal position
}

// Config bounds one self-play game.
type Config struct {
	// MaxPlies caps the game length; 0 means the teacher's own default of
	// 500 (engine/local.go's MaxTurns), since an unbounded self-play loop
	// risks looping forever against a weak or buggy evaluator.
	MaxPlies int
	// Limits is applied to every ply's search (e.g. a fixed playout
	// count); the same Limits value drives both sides.
	Limits search.Limits
	Log    zerolog.Logger
}

const defaultMaxPlies = 500

// PlayGame alternates searches between white and black, starting from
// start, until the position is terminal or Config.MaxPlies plies have
// been played. white and black may be the same *search.Controller (self-
// play in the literal sense) or two distinct ones (engine-vs-engine
// matches); either way each call to SetPosition/Start/Wait fully drives
// one ply before control returns to this loop, mirroring
// engine/local.go's Run: one FindMove call per turn, synchronously.
func PlayGame(ctx context.Context, white, black *search.Controller, start position.Position, cfg Config) (GameResult, error) {
	maxPlies := cfg.MaxPlies
	if maxPlies == 0 {
		maxPlies = defaultMaxPlies
	}

	pos := start
	var moves []MoveRecord
	var examples []TrainingExample
	var history []position.Move
	lastSearched := make(map[*search.Controller]int)

	for ply := 0; ply < maxPlies; ply++ {
		if result, terminal := terminalResult(pos); terminal {
			backfillValues(examples, result, ply)
			return GameResult{Result: result, Moves: moves, Plies: ply, Examples: examples}, nil
		}

		controller := white
		if pos.IsBlackToMove() {
			controller = black
		}

		// SetPosition takes the moves played since this controller's own
		// last search; its first search in this game starts a fresh tree.
		var sinceLast []position.Move
		if k, ok := lastSearched[controller]; ok {
			sinceLast = history[k:]
		}
		controller.SetPosition(pos, sinceLast)
		lastSearched[controller] = ply
		if err := controller.Start(pos, cfg.Limits); err != nil {
			return GameResult{}, fmt.Errorf("selfplay: ply %d: %w", ply, err)
		}
		res, err := controller.Wait(ctx)
		if err != nil {
			return GameResult{}, fmt.Errorf("selfplay: ply %d: %w", ply, err)
		}
		if res.Move == nil {
			// No legal moves reported despite pos not being classified
			// terminal above — treat conservatively as a stalemate-style
			// draw and stop, rather than looping forever.
			cfg.Log.Warn().Int("ply", ply).Msg("selfplay: search returned no move for a non-terminal position")
			backfillValues(examples, position.Draw, ply)
			return GameResult{Result: position.Draw, Moves: moves, Plies: ply, Examples: examples, Truncated: true}, nil
		}

		policy := visitPolicy(controller)
		examples = append(examples, TrainingExample{Position: pos, Policy: policy})
		moves = append(moves, MoveRecord{Move: res.Move, Eval: res.Eval})

		pos = pos.Play(res.Move)
		history = append(history, res.Move)
	}

	cfg.Log.Info().Int("plies", maxPlies).Msg("selfplay: game truncated at ply cap")
	backfillValues(examples, position.Draw, maxPlies)
	return GameResult{Result: position.Draw, Moves: moves, Plies: maxPlies, Examples: examples, Truncated: true}, nil
}

// terminalResult classifies pos the same way search/worker.go's
// extendNode does, so a self-play game and a search agree on what counts
// as over.
func terminalResult(pos position.Position) (position.Result, bool) {
	legal := pos.LegalMoves()
	if len(legal) == 0 {
		if pos.IsCheck() {
			if pos.IsBlackToMove() {
				return position.WhiteWon, true
			}
			return position.BlackWon, true
		}
		return position.Draw, true
	}
	if !pos.HasMatingMaterial() || pos.HalfmoveClock() >= 100 || pos.Repetitions() >= 2 {
		return position.Draw, true
	}
	return position.Draw, false
}

// visitPolicy reads the root's visit-count distribution straight off
// VerboseMoveStats, normalizing N into a probability simplex — the
// training target AlphaZero-style self-play records for each position.
func visitPolicy(c *search.Controller) map[uint16]float64 {
	stats := c.VerboseMoveStats()
	total := 0
	for _, s := range stats {
		total += s.N
	}
	policy := make(map[uint16]float64, len(stats))
	if total == 0 {
		for _, s := range stats {
			policy[s.Move.Index()] = 1 / float64(len(stats))
		}
		return policy
	}
	for _, s := range stats {
		policy[s.Move.Index()] = float64(s.N) / float64(total)
	}
	return policy
}

// backfillValues assigns each recorded example's Value once the game's
// result is known: +1/-1 from that example's own side-to-move
// perspective (white examples are at even plies, black at odd), 0 for a
// draw.
func backfillValues(examples []TrainingExample, result position.Result, _ int) {
	for i := range examples {
		whiteToMove := i%2 == 0
		switch result {
		case position.Draw:
			examples[i].Value = 0
		case position.WhiteWon:
			if whiteToMove {
				examples[i].Value = 1
			} else {
				examples[i].Value = -1
			}
		case position.BlackWon:
			if whiteToMove {
				examples[i].Value = -1
			} else {
				examples[i].Value = 1
			}
		}
	}
}

// PlayMatch runs n consecutive games, alternating which controller plays
// white each game, returning aggregate win/draw/loss counts from controller
// a's perspective, whichever colour it played. This is the shape engine/local.go's Run
// would drive in a loop if it played more than one game.
func PlayMatch(ctx context.Context, a, b *search.Controller, newGame func() position.Position, cfg Config, n int) (wins, draws, losses int, games []GameResult, err error) {
	for i := 0; i < n; i++ {
		white, black := a, b
		if i%2 == 1 {
			white, black = b, a
		}
		white.NewGame()
		black.NewGame()

		start := time.Now()
		gr, gerr := PlayGame(ctx, white, black, newGame(), cfg)
		if gerr != nil {
			return wins, draws, losses, games, fmt.Errorf("selfplay: game %d: %w", i, gerr)
		}
		cfg.Log.Info().Int("game", i).Dur("elapsed", time.Since(start)).Int("plies", gr.Plies).Msg("selfplay: game finished")

		switch {
		case gr.Result == position.Draw:
			draws++
		case gr.Result == position.WhiteWon && i%2 == 0, gr.Result == position.BlackWon && i%2 == 1:
			wins++
		default:
			losses++
		}
		games = append(games, gr)
	}
	return wins, draws, losses, games, nil
}

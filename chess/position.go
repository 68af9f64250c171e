package chess

import "mctscore/position"

// LegalMoves adapts Pos's own []Move slice to the position.Move interface
// the search core expects.
func (p *Pos) LegalMoves() []position.Move {
	moves := p.legalMoves()
	out := make([]position.Move, len(moves))
	for i, m := range moves {
		out[i] = m
	}
	return out
}

// Play applies a move produced by this package's own LegalMoves (any other
// position.Move implementation is a programmer error, so the type
// assertion is allowed to panic).
func (p *Pos) Play(m position.Move) position.Position {
	mv := m.(Move)
	next := p.makeMove(mv)

	// A checkmate-by-no-moves classification needs the mover's color, not
	// just "in check"; genCastles/legalMoves already guarantee legality, so
	// node.Extend corrects WhiteWon/BlackWon using IsBlackToMove/IsCheck on
	// the position that has no legal moves (see search package's
	// extendNode).
	return next
}

func (p *Pos) HalfmoveClock() int { return p.halfmoveClock }

// Repetitions counts how many times this exact position occurred earlier in
// the game (not counting the current occurrence itself).
func (p *Pos) Repetitions() int {
	count := 0
	for _, h := range p.priorHashes[:len(p.priorHashes)-1] {
		if h == p.hash {
			count++
		}
	}
	return count
}

func (p *Pos) Ply() int               { return p.ply }
func (p *Pos) IsBlackToMove() bool    { return p.blackToMove }
func (p *Pos) Hash() position.Hash    { return position.Hash(p.hash) }

var _ position.Position = (*Pos)(nil)
var _ position.Move = Move{}

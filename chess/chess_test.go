package chess

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartingPositionHasTwentyLegalMoves(t *testing.T) {
	p := NewGame()
	require.Len(t, p.legalMoves(), 20)
	require.False(t, p.IsCheck())
}

func findMove(t *testing.T, p *Pos, from, to Square) Move {
	t.Helper()
	for _, m := range p.legalMoves() {
		if m.From == from && m.To == to {
			return m
		}
	}
	t.Fatalf("no legal move %s%s", from, to)
	return Move{}
}

func TestFoolsMateLeavesNoLegalMovesAndIsCheckmate(t *testing.T) {
	p := NewGame()

	// 1. f3 e5 2. g4 Qh4#
	p = p.makeMove(findMove(t, p, squareOf(5, 1), squareOf(5, 2)))  // f2-f3
	p = p.makeMove(findMove(t, p, squareOf(4, 6), squareOf(4, 4)))  // e7-e5
	p = p.makeMove(findMove(t, p, squareOf(6, 1), squareOf(6, 3)))  // g2-g4
	p = p.makeMove(findMove(t, p, squareOf(3, 7), squareOf(7, 3)))  // Qd8-h4

	require.Empty(t, p.legalMoves())
	require.True(t, p.IsCheck())
}

func TestEnPassantCapture(t *testing.T) {
	p := NewGame()
	p = p.makeMove(findMove(t, p, squareOf(4, 1), squareOf(4, 3))) // e2-e4
	p = p.makeMove(findMove(t, p, squareOf(0, 6), squareOf(0, 5))) // a7-a6, a waiting move
	p = p.makeMove(findMove(t, p, squareOf(4, 3), squareOf(4, 4))) // e4-e5
	p = p.makeMove(findMove(t, p, squareOf(3, 6), squareOf(3, 4))) // d7-d5, sets ep target

	require.Equal(t, squareOf(3, 5), p.epTarget)

	var epMove Move
	found := false
	for _, m := range p.legalMoves() {
		if m.Flag == EnPassantCapture {
			epMove = m
			found = true
		}
	}
	require.True(t, found, "en passant capture should be legal")

	after := p.makeMove(epMove)
	require.Equal(t, Empty, after.squares[squareOf(3, 4)], "captured pawn should be removed")
}

func TestCastlingKingside(t *testing.T) {
	p := NewGame()
	p = p.makeMove(findMove(t, p, squareOf(4, 1), squareOf(4, 3))) // e4
	p = p.makeMove(findMove(t, p, squareOf(4, 6), squareOf(4, 4))) // e5
	p = p.makeMove(findMove(t, p, squareOf(6, 0), squareOf(5, 2))) // Ng1-f3
	p = p.makeMove(findMove(t, p, squareOf(1, 7), squareOf(2, 5))) // Nb8-c6
	p = p.makeMove(findMove(t, p, squareOf(5, 0), squareOf(4, 1))) // Bf1-e2
	p = p.makeMove(findMove(t, p, squareOf(1, 6), squareOf(1, 5))) // b6, waiting

	var castle Move
	found := false
	for _, m := range p.legalMoves() {
		if m.Flag == CastleKingside {
			castle = m
			found = true
		}
	}
	require.True(t, found, "kingside castle should be available once the path is clear")

	after := p.makeMove(castle)
	require.Equal(t, WK, after.squares[squareOf(6, 0)])
	require.Equal(t, WR, after.squares[squareOf(5, 0)])
}

func TestPromotionGeneratesFourChoices(t *testing.T) {
	p := &Pos{epTarget: noEP}
	p.squares[squareOf(0, 6)] = WP
	p.squares[squareOf(0, 0)] = WK
	p.squares[squareOf(7, 7)] = BK
	p.hash = p.computeHash()
	p.priorHashes = []uint64{p.hash}

	count := 0
	for _, m := range p.legalMoves() {
		if m.From == squareOf(0, 6) {
			count++
		}
	}
	require.Equal(t, 4, count, "a pawn reaching the last rank should offer N/B/R/Q promotion choices")
}

func TestHasMatingMaterialFalseForBareKings(t *testing.T) {
	p := &Pos{epTarget: noEP}
	p.squares[squareOf(0, 0)] = WK
	p.squares[squareOf(7, 7)] = BK
	require.False(t, p.HasMatingMaterial())
}

func TestHasMatingMaterialTrueWithQueen(t *testing.T) {
	p := &Pos{epTarget: noEP}
	p.squares[squareOf(0, 0)] = WK
	p.squares[squareOf(7, 7)] = BK
	p.squares[squareOf(3, 3)] = WQ
	require.True(t, p.HasMatingMaterial())
}

func TestRepetitionsCountsPriorOccurrences(t *testing.T) {
	p := NewGame()
	p = p.makeMove(findMove(t, p, squareOf(6, 0), squareOf(5, 2))) // Nf3
	p = p.makeMove(findMove(t, p, squareOf(6, 7), squareOf(5, 5))) // Nf6
	p = p.makeMove(findMove(t, p, squareOf(5, 2), squareOf(6, 0))) // Ng1
	p = p.makeMove(findMove(t, p, squareOf(5, 5), squareOf(6, 7))) // Ng8, back to the start position

	require.Equal(t, 1, p.Repetitions())
}

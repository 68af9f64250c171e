package main

import (
	"fmt"

	"mctscore/chess"
	"mctscore/position"
)

// chessCodec is the concrete protocol.PositionCodec this host wires in:
// it resolves the wire format's move indices against package chess's
// legal-move generator, keeping package protocol itself board-agnostic.
// Mirrors the test-only implementation in protocol/admin_server_test.go.
type chessCodec struct{}

func (chessCodec) NewGame() position.Position {
	return chess.NewGame()
}

func (chessCodec) DecodeMove(pos position.Position, index uint16) (position.Move, error) {
	for _, m := range pos.LegalMoves() {
		if m.Index() == index {
			return m, nil
		}
	}
	return nil, fmt.Errorf("enginectl: move index %d is not legal in this position", index)
}

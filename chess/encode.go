package chess

import (
	"mctscore/nn"
	"mctscore/position"
)

// EncodePlanes flattens a position into one-hot piece planes plus a
// side-to-move plane: 12 planes of 64 squares (one per piece kind/color)
// followed by a 64-wide plane of all 1s or all 0s depending on whose turn
// it is. This is the reference board's plug into nn.PlaneEncoder — real
// engines also fold in history and repetition planes, but those refinements
// aren't needed to exercise the search core.
func EncodePlanes(h *position.History) nn.InputPlanes {
	pos, ok := h.Last().(*Pos)
	if !ok {
		// EncodePlanes is only ever wired up alongside this package's own
		// Pos implementation; any other position.Position is a
		// configuration error.
		panic("chess: EncodePlanes called with a non-chess position")
	}

	planes := make(nn.InputPlanes, 13*64)
	for sq := 0; sq < 64; sq++ {
		if pc := pos.squares[sq]; pc != Empty {
			planes[int(pc-WP)*64+sq] = 1
		}
	}
	if pos.blackToMove {
		for sq := 0; sq < 64; sq++ {
			planes[12*64+sq] = 1
		}
	}
	return planes
}

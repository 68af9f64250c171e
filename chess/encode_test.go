package chess

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mctscore/position"
)

func TestEncodePlanesMarksSideToMove(t *testing.T) {
	p := NewGame()
	h := position.NewHistory(p)

	planes := EncodePlanes(h)
	require.Len(t, planes, 13*64)
	for sq := 0; sq < 64; sq++ {
		require.Equal(t, float32(0), planes[12*64+sq], "white to move should leave the side-to-move plane zeroed")
	}

	h.Append(findMove(t, p, squareOf(4, 1), squareOf(4, 3)))
	planes = EncodePlanes(h)
	for sq := 0; sq < 64; sq++ {
		require.Equal(t, float32(1), planes[12*64+sq], "black to move should set the side-to-move plane")
	}
}

func TestEncodePlanesMarksOccupiedSquares(t *testing.T) {
	p := NewGame()
	h := position.NewHistory(p)
	planes := EncodePlanes(h)

	// a1 is a white rook: piece kind WR - WP = 3.
	require.Equal(t, float32(1), planes[3*64+int(squareOf(0, 0))])
	// e4 is empty in the starting position.
	require.Equal(t, float32(0), planes[int(WP-WP)*64+int(squareOf(4, 3))])
}

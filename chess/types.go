// Package chess is a minimal, legal-move-generating chess implementation.
// It exists only so the search core in packages node/nn/search has
// something real to search over — the spec's board/move-generation library
// is explicitly out of scope (spec.md §1 Non-goals), so this package is a
// deliberately small stand-in, not a tournament-strength engine.
//
// Grounded on wllclngn-muEmacs-extensions/go_chess's board.go (8x8 mailbox
// array, Color iota, sync.Pool move-slice allocator) and zobrist.go
// (piece-square random-table hashing), and on risk/game/state.go's
// copy-on-play idiom for immutable position values.
package chess

// Piece identifies what occupies a square: zero value Empty means no piece.
type Piece int8

const (
	Empty Piece = iota
	WP
	WN
	WB
	WR
	WQ
	WK
	BP
	BN
	BB
	BR
	BQ
	BK
)

// IsWhite reports whether a non-empty piece belongs to White.
func (p Piece) IsWhite() bool { return p >= WP && p <= WK }

// IsBlack reports whether a non-empty piece belongs to Black.
func (p Piece) IsBlack() bool { return p >= BP && p <= BK }

// Kind strips color, returning a value comparable across colors (e.g.
// WP.Kind() == BP.Kind()).
func (p Piece) Kind() Piece {
	if p.IsBlack() {
		return p - BP + WP
	}
	return p
}

func (p Piece) String() string {
	switch p {
	case Empty:
		return "."
	case WP:
		return "P"
	case WN:
		return "N"
	case WB:
		return "B"
	case WR:
		return "R"
	case WQ:
		return "Q"
	case WK:
		return "K"
	case BP:
		return "p"
	case BN:
		return "n"
	case BB:
		return "b"
	case BR:
		return "r"
	case BQ:
		return "q"
	case BK:
		return "k"
	default:
		return "?"
	}
}

// Square is a board index 0-63, a1=0, h1=7, a8=56, h8=63.
type Square int8

func squareOf(file, rank int) Square { return Square(rank*8 + file) }
func (s Square) file() int           { return int(s) % 8 }
func (s Square) rank() int           { return int(s) / 8 }

func (s Square) String() string {
	return string(rune('a'+s.file())) + string(rune('1'+s.rank()))
}

// MoveFlag classifies a move beyond its from/to squares, for Play to apply
// its side effects (captured pawn removal, rook hop, clock reset).
type MoveFlag int8

const (
	Quiet MoveFlag = iota
	Capture
	DoublePawnPush
	EnPassantCapture
	CastleKingside
	CastleQueenside
	PromotionQuiet
	PromotionCapture
)

// Move is one legal transition, implementing position.Move.
type Move struct {
	From, To Square
	Flag     MoveFlag
	Promo    Piece // promotion target kind (WN/WB/WR/WQ, color-agnostic), 0 if none
}

// Index packs the move into a stable slot in a fixed-size policy vector:
// from, to, and promotion choice. 64*64 = 4096 slots per promotion choice,
// times 5 choices (none + 4 pieces), safely within uint16.
func (m Move) Index() uint16 {
	promoSlot := 0
	switch m.Promo {
	case WN:
		promoSlot = 1
	case WB:
		promoSlot = 2
	case WR:
		promoSlot = 3
	case WQ:
		promoSlot = 4
	}
	return uint16(promoSlot)*4096 + uint16(m.From)*64 + uint16(m.To)
}

func (m Move) String(blackToMove bool) string {
	s := m.From.String() + m.To.String()
	switch m.Promo {
	case WN:
		s += "n"
	case WB:
		s += "b"
	case WR:
		s += "r"
	case WQ:
		s += "q"
	}
	return s
}

package chess

// Zobrist hashing: one random key per (piece, square), plus keys for side to
// move, castling rights, and en-passant file. Grounded on go_chess's
// zobrist.go. Keys are generated at init time from a small deterministic
// PRNG (not math/rand, whose output isn't pinned across Go versions) so the
// table — and therefore every hash value — is reproducible without needing
// to run anything.
var (
	pieceKeys     [13][64]uint64 // indexed by Piece, Empty's row unused
	sideToMoveKey uint64
	castleKeys    [16]uint64 // indexed by a 4-bit WK|WQ|BK|BQ rights mask
	enPassantKeys [8]uint64  // indexed by file
)

// splitmix64 is a small, fast, deterministic PRNG used only to fill the
// zobrist tables at package init; its statistical properties don't matter
// here, only that it's fixed and collision-free in practice for 64+ draws.
type splitmix64 struct{ state uint64 }

func (s *splitmix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func init() {
	rng := &splitmix64{state: 0x2545F4914F6CDD1D}
	for piece := WP; piece <= BK; piece++ {
		for sq := 0; sq < 64; sq++ {
			pieceKeys[piece][sq] = rng.next()
		}
	}
	sideToMoveKey = rng.next()
	for i := range castleKeys {
		castleKeys[i] = rng.next()
	}
	for i := range enPassantKeys {
		enPassantKeys[i] = rng.next()
	}
}

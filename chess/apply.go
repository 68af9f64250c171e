package chess

// makeMove applies a pseudo-legal move and returns the resulting position.
// It never mutates the receiver: the board array is a value type, so
// copying p's struct (the *p dereference below) gives an independent copy
// to mutate.
func (p *Pos) makeMove(m Move) *Pos {
	next := *p
	white := !p.blackToMove

	mover := next.squares[m.From]
	next.squares[m.From] = Empty

	resetClock := mover.Kind() == WP || m.Flag == Capture || m.Flag == EnPassantCapture ||
		m.Flag == PromotionCapture || m.Flag == PromotionQuiet

	switch m.Flag {
	case EnPassantCapture:
		capturedRank := m.To.rank() - 1
		if !white {
			capturedRank = m.To.rank() + 1
		}
		next.squares[squareOf(m.To.file(), capturedRank)] = Empty
		next.squares[m.To] = mover
	case CastleKingside:
		rank := m.From.rank()
		next.squares[m.To] = mover
		rook := next.squares[squareOf(7, rank)]
		next.squares[squareOf(7, rank)] = Empty
		next.squares[squareOf(5, rank)] = rook
	case CastleQueenside:
		rank := m.From.rank()
		next.squares[m.To] = mover
		rook := next.squares[squareOf(0, rank)]
		next.squares[squareOf(0, rank)] = Empty
		next.squares[squareOf(3, rank)] = rook
	case PromotionQuiet, PromotionCapture:
		promo := m.Promo
		if !white {
			promo = promo - WP + BP
		}
		next.squares[m.To] = promo
	default:
		next.squares[m.To] = mover
	}

	// Castling rights: losing them when the king or either rook moves, or
	// when a rook is captured on its home square.
	switch m.From {
	case squareOf(4, 0):
		next.castleRights &^= rightWK | rightWQ
	case squareOf(4, 7):
		next.castleRights &^= rightBK | rightBQ
	case squareOf(0, 0):
		next.castleRights &^= rightWQ
	case squareOf(7, 0):
		next.castleRights &^= rightWK
	case squareOf(0, 7):
		next.castleRights &^= rightBQ
	case squareOf(7, 7):
		next.castleRights &^= rightBK
	}
	switch m.To {
	case squareOf(0, 0):
		next.castleRights &^= rightWQ
	case squareOf(7, 0):
		next.castleRights &^= rightWK
	case squareOf(0, 7):
		next.castleRights &^= rightBQ
	case squareOf(7, 7):
		next.castleRights &^= rightBK
	}

	next.epTarget = noEP
	if m.Flag == DoublePawnPush {
		epRank := m.From.rank() + 1
		if !white {
			epRank = m.From.rank() - 1
		}
		next.epTarget = squareOf(m.From.file(), epRank)
	}

	if resetClock {
		next.halfmoveClock = 0
	} else {
		next.halfmoveClock++
	}

	next.blackToMove = !p.blackToMove
	next.ply = p.ply + 1
	next.hash = next.computeHash()

	next.priorHashes = make([]uint64, len(p.priorHashes)+1)
	copy(next.priorHashes, p.priorHashes)
	next.priorHashes[len(p.priorHashes)] = next.hash

	return &next
}

// material counts non-king pieces, used by HasMatingMaterial's insufficient-
// material shortcut.
type material struct {
	pawns, knights, bishops, rooks, queens int
}

func (p *Pos) countMaterial() (white, black material) {
	for _, pc := range p.squares {
		var m *material
		switch {
		case pc.IsWhite():
			m = &white
		case pc.IsBlack():
			m = &black
		default:
			continue
		}
		switch pc.Kind() {
		case WP:
			m.pawns++
		case WN:
			m.knights++
		case WB:
			m.bishops++
		case WR:
			m.rooks++
		case WQ:
			m.queens++
		}
	}
	return white, black
}

func (m material) isBareOrSingleMinor() bool {
	return m.pawns == 0 && m.rooks == 0 && m.queens == 0 && (m.knights+m.bishops) <= 1
}

// HasMatingMaterial reports whether the position still has enough material
// for either side to deliver checkmate. This intentionally only covers the
// clear-cut insufficient-material cases (bare kings, king + lone minor each
// side) rather than every FIDE edge case (e.g. same-colored bishops), since
// the search core only needs this as one of several draw-detection
// shortcuts, not a rules authority.
func (p *Pos) HasMatingMaterial() bool {
	white, black := p.countMaterial()
	if white.isBareOrSingleMinor() && black.isBareOrSingleMinor() {
		return false
	}
	return true
}

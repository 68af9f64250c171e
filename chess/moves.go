package chess

// pseudoMoves generates every move obeying piece-movement rules but without
// checking whether it leaves the mover's own king in check; LegalMoves
// filters those out afterward by simulating each move.
func (p *Pos) pseudoMoves() []Move {
	white := !p.blackToMove
	moves := make([]Move, 0, 48)

	for sq := 0; sq < 64; sq++ {
		pc := p.squares[sq]
		if !p.sideOwns(pc, white) {
			continue
		}
		from := Square(sq)
		switch pc.Kind() {
		case WP:
			p.genPawnMoves(from, white, &moves)
		case WN:
			p.genLeaperMoves(from, white, knightDeltas, &moves)
		case WK:
			p.genLeaperMoves(from, white, kingDeltas, &moves)
			p.genCastles(from, white, &moves)
		case WB:
			p.genSliderMoves(from, white, bishopDirs, &moves)
		case WR:
			p.genSliderMoves(from, white, rookDirs, &moves)
		case WQ:
			p.genSliderMoves(from, white, bishopDirs, &moves)
			p.genSliderMoves(from, white, rookDirs, &moves)
		}
	}
	return moves
}

func (p *Pos) genPawnMoves(from Square, white bool, moves *[]Move) {
	file, rank := from.file(), from.rank()
	dir, startRank, promoRank := 1, 1, 7
	if !white {
		dir, startRank, promoRank = -1, 6, 0
	}

	addPromosOrQuiet := func(to Square, flag MoveFlag) {
		if to.rank() == promoRank {
			promoFlag := PromotionQuiet
			if flag == Capture {
				promoFlag = PromotionCapture
			}
			for _, promo := range [4]Piece{WN, WB, WR, WQ} {
				*moves = append(*moves, Move{From: from, To: to, Flag: promoFlag, Promo: promo})
			}
			return
		}
		*moves = append(*moves, Move{From: from, To: to, Flag: flag})
	}

	oneRank := rank + dir
	if onBoard(file, oneRank) {
		oneSq := squareOf(file, oneRank)
		if p.squares[oneSq] == Empty {
			addPromosOrQuiet(oneSq, Quiet)
			if rank == startRank {
				twoSq := squareOf(file, rank+2*dir)
				if p.squares[twoSq] == Empty {
					*moves = append(*moves, Move{From: from, To: twoSq, Flag: DoublePawnPush})
				}
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		tf := file + df
		if !onBoard(tf, oneRank) {
			continue
		}
		to := squareOf(tf, oneRank)
		target := p.squares[to]
		if p.sideOwns(target, !white) {
			addPromosOrQuiet(to, Capture)
		} else if to == p.epTarget {
			*moves = append(*moves, Move{From: from, To: to, Flag: EnPassantCapture})
		}
	}
}

func (p *Pos) genLeaperMoves(from Square, white bool, deltas [8][2]int, moves *[]Move) {
	file, rank := from.file(), from.rank()
	for _, d := range deltas {
		f, r := file+d[0], rank+d[1]
		if !onBoard(f, r) {
			continue
		}
		to := squareOf(f, r)
		target := p.squares[to]
		if p.sideOwns(target, white) {
			continue
		}
		flag := Quiet
		if target != Empty {
			flag = Capture
		}
		*moves = append(*moves, Move{From: from, To: to, Flag: flag})
	}
}

func (p *Pos) genSliderMoves(from Square, white bool, dirs [4][2]int, moves *[]Move) {
	file, rank := from.file(), from.rank()
	for _, d := range dirs {
		f, r := file+d[0], rank+d[1]
		for onBoard(f, r) {
			to := squareOf(f, r)
			target := p.squares[to]
			if p.sideOwns(target, white) {
				break
			}
			flag := Quiet
			if target != Empty {
				flag = Capture
			}
			*moves = append(*moves, Move{From: from, To: to, Flag: flag})
			if target != Empty {
				break
			}
			f += d[0]
			r += d[1]
		}
	}
}

func (p *Pos) genCastles(from Square, white bool, moves *[]Move) {
	rank := 0
	kingside, queenside := rightWK, rightWQ
	if !white {
		rank, kingside, queenside = 7, rightBK, rightBQ
	}
	if from != squareOf(4, rank) {
		return
	}
	if p.attacked(from, !white) {
		return
	}

	if p.castleRights&kingside != 0 &&
		p.squares[squareOf(5, rank)] == Empty && p.squares[squareOf(6, rank)] == Empty &&
		!p.attacked(squareOf(5, rank), !white) && !p.attacked(squareOf(6, rank), !white) {
		*moves = append(*moves, Move{From: from, To: squareOf(6, rank), Flag: CastleKingside})
	}
	if p.castleRights&queenside != 0 &&
		p.squares[squareOf(3, rank)] == Empty && p.squares[squareOf(2, rank)] == Empty && p.squares[squareOf(1, rank)] == Empty &&
		!p.attacked(squareOf(3, rank), !white) && !p.attacked(squareOf(2, rank), !white) {
		*moves = append(*moves, Move{From: from, To: squareOf(2, rank), Flag: CastleQueenside})
	}
}

// legalMoves filters pseudoMoves down to moves that do not leave the
// mover's own king in check, by simulating each one. The position.Position
// interface method lives in position.go, which adapts this into []position.Move.
func (p *Pos) legalMoves() []Move {
	white := !p.blackToMove
	pseudo := p.pseudoMoves()
	legal := make([]Move, 0, len(pseudo))
	for _, m := range pseudo {
		next := p.makeMove(m)
		if !next.attacked(next.kingSquare(white), !white) {
			legal = append(legal, m)
		}
	}
	return legal
}

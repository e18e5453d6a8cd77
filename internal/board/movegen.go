package board

// PromotionMode selects which promotion pieces are generated.
type PromotionMode uint8

const (
	PromoteAll PromotionMode = iota
	PromoteQueenOnly
	PromoteQueenAndKnight
)

// MoveGenerator produces legal moves. The check and attack data it computes
// stay valid until the next call to GenerateMoves.
type MoveGenerator struct {
	PromotionMode PromotionMode

	pos       *Position
	ml        *MoveList
	us, them  Color
	king      Square
	genQuiets bool

	inCheck       bool
	inDoubleCheck bool

	checkRayMask Bitboard // squares that block or capture a single checker
	pinRayMask   Bitboard // union of pin rays, pinned piece included

	opponentSlidingAttackMap Bitboard
	opponentKnightAttacks    Bitboard
	opponentPawnAttackMap    Bitboard
	opponentAttackMap        Bitboard
}

// NewMoveGenerator returns a generator producing every promotion type.
func NewMoveGenerator() *MoveGenerator {
	return &MoveGenerator{PromotionMode: PromoteAll}
}

// InCheck reports whether the side to move was in check at the last generation.
func (g *MoveGenerator) InCheck() bool {
	return g.inCheck
}

// OpponentAttackMap returns every square the opponent attacked at the last generation.
func (g *MoveGenerator) OpponentAttackMap() Bitboard {
	return g.opponentAttackMap
}

// OpponentPawnAttackMap returns the squares attacked by opponent pawns at the last generation.
func (g *MoveGenerator) OpponentPawnAttackMap() Bitboard {
	return g.opponentPawnAttackMap
}

// GenerateMoves fills ml with the legal moves of pos. With capturesOnly set,
// quiet moves are dropped unless the side to move is in check.
// It returns the number of moves generated.
func (g *MoveGenerator) GenerateMoves(pos *Position, ml *MoveList, capturesOnly bool) int {
	g.pos = pos
	g.ml = ml
	ml.Clear()

	g.us = pos.SideToMove
	g.them = g.us.Other()
	g.king = pos.KingSquare[g.us]

	g.calculateAttackData()
	g.genQuiets = !capturesOnly || g.inCheck

	g.generateKingMoves()

	// Only the king can answer a double check.
	if g.inDoubleCheck {
		return ml.Len()
	}

	g.generateSlidingMoves()
	g.generateKnightMoves()
	g.generatePawnMoves()

	return ml.Len()
}

func (g *MoveGenerator) friendly(sq Square) bool {
	return g.pos.occupied[g.us].IsSet(sq)
}

func (g *MoveGenerator) enemy(sq Square) bool {
	return g.pos.occupied[g.them].IsSet(sq)
}

func (g *MoveGenerator) isPinned(sq Square) bool {
	return g.pinRayMask.IsSet(sq)
}

func (g *MoveGenerator) blocksCheck(sq Square) bool {
	return g.checkRayMask.IsSet(sq)
}

func (g *MoveGenerator) calculateAttackData() {
	pos := g.pos
	g.inCheck = false
	g.inDoubleCheck = false
	g.checkRayMask = 0
	g.pinRayMask = 0

	g.generateSlidingAttackMap()

	// Pins and sliding checks: cast all eight rays from the king.
	startDir, endDir := 0, 8
	if pos.pieces[g.them][Queen].Count() == 0 {
		if pos.pieces[g.them][Rook].Count() == 0 {
			startDir = 4
		}
		if pos.pieces[g.them][Bishop].Count() == 0 {
			endDir = 4
		}
	}

	for dir := startDir; dir < endDir; dir++ {
		diagonal := dir > 3
		var rayMask Bitboard
		friendlyAlongRay := false

		for n := 1; n <= NumSquaresToEdge[g.king][dir]; n++ {
			sq := Square(int(g.king) + DirectionOffsets[dir]*n)
			rayMask |= SquareBB(sq)
			piece := pos.Squares[sq]
			if piece == NoPiece {
				continue
			}

			if piece.Color() == g.us {
				if friendlyAlongRay {
					// Two friendly pieces: neither is pinned along this ray.
					break
				}
				friendlyAlongRay = true
				continue
			}

			pt := piece.Type()
			if pt == Queen || (diagonal && pt == Bishop) || (!diagonal && pt == Rook) {
				if friendlyAlongRay {
					g.pinRayMask |= rayMask
				} else {
					g.checkRayMask |= rayMask
					g.inDoubleCheck = g.inCheck
					g.inCheck = true
				}
			}
			break
		}

		if g.inDoubleCheck {
			break
		}
	}

	// Knight checks.
	g.opponentKnightAttacks = 0
	knights := &pos.pieces[g.them][Knight]
	for i := 0; i < knights.Count(); i++ {
		sq := knights.At(i)
		attacks := knightAttacks[sq]
		g.opponentKnightAttacks |= attacks
		if attacks.IsSet(g.king) {
			g.inDoubleCheck = g.inCheck
			g.inCheck = true
			g.checkRayMask |= SquareBB(sq)
		}
	}

	// Pawn checks.
	g.opponentPawnAttackMap = 0
	pawns := &pos.pieces[g.them][Pawn]
	for i := 0; i < pawns.Count(); i++ {
		sq := pawns.At(i)
		attacks := pawnAttacks[g.them][sq]
		g.opponentPawnAttackMap |= attacks
		if attacks.IsSet(g.king) {
			g.inDoubleCheck = g.inCheck
			g.inCheck = true
			g.checkRayMask |= SquareBB(sq)
		}
	}

	enemyKingAttacks := kingAttacks[pos.KingSquare[g.them]]

	g.opponentAttackMap = g.opponentSlidingAttackMap | g.opponentKnightAttacks |
		g.opponentPawnAttackMap | enemyKingAttacks
}

// generateSlidingAttackMap marks every square an enemy slider attacks.
// The friendly king does not block, so stepping back along a checking ray
// is still seen as attacked.
func (g *MoveGenerator) generateSlidingAttackMap() {
	g.opponentSlidingAttackMap = 0
	for _, pt := range [...]PieceType{Rook, Bishop, Queen} {
		startDir, endDir := 0, 8
		switch pt {
		case Rook:
			endDir = 4
		case Bishop:
			startDir = 4
		}

		pl := &g.pos.pieces[g.them][pt]
		for i := 0; i < pl.Count(); i++ {
			g.updateSlidingAttackPiece(pl.At(i), startDir, endDir)
		}
	}
}

func (g *MoveGenerator) updateSlidingAttackPiece(start Square, startDir, endDir int) {
	for dir := startDir; dir < endDir; dir++ {
		for n := 1; n <= NumSquaresToEdge[start][dir]; n++ {
			target := Square(int(start) + DirectionOffsets[dir]*n)
			g.opponentSlidingAttackMap |= SquareBB(target)
			if target != g.king && g.pos.Squares[target] != NoPiece {
				break
			}
		}
	}
}

func (g *MoveGenerator) generateKingMoves() {
	pos := g.pos
	targets := kingAttacks[g.king] &^ pos.occupied[g.us] &^ g.opponentAttackMap

	for targets != 0 {
		target := targets.PopLSB()
		isCapture := g.enemy(target)
		if !isCapture && !g.genQuiets {
			continue
		}
		g.ml.Add(NewMove(g.king, target, FlagNone))
	}

	if g.inCheck || !g.genQuiets {
		return
	}

	// Castling: the king's path must be empty and unattacked.
	cr := pos.Castling()
	blocked := pos.AllOccupied() | g.opponentAttackMap
	rook := NewPiece(Rook, g.us)
	home := E1
	if g.us == Black {
		home = E8
	}
	if g.king != home {
		return
	}

	if cr.CanCastle(g.us, true) && pos.Squares[home+3] == rook {
		path := SquareBB(home+1) | SquareBB(home+2)
		if blocked&path == 0 {
			g.ml.Add(NewMove(home, home+2, FlagCastle))
		}
	}
	if cr.CanCastle(g.us, false) && pos.Squares[home-4] == rook {
		path := SquareBB(home-1) | SquareBB(home-2)
		if blocked&path == 0 && pos.Squares[home-3] == NoPiece {
			g.ml.Add(NewMove(home, home-2, FlagCastle))
		}
	}
}

func (g *MoveGenerator) generateSlidingMoves() {
	for _, pt := range [...]PieceType{Rook, Bishop, Queen} {
		startDir, endDir := 0, 8
		switch pt {
		case Rook:
			endDir = 4
		case Bishop:
			startDir = 4
		}

		pl := &g.pos.pieces[g.us][pt]
		for i := 0; i < pl.Count(); i++ {
			g.generateSlidingPieceMoves(pl.At(i), startDir, endDir)
		}
	}
}

func (g *MoveGenerator) generateSlidingPieceMoves(start Square, startDir, endDir int) {
	pinned := g.isPinned(start)

	// A pinned piece can never resolve a check.
	if g.inCheck && pinned {
		return
	}

	for dir := startDir; dir < endDir; dir++ {
		offset := DirectionOffsets[dir]
		if NumSquaresToEdge[start][dir] == 0 {
			continue
		}

		if pinned && !Aligned(g.king, start, Square(int(start)+offset)) {
			continue
		}

		for n := 1; n <= NumSquaresToEdge[start][dir]; n++ {
			target := Square(int(start) + offset*n)
			if g.friendly(target) {
				break
			}

			isCapture := g.enemy(target)
			preventsCheck := g.blocksCheck(target)
			if (preventsCheck || !g.inCheck) && (g.genQuiets || isCapture) {
				g.ml.Add(NewMove(start, target, FlagNone))
			}

			// Captures and check blocks end the ray.
			if isCapture || preventsCheck {
				break
			}
		}
	}
}

func (g *MoveGenerator) generateKnightMoves() {
	knights := &g.pos.pieces[g.us][Knight]
	for i := 0; i < knights.Count(); i++ {
		start := knights.At(i)

		// Every knight move leaves a pin ray.
		if g.isPinned(start) {
			continue
		}

		targets := knightAttacks[start] &^ g.pos.occupied[g.us]
		for targets != 0 {
			target := targets.PopLSB()
			isCapture := g.enemy(target)
			if !g.genQuiets && !isCapture {
				continue
			}
			if g.inCheck && !g.blocksCheck(target) {
				continue
			}
			g.ml.Add(NewMove(start, target, FlagNone))
		}
	}
}

func (g *MoveGenerator) generatePawnMoves() {
	pos := g.pos
	pushOffset, startRank, lastRankBefore := 8, 1, 6
	if g.us == Black {
		pushOffset, startRank, lastRankBefore = -8, 6, 1
	}

	epSquare := NoSquare
	if f := pos.EnPassantFile(); f >= 0 {
		rank := 5
		if g.us == Black {
			rank = 2
		}
		epSquare = NewSquare(f, rank)
	}

	pawns := &pos.pieces[g.us][Pawn]
	for i := 0; i < pawns.Count(); i++ {
		start := pawns.At(i)
		pinned := g.isPinned(start)
		promoting := start.Rank() == lastRankBefore

		if g.genQuiets {
			oneForward := Square(int(start) + pushOffset)

			if pos.Squares[oneForward] == NoPiece && (!pinned || Aligned(g.king, start, oneForward)) {
				if !g.inCheck || g.blocksCheck(oneForward) {
					if promoting {
						g.addPromotions(start, oneForward)
					} else {
						g.ml.Add(NewMove(start, oneForward, FlagNone))
					}
				}

				if start.Rank() == startRank {
					twoForward := Square(int(oneForward) + pushOffset)
					if pos.Squares[twoForward] == NoPiece && (!g.inCheck || g.blocksCheck(twoForward)) {
						g.ml.Add(NewMove(start, twoForward, FlagPawnTwoForward))
					}
				}
			}
		}

		for _, dir := range PawnAttackDirections[g.us] {
			if NumSquaresToEdge[start][dir] == 0 {
				continue
			}
			target := Square(int(start) + DirectionOffsets[dir])

			if pinned && !Aligned(g.king, start, target) {
				continue
			}

			if g.enemy(target) {
				if g.inCheck && !g.blocksCheck(target) {
					continue
				}
				if promoting {
					g.addPromotions(start, target)
				} else {
					g.ml.Add(NewMove(start, target, FlagNone))
				}
			}

			if target == epSquare {
				victim := enPassantVictim(target, g.us)
				if !g.inCheckAfterEnPassant(start, target, victim) {
					g.ml.Add(NewMove(start, target, FlagEnPassant))
				}
			}
		}
	}
}

func (g *MoveGenerator) addPromotions(from, to Square) {
	g.ml.Add(NewMove(from, to, FlagPromoteQueen))
	switch g.PromotionMode {
	case PromoteAll:
		g.ml.Add(NewMove(from, to, FlagPromoteKnight))
		g.ml.Add(NewMove(from, to, FlagPromoteRook))
		g.ml.Add(NewMove(from, to, FlagPromoteBishop))
	case PromoteQueenAndKnight:
		g.ml.Add(NewMove(from, to, FlagPromoteKnight))
	}
}

// inCheckAfterEnPassant plays the capture on the board, probes the king for
// attacks and restores the board. En passant removes two pieces from one rank,
// which can uncover a check no pin ray records.
func (g *MoveGenerator) inCheckAfterEnPassant(start, target, victim Square) bool {
	pos := g.pos
	pawn := pos.Squares[start]
	enemyPawn := pos.Squares[victim]

	pos.Squares[target] = pawn
	pos.Squares[start] = NoPiece
	pos.Squares[victim] = NoPiece

	attacked := g.kingAttackedOnBoard(victim)

	pos.Squares[victim] = enemyPawn
	pos.Squares[target] = NoPiece
	pos.Squares[start] = pawn

	return attacked
}

// kingAttackedOnBoard reports whether the friendly king is attacked, reading
// only the square array. ignore is treated as empty for pawn contact.
func (g *MoveGenerator) kingAttackedOnBoard(ignore Square) bool {
	pos := g.pos

	for dir := 0; dir < 8; dir++ {
		diagonal := dir > 3
		for n := 1; n <= NumSquaresToEdge[g.king][dir]; n++ {
			sq := Square(int(g.king) + DirectionOffsets[dir]*n)
			piece := pos.Squares[sq]
			if piece == NoPiece {
				continue
			}
			if piece.Color() == g.them {
				pt := piece.Type()
				if pt == Queen || (diagonal && pt == Bishop) || (!diagonal && pt == Rook) {
					return true
				}
			}
			break
		}
	}

	if g.opponentKnightAttacks.IsSet(g.king) {
		return true
	}

	contact := pawnAttacks[g.us][g.king] &^ SquareBB(ignore)
	for contact != 0 {
		if pos.Squares[contact.PopLSB()] == NewPiece(Pawn, g.them) {
			return true
		}
	}

	return false
}

// IsCapture returns true if m takes a piece in pos.
func (m Move) IsCapture(pos *Position) bool {
	return m.Flag() == FlagEnPassant || pos.Squares[m.To()] != NoPiece
}

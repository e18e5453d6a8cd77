package board

import (
	"fmt"
	"strings"
)

// Position represents a complete chess position that is mutated in place by
// Apply and restored by Undo.
type Position struct {
	// Squares holds the piece on every square, NoPiece if empty.
	Squares [64]Piece

	// KingSquare caches both king locations.
	KingSquare [2]Square

	SideToMove Color

	// State is the packed state word of the current ply.
	State GameState

	// Hash is maintained incrementally by Apply and Undo.
	Hash uint64

	// PlyCount counts half-moves since the start of the game.
	PlyCount int

	pieces   [2][6]PieceList
	occupied [2]Bitboard

	// stateHistory holds one state word per ply, the current one on top.
	stateHistory []GameState

	// repetition holds the hashes since the last irreversible move,
	// the current position last.
	repetition []uint64

	zobrist *Zobrist
}

// NewPosition creates the starting position hashed with z.
// A nil z selects DefaultZobrist.
func NewPosition(z *Zobrist) *Position {
	pos, err := ParseFEN(StartFEN, z)
	if err != nil {
		panic(err)
	}
	return pos
}

func newEmptyPosition(z *Zobrist) *Position {
	if z == nil {
		z = DefaultZobrist()
	}
	p := &Position{zobrist: z}
	for i := range p.Squares {
		p.Squares[i] = NoPiece
	}
	p.KingSquare = [2]Square{NoSquare, NoSquare}
	return p
}

// Clone returns an independent deep copy sharing only the hashing context.
func (p *Position) Clone() *Position {
	c := *p
	c.stateHistory = append(make([]GameState, 0, cap(p.stateHistory)), p.stateHistory...)
	c.repetition = append(make([]uint64, 0, cap(p.repetition)), p.repetition...)
	return &c
}

// Zobrist returns the hashing context of the position.
func (p *Position) Zobrist() *Zobrist {
	return p.zobrist
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	return p.Squares[sq]
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.Squares[sq] == NoPiece
}

// Pieces returns the location set of color c's pieces of type pt.
func (p *Position) Pieces(c Color, pt PieceType) *PieceList {
	return &p.pieces[c][pt]
}

// Occupied returns the squares holding pieces of color c.
func (p *Position) Occupied(c Color) Bitboard {
	return p.occupied[c]
}

// AllOccupied returns every occupied square.
func (p *Position) AllOccupied() Bitboard {
	return p.occupied[White] | p.occupied[Black]
}

// Castling returns the current castling rights.
func (p *Position) Castling() CastlingRights {
	return p.State.Castling()
}

// EnPassantFile returns the en-passant file, or -1.
func (p *Position) EnPassantFile() int {
	return p.State.EnPassantFile()
}

// FiftyMoveCounter returns the plies since the last pawn move or capture.
func (p *Position) FiftyMoveCounter() int {
	return p.State.FiftyMoveCounter()
}

// HistoryDepth returns how many plies can currently be undone.
func (p *Position) HistoryDepth() int {
	return len(p.stateHistory) - 1
}

func (p *Position) addPiece(piece Piece, sq Square) {
	c, pt := piece.Color(), piece.Type()
	p.Squares[sq] = piece
	p.pieces[c][pt].Add(sq)
	p.occupied[c] |= SquareBB(sq)
	if pt == King {
		p.KingSquare[c] = sq
	}
	p.Hash ^= p.zobrist.Piece(c, pt, sq)
}

func (p *Position) removePiece(sq Square) {
	piece := p.Squares[sq]
	c, pt := piece.Color(), piece.Type()
	p.Squares[sq] = NoPiece
	p.pieces[c][pt].Remove(sq)
	p.occupied[c] &^= SquareBB(sq)
	p.Hash ^= p.zobrist.Piece(c, pt, sq)
}

func (p *Position) movePiece(from, to Square) {
	piece := p.Squares[from]
	c, pt := piece.Color(), piece.Type()
	p.Squares[from] = NoPiece
	p.Squares[to] = piece
	p.pieces[c][pt].Move(from, to)
	p.occupied[c] ^= SquareBB(from) | SquareBB(to)
	if pt == King {
		p.KingSquare[c] = to
	}
	p.Hash ^= p.zobrist.Piece(c, pt, from) ^ p.zobrist.Piece(c, pt, to)
}

// castleRookSquares returns the rook's origin and destination for a castling
// king move landing on kingTo.
func castleRookSquares(kingTo Square) (from, to Square) {
	if kingTo.File() == 6 {
		return kingTo + 1, kingTo - 1
	}
	return kingTo - 2, kingTo + 1
}

// enPassantVictim returns the square of the pawn captured en passant by a
// pawn of color c landing on to.
func enPassantVictim(to Square, c Color) Square {
	if c == White {
		return to - 8
	}
	return to + 8
}

// Apply plays m, which must be legal in the current position.
// Moves played outside search (inSearch false) that are irreversible clear
// the repetition history.
func (p *Position) Apply(m Move, inSearch bool) {
	from, to, flag := m.From(), m.To(), m.Flag()
	us := p.SideToMove
	moving := p.Squares[from]
	prev := p.State

	captured := p.Squares[to].Type()
	if flag == FlagEnPassant {
		captured = Pawn
		p.removePiece(enPassantVictim(to, us))
	} else if captured != NoPieceType {
		p.removePiece(to)
	}

	if m.IsPromotion() {
		p.removePiece(from)
		p.addPiece(NewPiece(m.Promotion(), us), to)
	} else {
		p.movePiece(from, to)
	}

	if flag == FlagCastle {
		rookFrom, rookTo := castleRookSquares(to)
		p.movePiece(rookFrom, rookTo)
	}

	// Rights go whenever a king or rook home square is vacated or captured on,
	// whatever piece is moving.
	cr := prev.Castling() &^ (castlingRevoke[from] | castlingRevoke[to])
	if moving.Type() == King {
		cr &^= colorCastling(us)
	}

	epFile := -1
	if flag == FlagPawnTwoForward {
		epFile = from.File()
	}

	irreversible := moving.Type() == Pawn || captured != NoPieceType
	// The clock resets inside search too. Search never scores fifty-move
	// draws, so only the game sees the difference.
	fifty := prev.FiftyMoveCounter() + 1
	if irreversible {
		fifty = 0
	}

	if f := prev.EnPassantFile(); f >= 0 {
		p.Hash ^= p.zobrist.EnPassant(f)
	}
	if epFile >= 0 {
		p.Hash ^= p.zobrist.EnPassant(epFile)
	}
	if cr != prev.Castling() {
		p.Hash ^= p.zobrist.Castling(prev.Castling()) ^ p.zobrist.Castling(cr)
	}
	p.Hash ^= p.zobrist.SideToMove()

	p.SideToMove = us.Other()
	p.State = newGameState(cr, epFile, captured, fifty)
	p.stateHistory = append(p.stateHistory, p.State)
	p.PlyCount++

	if !inSearch && irreversible {
		p.repetition = p.repetition[:0]
	}
	p.repetition = append(p.repetition, p.Hash)
}

// Undo reverses m, which must be the most recently applied move.
func (p *Position) Undo(m Move, inSearch bool) {
	from, to, flag := m.From(), m.To(), m.Flag()

	popped := p.State
	p.stateHistory = p.stateHistory[:len(p.stateHistory)-1]
	p.State = p.stateHistory[len(p.stateHistory)-1]

	us := p.SideToMove.Other()
	p.SideToMove = us
	p.Hash ^= p.zobrist.SideToMove()

	if f := popped.EnPassantFile(); f >= 0 {
		p.Hash ^= p.zobrist.EnPassant(f)
	}
	if f := p.State.EnPassantFile(); f >= 0 {
		p.Hash ^= p.zobrist.EnPassant(f)
	}
	if popped.Castling() != p.State.Castling() {
		p.Hash ^= p.zobrist.Castling(popped.Castling()) ^ p.zobrist.Castling(p.State.Castling())
	}

	if flag == FlagCastle {
		rookFrom, rookTo := castleRookSquares(to)
		p.movePiece(rookTo, rookFrom)
	}

	if m.IsPromotion() {
		p.removePiece(to)
		p.addPiece(NewPiece(Pawn, us), from)
	} else {
		p.movePiece(to, from)
	}

	// The captured type comes from the popped state: the board no longer has it.
	if captured := popped.Captured(); captured != NoPieceType {
		capSq := to
		if flag == FlagEnPassant {
			capSq = enPassantVictim(to, us)
		}
		p.addPiece(NewPiece(captured, us.Other()), capSq)
	}

	p.PlyCount--

	if len(p.repetition) > 0 {
		p.repetition = p.repetition[:len(p.repetition)-1]
	}
}

// RepeatedInLine reports whether the current position already occurred since
// the last irreversible move.
func (p *Position) RepeatedInLine() bool {
	n := len(p.repetition) - 1
	for i := 0; i < n; i++ {
		if p.repetition[i] == p.Hash {
			return true
		}
	}
	return false
}

// RepetitionCount returns how many times the current position has occurred
// since the last irreversible move, including now.
func (p *Position) RepetitionCount() int {
	count := 0
	for _, h := range p.repetition {
		if h == p.Hash {
			count++
		}
	}
	return count
}

// ComputeHash recomputes the Zobrist hash from scratch.
func (p *Position) ComputeHash() uint64 {
	var h uint64
	for sq := Square(0); sq < NoSquare; sq++ {
		if piece := p.Squares[sq]; piece != NoPiece {
			h ^= p.zobrist.Piece(piece.Color(), piece.Type(), sq)
		}
	}
	if f := p.State.EnPassantFile(); f >= 0 {
		h ^= p.zobrist.EnPassant(f)
	}
	h ^= p.zobrist.Castling(p.State.Castling())
	if p.SideToMove == Black {
		h ^= p.zobrist.SideToMove()
	}
	return h
}

// SquareAttacked reports whether a piece of color by attacks sq.
func (p *Position) SquareAttacked(sq Square, by Color) bool {
	if knightAttacks[sq]&p.pieces[by][Knight].Bitboard() != 0 ||
		kingAttacks[sq]&p.pieces[by][King].Bitboard() != 0 ||
		pawnAttacks[by.Other()][sq]&p.pieces[by][Pawn].Bitboard() != 0 {
		return true
	}

	for dir := 0; dir < 8; dir++ {
		diagonal := dir > 3
		for n := 1; n <= NumSquaresToEdge[sq][dir]; n++ {
			piece := p.Squares[Square(int(sq)+DirectionOffsets[dir]*n)]
			if piece == NoPiece {
				continue
			}
			if piece.Color() == by {
				pt := piece.Type()
				if pt == Queen || (diagonal && pt == Bishop) || (!diagonal && pt == Rook) {
					return true
				}
			}
			break
		}
	}
	return false
}

// Validate checks that the piece array, location sets, occupancy, king
// squares and hash agree with each other.
func (p *Position) Validate() error {
	for c := White; c <= Black; c++ {
		var occ Bitboard
		for pt := Pawn; pt <= King; pt++ {
			pl := &p.pieces[c][pt]
			for i := 0; i < pl.Count(); i++ {
				sq := pl.At(i)
				if p.Squares[sq] != NewPiece(pt, c) {
					return fmt.Errorf("piece list %v %v has %v, board has %q", c, pt, sq, p.Squares[sq])
				}
				occ |= SquareBB(sq)
			}
		}
		if occ != p.occupied[c] {
			return fmt.Errorf("%v occupancy mismatch", c)
		}
		if p.pieces[c][King].Count() != 1 || p.pieces[c][King].At(0) != p.KingSquare[c] {
			return fmt.Errorf("%v king square mismatch", c)
		}
	}
	for sq := Square(0); sq < NoSquare; sq++ {
		piece := p.Squares[sq]
		if piece != NoPiece && !p.pieces[piece.Color()][piece.Type()].Contains(sq) {
			return fmt.Errorf("board has %q on %v missing from piece list", piece, sq)
		}
	}
	if h := p.ComputeHash(); h != p.Hash {
		return fmt.Errorf("hash mismatch: incremental %016x, computed %016x", p.Hash, h)
	}
	return nil
}

// String renders the board with rank 8 at the top.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("  +-----------------+\n")
	for rank := 7; rank >= 0; rank-- {
		sb.WriteByte(rankNames[rank])
		sb.WriteString(" | ")
		for file := 0; file < 8; file++ {
			piece := p.Squares[NewSquare(file, rank)]
			if piece == NoPiece {
				sb.WriteByte('.')
			} else {
				sb.WriteString(piece.String())
			}
			sb.WriteByte(' ')
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("  +-----------------+\n")
	sb.WriteString("    a b c d e f g h\n")
	return sb.String()
}

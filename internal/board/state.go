package board

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	if c == White {
		if kingSide {
			return cr&WhiteKingSideCastle != 0
		}
		return cr&WhiteQueenSideCastle != 0
	}
	if kingSide {
		return cr&BlackKingSideCastle != 0
	}
	return cr&BlackQueenSideCastle != 0
}

// colorCastling returns both rights of color c.
func colorCastling(c Color) CastlingRights {
	if c == White {
		return WhiteKingSideCastle | WhiteQueenSideCastle
	}
	return BlackKingSideCastle | BlackQueenSideCastle
}

// castlingRevoke lists the rights lost when a piece leaves or lands on a square.
var castlingRevoke = func() (t [64]CastlingRights) {
	t[A1] = WhiteQueenSideCastle
	t[H1] = WhiteKingSideCastle
	t[E1] = WhiteKingSideCastle | WhiteQueenSideCastle
	t[A8] = BlackQueenSideCastle
	t[H8] = BlackKingSideCastle
	t[E8] = BlackKingSideCastle | BlackQueenSideCastle
	return t
}()

// GameState packs the irreversible parts of a position into one word:
// bits 0-3 castling rights, bits 4-7 en-passant file+1 (0 = none),
// bits 8-13 captured piece type+1 (0 = none), bits 14+ fifty-move counter.
type GameState uint32

const (
	stateEnPassantShift = 4
	stateCapturedShift  = 8
	stateFiftyShift     = 14
)

func newGameState(cr CastlingRights, epFile int, captured PieceType, fifty int) GameState {
	s := GameState(cr & AllCastling)
	if epFile >= 0 {
		s |= GameState(epFile+1) << stateEnPassantShift
	}
	if captured != NoPieceType {
		s |= GameState(captured+1) << stateCapturedShift
	}
	s |= GameState(fifty) << stateFiftyShift
	return s
}

// Castling returns the castling rights.
func (s GameState) Castling() CastlingRights {
	return CastlingRights(s & 0xF)
}

// EnPassantFile returns the file of the pawn that just moved two squares, or -1.
func (s GameState) EnPassantFile() int {
	return int((s>>stateEnPassantShift)&0xF) - 1
}

// Captured returns the type of the piece captured by the move that produced
// this state, or NoPieceType.
func (s GameState) Captured() PieceType {
	v := (s >> stateCapturedShift) & 0x3F
	if v == 0 {
		return NoPieceType
	}
	return PieceType(v - 1)
}

// FiftyMoveCounter returns the plies since the last pawn move or capture.
func (s GameState) FiftyMoveCounter() int {
	return int(s >> stateFiftyShift)
}

package board

import (
	"errors"
	"fmt"
	"strings"
)

// Move encodes a chess move in 16 bits:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// bits 12-15: flag
type Move uint16

// MoveFlag describes what kind of move a Move is.
type MoveFlag uint8

// Move flags
const (
	FlagNone MoveFlag = iota
	FlagEnPassant
	FlagCastle
	FlagPromoteQueen
	FlagPromoteKnight
	FlagPromoteRook
	FlagPromoteBishop
	FlagPawnTwoForward
)

// NoMove represents an invalid or null move.
const NoMove Move = 0

// MaxMoves bounds the number of legal moves in any reachable position.
const MaxMoves = 218

// Errors returned by ParseMove.
var (
	ErrMalformedMove = errors.New("malformed move")
	ErrIllegalMove   = errors.New("illegal move")
)

// NewMove creates a move with the given flag.
func NewMove(from, to Square, flag MoveFlag) Move {
	return Move(from) | Move(to)<<6 | Move(flag)<<12
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Flag returns the move flag.
func (m Move) Flag() MoveFlag {
	return MoveFlag(m >> 12)
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	f := m.Flag()
	return f >= FlagPromoteQueen && f <= FlagPromoteBishop
}

// Promotion returns the promoted piece type, or NoPieceType.
func (m Move) Promotion() PieceType {
	switch m.Flag() {
	case FlagPromoteQueen:
		return Queen
	case FlagPromoteKnight:
		return Knight
	case FlagPromoteRook:
		return Rook
	case FlagPromoteBishop:
		return Bishop
	default:
		return NoPieceType
	}
}

// promotionFlag maps a promotion piece type to its flag.
func promotionFlag(pt PieceType) MoveFlag {
	switch pt {
	case Knight:
		return FlagPromoteKnight
	case Rook:
		return FlagPromoteRook
	case Bishop:
		return FlagPromoteBishop
	default:
		return FlagPromoteQueen
	}
}

// String returns the long algebraic form of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()

	if m.IsPromotion() {
		s += NewPiece(m.Promotion(), Black).String()
	}

	return s
}

// ParseMove translates long algebraic text into a legal move for pos.
// Malformed text wraps ErrMalformedMove; well-formed text that matches no
// legal move wraps ErrIllegalMove. pos is left unchanged.
func ParseMove(s string, pos *Position) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrMalformedMove, s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrMalformedMove, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrMalformedMove, err)
	}

	promo := NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'q':
			promo = Queen
		case 'r':
			promo = Rook
		case 'b':
			promo = Bishop
		case 'n':
			promo = Knight
		default:
			return NoMove, fmt.Errorf("%w: invalid promotion piece %q", ErrMalformedMove, s[4])
		}
	}

	var ml MoveList
	gen := NewMoveGenerator()
	gen.GenerateMoves(pos, &ml, false)

	for _, m := range ml.Slice() {
		if m.From() != from || m.To() != to {
			continue
		}
		if !m.IsPromotion() {
			if promo == NoPieceType {
				return m, nil
			}
			continue
		}
		// A bare promotion defaults to a queen.
		want := promo
		if want == NoPieceType {
			want = Queen
		}
		if m.Promotion() == want {
			return m, nil
		}
	}

	return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set sets the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Clear empties the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice backed by the list.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrInvalidFEN is wrapped by every FEN parsing error.
var ErrInvalidFEN = errors.New("invalid FEN")

// ParseFEN parses a FEN string into a new Position hashed with z.
// A nil z selects DefaultZobrist.
func ParseFEN(fen string, z *Zobrist) (*Position, error) {
	pos := newEmptyPosition(z)

	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, fmt.Errorf("%w: need at least 4 fields, got %d", ErrInvalidFEN, len(parts))
	}

	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("%w: invalid side to move %q", ErrInvalidFEN, parts[1])
	}

	cr, err := parseCastlingRights(parts[2])
	if err != nil {
		return nil, err
	}

	epFile := -1
	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil || !enPassantPossible(pos, sq) {
			return nil, fmt.Errorf("%w: invalid en passant square %q", ErrInvalidFEN, parts[3])
		}
		epFile = sq.File()
	}

	if them := pos.SideToMove.Other(); pos.SquareAttacked(pos.KingSquare[them], pos.SideToMove) {
		return nil, fmt.Errorf("%w: %v king can be captured", ErrInvalidFEN, them)
	}

	fifty := 0
	if len(parts) > 4 {
		fifty, err = strconv.Atoi(parts[4])
		if err != nil || fifty < 0 {
			return nil, fmt.Errorf("%w: invalid half-move clock %q", ErrInvalidFEN, parts[4])
		}
	}

	fullMove := 1
	if len(parts) > 5 {
		fullMove, err = strconv.Atoi(parts[5])
		if err != nil || fullMove < 1 {
			return nil, fmt.Errorf("%w: invalid full-move number %q", ErrInvalidFEN, parts[5])
		}
	}

	pos.PlyCount = (fullMove - 1) * 2
	if pos.SideToMove == Black {
		pos.PlyCount++
	}

	pos.State = newGameState(cr, epFile, NoPieceType, fifty)
	pos.stateHistory = append(pos.stateHistory, pos.State)
	pos.Hash = pos.ComputeHash()
	pos.repetition = append(pos.repetition, pos.Hash)

	return pos, nil
}

// LoadFEN resets p to the position described by fen, keeping its hashing
// context. On error p is left unchanged.
func (p *Position) LoadFEN(fen string) error {
	loaded, err := ParseFEN(fen, p.zobrist)
	if err != nil {
		return err
	}
	*p = *loaded
	return nil
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0

		for _, c := range rankStr {
			if file > 7 {
				return fmt.Errorf("%w: too many squares in rank %d", ErrInvalidFEN, rank+1)
			}

			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}

			piece := PieceFromChar(byte(c))
			if piece == NoPiece {
				return fmt.Errorf("%w: invalid piece character %q", ErrInvalidFEN, c)
			}
			if pos.pieces[piece.Color()][piece.Type()].Count() == maxPieceCount {
				return fmt.Errorf("%w: too many %v %vs", ErrInvalidFEN, piece.Color(), piece.Type())
			}
			if piece.Type() == Pawn && (rank == 0 || rank == 7) {
				return fmt.Errorf("%w: pawn on rank %d", ErrInvalidFEN, rank+1)
			}
			pos.addPiece(piece, NewSquare(file, rank))
			file++
		}

		if file != 8 {
			return fmt.Errorf("%w: rank %d has %d squares", ErrInvalidFEN, rank+1, file)
		}
	}

	for c := White; c <= Black; c++ {
		if n := pos.pieces[c][King].Count(); n != 1 {
			return fmt.Errorf("%w: %v has %d kings", ErrInvalidFEN, c, n)
		}
	}

	return nil
}

// enPassantPossible reports whether sq can be the en passant target: on the
// third rank from the mover's opponent, empty, with the pawn that just made a
// double step in front of an empty start square.
func enPassantPossible(pos *Position, sq Square) bool {
	us, them := pos.SideToMove, pos.SideToMove.Other()
	rank := 5
	if us == Black {
		rank = 2
	}
	if sq.Rank() != rank || !pos.IsEmpty(sq) {
		return false
	}
	return pos.Squares[enPassantVictim(sq, us)] == NewPiece(Pawn, them) &&
		pos.IsEmpty(enPassantVictim(sq, them))
}

// parseCastlingRights parses the castling rights section of a FEN string.
func parseCastlingRights(castling string) (CastlingRights, error) {
	cr := NoCastling
	if castling == "-" {
		return cr, nil
	}

	for _, c := range castling {
		switch c {
		case 'K':
			cr |= WhiteKingSideCastle
		case 'Q':
			cr |= WhiteQueenSideCastle
		case 'k':
			cr |= BlackKingSideCastle
		case 'q':
			cr |= BlackQueenSideCastle
		default:
			return cr, fmt.Errorf("%w: invalid castling character %q", ErrInvalidFEN, c)
		}
	}

	return cr, nil
}

// FEN returns the FEN representation of the position.
func (p *Position) FEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.Squares[NewSquare(file, rank)]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(p.Castling().String())

	sb.WriteByte(' ')
	if f := p.EnPassantFile(); f >= 0 {
		rank := 5
		if p.SideToMove == Black {
			rank = 2
		}
		sb.WriteString(NewSquare(f, rank).String())
	} else {
		sb.WriteByte('-')
	}

	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FiftyMoveCounter()))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.PlyCount/2 + 1))

	return sb.String()
}

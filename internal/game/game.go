// Package game runs a game between two players and decides when it is over.
package game

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
)

// Result is the state of a game.
type Result int

const (
	Playing Result = iota
	WhiteIsMated
	BlackIsMated
	Stalemate
	Repetition
	FiftyMoveRule
	InsufficientMaterial
)

// String returns the message shown when the game ends.
func (r Result) String() string {
	switch r {
	case Playing:
		return "playing"
	case WhiteIsMated:
		return "Black wins by checkmate"
	case BlackIsMated:
		return "White wins by checkmate"
	case Stalemate:
		return "Draw by stalemate"
	case Repetition:
		return "Draw by threefold repetition"
	case FiftyMoveRule:
		return "Draw by 50-move rule"
	case InsufficientMaterial:
		return "Draw by insufficient material"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// IsDraw reports whether the game ended without a winner.
func (r Result) IsDraw() bool {
	return r >= Stalemate
}

// Winner returns the winning colour of a decisive result.
func (r Result) Winner() (board.Color, bool) {
	switch r {
	case WhiteIsMated:
		return board.Black, true
	case BlackIsMated:
		return board.White, true
	}
	return board.White, false
}

// Classify returns the state of the game at pos.
func Classify(pos *board.Position) Result {
	gen := board.NewMoveGenerator()
	var moves board.MoveList
	gen.GenerateMoves(pos, &moves, false)

	if moves.Len() == 0 {
		if !gen.InCheck() {
			return Stalemate
		}
		if pos.SideToMove == board.White {
			return WhiteIsMated
		}
		return BlackIsMated
	}

	if pos.FiftyMoveCounter() >= 100 {
		return FiftyMoveRule
	}
	if pos.RepetitionCount() >= 3 {
		return Repetition
	}
	if insufficientMaterial(pos) {
		return InsufficientMaterial
	}
	return Playing
}

// insufficientMaterial reports a bare king against a bare king or a single minor piece.
func insufficientMaterial(pos *board.Position) bool {
	minors := 0
	for c := board.White; c <= board.Black; c++ {
		if pos.Pieces(c, board.Pawn).Count()+pos.Pieces(c, board.Rook).Count()+pos.Pieces(c, board.Queen).Count() > 0 {
			return false
		}
		minors += pos.Pieces(c, board.Knight).Count() + pos.Pieces(c, board.Bishop).Count()
	}
	return minors <= 1
}

// Game alternates two players on one position until the game ends.
type Game struct {
	pos     *board.Position
	start   string
	players [2]Player
	moves   []board.Move
	out     io.Writer
	started time.Time
}

// New creates a game from pos, which the game takes ownership of.
// The board is printed to out after every move; out may be nil.
func New(pos *board.Position, white, black Player, out io.Writer) *Game {
	if out == nil {
		out = io.Discard
	}
	return &Game{
		pos:     pos,
		start:   pos.FEN(),
		players: [2]Player{white, black},
		out:     out,
	}
}

// Position returns the game position. Callers must not modify it.
func (g *Game) Position() *board.Position {
	return g.pos
}

// StartFEN returns the position the game started from.
func (g *Game) StartFEN() string {
	return g.start
}

// Moves returns the moves played so far.
func (g *Game) Moves() []board.Move {
	return g.moves
}

// Duration returns the time since Play started.
func (g *Game) Duration() time.Duration {
	if g.started.IsZero() {
		return 0
	}
	return time.Since(g.started)
}

// Play runs the game until it ends, a player fails, or ctx is cancelled.
func (g *Game) Play(ctx context.Context) (Result, error) {
	g.started = time.Now()

	for {
		fmt.Fprintln(g.out, g.pos)

		result := Classify(g.pos)
		if result != Playing {
			fmt.Fprintln(g.out, result)
			log.Info().Str("result", result.String()).Int("moves", len(g.moves)).Msg("game over")
			return result, nil
		}

		side := g.pos.SideToMove
		m, err := g.players[side].ChooseMove(ctx, g.pos.Clone())
		if err != nil {
			return Playing, fmt.Errorf("%v to move: %w", side, err)
		}
		if err := g.apply(m); err != nil {
			return Playing, err
		}
		fmt.Fprintf(g.out, "%v played %s\n", side, m)
	}
}

func (g *Game) apply(m board.Move) error {
	var legal board.MoveList
	board.NewMoveGenerator().GenerateMoves(g.pos, &legal, false)
	if !legal.Contains(m) {
		return fmt.Errorf("%w: %s in %s", board.ErrIllegalMove, m, g.pos.FEN())
	}

	side := g.pos.SideToMove
	g.pos.Apply(m, false)
	g.moves = append(g.moves, m)

	for _, p := range g.players {
		if obs, ok := p.(MoveObserver); ok {
			obs.MoveApplied(m)
		}
	}

	log.Info().Stringer("side", side).Str("move", m.String()).Str("fen", g.pos.FEN()).Msg("move played")
	return nil
}

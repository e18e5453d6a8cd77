package game

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

var (
	// ErrQuit is returned by a HumanPlayer that asked to leave the game.
	ErrQuit = errors.New("player quit")
	// ErrNoLegalMoves is returned when a player is asked to move in a finished game.
	ErrNoLegalMoves = errors.New("no legal moves")
)

// Player chooses moves for one side. pos is a copy owned by the callee.
type Player interface {
	ChooseMove(ctx context.Context, pos *board.Position) (board.Move, error)
}

// MoveObserver is implemented by players that track the game on their own board.
type MoveObserver interface {
	MoveApplied(m board.Move)
}

// HumanPlayer reads moves in long algebraic notation, one per line.
type HumanPlayer struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewHumanPlayer creates a player reading from r and prompting on w.
func NewHumanPlayer(r io.Reader, w io.Writer) *HumanPlayer {
	return &HumanPlayer{in: bufio.NewScanner(r), out: w}
}

// ChooseMove prompts until a legal move is entered. "quit" returns ErrQuit.
func (h *HumanPlayer) ChooseMove(ctx context.Context, pos *board.Position) (board.Move, error) {
	fmt.Fprintln(h.out, "Enter next move:")
	for {
		if err := ctx.Err(); err != nil {
			return board.NoMove, err
		}
		if !h.in.Scan() {
			if err := h.in.Err(); err != nil {
				return board.NoMove, fmt.Errorf("read move: %w", err)
			}
			return board.NoMove, io.ErrUnexpectedEOF
		}

		input := strings.TrimSpace(h.in.Text())
		if input == "quit" {
			return board.NoMove, ErrQuit
		}

		m, err := board.ParseMove(input, pos)
		switch {
		case err == nil:
			return m, nil
		case errors.Is(err, board.ErrMalformedMove), errors.Is(err, board.ErrIllegalMove):
			log.Debug().Err(err).Str("input", input).Msg("rejected move")
			fmt.Fprintf(h.out, "Invalid move: %s\n", input)
			fmt.Fprintln(h.out, "Please enter a valid move (e.g. e2e4, e1g1 to castle, e7e8q to promote):")
		default:
			return board.NoMove, err
		}
	}
}

// EnginePlayer searches on its own copy of the game, kept in step by
// MoveApplied.
type EnginePlayer struct {
	pos      *board.Position
	searcher *engine.Searcher
}

// NewEnginePlayer creates an engine starting from start.
func NewEnginePlayer(start *board.Position, settings engine.Settings) *EnginePlayer {
	pos := start.Clone()
	searcher := engine.NewSearcher(pos, settings)
	searcher.OnSearchComplete = func(r engine.SearchResult) {
		log.Info().
			Str("move", r.Move.String()).
			Str("score", engine.ScoreToString(r.Score)).
			Int("depth", r.Depth).
			Msg("search complete")
	}
	return &EnginePlayer{pos: pos, searcher: searcher}
}

// MoveApplied replays a move made in the game onto the search board.
func (e *EnginePlayer) MoveApplied(m board.Move) {
	e.pos.Apply(m, false)
}

// ChooseMove searches the current position. Cancelling ctx ends the search
// and returns ctx.Err(). If no depth completed, the first legal move is played.
func (e *EnginePlayer) ChooseMove(ctx context.Context, pos *board.Position) (board.Move, error) {
	if e.pos.Hash != pos.Hash {
		log.Warn().Str("fen", pos.FEN()).Msg("search board out of step, resynchronising")
		*e.pos = *pos.Clone()
	}

	result, err := e.searcher.SearchContext(ctx)
	if err != nil {
		return board.NoMove, err
	}

	if result.Move != board.NoMove {
		return result.Move, nil
	}

	var moves board.MoveList
	board.NewMoveGenerator().GenerateMoves(e.pos, &moves, false)
	if moves.Len() == 0 {
		return board.NoMove, ErrNoLegalMoves
	}
	log.Warn().Msg("search returned no move, playing first legal move")
	return moves.Get(0), nil
}

// Diagnostics returns the statistics of the engine's last search.
func (e *EnginePlayer) Diagnostics() engine.Diagnostics {
	return e.searcher.Diagnostics()
}

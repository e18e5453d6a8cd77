package game

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func mustParseFEN(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen, nil)
	if err != nil {
		t.Fatalf("Failed to parse FEN %q: %v", fen, err)
	}
	return pos
}

// scriptedPlayer plays a fixed list of moves.
type scriptedPlayer struct {
	moves []string
	next  int
}

func (s *scriptedPlayer) ChooseMove(_ context.Context, pos *board.Position) (board.Move, error) {
	if s.next >= len(s.moves) {
		return board.NoMove, errors.New("script exhausted")
	}
	m, err := board.ParseMove(s.moves[s.next], pos)
	s.next++
	return m, err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want Result
	}{
		{"start", board.StartFEN, Playing},
		{"white mated", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", WhiteIsMated},
		{"black mated", "R5k1/5ppp/8/8/8/8/8/6K1 b - - 1 1", BlackIsMated},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", Stalemate},
		{"fifty moves", "4k3/8/8/8/8/8/8/R3K3 w - - 100 80", FiftyMoveRule},
		{"ninety-nine half moves", "4k3/8/8/8/8/8/8/R3K3 w - - 99 80", Playing},
		{"bare kings", "4k3/8/8/8/8/8/8/4K3 w - - 0 1", InsufficientMaterial},
		{"lone bishop", "4k3/8/8/8/8/8/8/2B1K3 w - - 0 1", InsufficientMaterial},
		{"lone knight", "4k3/8/8/8/8/8/8/1n2K3 w - - 0 1", InsufficientMaterial},
		{"bishop and knight", "4k3/8/8/8/8/8/8/1NB1K3 w - - 0 1", Playing},
		{"minor each", "4k1n1/8/8/8/8/8/8/2B1K3 w - - 0 1", Playing},
		{"pawn", "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1", Playing},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(mustParseFEN(t, tc.fen)); got != tc.want {
				t.Errorf("Classify = %v, want %v", got, tc.want)
			}
		})
	}
}

// TestClassifyMatchesReference checks mate and stalemate detection against notnil/chess.
func TestClassifyMatchesReference(t *testing.T) {
	fens := []string{
		board.StartFEN,
		"rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3",
		"R5k1/5ppp/8/8/8/8/8/6K1 b - - 1 1",
		"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1",
		"k7/1R6/2K5/8/8/8/8/8 b - - 0 1",
		"k7/8/1QK5/8/8/8/8/8 b - - 0 1",
		"4k3/4Q3/4K3/8/8/8/8/8 b - - 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/8/8/8/8/5k2/5p2/5K2 w - - 0 1",
	}

	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			opt, err := chess.FEN(fen)
			if err != nil {
				t.Fatal(err)
			}
			ref := chess.NewGame(opt).Position().Status()

			got := Classify(mustParseFEN(t, fen))
			switch ref {
			case chess.Checkmate:
				if got != WhiteIsMated && got != BlackIsMated {
					t.Errorf("Classify = %v, reference reports checkmate", got)
				}
			case chess.Stalemate:
				if got != Stalemate {
					t.Errorf("Classify = %v, reference reports stalemate", got)
				}
			default:
				if got == Stalemate || got == WhiteIsMated || got == BlackIsMated {
					t.Errorf("Classify = %v, reference reports legal moves", got)
				}
			}
		})
	}
}

func TestClassifyThreefoldRepetition(t *testing.T) {
	pos := mustParseFEN(t, board.StartFEN)
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}

	for round := 1; round <= 2; round++ {
		for _, s := range shuffle {
			if got := Classify(pos); got != Playing {
				t.Fatalf("round %d before %s: %v", round, s, got)
			}
			m, err := board.ParseMove(s, pos)
			if err != nil {
				t.Fatal(err)
			}
			pos.Apply(m, false)
		}
	}

	if got := Classify(pos); got != Repetition {
		t.Errorf("after two shuffles Classify = %v, want Repetition", got)
	}
}

func TestResultWinner(t *testing.T) {
	if c, ok := WhiteIsMated.Winner(); !ok || c != board.Black {
		t.Errorf("WhiteIsMated winner = %v, %v", c, ok)
	}
	if c, ok := BlackIsMated.Winner(); !ok || c != board.White {
		t.Errorf("BlackIsMated winner = %v, %v", c, ok)
	}
	if _, ok := Stalemate.Winner(); ok {
		t.Error("stalemate has no winner")
	}
	for _, r := range []Result{Stalemate, Repetition, FiftyMoveRule, InsufficientMaterial} {
		if !r.IsDraw() {
			t.Errorf("%v should be a draw", r)
		}
	}
	if WhiteIsMated.IsDraw() || Playing.IsDraw() {
		t.Error("decisive or ongoing results are not draws")
	}
}

func TestHumanPlayersFoolsMate(t *testing.T) {
	input := strings.NewReader("f2f3\ne7e5\ng2g5\ng2g4\nhello\nd8h4\n")
	var out bytes.Buffer
	human := NewHumanPlayer(input, &out)

	g := New(mustParseFEN(t, board.StartFEN), human, human, &out)
	result, err := g.Play(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result != WhiteIsMated {
		t.Errorf("result = %v, want WhiteIsMated", result)
	}
	if len(g.Moves()) != 4 {
		t.Errorf("played %d moves, want 4", len(g.Moves()))
	}
	for _, rejected := range []string{"Invalid move: g2g5", "Invalid move: hello"} {
		if !strings.Contains(out.String(), rejected) {
			t.Errorf("output missing %q", rejected)
		}
	}
	if err := g.Position().Validate(); err != nil {
		t.Error(err)
	}
}

func TestHumanPlayerInputEnds(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"", io.ErrUnexpectedEOF},
		{"e2e5\n", io.ErrUnexpectedEOF},
		{"quit\n", ErrQuit},
	}

	for _, tc := range tests {
		human := NewHumanPlayer(strings.NewReader(tc.input), io.Discard)
		g := New(mustParseFEN(t, board.StartFEN), human, human, nil)
		if _, err := g.Play(context.Background()); !errors.Is(err, tc.want) {
			t.Errorf("input %q: err = %v, want %v", tc.input, err, tc.want)
		}
	}
}

func TestIllegalMoveFromPlayerRejected(t *testing.T) {
	cheat := playerFunc(func(context.Context, *board.Position) (board.Move, error) {
		return board.NewMove(board.E1, board.E8, board.FlagNone), nil
	})
	g := New(mustParseFEN(t, board.StartFEN), cheat, cheat, nil)
	if _, err := g.Play(context.Background()); !errors.Is(err, board.ErrIllegalMove) {
		t.Errorf("err = %v, want ErrIllegalMove", err)
	}
	if g.Position().FEN() != board.StartFEN {
		t.Error("illegal move changed the position")
	}
}

type playerFunc func(context.Context, *board.Position) (board.Move, error)

func (f playerFunc) ChooseMove(ctx context.Context, pos *board.Position) (board.Move, error) {
	return f(ctx, pos)
}

func engineSettings(depth int) engine.Settings {
	s := engine.DefaultSettings()
	s.MaxDepth = depth
	return s
}

func TestEnginePlayerDeliversMate(t *testing.T) {
	pos := mustParseFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	white := NewEnginePlayer(pos, engineSettings(3))
	black := &scriptedPlayer{}

	g := New(pos, white, black, nil)
	result, err := g.Play(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result != BlackIsMated {
		t.Errorf("result = %v, want BlackIsMated", result)
	}
	if got := g.Moves()[0].String(); got != "a1a8" {
		t.Errorf("engine played %s, want a1a8", got)
	}
}

func TestEnginePlayerFollowsGame(t *testing.T) {
	start := mustParseFEN(t, board.StartFEN)
	black := NewEnginePlayer(start, engineSettings(2))
	white := &scriptedPlayer{moves: []string{"b1c3", "g1f3", "a2a3"}}

	g := New(start, white, black, nil)
	for i := 0; i < 3; i++ {
		m, err := white.ChooseMove(context.Background(), g.Position().Clone())
		if err != nil {
			t.Fatal(err)
		}
		if err := g.apply(m); err != nil {
			t.Fatal(err)
		}

		reply, err := black.ChooseMove(context.Background(), g.Position().Clone())
		if err != nil {
			t.Fatal(err)
		}
		if err := g.apply(reply); err != nil {
			t.Fatalf("engine reply %s: %v", reply, err)
		}
		if black.pos.Hash != g.Position().Hash {
			t.Fatalf("search board diverged after move %d", i+1)
		}
	}
	if err := black.pos.Validate(); err != nil {
		t.Error(err)
	}
}

func TestEnginePlayerResynchronises(t *testing.T) {
	e := NewEnginePlayer(mustParseFEN(t, board.StartFEN), engineSettings(2))
	other := mustParseFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")

	m, err := e.ChooseMove(context.Background(), other)
	if err != nil {
		t.Fatal(err)
	}
	var legal board.MoveList
	board.NewMoveGenerator().GenerateMoves(other, &legal, false)
	if !legal.Contains(m) {
		t.Errorf("move %s is not legal in the new position", m)
	}
	if e.pos.FEN() != other.FEN() {
		t.Errorf("search board = %s, want %s", e.pos.FEN(), other.FEN())
	}
}

func TestEnginePlayerFallsBackToFirstLegalMove(t *testing.T) {
	pos := mustParseFEN(t, board.StartFEN)
	e := NewEnginePlayer(pos, engineSettings(0))

	m, err := e.ChooseMove(context.Background(), pos)
	if err != nil {
		t.Fatal(err)
	}
	var legal board.MoveList
	board.NewMoveGenerator().GenerateMoves(pos, &legal, false)
	if m != legal.Get(0) {
		t.Errorf("fallback move %s, want first legal move %s", m, legal.Get(0))
	}
}

func TestEnginePlayerCancelled(t *testing.T) {
	pos := mustParseFEN(t, board.StartFEN)
	e := NewEnginePlayer(pos, engineSettings(5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.ChooseMove(ctx, pos); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := NewEnginePlayer(pos, engineSettings(64)).ChooseMove(ctx, pos); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}

	mated := mustParseFEN(t, "R5k1/5ppp/8/8/8/8/8/6K1 b - - 1 1")
	blackEngine := NewEnginePlayer(mated, engineSettings(2))
	if _, err := blackEngine.ChooseMove(context.Background(), mated); !errors.Is(err, ErrNoLegalMoves) {
		t.Errorf("mated engine err = %v, want ErrNoLegalMoves", err)
	}
}

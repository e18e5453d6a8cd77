package engine

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
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

func testSettings(depth int, useTT bool) Settings {
	s := DefaultSettings()
	s.MaxDepth = depth
	s.UseTranspositionTable = useTT
	return s
}

func TestMateInOne(t *testing.T) {
	pos := mustParseFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	s := NewSearcher(pos, testSettings(4, true))

	var delivered SearchResult
	s.OnSearchComplete = func(r SearchResult) { delivered = r }
	result := s.StartSearch()

	if delivered != result {
		t.Errorf("callback got %+v, StartSearch returned %+v", delivered, result)
	}
	if got := result.Move.String(); got != "a1a8" {
		t.Errorf("best move = %s, want a1a8", got)
	}
	if result.Score != ImmediateMateScore-1 {
		t.Errorf("score = %d, want %d", result.Score, ImmediateMateScore-1)
	}
	if !IsMateScore(result.Score) {
		t.Error("expected a mate score")
	}
	// The search stops as soon as the mate is proven.
	if result.Depth >= 4 {
		t.Errorf("search continued to depth %d after finding mate", result.Depth)
	}
}

func TestNearerMateScoresHigher(t *testing.T) {
	mateIn1 := NewSearcher(mustParseFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1"), testSettings(5, true)).StartSearch()
	mateIn2 := NewSearcher(mustParseFEN(t, "k7/8/2K5/8/8/8/8/7R w - - 0 1"), testSettings(5, true)).StartSearch()

	if NumPlyToMate(mateIn2.Score) != 3 {
		t.Errorf("mate in 2 score %d encodes %d plies, want 3", mateIn2.Score, NumPlyToMate(mateIn2.Score))
	}
	if mateIn1.Score <= mateIn2.Score {
		t.Errorf("mate in 1 score %d should exceed mate in 2 score %d", mateIn1.Score, mateIn2.Score)
	}
}

func TestMatedScoreDependsOnPly(t *testing.T) {
	pos := mustParseFEN(t, "R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	s := NewSearcher(pos, testSettings(1, false))

	atRoot := s.searchMoves(1, 0, negativeInfinity, positiveInfinity)
	deeper := s.searchMoves(1, 2, negativeInfinity, positiveInfinity)

	if atRoot != -ImmediateMateScore {
		t.Errorf("mated at root = %d, want %d", atRoot, -ImmediateMateScore)
	}
	if deeper != -(ImmediateMateScore - 2) {
		t.Errorf("mated two plies in = %d, want %d", deeper, -(ImmediateMateScore - 2))
	}
}

func TestStalemateRoot(t *testing.T) {
	pos := mustParseFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	result := NewSearcher(pos, testSettings(3, true)).StartSearch()
	if result.Move != board.NoMove || result.Score != 0 {
		t.Errorf("stalemate search = %+v, want NoMove and 0", result)
	}
}

func TestSearchRestoresPosition(t *testing.T) {
	pos := mustParseFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	fen, hash := pos.FEN(), pos.Hash

	NewSearcher(pos, testSettings(3, true)).StartSearch()

	if pos.FEN() != fen || pos.Hash != hash {
		t.Errorf("position changed by search: %s", pos.FEN())
	}
	if err := pos.Validate(); err != nil {
		t.Error(err)
	}
	if pos.HistoryDepth() != 0 {
		t.Errorf("history depth %d after search, want 0", pos.HistoryDepth())
	}
}

func TestSearchDeterministicWithoutTT(t *testing.T) {
	fen := "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3"

	first := NewSearcher(mustParseFEN(t, fen), testSettings(3, false)).StartSearch()
	for i := 0; i < 3; i++ {
		again := NewSearcher(mustParseFEN(t, fen), testSettings(3, false)).StartSearch()
		if again != first {
			t.Fatalf("run %d returned %+v, first run %+v", i+2, again, first)
		}
	}
	if first.Move == board.NoMove {
		t.Error("expected a move")
	}
}

// minimax is an unpruned negamax over the same tree the searcher explores:
// full-width to depth, then captures with stand-pat.
func minimax(pos *board.Position, eval *Evaluator, depth, ply int) int {
	if depth == 0 {
		return quiescenceMinimax(pos, eval)
	}

	gen := board.NewMoveGenerator()
	var moves board.MoveList
	gen.GenerateMoves(pos, &moves, false)
	if moves.Len() == 0 {
		if gen.InCheck() {
			return -(ImmediateMateScore - ply)
		}
		return 0
	}

	best := negativeInfinity
	for _, m := range moves.Slice() {
		pos.Apply(m, true)
		best = max(best, -minimax(pos, eval, depth-1, ply+1))
		pos.Undo(m, true)
	}
	return best
}

func quiescenceMinimax(pos *board.Position, eval *Evaluator) int {
	best := eval.Evaluate(pos)

	var moves board.MoveList
	board.NewMoveGenerator().GenerateMoves(pos, &moves, true)
	for _, m := range moves.Slice() {
		pos.Apply(m, true)
		best = max(best, -quiescenceMinimax(pos, eval))
		pos.Undo(m, true)
	}
	return best
}

func TestSearchMatchesMinimax(t *testing.T) {
	tests := []struct {
		fen   string
		depth int
	}{
		{"4k3/8/3n4/8/4P3/2N5/8/4K3 w - - 0 1", 3},
		{"4k3/3p4/8/2b1N3/8/8/3P4/4K3 b - - 0 1", 2},
		{"r3k3/8/8/8/8/8/8/4K2R w K - 0 1", 2},
	}

	for _, tc := range tests {
		t.Run(tc.fen, func(t *testing.T) {
			want := minimax(mustParseFEN(t, tc.fen), NewEvaluator(), tc.depth, 0)
			got := NewSearcher(mustParseFEN(t, tc.fen), testSettings(tc.depth, false)).StartSearch()
			if got.Score != want {
				t.Errorf("search score %d, minimax %d", got.Score, want)
			}
		})
	}
}

func TestEndSearchKeepsLastCompletedDepth(t *testing.T) {
	pos := mustParseFEN(t, board.StartFEN)
	s := NewSearcher(pos, testSettings(64, true))

	done := make(chan SearchResult, 1)
	go func() { done <- s.StartSearch() }()

	deadline := time.Now().Add(10 * time.Second)
	for s.Diagnostics().LastCompletedDepth < 1 {
		if time.Now().After(deadline) {
			t.Fatal("depth 1 did not complete")
		}
		time.Sleep(time.Millisecond)
	}
	s.EndSearch()

	select {
	case result := <-done:
		if result.Move == board.NoMove {
			t.Error("expected the move of the last completed depth")
		}
		if result.Depth < 1 || result.Depth >= 64 {
			t.Errorf("completed depth %d", result.Depth)
		}
		diag := s.Diagnostics()
		if diag.BestMove != result.Move || diag.LastCompletedDepth != result.Depth {
			t.Errorf("diagnostics %+v disagree with result %+v", diag, result)
		}
		if diag.Nodes == 0 || diag.PositionsEvaluated == 0 {
			t.Errorf("diagnostics not counted: %+v", diag)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("search did not stop after EndSearch")
	}
}

func TestEndSearchBeforeStart(t *testing.T) {
	pos := mustParseFEN(t, board.StartFEN)
	s := NewSearcher(pos, testSettings(2, false))

	s.EndSearch()
	if result := s.StartSearch(); result.Move != board.NoMove || result.Depth != 0 {
		t.Errorf("search stopped before it started returned %+v", result)
	}
	if result := s.StartSearch(); result.Depth != 2 {
		t.Errorf("next search reached depth %d, want 2", result.Depth)
	}
}

func TestExpiredTimerDoesNotStopNextSearch(t *testing.T) {
	pos := mustParseFEN(t, board.StartFEN)
	settings := testSettings(3, false)
	settings.MoveTime = time.Hour
	s := NewSearcher(pos, settings)

	s.StartSearch()
	// The first search's timer firing after it returned.
	s.timeUp.Store(true)

	if result := s.StartSearch(); result.Depth != 3 {
		t.Errorf("search reached depth %d, want 3", result.Depth)
	}
}

func TestSearchContext(t *testing.T) {
	pos := mustParseFEN(t, board.StartFEN)
	s := NewSearcher(pos, testSettings(64, true))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.SearchContext(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for s.Diagnostics().LastCompletedDepth < 1 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()
	result, err := s.SearchContext(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if result.Depth < 1 || result.Depth >= 64 {
		t.Errorf("cancelled search completed depth %d", result.Depth)
	}

	s = NewSearcher(pos, testSettings(2, false))
	result, err = s.SearchContext(context.Background())
	if err != nil || result.Depth != 2 {
		t.Errorf("uncancelled search = %+v, %v", result, err)
	}
	if result, _ = s.SearchContext(context.Background()); result.Depth != 2 {
		t.Errorf("second search reached depth %d, want 2", result.Depth)
	}
}

func TestMoveTimeStopsSearch(t *testing.T) {
	settings := testSettings(64, true)
	settings.MoveTime = 100 * time.Millisecond
	pos := mustParseFEN(t, board.StartFEN)

	start := time.Now()
	result := NewSearcher(pos, settings).StartSearch()
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("search ran %v with a 100ms budget", elapsed)
	}
	if result.Move == board.NoMove {
		t.Error("expected a move within the time budget")
	}
}

func TestScoreToString(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "0.00"},
		{135, "1.35"},
		{-40, "-0.40"},
		{ImmediateMateScore - 1, "Mate in 1"},
		{ImmediateMateScore - 3, "Mate in 2"},
		{-(ImmediateMateScore - 2), "Mated in 1"},
	}
	for _, tc := range tests {
		if got := ScoreToString(tc.score); got != tc.want {
			t.Errorf("ScoreToString(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	for d := Easy; d <= Hard; d++ {
		got, err := ParseDifficulty(d.String())
		if err != nil || got != d {
			t.Errorf("ParseDifficulty(%q) = %v, %v", d.String(), got, err)
		}
	}
	if _, err := ParseDifficulty("grandmaster"); err == nil {
		t.Error("expected an error for an unknown difficulty")
	}
}

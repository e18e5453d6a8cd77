package engine

import (
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func TestTranspositionDepthRule(t *testing.T) {
	tt := NewTranspositionTable(1)
	const hash = 0x1234_5678_9abc_def0
	move := board.NewMove(board.E1, board.G1, board.FlagCastle)

	tt.Store(hash, 4, 0, 123, Exact, move)

	for depth := 0; depth <= 4; depth++ {
		if got := tt.Lookup(hash, depth, 0, -1000, 1000); got != 123 {
			t.Errorf("Lookup at depth %d = %d, want 123", depth, got)
		}
	}
	if got := tt.Lookup(hash, 5, 0, -1000, 1000); got != LookupFailed {
		t.Errorf("Lookup deeper than stored = %d, want LookupFailed", got)
	}
	if got := tt.Lookup(hash+1, 0, 0, -1000, 1000); got != LookupFailed {
		t.Errorf("Lookup of another key = %d, want LookupFailed", got)
	}
	if got := tt.StoredMove(hash); got != move {
		t.Errorf("StoredMove = %s, want %s", got, move)
	}
	if got := tt.StoredMove(hash + 1); got != board.NoMove {
		t.Errorf("StoredMove of another key = %s, want NoMove", got)
	}
}

func TestTranspositionBounds(t *testing.T) {
	tests := []struct {
		name        string
		bound       Bound
		value       int
		alpha, beta int
		usable      bool
	}{
		{"lower bound above beta", LowerBound, 50, 0, 40, true},
		{"lower bound inside window", LowerBound, 50, 0, 60, false},
		{"upper bound below alpha", UpperBound, -20, -10, 10, true},
		{"upper bound inside window", UpperBound, -20, -30, 10, false},
		{"exact inside window", Exact, 5, -10, 10, true},
		{"exact outside window", Exact, 50, -10, 10, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tt := NewTranspositionTable(1)
			tt.Store(42, 3, 0, tc.value, tc.bound, board.NoMove)

			got := tt.Lookup(42, 3, 0, tc.alpha, tc.beta)
			if tc.usable && got != tc.value {
				t.Errorf("Lookup = %d, want %d", got, tc.value)
			}
			if !tc.usable && got != LookupFailed {
				t.Errorf("Lookup = %d, want LookupFailed", got)
			}
		})
	}
}

func TestTranspositionMateScores(t *testing.T) {
	tt := NewTranspositionTable(1)

	// Mate five plies from the root, found at ply 2: three plies from the node.
	tt.Store(1, 6, 2, ImmediateMateScore-5, Exact, board.NoMove)
	if got := tt.Lookup(1, 0, 4, negativeInfinity, positiveInfinity); got != ImmediateMateScore-7 {
		t.Errorf("mate reached at ply 4 = %d, want %d", got, ImmediateMateScore-7)
	}

	tt.Store(2, 6, 3, -(ImmediateMateScore - 4), Exact, board.NoMove)
	if got := tt.Lookup(2, 0, 1, negativeInfinity, positiveInfinity); got != -(ImmediateMateScore - 2) {
		t.Errorf("mated reached at ply 1 = %d, want %d", got, -(ImmediateMateScore - 2))
	}

	tt.Store(3, 6, 7, 250, Exact, board.NoMove)
	if got := tt.Lookup(3, 0, 1, negativeInfinity, positiveInfinity); got != 250 {
		t.Errorf("ordinary score = %d, want 250", got)
	}
}

func TestTranspositionDisabledAndClear(t *testing.T) {
	tt := NewTranspositionTable(1)
	tt.Store(7, 1, 0, 10, Exact, board.NewMove(board.A1, board.H1, board.FlagNone))

	tt.Enabled = false
	if got := tt.Lookup(7, 0, 0, -100, 100); got != LookupFailed {
		t.Errorf("disabled Lookup = %d, want LookupFailed", got)
	}
	if got := tt.StoredMove(7); got != board.NoMove {
		t.Errorf("disabled StoredMove = %s, want NoMove", got)
	}

	tt.Enabled = true
	if got := tt.Lookup(7, 0, 0, -100, 100); got != 10 {
		t.Errorf("re-enabled Lookup = %d, want 10", got)
	}
	if tt.Hits() != 1 {
		t.Errorf("Hits = %d, want 1", tt.Hits())
	}

	tt.Clear()
	if got := tt.Lookup(7, 0, 0, -100, 100); got != LookupFailed {
		t.Errorf("Lookup after Clear = %d, want LookupFailed", got)
	}
	if tt.HashFull() != 0 {
		t.Errorf("HashFull after Clear = %d", tt.HashFull())
	}
}

func TestTranspositionSize(t *testing.T) {
	if got := NewTranspositionTable(1).Size(); got != 1024*1024/ttEntrySize {
		t.Errorf("1MB table has %d slots", got)
	}
	if got := NewTranspositionTable(0).Size(); got != 1024*1024/ttEntrySize {
		t.Errorf("0MB table has %d slots, want the 1MB minimum", got)
	}
}

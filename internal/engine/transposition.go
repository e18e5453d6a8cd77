package engine

import (
	"math"

	"github.com/hailam/chesscore/internal/board"
)

// Bound indicates how a stored value relates to the true score.
type Bound uint8

const (
	Exact      Bound = iota // value is the score
	LowerBound              // failed high: score >= value
	UpperBound              // failed low: score <= value
)

// LookupFailed is returned by Lookup when no usable entry exists.
// No search score can take this value.
const LookupFailed = math.MinInt32

// TTEntry is one slot of the transposition table.
type TTEntry struct {
	Key   uint64
	Value int32
	Move  board.Move
	Depth uint8
	Bound Bound
}

const ttEntrySize = 16

// TranspositionTable caches search results by position hash.
// One slot per index, always replaced on store.
type TranspositionTable struct {
	entries []TTEntry
	count   uint64

	// Enabled switches lookups and stores on or off.
	Enabled bool

	probes uint64
	hits   uint64
	stored uint64
}

// NewTranspositionTable creates an enabled table of roughly sizeMB megabytes.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	count := uint64(max(sizeMB, 1)) * 1024 * 1024 / ttEntrySize
	return &TranspositionTable{
		entries: make([]TTEntry, count),
		count:   count,
		Enabled: true,
	}
}

func (tt *TranspositionTable) index(hash uint64) uint64 {
	return hash % tt.count
}

// Clear empties every slot and resets the statistics.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.probes = 0
	tt.hits = 0
	tt.stored = 0
}

// Lookup returns the stored value for hash if it was searched at least depth
// plies deep and its bound is usable inside (alpha, beta). Mate scores are
// converted back to distances from the current node. Otherwise it returns
// LookupFailed.
func (tt *TranspositionTable) Lookup(hash uint64, depth, plyFromRoot, alpha, beta int) int {
	if !tt.Enabled {
		return LookupFailed
	}
	tt.probes++

	entry := &tt.entries[tt.index(hash)]
	if entry.Key != hash || int(entry.Depth) < depth {
		return LookupFailed
	}

	value := retrievedMateScore(int(entry.Value), plyFromRoot)
	switch {
	case entry.Bound == Exact,
		entry.Bound == UpperBound && value <= alpha,
		entry.Bound == LowerBound && value >= beta:
		tt.hits++
		return value
	}
	return LookupFailed
}

// Store overwrites the slot for hash. Mate scores are stored relative to the
// node rather than the root.
func (tt *TranspositionTable) Store(hash uint64, depth, plyFromRoot, value int, bound Bound, move board.Move) {
	if !tt.Enabled {
		return
	}
	tt.stored++
	tt.entries[tt.index(hash)] = TTEntry{
		Key:   hash,
		Value: int32(storedMateScore(value, plyFromRoot)),
		Move:  move,
		Depth: uint8(depth),
		Bound: bound,
	}
}

// StoredMove returns the best move recorded for hash, or NoMove.
func (tt *TranspositionTable) StoredMove(hash uint64) board.Move {
	if !tt.Enabled {
		return board.NoMove
	}
	entry := &tt.entries[tt.index(hash)]
	if entry.Key != hash {
		return board.NoMove
	}
	return entry.Move
}

// HashFull returns the permille of the first thousand slots in use.
func (tt *TranspositionTable) HashFull() int {
	sample := min(1000, len(tt.entries))
	used := 0
	for i := 0; i < sample; i++ {
		if tt.entries[i].Key != 0 {
			used++
		}
	}
	return used * 1000 / sample
}

// HitRate returns the share of probes that produced a usable value, in percent.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Hits returns the number of usable lookups since the last Clear.
func (tt *TranspositionTable) Hits() uint64 {
	return tt.hits
}

// Size returns the number of slots.
func (tt *TranspositionTable) Size() uint64 {
	return tt.count
}

func storedMateScore(score, plyFromRoot int) int {
	if IsMateScore(score) {
		if score > 0 {
			return score + plyFromRoot
		}
		return score - plyFromRoot
	}
	return score
}

func retrievedMateScore(score, plyFromRoot int) int {
	if IsMateScore(score) {
		if score > 0 {
			return score - plyFromRoot
		}
		return score + plyFromRoot
	}
	return score
}

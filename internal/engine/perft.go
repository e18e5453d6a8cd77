package engine

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
)

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(pos *board.Position, depth int) uint64 {
	return perft(pos, board.NewMoveGenerator(), depth)
}

func perft(pos *board.Position, gen *board.MoveGenerator, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	var moves board.MoveList
	gen.GenerateMoves(pos, &moves, false)
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for _, m := range moves.Slice() {
		pos.Apply(m, true)
		nodes += perft(pos, gen, depth-1)
		pos.Undo(m, true)
	}
	return nodes
}

// DivideEntry is the subtree count below one root move.
type DivideEntry struct {
	Move  board.Move
	Nodes uint64
}

// ParallelDivide runs perft below every root move concurrently, each on its
// own clone of pos, and returns the counts sorted by move text. pos itself is
// not modified. The first cancelled context or failure stops the remaining work.
func ParallelDivide(ctx context.Context, pos *board.Position, depth int, workers int) ([]DivideEntry, error) {
	if depth < 1 {
		return nil, nil
	}

	var roots board.MoveList
	board.NewMoveGenerator().GenerateMoves(pos, &roots, false)

	entries := make([]DivideEntry, roots.Len())
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, m := range roots.Slice() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			child := pos.Clone()
			child.Apply(m, true)
			entries[i] = DivideEntry{Move: m, Nodes: perft(child, board.NewMoveGenerator(), depth-1)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].Move.String() < entries[b].Move.String()
	})
	return entries, nil
}

// ParallelPerft sums ParallelDivide.
func ParallelPerft(ctx context.Context, pos *board.Position, depth int, workers int) (uint64, error) {
	if depth == 0 {
		return 1, nil
	}
	entries, err := ParallelDivide(ctx, pos, depth, workers)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, e := range entries {
		total += e.Nodes
	}
	return total, nil
}

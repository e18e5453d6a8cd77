package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// Move ordering weights
const (
	hashMoveScore                    = 10000
	capturedPieceValueMultiplier     = 10
	squareAttackedByOpponentPawnCost = 350
)

// scoredMove keeps a move and its ordering score together while sorting.
type scoredMove struct {
	move  board.Move
	score int
}

// MoveOrderer sorts moves so that likely refutations are searched first.
type MoveOrderer struct {
	scored [256]scoredMove
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// OrderMoves sorts moves in place, best first. gen must be the generator
// that produced moves for pos, so that its opponent pawn attacks are current.
// hashMove, if not NoMove, is searched first.
func (mo *MoveOrderer) OrderMoves(pos *board.Position, gen *board.MoveGenerator, moves *board.MoveList, hashMove board.Move) {
	n := moves.Len()
	pawnAttacks := gen.OpponentPawnAttackMap()

	for i := 0; i < n; i++ {
		m := moves.Get(i)
		mo.scored[i] = scoredMove{move: m, score: scoreMove(pos, m, pawnAttacks, hashMove)}
	}

	sortScoredMoves(mo.scored[:n])

	for i := 0; i < n; i++ {
		moves.Set(i, mo.scored[i].move)
	}
}

func scoreMove(pos *board.Position, m board.Move, opponentPawnAttacks board.Bitboard, hashMove board.Move) int {
	score := 0
	mover := pos.PieceAt(m.From()).Type()

	victim := pos.PieceAt(m.To()).Type()
	if m.Flag() == board.FlagEnPassant {
		victim = board.Pawn
	}

	if victim != board.NoPieceType {
		score = capturedPieceValueMultiplier*PieceValue(victim) - PieceValue(mover)
	}

	if mover == board.Pawn {
		if m.IsPromotion() {
			score += PieceValue(m.Promotion())
		}
	} else if victim == board.NoPieceType && opponentPawnAttacks.IsSet(m.To()) {
		score -= squareAttackedByOpponentPawnCost
	}

	if m == hashMove {
		score += hashMoveScore
	}

	return score
}

// sortScoredMoves is a stable insertion sort, descending by score.
func sortScoredMoves(moves []scoredMove) {
	for i := 1; i < len(moves); i++ {
		cur := moves[i]
		j := i - 1
		for j >= 0 && moves[j].score < cur.score {
			moves[j+1] = moves[j]
			j--
		}
		moves[j+1] = cur
	}
}

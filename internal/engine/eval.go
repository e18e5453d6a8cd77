package engine

import "github.com/hailam/chesscore/internal/board"

// Material values in centipawns.
const (
	PawnValue   = 100
	KnightValue = 300
	BishopValue = 320
	RookValue   = 500
	QueenValue  = 900
)

// pieceValues indexes material by piece type; the king has no material value.
var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, 0, 0}

// PieceValue returns the material value of pt.
func PieceValue(pt board.PieceType) int {
	return pieceValues[pt]
}

// Non-pawn material at or above which a side is fully in the middlegame:
// two rooks, a bishop and a knight.
const endgameMaterialStart = RookValue*2 + BishopValue + KnightValue

// Evaluator scores positions statically.
type Evaluator struct{}

// NewEvaluator creates an evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

type sideMaterial struct {
	total        int
	withoutPawns int
	endgame      float64 // 0 with full material, 1 with a bare king
}

// Evaluate returns the score of pos in centipawns from the side to move's view.
func (e *Evaluator) Evaluate(pos *board.Position) int {
	white := countMaterial(pos, board.White)
	black := countMaterial(pos, board.Black)

	whiteEval := white.total
	blackEval := black.total

	// Each side's king play depends on how far the opponent has traded down.
	whiteEval += mopUpEval(pos, board.White, white.total, black.total, black.endgame)
	blackEval += mopUpEval(pos, board.Black, black.total, white.total, white.endgame)

	whiteEval += pieceSquareEval(pos, board.White, black.endgame)
	blackEval += pieceSquareEval(pos, board.Black, white.endgame)

	eval := whiteEval - blackEval
	if pos.SideToMove == board.Black {
		return -eval
	}
	return eval
}

func countMaterial(pos *board.Position, c board.Color) sideMaterial {
	var m sideMaterial
	for pt := board.Pawn; pt <= board.Queen; pt++ {
		m.total += pos.Pieces(c, pt).Count() * pieceValues[pt]
	}
	m.withoutPawns = m.total - pos.Pieces(c, board.Pawn).Count()*PawnValue
	m.endgame = endgamePhaseWeight(m.withoutPawns)
	return m
}

func endgamePhaseWeight(materialWithoutPawns int) float64 {
	return 1 - min(1, float64(materialWithoutPawns)/endgameMaterialStart)
}

// mopUpEval rewards a side that is clearly ahead for driving the enemy king
// to the edge and bringing its own king closer.
func mopUpEval(pos *board.Position, us board.Color, ourMaterial, theirMaterial int, endgame float64) int {
	if ourMaterial <= theirMaterial+PawnValue*2 || endgame <= 0 {
		return 0
	}

	ourKing := pos.KingSquare[us]
	theirKing := pos.KingSquare[us.Other()]

	score := board.CentreManhattanDistance(theirKing) * 10
	score += (14 - board.OrthogonalDistance(ourKing, theirKing)) * 4
	return int(float64(score) * endgame)
}

func pieceSquareEval(pos *board.Position, c board.Color, opponentEndgame float64) int {
	value := 0
	for pt := board.Pawn; pt <= board.Queen; pt++ {
		pl := pos.Pieces(c, pt)
		for i := 0; i < pl.Count(); i++ {
			value += readTable(pieceTables[pt], pl.At(i), c)
		}
	}

	kingEarly := readTable(&kingMiddleTable, pos.KingSquare[c], c)
	value += int(float64(kingEarly) * (1 - opponentEndgame))
	return value
}

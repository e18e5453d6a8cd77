package board

// Ray directions, indexed consistently across all geometry tables.
// The first four are orthogonal, the last four diagonal.
const (
	DirNorth = iota
	DirSouth
	DirWest
	DirEast
	DirNorthWest
	DirSouthEast
	DirNorthEast
	DirSouthWest
)

// DirectionOffsets holds the square index delta of one step in each direction.
var DirectionOffsets = [8]int{8, -8, -1, 1, 7, -7, 9, -9}

// Precomputed geometry, filled once at init and read-only afterwards.
var (
	// NumSquaresToEdge[sq][dir] is how many steps fit before leaving the board.
	NumSquaresToEdge [64][8]int

	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]

	// rayMask[dir][sq] covers every square from sq (exclusive) to the edge.
	rayMask [8][64]Bitboard

	// dirBetween[a][b] is the direction from a to b, or -1 if not aligned.
	dirBetween [64][64]int8

	centreManhattan [64]int
)

// PawnAttackDirections lists the two capture directions per color.
var PawnAttackDirections = [2][2]int{
	White: {DirNorthWest, DirNorthEast},
	Black: {DirSouthWest, DirSouthEast},
}

func init() {
	initEdgeDistances()
	initLeaperAttacks()
	initRays()
	initCentreDistance()
}

func initEdgeDistances() {
	for sq := Square(0); sq < NoSquare; sq++ {
		north := 7 - sq.Rank()
		south := sq.Rank()
		west := sq.File()
		east := 7 - sq.File()
		NumSquaresToEdge[sq] = [8]int{
			north, south, west, east,
			min(north, west), min(south, east),
			min(north, east), min(south, west),
		}
	}
}

func initLeaperAttacks() {
	knightJumps := [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}

	for sq := Square(0); sq < NoSquare; sq++ {
		f, r := sq.File(), sq.Rank()
		for _, j := range knightJumps {
			if onBoard(f+j[0], r+j[1]) {
				knightAttacks[sq] |= SquareBB(NewSquare(f+j[0], r+j[1]))
			}
		}

		bb := SquareBB(sq)
		kingAttacks[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()

		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()
	}
}

func initRays() {
	for a := range dirBetween {
		for b := range dirBetween[a] {
			dirBetween[a][b] = -1
		}
	}

	for sq := Square(0); sq < NoSquare; sq++ {
		for dir := 0; dir < 8; dir++ {
			for n := 1; n <= NumSquaresToEdge[sq][dir]; n++ {
				target := Square(int(sq) + DirectionOffsets[dir]*n)
				rayMask[dir][sq] |= SquareBB(target)
				dirBetween[sq][target] = int8(dir)
			}
		}
	}
}

func initCentreDistance() {
	for sq := Square(0); sq < NoSquare; sq++ {
		fileDist := max(3-sq.File(), sq.File()-4)
		rankDist := max(3-sq.Rank(), sq.Rank()-4)
		centreManhattan[sq] = fileDist + rankDist
	}
}

func onBoard(file, rank int) bool {
	return file >= 0 && file < 8 && rank >= 0 && rank < 8
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// KnightAttacks returns the knight attack bitboard for a square.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the king attack bitboard for a square.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// Ray returns every square from sq to the board edge in direction dir, excluding sq.
func Ray(sq Square, dir int) Bitboard {
	return rayMask[dir][sq]
}

// Aligned reports whether a, b and c lie on one rank, file or diagonal,
// with b and c on the same side of a.
func Aligned(a, b, c Square) bool {
	d := dirBetween[a][b]
	return d >= 0 && d == dirBetween[a][c]
}

// CentreManhattanDistance returns the file plus rank distance of sq from
// the four centre squares.
func CentreManhattanDistance(sq Square) int {
	return centreManhattan[sq]
}

// OrthogonalDistance returns the taxicab distance between two squares.
func OrthogonalDistance(a, b Square) int {
	return abs(a.File()-b.File()) + abs(a.Rank()-b.Rank())
}

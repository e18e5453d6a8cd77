package board

// maxPieceCount bounds one color's pieces of one type (8 promoted pawns + 2 originals).
const maxPieceCount = 16

// PieceList tracks the squares occupied by one color's pieces of one type.
// The square→index map makes add, remove and relocate constant time.
type PieceList struct {
	squares [maxPieceCount]Square
	index   [64]uint8
	count   int
}

// Count returns the number of pieces in the list.
func (pl *PieceList) Count() int {
	return pl.count
}

// At returns the i-th occupied square.
func (pl *PieceList) At(i int) Square {
	return pl.squares[i]
}

// Add records a piece on sq.
func (pl *PieceList) Add(sq Square) {
	pl.squares[pl.count] = sq
	pl.index[sq] = uint8(pl.count)
	pl.count++
}

// Remove drops the piece on sq, filling its slot with the last entry.
func (pl *PieceList) Remove(sq Square) {
	i := pl.index[sq]
	last := pl.squares[pl.count-1]
	pl.squares[i] = last
	pl.index[last] = i
	pl.count--
}

// Move relocates the piece on from to to.
func (pl *PieceList) Move(from, to Square) {
	i := pl.index[from]
	pl.squares[i] = to
	pl.index[to] = i
}

// Contains reports whether the list holds a piece on sq.
func (pl *PieceList) Contains(sq Square) bool {
	i := int(pl.index[sq])
	return i < pl.count && pl.squares[i] == sq
}

// Bitboard returns the occupied squares as a bitboard.
func (pl *PieceList) Bitboard() Bitboard {
	var bb Bitboard
	for i := 0; i < pl.count; i++ {
		bb |= SquareBB(pl.squares[i])
	}
	return bb
}

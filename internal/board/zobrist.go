package board

import (
	"fmt"
	"sync"
)

// DefaultZobristSeed seeds the generator when no persisted numbers exist.
const DefaultZobristSeed uint64 = 2361912

// ZobristNumberCount is how many random numbers a Zobrist context consumes:
// one per piece per square, sixteen castling states, eight en-passant files
// and the side to move.
const ZobristNumberCount = 2*6*64 + 16 + 8 + 1

// Zobrist holds the hashing keys shared by every Position of a process.
// It is immutable once constructed.
type Zobrist struct {
	piece     [2][6][64]uint64
	castling  [16]uint64
	enPassant [8]uint64 // indexed by file
	sideKey   uint64
}

// NewZobrist builds a hashing context from exactly ZobristNumberCount numbers,
// consumed in piece, castling, en-passant, side order.
func NewZobrist(numbers []uint64) (*Zobrist, error) {
	if len(numbers) != ZobristNumberCount {
		return nil, fmt.Errorf("zobrist: need %d numbers, got %d", ZobristNumberCount, len(numbers))
	}

	z := &Zobrist{}
	i := 0
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := 0; sq < 64; sq++ {
				z.piece[c][pt][sq] = numbers[i]
				i++
			}
		}
	}
	for j := range z.castling {
		z.castling[j] = numbers[i]
		i++
	}
	for j := range z.enPassant {
		z.enPassant[j] = numbers[i]
		i++
	}
	z.sideKey = numbers[i]

	return z, nil
}

// prng is an xorshift64* generator, deterministic for a given seed.
type prng struct {
	state uint64
}

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// GenerateZobristNumbers produces the full set of hashing numbers for seed.
func GenerateZobristNumbers(seed uint64) []uint64 {
	if seed == 0 {
		seed = DefaultZobristSeed
	}
	rng := &prng{state: seed}
	numbers := make([]uint64, ZobristNumberCount)
	for i := range numbers {
		numbers[i] = rng.next()
	}
	return numbers
}

var (
	defaultZobrist     *Zobrist
	defaultZobristOnce sync.Once
)

// DefaultZobrist returns a process-wide context generated from DefaultZobristSeed.
// Binaries that persist their numbers construct their own with NewZobrist.
func DefaultZobrist() *Zobrist {
	defaultZobristOnce.Do(func() {
		z, err := NewZobrist(GenerateZobristNumbers(DefaultZobristSeed))
		if err != nil {
			panic(err)
		}
		defaultZobrist = z
	})
	return defaultZobrist
}

// Piece returns the key for a piece of color c and type pt on sq.
func (z *Zobrist) Piece(c Color, pt PieceType, sq Square) uint64 {
	return z.piece[c][pt][sq]
}

// Castling returns the key for a castling-rights nibble.
func (z *Zobrist) Castling(cr CastlingRights) uint64 {
	return z.castling[cr&AllCastling]
}

// EnPassant returns the key for an en-passant file (0-7).
func (z *Zobrist) EnPassant(file int) uint64 {
	return z.enPassant[file]
}

// SideToMove returns the key toggled when black is to move.
func (z *Zobrist) SideToMove() uint64 {
	return z.sideKey
}

package engine

import (
	"fmt"
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// Score constants
const (
	ImmediateMateScore = 100000
	positiveInfinity   = 9999999
	negativeInfinity   = -positiveInfinity

	// maxMateDepth bounds the plies a mate score can carry.
	maxMateDepth = 1000
)

// IsMateScore reports whether score encodes a forced mate for either side.
func IsMateScore(score int) bool {
	return abs(score) > ImmediateMateScore-maxMateDepth
}

// NumPlyToMate returns the plies to mate encoded in a mate score.
func NumPlyToMate(score int) int {
	return ImmediateMateScore - abs(score)
}

// Settings configures a search.
type Settings struct {
	MaxDepth              int                 `json:"max_depth"`
	MoveTime              time.Duration       `json:"move_time"` // 0 = no limit
	UseTranspositionTable bool                `json:"use_transposition_table"`
	TTSizeMB              int                 `json:"tt_size_mb"`
	PromotionMode         board.PromotionMode `json:"promotion_mode"`
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		MaxDepth:              5,
		UseTranspositionTable: true,
		TTSizeMB:              1,
		PromotionMode:         board.PromoteAll,
	}
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// String returns the difficulty name.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// ParseDifficulty parses a difficulty name as returned by String.
func ParseDifficulty(s string) (Difficulty, error) {
	for d := Easy; d <= Hard; d++ {
		if s == d.String() {
			return d, nil
		}
	}
	return Easy, fmt.Errorf("unknown difficulty %q", s)
}

// DifficultySettings maps difficulty to search settings.
var DifficultySettings = map[Difficulty]Settings{
	Easy: {
		MaxDepth:              2,
		MoveTime:              500 * time.Millisecond,
		UseTranspositionTable: true,
		TTSizeMB:              1,
		PromotionMode:         board.PromoteQueenOnly,
	},
	Medium: {
		MaxDepth:              4,
		MoveTime:              2 * time.Second,
		UseTranspositionTable: true,
		TTSizeMB:              1,
		PromotionMode:         board.PromoteQueenAndKnight,
	},
	Hard: {
		MaxDepth:              6,
		MoveTime:              5 * time.Second,
		UseTranspositionTable: true,
		TTSizeMB:              4,
		PromotionMode:         board.PromoteAll,
	},
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if IsMateScore(score) {
		moves := (NumPlyToMate(score) + 1) / 2
		if score > 0 {
			return fmt.Sprintf("Mate in %d", moves)
		}
		return fmt.Sprintf("Mated in %d", moves)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return fmt.Sprintf("%s%d.%02d", sign, score/100, score%100)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

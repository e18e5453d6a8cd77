package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

// Storage keys
const (
	keySettings       = "settings"
	keyStats          = "stats"
	keyFirstLaunch    = "first_launch"
	keyZobristNumbers = "zobrist_numbers"
)

// GameMode represents who plays each side.
type GameMode int

const (
	ModeHumanVsHuman GameMode = iota
	ModeHumanVsComputer
	ModeComputerVsComputer
)

// String returns the short name used in statistics.
func (m GameMode) String() string {
	switch m {
	case ModeHumanVsHuman:
		return "hvh"
	case ModeHumanVsComputer:
		return "hvc"
	case ModeComputerVsComputer:
		return "cvc"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseGameMode parses a mode name as returned by String.
func ParseGameMode(s string) (GameMode, error) {
	for m := ModeHumanVsHuman; m <= ModeComputerVsComputer; m++ {
		if s == m.String() {
			return m, nil
		}
	}
	return ModeHumanVsHuman, fmt.Errorf("unknown game mode %q", s)
}

// Settings stores the user's configuration between runs.
type Settings struct {
	Difficulty engine.Difficulty `json:"difficulty"`
	Engine     engine.Settings   `json:"engine"`
	GameMode   GameMode          `json:"game_mode"`
	HumanColor board.Color       `json:"human_color"`
	LastPlayed time.Time         `json:"last_played"`
}

// DefaultSettings returns the settings used on first launch.
func DefaultSettings() *Settings {
	return &Settings{
		Difficulty: engine.Medium,
		Engine:     engine.DifficultySettings[engine.Medium],
		GameMode:   ModeHumanVsComputer,
		HumanColor: board.White,
	}
}

// GameStats stores game statistics
type GameStats struct {
	GamesPlayed    int            `json:"games_played"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	Draws          int            `json:"draws"`
	WinsByMode     map[string]int `json:"wins_by_mode"`
	WinsByDiff     map[string]int `json:"wins_by_difficulty"`
	DrawsByReason  map[string]int `json:"draws_by_reason"`
	TotalPlayTime  time.Duration  `json:"total_play_time"`
	LongestWinStrk int            `json:"longest_win_streak"`
	CurrentStreak  int            `json:"current_streak"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{
		WinsByMode:    make(map[string]int),
		WinsByDiff:    make(map[string]int),
		DrawsByReason: make(map[string]int),
	}
}

// WinRate returns the win rate as a percentage (0-100)
func (s *GameStats) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}

// GameResult describes a finished game from the human player's side.
type GameResult struct {
	Won        bool
	Draw       bool
	Reason     string // e.g. "stalemate", "repetition"
	Mode       GameMode
	Difficulty engine.Difficulty
	Duration   time.Duration
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens or creates a database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = badgerLogger{}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	db, err := badger.Open(opts)
	if err != nil {
		encoder.Close()
		decoder.Close()
		return nil, fmt.Errorf("open database %s: %w", dir, err)
	}

	return &Storage{db: db, encoder: encoder, decoder: decoder}, nil
}

// Close closes the database and the game archive codecs.
func (s *Storage) Close() error {
	if s.encoder != nil {
		s.encoder.Close()
	}
	if s.decoder != nil {
		s.decoder.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// get decodes the value under key with decode. found is false if the key is absent.
func (s *Storage) get(key string, decode func([]byte) error) (found bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(decode)
	})
	return found, err
}

func (s *Storage) set(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (s *Storage) getJSON(key string, v any) error {
	_, err := s.get(key, func(val []byte) error {
		return json.Unmarshal(val, v)
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	return nil
}

func (s *Storage) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.set(key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// IsFirstLaunch returns true if this is the first launch
func (s *Storage) IsFirstLaunch() (bool, error) {
	found, err := s.get(keyFirstLaunch, func([]byte) error { return nil })
	return !found, err
}

// MarkFirstLaunchComplete marks that first launch setup is complete
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.set(keyFirstLaunch, []byte("done"))
}

// SaveSettings saves the user settings.
func (s *Storage) SaveSettings(settings *Settings) error {
	settings.LastPlayed = time.Now()
	return s.setJSON(keySettings, settings)
}

// LoadSettings loads the user settings, returns defaults if not found
func (s *Storage) LoadSettings() (*Settings, error) {
	settings := DefaultSettings()
	err := s.getJSON(keySettings, settings)
	return settings, err
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.setJSON(keyStats, stats)
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	if err := s.getJSON(keyStats, stats); err != nil {
		return nil, err
	}
	// Stats written before a map was added decode it as nil.
	if stats.DrawsByReason == nil {
		stats.DrawsByReason = make(map[string]int)
	}
	return stats, nil
}

// RecordGame records a completed game and updates statistics
func (s *Storage) RecordGame(result GameResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.TotalPlayTime += result.Duration

	switch {
	case result.Draw:
		stats.Draws++
		stats.CurrentStreak = 0
		stats.DrawsByReason[result.Reason]++
	case result.Won:
		stats.Wins++
		stats.CurrentStreak++
		stats.LongestWinStrk = max(stats.LongestWinStrk, stats.CurrentStreak)
		stats.WinsByMode[result.Mode.String()]++
		stats.WinsByDiff[result.Difficulty.String()]++
	default:
		stats.Losses++
		stats.CurrentStreak = 0
	}

	log.Debug().Int("games", stats.GamesPlayed).Float64("win_rate", stats.WinRate()).Msg("game recorded")
	return s.SaveStats(stats)
}

// LoadOrCreateZobristNumbers returns the persisted hashing numbers, generating
// and saving them from seed on first use.
func (s *Storage) LoadOrCreateZobristNumbers(seed uint64) ([]uint64, error) {
	var numbers []uint64
	found, err := s.get(keyZobristNumbers, func(val []byte) error {
		if len(val) != board.ZobristNumberCount*8 {
			return fmt.Errorf("stored zobrist numbers have %d bytes, want %d", len(val), board.ZobristNumberCount*8)
		}
		numbers = make([]uint64, board.ZobristNumberCount)
		for i := range numbers {
			numbers[i] = binary.LittleEndian.Uint64(val[i*8:])
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", keyZobristNumbers, err)
	}
	if found {
		return numbers, nil
	}

	numbers = board.GenerateZobristNumbers(seed)
	buf := make([]byte, 0, len(numbers)*8)
	for _, n := range numbers {
		buf = binary.LittleEndian.AppendUint64(buf, n)
	}
	if err := s.set(keyZobristNumbers, buf); err != nil {
		return nil, fmt.Errorf("save %s: %w", keyZobristNumbers, err)
	}
	log.Info().Uint64("seed", seed).Msg("generated zobrist numbers")
	return numbers, nil
}

// Zobrist returns the hashing context built from the persisted numbers.
func (s *Storage) Zobrist(seed uint64) (*board.Zobrist, error) {
	numbers, err := s.LoadOrCreateZobristNumbers(seed)
	if err != nil {
		return nil, err
	}
	return board.NewZobrist(numbers)
}

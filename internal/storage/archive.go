package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

const gamePrefix = "game/"

// GameRecord is a finished game kept in the archive.
type GameRecord struct {
	StartFEN string    `json:"start_fen"`
	Moves    []string  `json:"moves"`
	Result   string    `json:"result"`
	Mode     GameMode  `json:"mode"`
	Played   time.Time `json:"played"`
}

func gameKey(played time.Time) []byte {
	// Zero-padded timestamps sort in play order.
	return []byte(fmt.Sprintf("%s%020d", gamePrefix, played.UnixNano()))
}

// ArchiveGame stores rec compressed under a key ordered by its play time.
func (s *Storage) ArchiveGame(rec GameRecord) error {
	if rec.Played.IsZero() {
		rec.Played = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	compressed := s.encoder.EncodeAll(data, nil)
	if err := s.set(string(gameKey(rec.Played)), compressed); err != nil {
		return fmt.Errorf("archive game: %w", err)
	}
	log.Debug().Int("raw", len(data)).Int("compressed", len(compressed)).Msg("game archived")
	return nil
}

// LoadGames returns the archived games, oldest first.
func (s *Storage) LoadGames() ([]GameRecord, error) {
	var games []GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(gamePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				data, err := s.decoder.DecodeAll(val, nil)
				if err != nil {
					return err
				}
				var rec GameRecord
				if err := json.Unmarshal(data, &rec); err != nil {
					return err
				}
				games = append(games, rec)
				return nil
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}
	return games, nil
}

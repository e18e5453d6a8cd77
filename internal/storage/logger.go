package storage

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// badgerLogger routes badger's messages into zerolog. Badger's info output is
// routine housekeeping, so it is demoted to debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	log.Error().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}

func (badgerLogger) Warningf(format string, args ...any) {
	log.Warn().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}

func (badgerLogger) Infof(format string, args ...any) {
	log.Debug().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}

func (badgerLogger) Debugf(format string, args ...any) {
	log.Trace().Str("component", "badger").Msgf(strings.TrimSpace(format), args...)
}

package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const serviceName = "b2b-wallet"

// New builds the process logger: JSON on stdout, or a console writer when
// pretty is set. Unknown levels fall back to info.
func New(level string, pretty bool) zerolog.Logger {
	var w io.Writer = os.Stdout
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(level, w).With().
		Caller().
		Str("service", serviceName).
		Logger()
}

// NewWithWriter builds a timestamped JSON logger on w.
func NewWithWriter(level string, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

// Component tags log with the emitting component.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// Wallet tags log with the wallet a mutation runs under.
func Wallet(log zerolog.Logger, id uuid.UUID) zerolog.Logger {
	return log.With().Str("wallet_id", id.String()).Logger()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

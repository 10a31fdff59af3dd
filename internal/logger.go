package internal

import (
	"checkout/entity"
	"checkout/services"
	"context"
	"github.com/rs/zerolog"
	"io"
	"os"
	"strings"
	"time"
)

// Logger writes structured lines with zerolog and mirrors them into the
// payment log collection when a database is set.
type Logger struct {
	category string
	debug    bool
	database services.Database
	log      zerolog.Logger
}

func NewLogger(category string, debug bool, database services.Database) *Logger {
	return newLogger(os.Stdout, "json", category, debug, database)
}

// NewConsoleLogger is NewLogger with human readable output.
func NewConsoleLogger(category string, debug bool, database services.Database) *Logger {
	return newLogger(os.Stdout, "console", category, debug, database)
}

func newLogger(out io.Writer, format, category string, debug bool, database services.Database) *Logger {
	if strings.ToLower(format) == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return &Logger{
		category: category,
		debug:    debug,
		database: database,
		log:      zerolog.New(out).Level(level).With().Timestamp().Str("category", category).Logger(),
	}
}

func (l *Logger) Debug(text string) {
	l.log.Debug().Msg(text)
	if l.debug {
		l.save("debug", text)
	}
}

func (l *Logger) Info(text string) {
	l.log.Info().Msg(text)
	l.save("info", text)
}

func (l *Logger) Warn(text string) {
	l.log.Warn().Msg(text)
	l.save("warn", text)
}

func (l *Logger) Error(text string, err error) {
	l.log.Error().Err(err).Msg(text)
	if err != nil {
		text = text + ": " + err.Error()
	}
	l.save("error", text)
}

func (l *Logger) save(level, text string) {
	if l.database == nil {
		return
	}
	message := &entity.LogMessage{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Text:     text,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.database.WriteLogMessage(ctx, message); err != nil {
		l.log.Warn().Err(err).Msg("write log message")
	}
}

// secret masks identifiers for log output.
func secret(some string) string {
	if len(some) > 5 {
		return some[0:5] + "***"
	}
	if some == "" {
		return "?"
	}
	return "***"
}

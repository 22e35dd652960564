// Package logger builds the zerolog logger shared by the store, the HTTP
// server and the CLI, and maps its level onto pgx query tracing.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30

	timeFormat = "2006-01-02 15:04:05"
)

// Options selects level, output format and an optional rotating log file.
type Options struct {
	Level  string
	Format string
	File   string
	Out    io.Writer
}

// New returns a logger writing to Out (stdout by default) and, when File is
// set, to a lumberjack-rotated file as well. If the file's directory cannot be
// created the logger falls back to Out and reports the failure there.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	writers := []io.Writer{consoleOrJSON(out, opts.Format, false)}
	var fileErr error
	if opts.File != "" {
		if fileErr = ensureLogDir(opts.File); fileErr == nil {
			fileWriter := &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    DefaultMaxSizeMB,
				MaxBackups: DefaultMaxBackups,
				MaxAge:     DefaultMaxAgeDays,
				Compress:   true,
			}
			writers = append(writers, consoleOrJSON(fileWriter, opts.Format, true))
		}
	}

	var w io.Writer = writers[0]
	if len(writers) > 1 {
		w = zerolog.MultiLevelWriter(writers...)
	}

	log := zerolog.New(w).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", "movies-api").
		Logger()
	if fileErr != nil {
		log.Error().Err(fileErr).Str("file", opts.File).Msg("log file disabled")
	}
	return log
}

// ParseLevel maps a textual level onto zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// PgxTraceLevel returns the pgx trace level matching a zerolog level. Query
// tracing is only useful at debug and below, so anything higher disables it.
func PgxTraceLevel(level zerolog.Level) tracelog.LogLevel {
	switch level {
	case zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	default:
		return tracelog.LogLevelNone
	}
}

func consoleOrJSON(out io.Writer, format string, noColor bool) io.Writer {
	if strings.EqualFold(format, "json") {
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat, NoColor: noColor}
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

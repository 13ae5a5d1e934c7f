// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Config represents logger configuration.
type Config struct {
	Verbose bool   // enable debug level and caller annotations
	File    string // when set, append JSON logs to this file instead of stderr
}

// Init initializes the global zerolog logger. Logs go to stderr so the
// interactive prompt on stdout stays clean.
func Init(cfg Config) error {
	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.TimeOnly
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		parts := strings.Split(file, string(filepath.Separator))
		if len(parts) > 1 {
			return filepath.Join(parts[len(parts)-2:]...) + ":" + strconv.Itoa(line)
		}
		return filepath.Base(file) + ":" + strconv.Itoa(line)
	}

	var logger zerolog.Logger
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		logger = newLogger(f, false, cfg.Verbose)
	} else {
		logger = newLogger(os.Stderr, true, cfg.Verbose)
	}

	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger
	return nil
}

// newLogger builds a logger for the given sink. Console output gets the
// human-readable writer, files get JSON. Caller annotations only appear in
// verbose mode.
func newLogger(w io.Writer, console, verbose bool) zerolog.Logger {
	if console {
		cw := zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.TimeOnly,
		}
		if verbose {
			cw.PartsOrder = []string{"time", "level", "message", "caller"}
			cw.FormatCaller = func(i interface{}) string {
				return "(" + i.(string) + ")"
			}
			return zerolog.New(cw).With().Timestamp().Caller().Logger()
		}
		return zerolog.New(cw).With().Timestamp().Logger()
	}

	base := zerolog.New(w).With().Timestamp()
	if verbose {
		return base.Caller().Logger()
	}
	return base.Logger()
}

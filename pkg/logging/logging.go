// Package logging configures the process-wide zerolog logger and hands out
// component-tagged child loggers.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogFileName is the state-relative log file written by SetupLogger.
const LogFileName = "diecut/diecut.log"

// LevelForVerbosity maps a -v count to a zerolog level.
func LevelForVerbosity(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Setup configures the global logger to write human readable output to out.
func Setup(verbosity int, out io.Writer) {
	zerolog.SetGlobalLevel(LevelForVerbosity(verbosity))

	console := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
	}
	log.Logger = zerolog.New(console).With().Timestamp().Logger()
	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}
}

// SetupLogger configures console logging on stderr and, when possible, a
// log file under $XDG_STATE_HOME.
func SetupLogger(verbosity int) {
	zerolog.SetGlobalLevel(LevelForVerbosity(verbosity))

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}}

	path, file, err := openLogFile()
	if err == nil {
		writers = append(writers, file)
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	if err != nil {
		log.Warn().Err(err).Msg("failed to create log file, logging to console only")
	}
	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}
	log.Debug().Int("verbosity", verbosity).Str("logFile", path).Msg("logger initialized")
}

// GetLogger returns a logger tagged with the given component name.
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// LogOperationStart logs the start of an operation and returns a function
// that logs its completion.
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("operation started")
	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("operation completed")
	}
}

func openLogFile() (string, *os.File, error) {
	path, err := xdg.StateFile(LogFileName)
	if err != nil {
		return "", nil, fmt.Errorf("logging: resolve log path: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return path, nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return path, file, nil
}

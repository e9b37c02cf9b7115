// Package logging sets up the zerolog logger of the demo host.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gregLibert/sle4442/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init opens the rotating log file and returns a logger writing to it, and to
// stderr when cfg.Console is set. The global zerolog logger is replaced too.
// The returned closer flushes the log file.
func Init(cfg config.LogConfig) (zerolog.Logger, io.Closer, error) {
	logFile := cfg.File
	if logFile == "" {
		logFile = config.AppName + ".log"
	}

	err := os.MkdirAll(filepath.Dir(logFile), 0755)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	file := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    1,
		MaxBackups: 2,
	}

	writers := []io.Writer{file}
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(io.MultiWriter(writers...)).Level(level).With().Timestamp().Logger()
	log.Logger = logger

	return logger, file, nil
}

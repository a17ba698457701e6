// Package logging provides the diagnostics log built on zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// FileName is the diagnostics log file inside the log directory.
const FileName = "blinktalk.log"

var (
	mu      sync.Mutex
	logger  = zerolog.Nop()
	logFile *os.File
)

// Init opens the diagnostics log in dir. Until Init succeeds Logger returns a
// no-op logger.
func Init(dir string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	logger = New(f, debug)
	return nil
}

// New builds a logger writing human-readable lines to w.
func New(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	cw := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05.000",
		NoColor:    true,
	}
	return zerolog.New(cw).Level(level).With().Timestamp().Int("pid", os.Getpid()).Logger()
}

// Logger returns the process logger.
func Logger() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	logger = zerolog.Nop()
}

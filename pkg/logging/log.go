package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	logger *log.Logger
	mu     sync.Mutex
)

// Init opens the log file under dir and routes the package helpers to it.
// The TUI owns the terminal, so nothing is logged to stderr after Init.
func Init(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, "livetunnel.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	logger = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Level:           log.DebugLevel,
	})
	return nil
}

func get() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		// Init not called yet (early startup, tests): discard.
		logger = log.NewWithOptions(io.Discard, log.Options{Level: log.DebugLevel})
	}
	return logger
}

func Debugf(format string, args ...interface{}) {
	get().Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	get().Infof(format, args...)
}

func Errorf(format string, args ...interface{}) {
	get().Errorf(format, args...)
}

// Package logx builds the console logger and per-run log files.
package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Console returns a leveled logger for interactive output.
func Console(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:  level,
		Prefix: "uetool",
	})
}

// RunLog is a timestamped log file for one build run. Build tool output is
// written to it through Write.
type RunLog struct {
	ID     string
	Path   string
	Logger *log.Logger

	file *os.File
}

// Open creates a run log inside dir. When console is non-nil log records are
// also written there; raw tool output only ever goes to the file.
func Open(dir string, console io.Writer, verbose bool) (*RunLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure logs directory: %w", err)
	}

	id := uuid.NewString()
	filename := time.Now().Format("20060102-150405") + "-" + id[:8] + ".log"
	filePath := filepath.Join(dir, filename)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	var out io.Writer = file
	if console != nil {
		out = io.MultiWriter(file, console)
	}
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	}).With("run", id)

	return &RunLog{ID: id, Path: filePath, Logger: logger, file: file}, nil
}

func (l *RunLog) Write(p []byte) (int, error) {
	return l.file.Write(p)
}

func (l *RunLog) Close() error {
	return l.file.Close()
}

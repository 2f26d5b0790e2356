package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/giygas/cabinet/config"
)

const filePrefix = "cabinet-"

// RotatingLogger writes to one file per ISO week, starting a numbered continuation file
// once the size cap is reached. Files older than the retention window are removed.
type RotatingLogger struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64
	now         func() time.Time

	mu          sync.Mutex
	currentFile *os.File
	currentWeek string
	currentSize int64
	sequence    int
}

// NewRotatingLogger creates a rotating logger with the given retention and size cap.
// A zero maxFileSize disables size rotation.
func NewRotatingLogger(logDir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		now:         time.Now,
	}
}

// weekKey returns the week key in YYYY-Www format (ISO week)
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (rl *RotatingLogger) fileName(week string, seq int) string {
	if seq == 0 {
		return fmt.Sprintf("%s%s.log", filePrefix, week)
	}
	return fmt.Sprintf("%s%s_%02d.log", filePrefix, week, seq)
}

// open switches to the file for week/seq (caller must hold the lock)
func (rl *RotatingLogger) open(week string, seq int) error {
	if rl.currentFile != nil {
		_ = rl.currentFile.Close()
		rl.currentFile = nil
	}

	if err := os.MkdirAll(rl.logDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(rl.logDir, rl.fileName(week, seq))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}

	rl.currentFile = file
	rl.currentWeek = week
	rl.currentSize = size
	rl.sequence = seq
	return nil
}

// Write implements io.Writer. Week changes trigger a new file and a cleanup pass.
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := weekKey(rl.now())
	switch {
	case rl.currentFile == nil || week != rl.currentWeek:
		if err := rl.open(week, 0); err != nil {
			return 0, err
		}
		rl.cleanup()
	case rl.maxFileSize > 0 && rl.currentSize+int64(len(p)) > rl.maxFileSize && rl.currentSize > 0:
		if err := rl.open(week, rl.sequence+1); err != nil {
			return 0, err
		}
	}

	n, err := rl.currentFile.Write(p)
	rl.currentSize += int64(n)
	return n, err
}

// cleanup removes log files whose modification time falls outside the retention window
func (rl *RotatingLogger) cleanup() {
	if rl.retention <= 0 {
		return
	}

	matches, err := filepath.Glob(filepath.Join(rl.logDir, filePrefix+"*.log"))
	if err != nil {
		return
	}

	cutoff := rl.now().Add(-rl.retention)
	for _, match := range matches {
		if rl.currentFile != nil && match == rl.currentFile.Name() {
			continue
		}
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(match)
		}
	}
}

// Files lists the log files currently on disk, oldest first.
func (rl *RotatingLogger) Files() []string {
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, filePrefix+"*.log"))
	sort.Strings(matches)
	return matches
}

// Close closes the current file
func (rl *RotatingLogger) Close() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.currentFile == nil {
		return nil
	}
	err := rl.currentFile.Close()
	rl.currentFile = nil
	return err
}

// SetupLogger builds the console handler and, when a log dir is set, the rotating JSON
// file handler. The returned RotatingLogger is nil for console-only setups.
func SetupLogger(opts Options) (*slog.Logger, *RotatingLogger) {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	if strings.TrimSpace(opts.LogDir) == "" {
		return slog.New(consoleHandler), nil
	}

	retention := opts.RetentionWeeks
	if retention <= 0 {
		retention = 4
	}
	rotating := NewRotatingLogger(opts.LogDir, retention, opts.MaxFileSize)
	fileHandler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{Level: GetFileLogLevel()})

	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}), rotating
}

// OptionsFromConfig maps the application configuration to logger options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		LogDir:         cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	}
}

// multiHandler fans each record out to every handler enabled for its level
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

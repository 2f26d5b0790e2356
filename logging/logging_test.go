package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/giygas/cabinet/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetConsoleLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		env     config.Environment
		level   string
		verbose bool
		want    slog.Level
	}{
		{"explicit level wins in dev", config.EnvDevelopment, "debug", false, slog.LevelDebug},
		{"dev default", config.EnvDevelopment, "", false, slog.LevelInfo},
		{"prod default", config.EnvProduction, "", false, slog.LevelWarn},
		{"staging default", config.EnvStaging, "", false, slog.LevelWarn},
		{"test is quiet", config.EnvTest, "debug", false, slog.LevelError},
		{"test verbose", config.EnvTest, "", true, slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetConsoleLogLevel(tt.env, tt.level, tt.verbose); got != tt.want {
				t.Errorf("GetConsoleLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetFileLogLevel(t *testing.T) {
	if GetFileLogLevel() != slog.LevelDebug {
		t.Errorf("file handler should keep debug records")
	}
}

func TestPackageFunctionsBeforeInit(t *testing.T) {
	saved := DefaultLoggingService
	DefaultLoggingService = nil
	defer func() { DefaultLoggingService = saved }()

	Info("info before init")
	Warn("warn before init")
	Error("error before init")
	Debug("debug before init")
}

func TestInitLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	InitLoggerWithOptions(Options{LogDir: dir, Env: config.EnvTest, Level: "info", RetentionWeeks: 2})
	defer func() {
		_ = Close()
		InitLogger("")
	}()

	Info("patient saved", "slot", "patients")

	matches, err := filepath.Glob(filepath.Join(dir, filePrefix+"*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one log file, got %v (%v)", matches, err)
	}

	content, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"slot":"patients"`) {
		t.Errorf("expected JSON record in file, got: %s", content)
	}
}

func TestRotatingLoggerSizeRotation(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 4, 16)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		if _, err := rl.Write([]byte("0123456789\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	files := rl.Files()
	if len(files) != 3 {
		t.Fatalf("expected 3 files after size rotation, got %v", files)
	}
	week := weekKey(time.Now())
	if filepath.Base(files[0]) != filePrefix+week+".log" {
		t.Errorf("unexpected base file name %s", files[0])
	}
	if filepath.Base(files[1]) != filePrefix+week+"_01.log" {
		t.Errorf("unexpected continuation file name %s", files[1])
	}
}

func TestRotatingLoggerWeekChangeAndCleanup(t *testing.T) {
	dir := t.TempDir()
	current := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	rl := NewRotatingLogger(dir, 1, 0)
	rl.now = func() time.Time { return current }
	defer rl.Close()

	if _, err := rl.Write([]byte("week one\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	first := filepath.Join(dir, filePrefix+weekKey(current)+".log")
	old := current.Add(-30 * 24 * time.Hour)
	if err := os.Chtimes(first, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	current = current.Add(7 * 24 * time.Hour)
	if _, err := rl.Write([]byte("week two\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Errorf("expected expired log file to be removed")
	}
	if len(rl.Files()) != 1 {
		t.Errorf("expected only the current week file, got %v", rl.Files())
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b strings.Builder
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}
	logger := slog.New(h).With("component", "store")

	logger.Info("only b")
	logger.Warn("both")

	if strings.Contains(a.String(), "only b") || !strings.Contains(a.String(), "both") {
		t.Errorf("warn handler got %q", a.String())
	}
	if !strings.Contains(b.String(), "only b") || !strings.Contains(b.String(), "component=store") {
		t.Errorf("debug handler got %q", b.String())
	}
}

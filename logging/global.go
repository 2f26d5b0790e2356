// Package logging configures log/slog for the cabinet: a console handler plus a weekly
// rotating JSON file, and package-level helpers usable before initialization.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/cabinet/config"
)

type LoggingService struct {
	Logger   *slog.Logger
	rotating *RotatingLogger
}

var DefaultLoggingService *LoggingService

// Options controls where and how much the service logs.
type Options struct {
	LogDir         string
	Env            config.Environment
	Level          string
	Verbose        bool
	RetentionWeeks int
	MaxFileSize    int64
}

// InitLogger initializes the global logger instance with console-only output when
// logDir is empty. Tests call InitLogger("").
func InitLogger(logDir string) {
	InitLoggerWithOptions(Options{LogDir: logDir, Env: config.EnvDevelopment, Level: "info"})
}

// InitLoggerWithOptions initializes the global logger and makes it the slog default.
func InitLoggerWithOptions(opts Options) {
	if DefaultLoggingService != nil {
		_ = DefaultLoggingService.Close()
	}

	logger, rotating := SetupLogger(opts)
	DefaultLoggingService = &LoggingService{Logger: logger, rotating: rotating}
	slog.SetDefault(logger)
}

// Close releases the rotating file, if any.
func (s *LoggingService) Close() error {
	if s == nil || s.rotating == nil {
		return nil
	}
	return s.rotating.Close()
}

// Close closes the global service.
func Close() error {
	return DefaultLoggingService.Close()
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level. An explicit LOG_LEVEL wins, except under
// test where the console stays quiet unless verbose.
func GetConsoleLogLevel(env config.Environment, level string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if strings.TrimSpace(level) != "" {
		return parseLogLevel(level)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the level of the file handler, which keeps everything.
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

func logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return DefaultLoggingService.Logger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

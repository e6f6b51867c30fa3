package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the logging level
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// Namespaces for child loggers.
const (
	Chat    = "chat"
	API     = "api"
	UI      = "ui"
	State   = "state"
	Actions = "actions"
	Tools   = "tools"
	DB      = "db"
)

type Options struct {
	Development bool
	Level       LogLevel
	// FilePath is the sink. Empty discards all output, since the terminal
	// belongs to the UI.
	FilePath string
}

func zapLevel(level LogLevel) zapcore.Level {
	switch LogLevel(strings.ToLower(string(level))) {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds the process logger. Callers hand it (or a Named child) to each
// component; nothing in the module reads a global logger.
func New(opts Options) (*zap.Logger, error) {
	if opts.FilePath == "" {
		return zap.NewNop(), nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	var config zap.Config
	if opts.Development {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel(opts.Level))
	config.OutputPaths = []string{opts.FilePath}
	config.ErrorOutputPaths = []string{opts.FilePath}

	return config.Build()
}

// Sync flushes buffered entries, ignoring sync errors.
func Sync(log *zap.Logger) {
	if log != nil {
		_ = log.Sync()
	}
}

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

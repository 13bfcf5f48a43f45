package debuglog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff // Disables all logging
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string into a LogLevel, defaulting to OFF so the
// terminal UI is never disturbed by accident.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelOff
	}
}

var (
	mu           sync.RWMutex
	currentLevel = LevelOff
	logger       *zap.SugaredLogger
	logFile      *os.File
)

// Setup routes log output to filePath at the given level. LevelOff disables
// logging and closes any previous file. The log always goes to a file: the
// terminal belongs to the UI.
func Setup(level LogLevel, filePath string) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	currentLevel = level
	if level == LevelOff {
		return nil
	}
	if filePath == "" {
		return fmt.Errorf("log file path is required")
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel)

	logFile = f
	logger = zap.New(core).Named("headlines").Sugar()
	return nil
}

// SetLevel changes the current logging level
func SetLevel(level LogLevel) {
	mu.Lock()
	currentLevel = level
	mu.Unlock()
}

// GetLevel returns the current logging level
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// Close flushes and closes the log file if open
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeLocked()
}

func closeLocked() error {
	if logger != nil {
		_ = logger.Sync()
		logger = nil
	}
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

// Enabled reports whether a message at level would be written. Callers
// that build expensive log fields check it first.
func Enabled(level LogLevel) bool {
	mu.RLock()
	defer mu.RUnlock()
	return logger != nil && level >= currentLevel
}

func logw(level LogLevel, msg string, kv []any) {
	mu.RLock()
	defer mu.RUnlock()
	if level < currentLevel || logger == nil {
		return
	}
	switch level {
	case LevelDebug:
		logger.Debugw(msg, kv...)
	case LevelInfo:
		logger.Infow(msg, kv...)
	case LevelWarn:
		logger.Warnw(msg, kv...)
	case LevelError:
		logger.Errorw(msg, kv...)
	}
}

// logf formats only when level is enabled.
func logf(level LogLevel, kv []any, format string, args []any) {
	if !Enabled(level) {
		return
	}
	logw(level, fmt.Sprintf(format, args...), kv)
}

func Debugf(format string, args ...any) { logf(LevelDebug, nil, format, args) }
func Infof(format string, args ...any)  { logf(LevelInfo, nil, format, args) }
func Warnf(format string, args ...any)  { logf(LevelWarn, nil, format, args) }
func Errorf(format string, args ...any) { logf(LevelError, nil, format, args) }

// FieldLogger attaches key-value context to every message.
type FieldLogger struct {
	kv []any
}

// WithFields returns a logger carrying fields, emitted in key order.
func WithFields(fields map[string]any) *FieldLogger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return &FieldLogger{kv: kv}
}

func (fl *FieldLogger) Debugf(format string, args ...any) {
	logf(LevelDebug, fl.kv, format, args)
}

func (fl *FieldLogger) Infof(format string, args ...any) {
	logf(LevelInfo, fl.kv, format, args)
}

func (fl *FieldLogger) Warnf(format string, args ...any) {
	logf(LevelWarn, fl.kv, format, args)
}

func (fl *FieldLogger) Errorf(format string, args ...any) {
	logf(LevelError, fl.kv, format, args)
}

// Printer satisfies the Errorf/Warnf/Debugf logger interface third-party
// clients (resty) accept, forwarding into this package.
type Printer struct{}

func (Printer) Errorf(format string, v ...any) { Errorf(format, v...) }
func (Printer) Warnf(format string, v ...any)  { Warnf(format, v...) }
func (Printer) Debugf(format string, v ...any) { Debugf(format, v...) }

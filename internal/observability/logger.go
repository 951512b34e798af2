package observability

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
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

// Logger is a structured logger backed by zap.
type Logger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level   LogLevel
	Output  io.Writer
	Format  string // console or json
	Service string
	Version string
}

// NewLogger creates a new logger instance
func NewLogger(config LoggerConfig) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(config.Format, "json") {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	level := zap.NewAtomicLevelAt(config.Level.zapLevel())
	core := zapcore.NewCore(encoder, zapcore.AddSync(config.Output), level)

	sugar := zap.New(core).Sugar()
	if config.Service != "" {
		sugar = sugar.With("service", config.Service)
	}
	if config.Version != "" {
		sugar = sugar.With("version", config.Version)
	}

	return &Logger{sugar: sugar, level: level}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), level: zap.NewAtomicLevel()}
}

// WithField returns a new logger with an additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(key, value), level: l.level}
}

// WithFields returns a new logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{sugar: l.sugar.With(args...), level: l.level}
}

// WithContext attaches the run ID carried by ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := RunIDFromContext(ctx); id != "" {
		return l.WithField("run_id", id)
	}
	return l
}

// Sugared exposes the underlying zap logger.
func (l *Logger) Sugared() *zap.SugaredLogger {
	return l.sugar
}

func (l *Logger) Debug(msg string)                          { l.sugar.Debug(msg) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(msg string)                           { l.sugar.Info(msg) }
func (l *Logger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(msg string)                           { l.sugar.Warn(msg) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(msg string)                          { l.sugar.Error(msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// InfoWithFields logs msg with key/value pairs.
func (l *Logger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.WithFields(fields).sugar.Info(msg)
}

// ErrorWithFields logs msg with key/value pairs.
func (l *Logger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.WithFields(fields).sugar.Error(msg)
}

// SetLevel changes the level for this logger and every logger derived from it.
func (l *Logger) SetLevel(level LogLevel) {
	l.level.SetLevel(level.zapLevel())
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// LogLevelFromString converts a string to LogLevel
func LogLevelFromString(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

type runIDKey struct{}

// NewRunID returns a fresh identifier for one command invocation.
func NewRunID() string {
	return uuid.NewString()
}

// ContextWithRunID stores id in ctx for log correlation.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run ID stored by ContextWithRunID.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

var defaultLogger = NewLogger(LoggerConfig{Level: InfoLevel, Service: "dwhctl"})

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the global default logger
func GetDefaultLogger() *Logger {
	return defaultLogger
}

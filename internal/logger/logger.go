// Package logger wraps zap behind a small interface shared by every command.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger used across the module.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Field is a key/value pair attached to a log entry.
type Field = zap.Field

type Config struct {
	Level string
	// Dir enables a per-run log file under Dir/<RunName>/ alongside stdout.
	Dir     string
	RunName string
	// OutputPaths overrides the default stdout output.
	OutputPaths []string
}

type zapLogger struct {
	logger *zap.Logger
	path   string
}

// New builds a JSON zap logger. When cfg.Dir is set the run also logs to a
// timestamped file, and Path reports where.
func New(cfg Config) (Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zapCfg.Sampling = nil

	outputs := []string{"stdout"}
	if len(cfg.OutputPaths) > 0 {
		outputs = cfg.OutputPaths
	}

	var path string
	if cfg.Dir != "" {
		p, err := runLogPath(cfg.Dir, cfg.RunName, time.Now())
		if err != nil {
			return nil, err
		}
		path = p
		outputs = append(outputs, path)
	}
	zapCfg.OutputPaths = outputs

	z, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	return &zapLogger{logger: z, path: path}, nil
}

// Path returns the run log file of l, or "" when it only logs to its outputs.
func Path(l Logger) string {
	if z, ok := l.(*zapLogger); ok {
		return z.path
	}
	return ""
}

func runLogPath(dir, name string, now time.Time) (string, error) {
	if name == "" {
		name = "sitemapgen"
	}
	sanitized := strings.ReplaceAll(strings.ToLower(name), " ", "_")

	runDir := filepath.Join(dir, sanitized)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := now.Format("2006-01-02_15-04-05")
	return filepath.Join(runDir, fmt.Sprintf("%s_%s.log", sanitized, timestamp)), nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.logger.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.logger.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.logger.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.logger.Error(msg, fields...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{logger: l.logger.With(fields...), path: l.path}
}

func (l *zapLogger) Sync() error {
	return l.logger.Sync()
}

// FromZap wraps an existing zap logger, e.g. an observer core in tests.
func FromZap(z *zap.Logger) Logger {
	return &zapLogger{logger: z}
}

// String, Int, Error and Duration re-export the zap field helpers callers need.
var (
	String   = zap.String
	Int      = zap.Int
	Error    = zap.Error
	Duration = zap.Duration
)

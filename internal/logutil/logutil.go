package logutil

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig describes where logs go and how they look. An empty Filename
// logs to stderr; otherwise the file is rotated by size and age.
type LogConfig struct {
	Level      string
	Format     string
	Filename   string
	MaxSize    int
	MaxDays    int
	MaxBackups int
}

func DefaultConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		Format:     "console",
		MaxSize:    512,
		MaxBackups: 3,
	}
}

// NewLogger builds a logger from cfg.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := cfg.getLevel()
	if err != nil {
		return nil, err
	}
	encoder, err := cfg.getEncoder()
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, cfg.getSyncer(), level)
	return zap.New(core, cfg.getOptions()...), nil
}

func (cfg LogConfig) getLevel() (zap.AtomicLevel, error) {
	if cfg.Level == "" {
		return zap.NewAtomicLevelAt(zap.InfoLevel), nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	return zap.NewAtomicLevelAt(level), nil
}

func (cfg LogConfig) getEncoder() (zapcore.Encoder, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	switch cfg.Format {
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg), nil
	case "json":
		return zapcore.NewJSONEncoder(encCfg), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
}

func (cfg LogConfig) getSyncer() zapcore.WriteSyncer {
	if cfg.Filename == "" {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxDays,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
		Compress:   false,
	})
}

func (cfg LogConfig) getOptions() []zap.Option {
	return []zap.Option{zap.AddStacktrace(zapcore.FatalLevel), zap.AddCaller()}
}

package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	TypeStdout  = "stdout"
	TypeStderr  = "stderr"
	TypeLogFile = "logfile"
)

type Config struct {
	Type            string `mapstructure:"type"`
	File            string `mapstructure:"file"`
	Level           int8   `mapstructure:"level"`
	MaxSize         int    `mapstructure:"max-size"`
	NumRotatedFiles int    `mapstructure:"num-rotated-files"`
	Developer       bool   `mapstructure:"developer"`
}

// Logger wraps a zap.Logger so callers can defer Sync() and reach the underlying logger when
// constructing components.
type Logger struct {
	*zap.Logger
}

// New builds a logger from the provided configuration. Developer mode ignores all other settings
// and logs everything to stdout including stack traces.
func New(cfg Config) (*Logger, error) {
	if cfg.Developer {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return &Logger{Logger: l}, nil
	}

	level, err := levelFromInt(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var core zapcore.Core
	switch cfg.Type {
	case TypeStdout:
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stdout), level)
	case TypeStderr:
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stderr), level)
	case TypeLogFile:
		if cfg.File == "" {
			return nil, fmt.Errorf("log type %q requires a log file", TypeLogFile)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("unable to create log directory: %w", err)
		}
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.NumRotatedFiles,
		})
		core = zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), w, level)
	default:
		return nil, fmt.Errorf("unsupported log type: %q", cfg.Type)
	}

	return &Logger{Logger: zap.New(core, zap.AddCaller())}, nil
}

// levelFromInt maps the user facing verbosity (0=Fatal ... 3=Info, 4+5=Debug) to a zap level.
func levelFromInt(l int8) (zapcore.Level, error) {
	switch {
	case l < 0:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %d (must be 0-5)", l)
	case l == 0:
		return zapcore.FatalLevel, nil
	case l == 1:
		return zapcore.ErrorLevel, nil
	case l == 2:
		return zapcore.WarnLevel, nil
	case l == 3:
		return zapcore.InfoLevel, nil
	case l <= 5:
		return zapcore.DebugLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("invalid log level %d (must be 0-5)", l)
}

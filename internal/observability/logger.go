// Package observability builds the zap logger used by the codec, the
// storage backend and the CLI.
package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

// Rotation limits used when rotation is enabled and a limit is unset.
const (
	defaultRotationSizeMB  = 10
	defaultRotationBackups = 1
	defaultRotationAgeDays = 7
)

// NewLogger builds a logger from c. Outputs are "stdout", "stderr" or file
// paths; with no outputs the logger writes to stderr so that stdout stays
// reserved for command output. The caller should defer logger.Sync().
func NewLogger(c types.LogConfig) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(ParseLevel(c.Level))

	encCfg := encoderConfig(c.Development)
	var encoder zapcore.Encoder
	if strings.ToLower(c.Format) == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	outputs := c.Outputs
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	var cores []zapcore.Core
	for _, out := range outputs {
		ws, err := writeSyncer(out, c)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(encoder, ws, level))
	}

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	}
	if c.Development {
		opts = append(opts, zap.Development())
	}
	return zap.New(zapcore.NewTee(cores...), opts...), nil
}

// ParseLevel maps a level name to a zap level. Unknown names mean info.
func ParseLevel(name string) zapcore.Level {
	switch strings.ToLower(name) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func writeSyncer(out string, c types.LogConfig) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(out) {
	case "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	}

	if c.Rotation.Enable {
		filename := out
		if f := strings.TrimSpace(c.Rotation.Filename); f != "" {
			filename = f
		}
		return zapcore.AddSync(rotatingWriter(filename, c.Rotation)), nil
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory for %s: %w", out, err)
	}
	f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", out, err)
	}
	return zapcore.AddSync(f), nil
}

// rotatingWriter builds the lumberjack writer for filename. A zero limit
// takes its default; a negative one disables that limit.
func rotatingWriter(filename string, r types.RotationConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    rotationLimit(r.MaxSizeMB, defaultRotationSizeMB),
		MaxBackups: rotationLimit(r.MaxBackups, defaultRotationBackups),
		MaxAge:     rotationLimit(r.MaxAgeDays, defaultRotationAgeDays),
		Compress:   r.Compress,
	}
}

// rotationLimit maps a configured limit to lumberjack's, where 0 means
// unlimited.
func rotationLimit(v, def int) int {
	switch {
	case v == 0:
		return def
	case v < 0:
		return 0
	default:
		return v
	}
}

func encoderConfig(dev bool) zapcore.EncoderConfig {
	if dev {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}
	return zap.NewProductionEncoderConfig()
}

// Package logging builds the application's zap logger from config.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-ioc/framework/config"
)

// New returns a JSON production logger when APP_ENV is production and a
// console development logger otherwise. LOG_LEVEL overrides the level; by
// default production logs at info and development at debug (info when
// APP_DEBUG is false).
func New(cfg *config.Config) (*zap.Logger, error) {
	level, err := Level(cfg)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build: %w", err)
	}
	return logger.With(
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	), nil
}

// Level picks the minimum level for cfg.
func Level(cfg *config.Config) (zapcore.Level, error) {
	if cfg.Log.Level != "" {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(strings.ToLower(cfg.Log.Level))); err != nil {
			return l, fmt.Errorf("logging: LOG_LEVEL %q: %w", cfg.Log.Level, err)
		}
		return l, nil
	}
	if cfg.IsProduction() || !cfg.App.Debug {
		return zapcore.InfoLevel, nil
	}
	return zapcore.DebugLevel, nil
}

// Sync flushes logger, ignoring the error stdout/stderr return on some
// platforms.
func Sync(logger *zap.Logger) error {
	if err := logger.Sync(); err != nil && !isInvalidSync(err) {
		return err
	}
	return nil
}

func isInvalidSync(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}

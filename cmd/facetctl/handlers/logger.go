package handlers

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newZapLogger builds the diagnostic logger. Logs go to stderr so they never
// mix with the launch report on stdout. verbose enables V(1) messages.
func newZapLogger(verbose bool) (logr.Logger, func()) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	zl := zap.New(core)
	return zapr.NewLogger(zl), func() { _ = zl.Sync() }
}

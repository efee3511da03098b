// Package logging builds the zap loggers threaded through the server and
// the transaction façade.
package logging

import (
	"os"
	"time"

	"github.com/thessem/zap-prettyconsole"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func shortTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05"))
}

// New builds a logger in JSON format when json is true, or a colored console
// encoder otherwise. NewSugared returns the *zap.SugaredLogger form, which
// the server and the transaction façade take as an explicit argument rather
// than reach for a package-level global, so tests can inject an observed or
// no-op logger.
func New(json bool) *zap.Logger {
	econf := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var core zapcore.Core
	if json {
		core = zapcore.NewCore(zapcore.NewJSONEncoder(econf), os.Stdout, zap.DebugLevel)
	} else {
		pcfg := prettyconsole.NewEncoderConfig()
		pcfg.EncodeTime = shortTimeEncoder
		core = zapcore.NewCore(prettyconsole.NewEncoder(pcfg), os.Stdout, zap.DebugLevel)
	}
	return zap.New(core)
}

// NewSugared is a convenience wrapper returning the Sugared form every
// caller in this module actually uses.
func NewSugared(json bool) *zap.SugaredLogger {
	return New(json).Sugar()
}

// Package logging builds the zap logger used by the wms command.
package logging

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Encodings accepted by Config.Encoding.
const (
	EncodingConsole = "console"
	EncodingJSON    = "json"
)

// ErrEncodingUnknown is returned for an encoding other than console or json.
var ErrEncodingUnknown = errors.New("unknown log encoding")

// Config selects the logger's level and output format.
type Config struct {
	Level             string
	Encoding          string
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
}

// New builds a logger writing to stderr, keeping stdout for command output.
// An empty Level means warn and an empty Encoding means console.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
		level = l
	}

	encoding := cfg.Encoding
	switch encoding {
	case "":
		encoding = EncodingConsole
	case EncodingConsole, EncodingJSON:
	default:
		return nil, fmt.Errorf("%w: %q", ErrEncodingUnknown, encoding)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = encoding
	zc.DisableCaller = cfg.DisableCaller
	zc.DisableStacktrace = cfg.DisableStacktrace
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	if encoding == EncodingConsole {
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zc.Build()
}

// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/united-manufacturing-hub/emuster/pkg/env"
)

// LogLevel is one of DEBUG, INFO, WARN or ERROR. PRODUCTION is accepted as INFO.
type LogLevel string

// LogFormat selects the encoder.
type LogFormat string

const (
	DebugLevel      LogLevel = "DEBUG"
	InfoLevel       LogLevel = "INFO"
	WarnLevel       LogLevel = "WARN"
	ErrorLevel      LogLevel = "ERROR"
	ProductionLevel LogLevel = "PRODUCTION"

	// FormatConsole is the colored shop-floor terminal format.
	FormatConsole LogFormat = "CONSOLE"
	// FormatJSON is one object per line for log collectors.
	FormatJSON LogFormat = "JSON"
)

// Config describes how a logger is built.
type Config struct {
	Level  LogLevel
	Format LogFormat
	// Output defaults to stdout.
	Output io.Writer
}

var (
	initOnce    sync.Once
	initialized bool
)

// ConfigFromEnv reads LOGGING_LEVEL and LOGGING_FORMAT. Unknown values fall back to INFO and CONSOLE.
func ConfigFromEnv() Config {
	level, _ := env.GetAsString("LOGGING_LEVEL", false, string(ProductionLevel))
	format, _ := env.GetAsString("LOGGING_FORMAT", false, string(FormatConsole))

	return Config{
		Level:  LogLevel(strings.ToUpper(level)),
		Format: parseFormat(format),
	}
}

func parseFormat(raw string) LogFormat {
	if LogFormat(strings.ToUpper(raw)) == FormatJSON {
		return FormatJSON
	}

	return FormatConsole
}

func (c Config) zapLevel() zapcore.Level {
	switch LogLevel(strings.ToUpper(string(c.Level))) {
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

func (c Config) encoder() zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if c.Format == FormatJSON {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		ec.EncodeTime = zapcore.ISO8601TimeEncoder

		return zapcore.NewJSONEncoder(ec)
	}

	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	ec.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05 MST"))
	}
	ec.ConsoleSeparator = " | "

	return zapcore.NewConsoleEncoder(ec)
}

// New builds a logger from cfg.
func New(cfg Config) *zap.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	core := zapcore.NewCore(cfg.encoder(), zapcore.AddSync(out), zap.NewAtomicLevelAt(cfg.zapLevel()))

	return zap.New(core, zap.AddCaller())
}

// Initialize installs the env-configured logger as the zap global. Later calls are no-ops.
func Initialize() {
	initOnce.Do(func() {
		cfg := ConfigFromEnv()
		log := New(cfg)
		zap.ReplaceGlobals(log)

		log.Info("Logger initialized", zap.String("level", string(cfg.Level)), zap.String("format", string(cfg.Format)))

		initialized = true
	})
}

// Sync flushes any buffered log entries.
func Sync() error {
	return zap.L().Sync()
}

// For returns the global logger named after component.
func For(component string) *zap.SugaredLogger {
	if !initialized {
		Initialize()
	}

	return zap.S().Named(component)
}

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}

	return log
}

// Package logger provides structured logging built on zap.
// Context-aware helpers enrich log entries with trace and actor fields.
package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kvtrade/internal/core/actor"
)

var log *zap.SugaredLogger

func init() {
	Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// Init configures the global logger. Level is one of debug/info/warn/error,
// format is "json" or "console" (default console for local development).
func Init(level, format string) {
	lvl := zapcore.InfoLevel
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)
	log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// Sync flushes buffered log entries. Call before process exit.
func Sync() {
	_ = log.Sync()
}

// withContext returns a logger enriched with trace and actor fields.
func withContext(ctx context.Context) *zap.SugaredLogger {
	l := log
	if t := actor.GetTrace(ctx); t != nil {
		if t.TraceID != "" {
			l = l.With("trace_id", t.TraceID)
		}
		if t.RequestID != "" {
			l = l.With("request_id", t.RequestID)
		}
	}
	if a := actor.Get(ctx); a != nil && a.Name != "" {
		l = l.With("actor", a.Name)
	}
	return l
}

// Debug logs at debug level with context fields.
func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	withContext(ctx).Debugw(msg, keysAndValues...)
}

// Info logs at info level with context fields.
func Info(ctx context.Context, msg string, keysAndValues ...any) {
	withContext(ctx).Infow(msg, keysAndValues...)
}

// Warn logs at warn level with context fields.
func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	withContext(ctx).Warnw(msg, keysAndValues...)
}

// Error logs at error level with context fields.
func Error(ctx context.Context, msg string, keysAndValues ...any) {
	withContext(ctx).Errorw(msg, keysAndValues...)
}

// Fatal logs at fatal level and exits.
func Fatal(ctx context.Context, msg string, keysAndValues ...any) {
	withContext(ctx).Fatalw(msg, keysAndValues...)
}

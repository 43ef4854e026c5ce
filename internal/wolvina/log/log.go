package log

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	contextx "github.com/wolvina/wolvina-go/internal/wolvina/context"
)

// Logger is a structured logger that is built once at startup and passed
// to every component that needs it.
type Logger struct {
	zl zerolog.Logger
}

// Options configure a Logger.
type Options struct {
	Level   string // debug, info, warn, error
	Format  string // "console" or "json"
	File    string // optional rotated log file
	Service string
	Output  io.Writer // defaults to stdout
}

// Field is a structured key/value pair attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// New builds a Logger from options.
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
	}

	writers := []io.Writer{out}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		})
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseLevel(opts.Level)).
		With().Timestamp().Logger()
	if opts.Service != "" {
		zl = zl.With().Str("service", opts.Service).Logger()
	}
	return &Logger{zl: zl}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying an extra field.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

func (l *Logger) Info(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, l.zl.Info(), message, fields)
}

func (l *Logger) Error(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, l.zl.Error(), message, fields)
}

func (l *Logger) Warn(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, l.zl.Warn(), message, fields)
}

func (l *Logger) Debug(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, l.zl.Debug(), message, fields)
}

func (l *Logger) log(ctx context.Context, event *zerolog.Event, message string, fields []Field) {
	if event == nil {
		return
	}
	if id, ok := contextx.GetRequestID(ctx); ok {
		event = event.Str("request_id", id)
	}
	if id, ok := contextx.GetSenderID(ctx); ok {
		event = event.Str("sender_id", id)
	}
	if name, ok := contextx.GetAction(ctx); ok {
		event = event.Str("action", name)
	}
	for _, field := range fields {
		if err, ok := field.Value.(error); ok {
			event = event.AnErr(field.Key, err)
			continue
		}
		event = event.Interface(field.Key, field.Value)
	}
	event.Msg(message)
}

// KV builds a Field.
func KV(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Err is shorthand for KV("error", err).
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "":
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}

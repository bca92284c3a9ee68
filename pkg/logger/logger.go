// Package logger provides context-aware structured logging on top of
// logrus. Library packages fetch their entry with G(ctx) so the CLI can
// attach fields (run id, package name) once and have them on every line.
package logger

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// G is a convenience alias for GetLogger
	G = GetLogger
	// L is the global logger entry used when the context carries none
	L = logrus.NewEntry(New(io.Discard, "text"))
)

type loggerKey struct{}

// New creates a logrus logger writing to w in the given format
// ("json", or "text" for anything else).
func New(w io.Writer, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	setLoggerFormat(l, format)
	return l
}

// WithLogger attaches a logger entry to ctx.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger.WithContext(ctx))
}

// GetLogger returns the entry attached to ctx, or L.
func GetLogger(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return L
	}
	logger := ctx.Value(loggerKey{})
	if logger == nil {
		return L.WithContext(ctx)
	}
	return logger.(*logrus.Entry)
}

func setLoggerFormat(logger *logrus.Logger, format string) {
	switch format {
	case "json":
		logger.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "logLevel",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
	default:
		logger.Formatter = &logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
			FullTimestamp:   true,
		}
	}
}

// SetLogLevel sets the level of the global logger
func SetLogLevel(level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	L.Logger.SetLevel(logLevel)
	return nil
}

// SetLogFormat sets the format of the global logger
func SetLogFormat(format string) {
	setLoggerFormat(L.Logger, format)
}

// SetLogOutput sets where the global logger writes
func SetLogOutput(w io.Writer) {
	L.Logger.SetOutput(w)
}

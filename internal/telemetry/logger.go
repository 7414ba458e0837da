// Package telemetry is the shared logging and metrics surface every
// component logs and instruments through, generalized from
// _examples/jmgilman-go/oci/internal/cache/logging.go's slog wrapper (kept
// on log/slog, the teacher's actual choice) plus a logrus sink for
// human-facing CLI output, and a Prometheus registry for the counters the
// cache emits (see metrics.go).
package telemetry

import (
	"context"
	"log/slog"

	"github.com/sirupsen/logrus"
)

// Logger is the interface every component depends on; Nop() returns one
// that discards everything, used by tests and by callers that haven't
// configured telemetry yet.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

type slogLogger struct {
	base *slog.Logger
}

// NewSlog wraps an existing *slog.Logger. This is the default logger used
// throughout the pipeline (resolver, cache, fetcher): structured,
// low-overhead, and already the teacher's choice for internal/cache.
func NewSlog(base *slog.Logger) Logger {
	if base == nil {
		base = slog.Default()
	}
	return &slogLogger{base: base}
}

func (l *slogLogger) Debug(ctx context.Context, msg string, args ...any) { l.base.DebugContext(ctx, msg, args...) }
func (l *slogLogger) Info(ctx context.Context, msg string, args ...any)  { l.base.InfoContext(ctx, msg, args...) }
func (l *slogLogger) Warn(ctx context.Context, msg string, args ...any)  { l.base.WarnContext(ctx, msg, args...) }
func (l *slogLogger) Error(ctx context.Context, msg string, args ...any) { l.base.ErrorContext(ctx, msg, args...) }
func (l *slogLogger) With(args ...any) Logger                            { return &slogLogger{base: l.base.With(args...)} }

// logrusSink renders human-facing progress lines (install summaries,
// resolver conflict reports) through logrus's formatter, the library the
// rest of the pack reaches for whenever output is meant for a terminal
// rather than a log aggregator.
type logrusSink struct {
	entry *logrus.Entry
}

// NewLogrus wraps a *logrus.Logger for CLI-facing output.
func NewLogrus(base *logrus.Logger) Logger {
	if base == nil {
		base = logrus.StandardLogger()
	}
	return &logrusSink{entry: logrus.NewEntry(base)}
}

func (l *logrusSink) Debug(_ context.Context, msg string, args ...any) { l.entry.WithFields(fieldsOf(args)).Debug(msg) }
func (l *logrusSink) Info(_ context.Context, msg string, args ...any)  { l.entry.WithFields(fieldsOf(args)).Info(msg) }
func (l *logrusSink) Warn(_ context.Context, msg string, args ...any)  { l.entry.WithFields(fieldsOf(args)).Warn(msg) }
func (l *logrusSink) Error(_ context.Context, msg string, args ...any) { l.entry.WithFields(fieldsOf(args)).Error(msg) }
func (l *logrusSink) With(args ...any) Logger {
	return &logrusSink{entry: l.entry.WithFields(fieldsOf(args))}
}

func fieldsOf(args []any) logrus.Fields {
	fields := make(logrus.Fields, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		fields[key] = args[i+1]
	}
	return fields
}

type nopLogger struct{}

// Nop returns a Logger that discards every call.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) With(...any) Logger                    { return nopLogger{} }

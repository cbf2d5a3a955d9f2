// Package logger builds the logrus logger shared by every component and
// correlates log lines with the active OpenTelemetry span.
package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey struct{}

// New returns a JSON logger writing to stdout at the given level. An
// unknown level falls back to info.
func New(level string) *logrus.Logger {
	return NewWithWriter(level, os.Stdout)
}

func NewWithWriter(level string, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.Out = w
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.Level = lvl
	return log
}

// WithLogger stores log in ctx.
func WithLogger(ctx context.Context, log logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stored in ctx, or fallback, with the
// trace and span ids of the active span attached.
func FromContext(ctx context.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	log := fallback
	if l, ok := ctx.Value(ctxKey{}).(logrus.FieldLogger); ok {
		log = l
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		log = log.WithFields(logrus.Fields{
			"trace_id": sc.TraceID().String(),
			"span_id":  sc.SpanID().String(),
		})
	}
	return log
}

package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

type Options struct {
	Level     string
	Format    string
	SentryDSN string
}

// Setup installs the default slog logger and, when a DSN is configured,
// initializes Sentry. The returned func flushes pending Sentry events.
func Setup(w io.Writer, opts Options) (func(), error) {
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}
	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))

	if opts.SentryDSN == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: opts.SentryDSN}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// ReportFailure logs an unexpected remote failure and forwards it to Sentry
// when a client is configured.
func ReportFailure(ctx context.Context, op, status, body string) {
	slog.WarnContext(ctx, "api request failed", "op", op, "status", status, "body", body)
	hub := sentry.CurrentHub()
	if hub == nil || hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("op", op)
		scope.SetTag("status", status)
		scope.SetContext("response", sentry.Context{"body": body})
		hub.CaptureMessage("api request failed: " + op)
	})
}

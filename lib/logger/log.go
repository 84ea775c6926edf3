package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"

	"github.com/artie-labs/dimload/lib/config"
)

// SentryFlushTimeout bounds how long exiting waits for queued Sentry events.
const SentryFlushTimeout = 2 * time.Second

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newHandler(w io.Writer, settings *config.Settings) slog.Handler {
	level := slog.LevelInfo
	if settings != nil && settings.VerboseLogging {
		level = slog.LevelDebug
	}

	return tint.NewHandler(w, &tint.Options{Level: level, NoColor: !isTerminal(w)})
}

// NewLogger returns the process logger and whether errors are also sent to Sentry.
func NewLogger(settings *config.Settings) (*slog.Logger, bool) {
	handler := newHandler(os.Stderr, settings)

	var loggingToSentry bool
	if settings != nil && settings.Config.Reporting.Sentry != nil && settings.Config.Reporting.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: settings.Config.Reporting.Sentry.DSN}); err != nil {
			slog.New(handler).Warn("Failed to enable Sentry output", slog.Any("err", err))
		} else {
			handler = slogmulti.Fanout(
				handler,
				slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
			)
			loggingToSentry = true
		}
	}

	logger := slog.New(handler)
	if settings != nil && settings.LoadID != "" {
		logger = logger.With(slog.String("loadID", settings.LoadID))
	}

	return logger, loggingToSentry
}

// flushSentry reports whether a Sentry client was configured and drained in time.
func flushSentry() bool {
	if sentry.CurrentHub().Client() == nil {
		return false
	}

	return sentry.Flush(SentryFlushTimeout)
}

// Fatal logs [msg] as an error and exits. Sentry is flushed first since exiting skips deferred calls.
func Fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	flushSentry()
	os.Exit(1)
}

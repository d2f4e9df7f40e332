package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Init installs the default slog logger for a binary. format is "json"
// (default) or "text"; anything else falls back to json with a warning.
func Init(service, format string) *slog.Logger {
	return initTo(os.Stdout, service, format)
}

func initTo(w io.Writer, service, format string) *slog.Logger {
	format = strings.ToLower(strings.TrimSpace(format))
	opts := &slog.HandlerOptions{ReplaceAttr: readableDurations}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler).With("service", service)
	slog.SetDefault(logger)

	if format != "" && format != "json" && format != "text" {
		logger.Warn("unknown log format, defaulting to json", "format", format)
	}
	return logger
}

// readableDurations logs durations as "1.5s" instead of raw nanoseconds, which
// is what the JSON handler emits by default.
func readableDurations(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindDuration {
		return slog.String(a.Key, a.Value.Duration().Round(time.Microsecond).String())
	}
	return a
}

package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide JSON logger. Records are enriched with
// the active trace/span ids so log lines can be joined with traces.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	log := slog.New(NewTraceHandler(handler))

	// the request logger middleware reaches for the default logger
	slog.SetDefault(log)

	return log
}

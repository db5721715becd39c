package telemetry

import (
	"log/slog"
	"os"
)

// installs the process-wide slog handler. debug additionally
// enables per-request http logging from InstrumentResty.
func InitSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

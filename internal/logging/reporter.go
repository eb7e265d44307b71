package logging

import (
	"log/slog"

	"github.com/codenarok/SteamGameFetcher/internal/ports"
)

// Reporter surfaces run progress through slog. It stands in for the
// interactive status/progress callbacks of a front end.
type Reporter struct {
	logger *slog.Logger
}

var _ ports.ProgressReporter = (*Reporter)(nil)

// NewReporter wraps a logger.
func NewReporter(logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{logger: logger}
}

// Status logs a status message.
func (r *Reporter) Status(msg string) {
	r.logger.Info(msg)
}

// Progress logs completion state at debug level to keep long runs quiet.
func (r *Reporter) Progress(done, total int) {
	r.logger.Debug("progress", "done", done, "total", total)
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/codenarok/SteamGameFetcher/internal/domain"
	"github.com/codenarok/SteamGameFetcher/internal/grid"
	"github.com/codenarok/SteamGameFetcher/internal/ports"
)

// LookupCounts summarises one batch lookup run.
type LookupCounts struct {
	Processed int
	Found     int
	NotFound  int
	Skipped   int
}

// Lookup resolves a list of titles against the grid, one shared session,
// and produces the input rows with a SteamOSResult column appended.
type Lookup struct {
	resolver    *Resolver
	titleColumn int
	progress    ports.ProgressReporter
	logger      *slog.Logger
}

// NewLookup wires the resolver and the input column holding search terms.
func NewLookup(resolver *Resolver, titleColumn int, progress ports.ProgressReporter, logger *slog.Logger) *Lookup {
	if progress == nil {
		progress = ports.NopProgress{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lookup{
		resolver:    resolver,
		titleColumn: titleColumn,
		progress:    progress,
		logger:      logger,
	}
}

// Run resolves every row's title and returns the widened header and rows.
// Output row count always equals input row count.
func (l *Lookup) Run(ctx context.Context, acc grid.Accessor, header []string, rows [][]string) ([]string, [][]string, LookupCounts, error) {
	var counts LookupCounts

	if l.titleColumn >= len(header) {
		return nil, nil, counts, fmt.Errorf("title column %d is out of bounds for input with %d columns",
			l.titleColumn, len(header))
	}

	outHeader := append(slices.Clone(header), "SteamOSResult")
	outRows := make([][]string, 0, len(rows))

	for i, row := range rows {
		term := ""
		if l.titleColumn < len(row) {
			term = strings.TrimSpace(row[l.titleColumn])
		}
		l.logger.Info("resolving title", "row", i+1, "total", len(rows), "title", term)
		l.progress.Status(fmt.Sprintf("Processing row %d/%d: %q", i+1, len(rows), term))

		result := l.resolver.Resolve(ctx, acc, term)
		switch result.Outcome {
		case domain.MatchFound:
			counts.Found++
		case domain.MatchSkippedEmpty:
			counts.Skipped++
		default:
			counts.NotFound++
		}
		counts.Processed++

		outRows = append(outRows, append(slices.Clone(row), result.Label()))
		l.progress.Progress(i+1, len(rows))
	}

	return outHeader, outRows, counts, nil
}

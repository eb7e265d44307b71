package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/codenarok/SteamGameFetcher/internal/domain"
	"github.com/codenarok/SteamGameFetcher/internal/grid"
)

// Resolver answers "what is this title's compatibility status" by
// filtering the grid and scanning the rendered window for a
// case-insensitive exact title match.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver builds a resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Resolve looks up one title against the grid. The filter match may be
// fuzzy; only a displayed title equal to the query (case-insensitively)
// counts. First exact match in rendering order wins.
func (r *Resolver) Resolve(ctx context.Context, acc grid.Accessor, title string) domain.MatchResult {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.MatchResult{Outcome: domain.MatchSkippedEmpty}
	}

	if err := acc.SetFilter(ctx, title); err != nil {
		r.logger.Warn("filter failed", "title", title, "error", err)
		return domain.MatchResult{Outcome: domain.MatchNotFound}
	}

	rows, err := acc.Rows(ctx)
	if err != nil {
		r.logger.Warn("cannot list filtered rows", "title", title, "error", err)
		return domain.MatchResult{Outcome: domain.MatchNotFound}
	}

	for _, row := range rows {
		cells, err := row.Cells(ctx)
		if err != nil {
			r.logger.Debug("unreadable row during lookup", "title", title, "error", err)
			continue
		}
		if len(cells) <= domain.TitleCellIndex {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(cells[domain.TitleCellIndex]), title) {
			status := domain.StatusLabelFromTokens(row.StyleTokens())
			r.logger.Debug("exact match", "title", title, "status", status)
			return domain.MatchResult{Outcome: domain.MatchFound, Status: status}
		}
	}

	r.logger.Debug("no exact match in filtered results", "title", title)
	return domain.MatchResult{Outcome: domain.MatchNotFound}
}

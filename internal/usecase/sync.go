package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codenarok/SteamGameFetcher/internal/grid"
	"github.com/codenarok/SteamGameFetcher/internal/ports"
)

// SyncCounts summarises one sync pipeline run.
type SyncCounts struct {
	Resolved int
	Inserted int
	Matched  int
}

// SyncPipeline fetches title details from an external tabular source,
// resolves each title's compatibility status against the grid, and writes
// the projected documents to the document sink. Dedup is full-document
// equality (ExactDocument strategy), not newest-wins.
type SyncPipeline struct {
	source      ports.DetailSource
	sink        ports.DocumentSink
	resolver    *Resolver
	fields      []string
	titleColumn string
	progress    ports.ProgressReporter
	logger      *slog.Logger
}

// SyncDeps wires all collaborators of the sync pipeline.
type SyncDeps struct {
	Source      ports.DetailSource
	Sink        ports.DocumentSink
	Resolver    *Resolver
	Fields      []string
	TitleColumn string
	Progress    ports.ProgressReporter
	Logger      *slog.Logger
}

// NewSyncPipeline constructs the pipeline.
func NewSyncPipeline(deps SyncDeps) *SyncPipeline {
	if deps.Progress == nil {
		deps.Progress = ports.NopProgress{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &SyncPipeline{
		source:      deps.Source,
		sink:        deps.Sink,
		resolver:    deps.Resolver,
		fields:      deps.Fields,
		titleColumn: deps.TitleColumn,
		progress:    deps.Progress,
		logger:      deps.Logger,
	}
}

// Run executes the fetch → resolve → store pipeline.
func (p *SyncPipeline) Run(ctx context.Context, acc grid.Accessor) (SyncCounts, error) {
	var counts SyncCounts

	columns, rows, err := p.source.Fetch(ctx)
	if err != nil {
		return counts, fmt.Errorf("fetch details: %w", err)
	}
	if !containsFold(columns, p.titleColumn) {
		return counts, fmt.Errorf("detail source is missing required column %q", p.titleColumn)
	}
	p.logger.Info("details fetched", "rows", len(rows), "columns", len(columns))
	if len(rows) == 0 {
		return counts, nil
	}

	p.progress.Progress(0, len(rows))
	for i, row := range rows {
		title := strings.TrimSpace(valueFold(row, p.titleColumn))
		p.progress.Status(fmt.Sprintf("Processing %d/%d: %q", i+1, len(rows), title))

		result := p.resolver.Resolve(ctx, acc, title)
		counts.Resolved++

		doc := make(map[string]any, len(p.fields)+1)
		for _, field := range p.fields {
			if v, ok := lookupFold(row, field); ok {
				doc[field] = v
			} else {
				p.logger.Warn("field absent in fetched data", "field", field, "title", title)
				doc[field] = nil
			}
		}
		doc["SteamOSResult"] = result.Label()

		inserted, err := p.sink.UpsertExact(ctx, doc)
		if err != nil {
			return counts, fmt.Errorf("store document for %q: %w", title, err)
		}
		if inserted {
			counts.Inserted++
		} else {
			counts.Matched++
		}
		p.progress.Progress(i+1, len(rows))
	}

	p.logger.Info("sync complete",
		"resolved", counts.Resolved, "inserted", counts.Inserted, "matched", counts.Matched)
	return counts, nil
}

func valueFold(row map[string]string, name string) string {
	v, _ := lookupFold(row, name)
	return v
}

func lookupFold(row map[string]string, name string) (string, bool) {
	if v, ok := row[name]; ok {
		return v, true
	}
	for k, v := range row {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

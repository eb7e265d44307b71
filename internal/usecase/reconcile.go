package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codenarok/SteamGameFetcher/internal/ports"
)

// ErrSchemaMismatch means the candidate source's column set does not equal
// the store's declared column set. Checked once, before any row touches
// the store; partial application under a wrong schema is unsafe.
var ErrSchemaMismatch = errors.New("candidate columns do not match target table columns")

// ReconcileCounts summarises one reconciliation run.
type ReconcileCounts struct {
	Processed       int
	Inserted        int
	Superseded      int
	SkippedStale    int
	SkippedEmptyKey int
}

// Reconciler merges candidate rows into a relational store under
// newest-wins conflict resolution: insert when the key is absent,
// supersede when the candidate is strictly newer, skip otherwise.
type Reconciler struct {
	store              ports.CatalogStore
	keyColumn          string
	dateColumn         string
	continueOnRowError bool
	progress           ports.ProgressReporter
	logger             *slog.Logger
}

// NewReconciler wires the target store and the key/recency column names.
func NewReconciler(store ports.CatalogStore, keyColumn, dateColumn string, continueOnRowError bool, progress ports.ProgressReporter, logger *slog.Logger) *Reconciler {
	if progress == nil {
		progress = ports.NopProgress{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:              store,
		keyColumn:          keyColumn,
		dateColumn:         dateColumn,
		continueOnRowError: continueOnRowError,
		progress:           progress,
		logger:             logger,
	}
}

// Run reconciles every candidate, one independent atomic unit per row.
func (r *Reconciler) Run(ctx context.Context, src ports.CandidateSource) (ReconcileCounts, error) {
	var counts ReconcileCounts

	columns, err := r.store.Columns(ctx)
	if err != nil {
		return counts, fmt.Errorf("read target columns: %w", err)
	}
	header := src.Header()
	if err := r.checkSchema(header, columns); err != nil {
		return counts, err
	}
	r.progress.Status("Column validation successful")

	records, err := src.Records()
	if err != nil {
		return counts, fmt.Errorf("read candidates: %w", err)
	}
	r.progress.Progress(0, len(records))

	for i, rec := range records {
		counts.Processed++

		key := strings.TrimSpace(rec.Key)
		if key == "" {
			counts.SkippedEmptyKey++
			continue
		}

		if err := r.reconcileOne(ctx, key, rec.Recency, rec.Payload, &counts); err != nil {
			if r.continueOnRowError {
				r.logger.Error("row failed, continuing", "key", key, "error", err)
				continue
			}
			return counts, fmt.Errorf("candidate %d (%s): %w", i+1, key, err)
		}
		r.progress.Progress(i+1, len(records))
	}

	r.logger.Info("reconciliation complete",
		"processed", counts.Processed,
		"inserted", counts.Inserted,
		"superseded", counts.Superseded,
		"skipped_stale", counts.SkippedStale,
		"skipped_empty_key", counts.SkippedEmptyKey)
	return counts, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, key string, recency time.Time, payload []string, counts *ReconcileCounts) error {
	stored, found, err := r.store.Recency(ctx, key)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}

	switch {
	case !found:
		if err := r.store.Insert(ctx, payload); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		counts.Inserted++
	case recency.After(stored):
		if err := r.store.Replace(ctx, key, payload); err != nil {
			return fmt.Errorf("supersede: %w", err)
		}
		counts.Superseded++
	default:
		// Equal recency never supersedes.
		counts.SkippedStale++
	}
	return nil
}

// checkSchema enforces equal column names, same order, case-insensitive,
// and the presence of the key and recency columns.
func (r *Reconciler) checkSchema(header, columns []string) error {
	if !containsFold(header, r.keyColumn) {
		return fmt.Errorf("%w: missing required key column %q", ErrSchemaMismatch, r.keyColumn)
	}
	if !containsFold(header, r.dateColumn) {
		return fmt.Errorf("%w: missing required date column %q", ErrSchemaMismatch, r.dateColumn)
	}
	if len(header) != len(columns) {
		return fmt.Errorf("%w: source has %d columns, table has %d", ErrSchemaMismatch, len(header), len(columns))
	}
	for i := range header {
		if !strings.EqualFold(strings.TrimSpace(header[i]), strings.TrimSpace(columns[i])) {
			return fmt.Errorf("%w: position %d: %q vs %q", ErrSchemaMismatch, i+1, header[i], columns[i])
		}
	}
	return nil
}

func containsFold(list []string, name string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), name) {
			return true
		}
	}
	return false
}

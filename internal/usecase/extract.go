package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/codenarok/SteamGameFetcher/internal/config"
	"github.com/codenarok/SteamGameFetcher/internal/domain"
	"github.com/codenarok/SteamGameFetcher/internal/grid"
	"github.com/codenarok/SteamGameFetcher/internal/ports"
)

// ErrResumeTargetNotFound means the sink's recorded high-water mark no
// longer corresponds to retrievable grid content. Fatal, not retried.
var ErrResumeTargetNotFound = errors.New("resume target not reachable in the rendered grid")

// checkpoint is the process-wide state of one extraction session.
// resumeFrom is monotonically non-decreasing; an ordinal is flushed at
// most once.
type checkpoint struct {
	resumeFrom  int
	captured    map[int]domain.CapturedRow
	flushed     map[int]struct{}
	highestSeen int
	stalls      int
}

func (c *checkpoint) total() int {
	return len(c.captured) + len(c.flushed)
}

// Extractor drives a grid accessor through a full scan of the virtual
// dataset, appending deduplicated rows to the durable sink with periodic
// batch flushes and stall-based termination.
type Extractor struct {
	sink         ports.RowSink
	cfg          config.ExtractConfig
	scrollAmount int
	progress     ports.ProgressReporter
	logger       *slog.Logger
}

// NewExtractor wires the durable sink and loop configuration.
func NewExtractor(sink ports.RowSink, cfg config.ExtractConfig, scrollAmount int, progress ports.ProgressReporter, logger *slog.Logger) *Extractor {
	if progress == nil {
		progress = ports.NopProgress{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		sink:         sink,
		cfg:          cfg,
		scrollAmount: scrollAmount,
		progress:     progress,
		logger:       logger,
	}
}

// Run performs one extraction session and returns the number of rows
// durably written by this session. Re-running against the same sink never
// revisits ordinals already persisted.
func (e *Extractor) Run(ctx context.Context, acc grid.Accessor) (int, error) {
	maxOrdinal, err := e.sink.MaxOrdinal(ctx)
	if err != nil {
		e.logger.Warn("cannot read resume state, starting from the top", "error", err)
		maxOrdinal = 0
	}

	cp := &checkpoint{
		resumeFrom:  maxOrdinal + 1,
		captured:    map[int]domain.CapturedRow{},
		flushed:     map[int]struct{}{},
		highestSeen: maxOrdinal,
	}
	e.logger.Info("extraction session starting", "resume_from", cp.resumeFrom)
	e.progress.Status(fmt.Sprintf("Resuming extraction from row %d", cp.resumeFrom))

	if err := e.preScan(ctx, acc, cp); err != nil {
		return 0, err
	}

	scrolls := 0
	for cp.total() < e.cfg.RowCap {
		rows, err := acc.Rows(ctx)
		if err != nil {
			return len(cp.flushed), fmt.Errorf("list rendered rows: %w", err)
		}

		newRows, passMax := e.capturePass(ctx, cp, rows)

		switch {
		case passMax > cp.highestSeen:
			cp.highestSeen = passMax
			cp.stalls = 0
			e.logger.Debug("progress", "highest_ordinal", cp.highestSeen, "new_rows", newRows)
		case newRows == 0:
			cp.stalls++
			e.logger.Info("no progress this pass",
				"stalls", cp.stalls, "threshold", e.cfg.StallThreshold, "highest_ordinal", cp.highestSeen)
		default:
			// Rows were added below the high-water mark (gap fill).
			cp.stalls = 0
		}

		if cp.stalls >= e.cfg.StallThreshold {
			e.logger.Info("grid stopped advancing, assuming end of data", "highest_ordinal", cp.highestSeen)
			break
		}
		if cp.total() >= e.cfg.RowCap {
			e.logger.Info("row cap reached", "cap", e.cfg.RowCap)
			break
		}

		scrolls++
		if scrolls%e.cfg.BatchInterval == 0 {
			if err := e.flush(ctx, cp); err != nil {
				return len(cp.flushed), fmt.Errorf("batch flush: %w", err)
			}
		}

		if err := acc.Scroll(ctx, e.scrollAmount); err != nil {
			// Progress up to the last flush is already durable.
			return len(cp.flushed), fmt.Errorf("scroll after %d rows written: %w", len(cp.flushed), err)
		}
	}

	if err := e.flush(ctx, cp); err != nil {
		return len(cp.flushed), fmt.Errorf("final flush: %w", err)
	}

	written := len(cp.flushed)
	e.logger.Info("extraction session complete", "rows_written", written)
	e.progress.Status(fmt.Sprintf("Extraction complete: %d rows written", written))
	return written, nil
}

// preScan scrolls until a rendered ordinal at or past resumeFrom becomes
// visible, bounded by the configured attempt limit.
func (e *Extractor) preScan(ctx context.Context, acc grid.Accessor, cp *checkpoint) error {
	for attempt := 0; attempt < e.cfg.PreScanAttempts; attempt++ {
		rows, err := acc.Rows(ctx)
		if err != nil {
			return fmt.Errorf("pre-scan list rows: %w", err)
		}

		highest := 0
		for _, row := range rows {
			ord, ok := row.Ordinal()
			if !ok {
				continue
			}
			if ord >= cp.resumeFrom {
				e.logger.Info("resume target visible", "ordinal", ord, "attempts", attempt)
				return nil
			}
			if ord > highest {
				highest = ord
			}
		}

		e.logger.Debug("pre-scan", "attempt", attempt+1, "limit", e.cfg.PreScanAttempts, "highest_visible", highest)
		if err := acc.Scroll(ctx, e.scrollAmount); err != nil {
			return fmt.Errorf("scroll during pre-scan: %w", err)
		}
	}
	return fmt.Errorf("%w: ordinal %d not visible after %d attempts",
		ErrResumeTargetNotFound, cp.resumeFrom, e.cfg.PreScanAttempts)
}

// capturePass records every newly visible row at or past resumeFrom and
// returns the count of new captures plus the maximum ordinal observed,
// whether or not it was newly captured.
func (e *Extractor) capturePass(ctx context.Context, cp *checkpoint, rows []grid.RenderedRow) (newRows, passMax int) {
	passMax = cp.highestSeen
	for _, row := range rows {
		ord, ok := row.Ordinal()
		if !ok {
			continue
		}
		if ord > passMax {
			passMax = ord
		}
		if ord < cp.resumeFrom {
			continue
		}
		if _, dup := cp.captured[ord]; dup {
			continue
		}
		if _, done := cp.flushed[ord]; done {
			continue
		}
		if cp.total() >= e.cfg.RowCap {
			break
		}

		cells, err := row.Cells(ctx)
		if err != nil {
			e.logger.Warn("unreadable row, skipping", "ordinal", ord, "error", err)
			continue
		}
		if len(cells) < domain.ExpectedCellCount {
			// Ordinal 1 is the grid's header row.
			if ord != 1 {
				e.logger.Warn("malformed row, skipping",
					"ordinal", ord, "cells", len(cells), "expected", domain.ExpectedCellCount)
			}
			continue
		}

		cp.captured[ord] = domain.CapturedRow{
			Ordinal: ord,
			Fields:  cells[:domain.ExpectedCellCount],
			Status:  domain.StatusFromTokens(row.StyleTokens()),
		}
		newRows++
	}
	return newRows, passMax
}

// flush appends all captured-but-unflushed rows, sorted by ordinal, in one
// durable write, then evicts them from the working set.
func (e *Extractor) flush(ctx context.Context, cp *checkpoint) error {
	if len(cp.captured) == 0 {
		return nil
	}

	ordinals := make([]int, 0, len(cp.captured))
	for ord := range cp.captured {
		ordinals = append(ordinals, ord)
	}
	sort.Ints(ordinals)

	batch := make([]domain.CapturedRow, 0, len(ordinals))
	for _, ord := range ordinals {
		batch = append(batch, cp.captured[ord])
	}

	if err := e.sink.Append(ctx, batch); err != nil {
		return err
	}

	for _, ord := range ordinals {
		cp.flushed[ord] = struct{}{}
		delete(cp.captured, ord)
	}
	e.logger.Info("batch flushed", "rows", len(batch), "written_total", len(cp.flushed))
	e.progress.Progress(len(cp.flushed), e.cfg.RowCap)
	return nil
}

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/codenarok/SteamGameFetcher/internal/config"
	"github.com/codenarok/SteamGameFetcher/internal/grid"
)

func extractCfg() config.ExtractConfig {
	return config.ExtractConfig{
		BatchInterval:   10,
		StallThreshold:  3,
		RowCap:          200000,
		PreScanAttempts: 5,
	}
}

func window(rows ...fakeRow) []grid.RenderedRow {
	out := make([]grid.RenderedRow, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

func TestExtractorFullScan(t *testing.T) {
	t.Parallel()

	g := &fakeGrid{windows: [][]grid.RenderedRow{
		window(row(1, "ignored header"), row(2, "Portal 2"), row(3, "Hades")),
		window(row(3, "Hades"), row(4, "Celeste"), row(5, "Stray")),
		window(row(4, "Celeste"), row(5, "Stray")),
	}}
	sink := &fakeSink{}

	written, err := NewExtractor(sink, extractCfg(), 500, nil, nil).Run(context.Background(), g)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if written != 5 {
		t.Fatalf("written = %d, want 5", written)
	}

	counts := sink.written()
	for ord := 1; ord <= 5; ord++ {
		if counts[ord] != 1 {
			t.Fatalf("ordinal %d written %d times, want exactly once (all: %s)",
				ord, counts[ord], strings.Join(sink.ordinals(), ","))
		}
	}
}

func TestExtractorResumeSkipsPersistedOrdinals(t *testing.T) {
	t.Parallel()

	g := &fakeGrid{windows: [][]grid.RenderedRow{
		window(row(2, "Portal 2"), row(3, "Hades"), row(4, "Celeste")),
		window(row(4, "Celeste"), row(5, "Stray")),
	}}
	sink := &fakeSink{max: 3}

	written, err := NewExtractor(sink, extractCfg(), 500, nil, nil).Run(context.Background(), g)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if written != 2 {
		t.Fatalf("written = %d, want 2", written)
	}
	counts := sink.written()
	for ord := 1; ord <= 3; ord++ {
		if counts[ord] != 0 {
			t.Fatalf("ordinal %d re-written after resume", ord)
		}
	}
	if counts[4] != 1 || counts[5] != 1 {
		t.Fatalf("resumed ordinals written = %v, want 4 and 5 once each", counts)
	}
}

func TestExtractorStallTermination(t *testing.T) {
	t.Parallel()

	// The grid never advances past the first window.
	g := &fakeGrid{windows: [][]grid.RenderedRow{
		window(row(2, "Portal 2"), row(3, "Hades")),
	}}
	sink := &fakeSink{}

	written, err := NewExtractor(sink, extractCfg(), 500, nil, nil).Run(context.Background(), g)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if written != 2 {
		t.Fatalf("written = %d, want 2", written)
	}
	// One productive pass, then exactly threshold no-progress passes.
	if g.scrolls != 3 {
		t.Fatalf("scrolls = %d, want 3", g.scrolls)
	}
}

func TestExtractorEmptyWindowsCountTowardStall(t *testing.T) {
	t.Parallel()

	// An empty rendered window is a no-progress pass; a later window with
	// fresh ordinals resets the counter, and a persistently empty grid
	// terminates through the stall threshold.
	g := &fakeGrid{windows: [][]grid.RenderedRow{
		window(row(2, "Portal 2"), row(3, "Hades")),
		window(),
		window(row(4, "Celeste")),
		window(),
		window(),
		window(),
	}}
	sink := &fakeSink{}

	written, err := NewExtractor(sink, extractCfg(), 500, nil, nil).Run(context.Background(), g)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if written != 3 {
		t.Fatalf("written = %d, want 3 (row after the first empty window must still be captured)", written)
	}
	// Passes: capture, empty, capture (counter reset), then exactly
	// threshold empty passes before termination.
	if g.scrolls != 5 {
		t.Fatalf("scrolls = %d, want 5", g.scrolls)
	}
	counts := sink.written()
	if counts[4] != 1 {
		t.Fatalf("ordinal 4 written %d times, want once", counts[4])
	}
}

func TestExtractorBatchFlushBoundsWorkingSet(t *testing.T) {
	t.Parallel()

	// 25 windows of 2 fresh rows each: with a flush every 10 scrolls no
	// single append may carry more than 10 windows' worth of rows.
	var windows [][]grid.RenderedRow
	for i := 0; i < 25; i++ {
		base := 2 + i*2
		windows = append(windows, window(
			row(base, "Game A"), row(base+1, "Game B"),
		))
	}
	windows = append(windows, windows[len(windows)-1])
	g := &fakeGrid{windows: windows}
	sink := &fakeSink{}

	written, err := NewExtractor(sink, extractCfg(), 500, nil, nil).Run(context.Background(), g)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if written != 50 {
		t.Fatalf("written = %d, want 50", written)
	}
	if len(sink.appends) < 3 {
		t.Fatalf("appends = %d, want at least 3 (two batch flushes plus final)", len(sink.appends))
	}
	for i, batch := range sink.appends {
		if len(batch) > 20 {
			t.Fatalf("append %d carried %d rows, want <= 20", i, len(batch))
		}
		for j := 1; j < len(batch); j++ {
			if batch[j].Ordinal <= batch[j-1].Ordinal {
				t.Fatalf("append %d not sorted by ordinal: %d after %d",
					i, batch[j].Ordinal, batch[j-1].Ordinal)
			}
		}
	}
}

func TestExtractorRowCap(t *testing.T) {
	t.Parallel()

	g := &fakeGrid{windows: [][]grid.RenderedRow{
		window(row(2, "Portal 2"), row(3, "Hades"), row(4, "Celeste"), row(5, "Stray")),
	}}
	sink := &fakeSink{}
	cfg := extractCfg()
	cfg.RowCap = 3

	written, err := NewExtractor(sink, cfg, 500, nil, nil).Run(context.Background(), g)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if written != 3 {
		t.Fatalf("written = %d, want 3", written)
	}
}

func TestExtractorResumeTargetNotFound(t *testing.T) {
	t.Parallel()

	g := &fakeGrid{windows: [][]grid.RenderedRow{
		window(row(2, "Portal 2"), row(3, "Hades")),
	}}
	sink := &fakeSink{max: 100}

	_, err := NewExtractor(sink, extractCfg(), 500, nil, nil).Run(context.Background(), g)
	if !errors.Is(err, ErrResumeTargetNotFound) {
		t.Fatalf("err = %v, want ErrResumeTargetNotFound", err)
	}
	if len(sink.appends) != 0 {
		t.Fatalf("rows appended despite unreachable resume target")
	}
}

func TestExtractorScrollFailureKeepsFlushedRows(t *testing.T) {
	t.Parallel()

	g := &fakeGrid{
		windows: [][]grid.RenderedRow{
			window(row(2, "Portal 2"), row(3, "Hades")),
		},
		scrollErr: errors.New("renderer crashed"),
	}
	sink := &fakeSink{}

	written, err := NewExtractor(sink, extractCfg(), 500, nil, nil).Run(context.Background(), g)
	if err == nil {
		t.Fatal("Run succeeded despite scroll failure")
	}
	if written != 0 {
		t.Fatalf("written = %d, want 0 (no flush had happened yet)", written)
	}
}

func TestExtractorSkipsMalformedRows(t *testing.T) {
	t.Parallel()

	short := fakeRow{ord: 3, hasOrd: true, cells: []string{"only", "three", "cells"}}
	noOrdinal := fakeRow{cells: row(0, "x").cells}
	unreadable := fakeRow{ord: 4, hasOrd: true, cellErr: errors.New("detached node")}
	g := &fakeGrid{windows: [][]grid.RenderedRow{
		window(row(2, "Portal 2"), short, noOrdinal, unreadable, row(5, "Stray")),
	}}
	sink := &fakeSink{}

	written, err := NewExtractor(sink, extractCfg(), 500, nil, nil).Run(context.Background(), g)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if written != 2 {
		t.Fatalf("written = %d, want 2", written)
	}
	counts := sink.written()
	if counts[2] != 1 || counts[5] != 1 {
		t.Fatalf("written ordinals = %v, want 2 and 5", counts)
	}
}

package usecase

import (
	"context"
	"strconv"
	"strings"

	"github.com/codenarok/SteamGameFetcher/internal/domain"
	"github.com/codenarok/SteamGameFetcher/internal/grid"
)

// fakeRow is a scripted rendered row.
type fakeRow struct {
	ord     int
	hasOrd  bool
	cells   []string
	tokens  []string
	cellErr error
}

func (r fakeRow) Ordinal() (int, bool)  { return r.ord, r.hasOrd }
func (r fakeRow) StyleTokens() []string { return r.tokens }
func (r fakeRow) Cells(context.Context) ([]string, error) {
	if r.cellErr != nil {
		return nil, r.cellErr
	}
	return r.cells, nil
}

// row builds a well-formed fake row with the given ordinal and title.
func row(ord int, title string, tokens ...string) fakeRow {
	if len(tokens) == 0 {
		tokens = []string{"row", "verified"}
	}
	return fakeRow{
		ord:    ord,
		hasOrd: true,
		cells: []string{
			"01/06/2025", title, "Dev Studio", "Very Positive",
			"$9.99", "-10%", "Gold",
		},
		tokens: tokens,
	}
}

// fakeGrid replays scripted windows: Rows returns the current window,
// Scroll advances to the next and stays on the last one.
type fakeGrid struct {
	windows   [][]grid.RenderedRow
	filters   map[string][]grid.RenderedRow
	idx       int
	filtered  []grid.RenderedRow
	inFilter  bool
	scrolls   int
	scrollErr error
	rowsErr   error
	filterErr error
}

func (g *fakeGrid) WaitReady(context.Context) error { return nil }

func (g *fakeGrid) SetFilter(_ context.Context, text string) error {
	if g.filterErr != nil {
		return g.filterErr
	}
	g.inFilter = true
	g.filtered = g.filters[strings.ToLower(text)]
	return nil
}

func (g *fakeGrid) Rows(context.Context) ([]grid.RenderedRow, error) {
	if g.rowsErr != nil {
		return nil, g.rowsErr
	}
	if g.inFilter {
		return g.filtered, nil
	}
	if len(g.windows) == 0 {
		return nil, nil
	}
	if g.idx >= len(g.windows) {
		return g.windows[len(g.windows)-1], nil
	}
	return g.windows[g.idx], nil
}

func (g *fakeGrid) Scroll(context.Context, int) error {
	if g.scrollErr != nil {
		return g.scrollErr
	}
	g.scrolls++
	if g.idx+1 < len(g.windows) {
		g.idx++
	}
	return nil
}

func (g *fakeGrid) Close() error { return nil }

// fakeSink records appended batches and reports a pre-seeded resume point.
type fakeSink struct {
	max       int
	appends   [][]domain.CapturedRow
	appendErr error
}

func (s *fakeSink) Append(_ context.Context, rows []domain.CapturedRow) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	batch := make([]domain.CapturedRow, len(rows))
	copy(batch, rows)
	s.appends = append(s.appends, batch)
	return nil
}

func (s *fakeSink) MaxOrdinal(context.Context) (int, error) { return s.max, nil }

func (s *fakeSink) ordinals() []string {
	var out []string
	for _, batch := range s.appends {
		for _, r := range batch {
			out = append(out, strconv.Itoa(r.Ordinal))
		}
	}
	return out
}

func (s *fakeSink) written() map[int]int {
	counts := map[int]int{}
	for _, batch := range s.appends {
		for _, r := range batch {
			counts[r.Ordinal]++
		}
	}
	return counts
}

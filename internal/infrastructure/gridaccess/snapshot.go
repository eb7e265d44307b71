package gridaccess

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/codenarok/SteamGameFetcher/internal/config"
	"github.com/codenarok/SteamGameFetcher/internal/grid"
)

// SnapshotAccessor replays the grid from saved HTML snapshots, for offline
// dry runs. Each numbered file under the snapshot directory is one
// rendered window; scrolling advances to the next file and stays on the
// last one, which lets the extraction loop terminate through stall
// detection exactly as against a live grid. Filtered lookups load
// filters/<slug>.html.
type SnapshotAccessor struct {
	cfg     config.GridConfig
	windows []string
	idx     int
	doc     *goquery.Document
	logger  *slog.Logger
}

var _ grid.Accessor = (*SnapshotAccessor)(nil)

// NewSnapshot indexes the snapshot directory and loads the first window.
func NewSnapshot(cfg config.GridConfig, logger *slog.Logger) (*SnapshotAccessor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(cfg.SnapshotDir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot directory %s: %w", cfg.SnapshotDir, err)
	}

	var windows []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		windows = append(windows, filepath.Join(cfg.SnapshotDir, e.Name()))
	}
	sort.Strings(windows)
	if len(windows) == 0 {
		return nil, fmt.Errorf("no window snapshots in %s", cfg.SnapshotDir)
	}

	a := &SnapshotAccessor{cfg: cfg, windows: windows, logger: logger}
	if err := a.load(windows[0]); err != nil {
		return nil, err
	}
	return a, nil
}

// WaitReady verifies the current snapshot actually contains the grid.
func (a *SnapshotAccessor) WaitReady(_ context.Context) error {
	if a.doc == nil || a.doc.Find(a.cfg.GridSelector).Length() == 0 {
		return fmt.Errorf("grid container %q not present in snapshot", a.cfg.GridSelector)
	}
	return nil
}

// SetFilter loads the snapshot recorded for the term; a term with no
// recorded snapshot behaves as a filter with no matches.
func (a *SnapshotAccessor) SetFilter(_ context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return a.load(a.windows[a.idx])
	}
	path := filepath.Join(a.cfg.SnapshotDir, "filters", slug(text)+".html")
	if _, err := os.Stat(path); err != nil {
		a.logger.Debug("no snapshot for filter term", "term", text)
		a.doc = emptyDocument()
		return nil
	}
	return a.load(path)
}

// Rows parses the current window.
func (a *SnapshotAccessor) Rows(_ context.Context) ([]grid.RenderedRow, error) {
	if a.doc == nil {
		return nil, fmt.Errorf("no snapshot loaded")
	}

	var rows []grid.RenderedRow
	a.doc.Find(a.cfg.RowSelector).Each(func(_ int, sel *goquery.Selection) {
		row := &snapshotRow{}
		if v, ok := sel.Attr("aria-rowindex"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
				row.ordinal, row.hasOrdinal = n, true
			}
		}
		if v, ok := sel.Attr("class"); ok {
			row.tokens = strings.Fields(v)
		}
		sel.Find(a.cfg.CellSelector).Each(func(_ int, cell *goquery.Selection) {
			row.cells = append(row.cells, strings.TrimSpace(cell.Text()))
		})
		rows = append(rows, row)
	})
	return rows, nil
}

// Scroll advances to the next recorded window.
func (a *SnapshotAccessor) Scroll(_ context.Context, _ int) error {
	if a.idx+1 < len(a.windows) {
		a.idx++
	}
	return a.load(a.windows[a.idx])
}

func (a *SnapshotAccessor) Close() error { return nil }

func (a *SnapshotAccessor) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	a.doc = doc
	return nil
}

func emptyDocument() *goquery.Document {
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	return doc
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return b.String()
}

type snapshotRow struct {
	ordinal    int
	hasOrdinal bool
	tokens     []string
	cells      []string
}

func (r *snapshotRow) Ordinal() (int, bool)  { return r.ordinal, r.hasOrdinal }
func (r *snapshotRow) StyleTokens() []string { return r.tokens }

func (r *snapshotRow) Cells(context.Context) ([]string, error) { return r.cells, nil }

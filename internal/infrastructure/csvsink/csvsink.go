// Package csvsink implements the append-only CSV row sink and the CSV
// table helpers used by the lookup and reconciliation flows.
package csvsink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/codenarok/SteamGameFetcher/internal/domain"
	"github.com/codenarok/SteamGameFetcher/internal/ports"
)

const utf8BOM = "\xEF\xBB\xBF"

// AppendSink appends captured rows to a CSV file. The header is written
// once, on the first append into an empty or absent file; prior content
// is never rewritten or deleted.
type AppendSink struct {
	path   string
	header []string
}

var _ ports.RowSink = (*AppendSink)(nil)

// NewAppendSink wires the sink's path and column set.
func NewAppendSink(path string, header []string) *AppendSink {
	return &AppendSink{path: path, header: header}
}

// Append durably writes one batch.
func (s *AppendSink) Append(_ context.Context, rows []domain.CapturedRow) error {
	if len(rows) == 0 {
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create sink directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat sink: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(s.header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row.Record()); err != nil {
			return fmt.Errorf("write row %d: %w", row.Ordinal, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush sink: %w", err)
	}
	return f.Sync()
}

// MaxOrdinal reads the highest ordinal already present in the sink, or 0
// when the file is absent or empty. Non-numeric ordinal cells are skipped,
// they never abort the resume read.
func (s *AppendSink) MaxOrdinal(_ context.Context) (int, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open sink for resume: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	max := 0
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return max, fmt.Errorf("read sink: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		cell := rec[0]
		if first {
			first = false
			cell = strings.TrimPrefix(cell, utf8BOM)
		}
		n, err := strconv.Atoi(strings.TrimSpace(cell))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

package csvsink

import (
	"strings"

	"github.com/codenarok/SteamGameFetcher/internal/domain"
	"github.com/codenarok/SteamGameFetcher/internal/ports"
)

// CandidateFile adapts a CSV file into a reconciliation candidate source.
// The business key and recency columns are located case-insensitively in
// the header; missing recency values normalize to the sentinel rather
// than failing the row.
type CandidateFile struct {
	header  []string
	records []domain.CandidateRecord
}

var _ ports.CandidateSource = (*CandidateFile)(nil)

// NewCandidateFile reads and indexes path.
func NewCandidateFile(path, keyColumn, dateColumn string) (*CandidateFile, error) {
	header, rows, err := ReadTable(path)
	if err != nil {
		return nil, err
	}

	keyIdx := indexFold(header, keyColumn)
	dateIdx := indexFold(header, dateColumn)

	records := make([]domain.CandidateRecord, 0, len(rows))
	for _, row := range rows {
		rec := domain.CandidateRecord{Payload: row, Recency: domain.RecencySentinel}
		if keyIdx >= 0 && keyIdx < len(row) {
			rec.Key = strings.TrimSpace(row[keyIdx])
		}
		if dateIdx >= 0 && dateIdx < len(row) {
			rec.Recency = domain.ParseRecency(row[dateIdx])
		}
		records = append(records, rec)
	}

	// A missing key or date column is not an error here; the reconciler
	// reports it as a schema mismatch before touching the store.
	return &CandidateFile{header: header, records: records}, nil
}

// Header returns the file's column names in order.
func (c *CandidateFile) Header() []string { return c.header }

// Records returns all candidate rows.
func (c *CandidateFile) Records() ([]domain.CandidateRecord, error) { return c.records, nil }

func indexFold(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

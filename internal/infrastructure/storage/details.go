package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codenarok/SteamGameFetcher/internal/ports"
)

// SQLDetailSource runs a configured query and exposes the result set as
// title detail rows for the sync pipeline.
type SQLDetailSource struct {
	db    *sql.DB
	query string
}

var _ ports.DetailSource = (*SQLDetailSource)(nil)

// NewSQLDetailSource wires the open database and the fetch query.
func NewSQLDetailSource(db *sql.DB, query string) *SQLDetailSource {
	return &SQLDetailSource{db: db, query: query}
}

// Fetch executes the query and renders every value as a display string;
// NULL renders empty.
func (s *SQLDetailSource) Fetch(ctx context.Context) ([]string, []map[string]string, error) {
	if s.query == "" {
		return nil, nil, fmt.Errorf("no fetch query configured")
	}

	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, nil, fmt.Errorf("run fetch query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read result columns: %w", err)
	}

	var result []map[string]string
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan detail row %d: %w", len(result)+1, err)
		}

		row := make(map[string]string, len(columns))
		for i, col := range columns {
			row[col] = renderValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate details: %w", err)
	}
	return columns, result, nil
}

func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

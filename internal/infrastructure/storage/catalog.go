package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/codenarok/SteamGameFetcher/internal/domain"
	"github.com/codenarok/SteamGameFetcher/internal/ports"
)

// CatalogStore is the relational reconciliation target. Business-key
// comparisons are case-insensitive; the supersede path runs delete and
// insert inside one transaction.
type CatalogStore struct {
	db      *sql.DB
	dialect Dialect
	table   string
	keyCol  string
	dateCol string
	sb      sq.StatementBuilderType

	columns []string // cached after the first introspection
}

var _ ports.CatalogStore = (*CatalogStore)(nil)

// NewCatalogStore wires the open database and the target table layout.
func NewCatalogStore(db *sql.DB, dialect Dialect, table, keyColumn, dateColumn string) *CatalogStore {
	var placeholder sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		placeholder = sq.Dollar
	}
	return &CatalogStore{
		db:      db,
		dialect: dialect,
		table:   table,
		keyCol:  keyColumn,
		dateCol: dateColumn,
		sb:      sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

// Columns introspects the target table's declared column names in order.
func (s *CatalogStore) Columns(ctx context.Context) ([]string, error) {
	if s.columns != nil {
		return s.columns, nil
	}

	var query string
	var args []any
	switch s.dialect {
	case DialectPostgres:
		query = `SELECT column_name FROM information_schema.columns
		         WHERE lower(table_name) = lower($1) ORDER BY ordinal_position`
		args = []any{s.table}
	default:
		query = `SELECT name FROM pragma_table_info(?) ORDER BY cid`
		args = []any{s.table}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", s.table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s has no columns or does not exist", s.table)
	}

	s.columns = cols
	return cols, nil
}

// Recency returns the stored recency value for a key. A stored value that
// cannot be read as a date degrades to the sentinel so any dated candidate
// supersedes it.
func (s *CatalogStore) Recency(ctx context.Context, key string) (time.Time, bool, error) {
	query, args, err := s.sb.
		Select(quote(s.dateCol)).
		From(quote(s.table)).
		Where(sq.Expr(fmt.Sprintf("LOWER(%s) = LOWER(?)", quote(s.keyCol)), key)).
		ToSql()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build lookup: %w", err)
	}

	var raw any
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("lookup %q: %w", key, err)
	}
	return coerceTime(raw), true, nil
}

// Insert writes one row in declared column order.
func (s *CatalogStore) Insert(ctx context.Context, payload []string) error {
	cols, err := s.Columns(ctx)
	if err != nil {
		return err
	}
	if len(payload) != len(cols) {
		return fmt.Errorf("payload has %d values, table %s has %d columns", len(payload), s.table, len(cols))
	}
	query, args, err := s.insertSQL(cols, payload)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", s.table, err)
	}
	return nil
}

// Replace deletes the row for key and inserts payload as one atomic unit.
// A failure anywhere rolls the whole unit back.
func (s *CatalogStore) Replace(ctx context.Context, key string, payload []string) error {
	cols, err := s.Columns(ctx)
	if err != nil {
		return err
	}
	if len(payload) != len(cols) {
		return fmt.Errorf("payload has %d values, table %s has %d columns", len(payload), s.table, len(cols))
	}

	delQuery, delArgs, err := s.sb.
		Delete(quote(s.table)).
		Where(sq.Expr(fmt.Sprintf("LOWER(%s) = LOWER(?)", quote(s.keyCol)), key)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	insQuery, insArgs, err := s.insertSQL(cols, payload)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin supersede: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, delQuery, delArgs...); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, insQuery, insArgs...); err != nil {
		return fmt.Errorf("insert %q: %w", key, err)
	}
	return tx.Commit()
}

func (s *CatalogStore) insertSQL(cols []string, payload []string) (string, []any, error) {
	quoted := make([]string, len(cols))
	values := make([]any, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
		values[i] = payload[i]
	}
	query, args, err := s.sb.
		Insert(quote(s.table)).
		Columns(quoted...).
		Values(values...).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build insert: %w", err)
	}
	return query, args, nil
}

// quote renders an identifier with double quotes, valid in both dialects.
func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func coerceTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		return domain.ParseRecency(t)
	case []byte:
		return domain.ParseRecency(string(t))
	default:
		return domain.RecencySentinel
	}
}

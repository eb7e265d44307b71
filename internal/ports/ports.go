package ports

import (
	"context"
	"time"

	"github.com/codenarok/SteamGameFetcher/internal/domain"
)

// RowSink is the append-only durable sink for captured catalog rows.
type RowSink interface {
	// Append durably writes a batch; the header is written once, on the
	// first append into an empty sink.
	Append(ctx context.Context, rows []domain.CapturedRow) error
	// MaxOrdinal reports the highest ordinal already present, or 0 when
	// the sink is empty or absent. It is the sole source of resume state.
	MaxOrdinal(ctx context.Context) (int, error)
}

// CatalogStore is the relational target of newest-wins reconciliation.
type CatalogStore interface {
	// Columns returns the store's declared column names in order.
	Columns(ctx context.Context) ([]string, error)
	// Recency returns the stored recency for a business key, compared
	// case-insensitively. found is false when no row exists for the key.
	Recency(ctx context.Context, key string) (value time.Time, found bool, err error)
	// Insert writes a new row in declared column order.
	Insert(ctx context.Context, payload []string) error
	// Replace deletes the existing row for key and inserts payload as a
	// single atomic unit.
	Replace(ctx context.Context, key string, payload []string) error
}

// DocumentSink persists lookup results with full-document-equality dedup:
// a document identical in every field to a stored one is never written
// twice. Deliberately distinct from newest-wins.
type DocumentSink interface {
	// UpsertExact inserts the document unless an exact duplicate exists.
	// inserted is false when an identical document was already stored.
	UpsertExact(ctx context.Context, doc map[string]any) (inserted bool, err error)
}

// CandidateSource yields reconciliation candidates in a fixed schema.
type CandidateSource interface {
	// Header returns the source's column names in order.
	Header() []string
	// Records returns all candidate rows.
	Records() ([]domain.CandidateRecord, error)
}

// DetailSource produces title detail rows for the sync pipeline, typically
// backed by an external SQL query.
type DetailSource interface {
	Fetch(ctx context.Context) (columns []string, rows []map[string]string, err error)
}

// ProgressReporter receives human-readable run progress.
type ProgressReporter interface {
	Status(msg string)
	Progress(done, total int)
}

// NopProgress discards all progress updates.
type NopProgress struct{}

func (NopProgress) Status(string)     {}
func (NopProgress) Progress(int, int) {}

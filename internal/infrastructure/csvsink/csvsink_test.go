package csvsink

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codenarok/SteamGameFetcher/internal/domain"
)

func captured(ord int, title string) domain.CapturedRow {
	return domain.CapturedRow{
		Ordinal: ord,
		Fields: []string{
			"01/06/2025", title, "Dev Studio", "Very Positive",
			"$9.99", "-10%", "Gold",
		},
		Status: domain.StatusVerified,
	}
}

func TestAppendSinkWritesHeaderOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	sink := NewAppendSink(path, domain.CSVHeader)
	ctx := context.Background()

	if err := sink.Append(ctx, []domain.CapturedRow{captured(2, "Portal 2")}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := sink.Append(ctx, []domain.CapturedRow{captured(3, "Hades")}); err != nil {
		t.Fatalf("second append: %v", err)
	}

	header, rows, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(header) != len(domain.CSVHeader) || header[0] != domain.CSVHeader[0] {
		t.Fatalf("header = %v, want %v", header, domain.CSVHeader)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (header must not repeat)", len(rows))
	}
	if rows[0][0] != "2" || rows[1][0] != "3" {
		t.Fatalf("ordinals = %q, %q", rows[0][0], rows[1][0])
	}
}

func TestAppendSinkPreservesExistingContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	sink := NewAppendSink(path, domain.CSVHeader)
	ctx := context.Background()

	if err := sink.Append(ctx, []domain.CapturedRow{captured(2, "Portal 2")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if err := sink.Append(ctx, []domain.CapturedRow{captured(3, "Hades")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(after[:len(before)]) != string(before) {
		t.Fatal("append rewrote previously persisted bytes")
	}
}

func TestMaxOrdinal(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	sink := NewAppendSink(path, domain.CSVHeader)
	ctx := context.Background()

	got, err := sink.MaxOrdinal(ctx)
	if err != nil || got != 0 {
		t.Fatalf("MaxOrdinal on absent file = %d, %v, want 0, nil", got, err)
	}

	if err := sink.Append(ctx, []domain.CapturedRow{
		captured(2, "Portal 2"), captured(17, "Hades"), captured(9, "Stray"),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err = sink.MaxOrdinal(ctx)
	if err != nil {
		t.Fatalf("MaxOrdinal: %v", err)
	}
	if got != 17 {
		t.Fatalf("MaxOrdinal = %d, want 17", got)
	}
}

func TestMaxOrdinalSkipsNonNumericCells(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mixed.csv")
	content := "\xEF\xBB\xBFRow Number,Title\nnot-a-number,Portal 2\n5,Hades\n,Blank\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewAppendSink(path, domain.CSVHeader).MaxOrdinal(context.Background())
	if err != nil {
		t.Fatalf("MaxOrdinal: %v", err)
	}
	if got != 5 {
		t.Fatalf("MaxOrdinal = %d, want 5", got)
	}
}

func TestTableRoundTripKeepsBOMOutOfHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "table.csv")
	header := []string{"TitleName", "PublisherName"}
	rows := [][]string{{"Half-Life 2", "Valve"}, {"Hades", "Supergiant"}}

	if err := WriteTable(path, header, rows); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw[:3]) != "\xEF\xBB\xBF" {
		t.Fatal("written table does not start with a BOM")
	}

	gotHeader, gotRows, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if gotHeader[0] != "TitleName" {
		t.Fatalf("header[0] = %q, BOM not stripped", gotHeader[0])
	}
	if len(gotRows) != 2 || gotRows[1][1] != "Supergiant" {
		t.Fatalf("rows = %v", gotRows)
	}
}

func TestReadTableEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := ReadTable(path); err == nil {
		t.Fatal("ReadTable accepted an empty file")
	}
}

func TestCandidateFileIndexing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "candidates.csv")
	content := "title,lastchange\nPortal 2,03/04/2025\nHades,\n ,01/01/2025\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	src, err := NewCandidateFile(path, "Title", "LastChange")
	if err != nil {
		t.Fatalf("NewCandidateFile: %v", err)
	}

	records, err := src.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}

	want := time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC)
	if records[0].Key != "Portal 2" || !records[0].Recency.Equal(want) {
		t.Fatalf("record 0 = %+v", records[0])
	}
	if !records[1].Recency.Equal(domain.RecencySentinel) {
		t.Fatalf("empty date = %v, want sentinel", records[1].Recency)
	}
	if records[2].Key != "" {
		t.Fatalf("whitespace key = %q, want empty", records[2].Key)
	}
}

func TestCandidateFileMissingColumnsDefer(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "candidates.csv")
	content := "Name,Updated\nPortal 2,03/04/2025\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	src, err := NewCandidateFile(path, "Title", "LastChange")
	if err != nil {
		t.Fatalf("NewCandidateFile: %v", err)
	}
	records, err := src.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if records[0].Key != "" || !records[0].Recency.Equal(domain.RecencySentinel) {
		t.Fatalf("record = %+v, want empty key and sentinel recency", records[0])
	}
}

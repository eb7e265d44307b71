package domain

import (
	"strings"
	"time"
)

// RecencySentinel is substituted for absent or unparseable recency values.
// Rows carrying it lose to any dated row and never block the pipeline.
var RecencySentinel = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// recencyLayouts are tried in order; day-first forms come before ISO so
// that 03/04/2025 reads as 3 April, matching the upstream grid's locale.
var recencyLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02-01-2006",
	"2 Jan 2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// ParseRecency converts a display date into a comparable recency value.
// Empty or unparseable input degrades to RecencySentinel.
func ParseRecency(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return RecencySentinel
	}
	for _, layout := range recencyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return RecencySentinel
}

// CandidateRecord is a row to merge into a target store.
type CandidateRecord struct {
	Key     string    // business key (title), compared case-insensitively
	Recency time.Time // RecencySentinel when absent
	Payload []string  // full field set in the store's declared column order
}

// MatchOutcome is the result kind of a single-title grid lookup.
type MatchOutcome int

const (
	MatchFound MatchOutcome = iota
	MatchNotFound
	MatchSkippedEmpty
)

// MatchResult is the outcome of resolving one title against the grid.
type MatchResult struct {
	Outcome MatchOutcome
	Status  string
}

// Label renders the result the way downstream sinks record it.
func (m MatchResult) Label() string {
	switch m.Outcome {
	case MatchFound:
		return m.Status
	case MatchSkippedEmpty:
		return "Skipped (Empty)"
	default:
		return "Not Found"
	}
}

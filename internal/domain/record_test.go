package domain

import (
	"testing"
	"time"
)

func TestParseRecencyDayFirst(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want time.Time
	}{
		{"03/04/2025", time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC)},
		{"25/12/2024 18:30", time.Date(2024, time.December, 25, 18, 30, 0, 0, time.UTC)},
		{"7 Mar 2023", time.Date(2023, time.March, 7, 0, 0, 0, 0, time.UTC)},
		{"2025-04-03", time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC)},
		{" 03-04-2025 ", time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := ParseRecency(tc.in); !got.Equal(tc.want) {
			t.Fatalf("ParseRecency(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseRecencyDegradesToSentinel(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "  ", "yesterday", "31/02/2025", "N/A"} {
		if got := ParseRecency(in); !got.Equal(RecencySentinel) {
			t.Fatalf("ParseRecency(%q) = %v, want sentinel", in, got)
		}
	}
}

func TestMatchResultLabel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		result MatchResult
		want   string
	}{
		{MatchResult{Outcome: MatchFound, Status: "Verified"}, "Verified"},
		{MatchResult{Outcome: MatchNotFound}, "Not Found"},
		{MatchResult{Outcome: MatchSkippedEmpty}, "Skipped (Empty)"},
	}
	for _, tc := range cases {
		if got := tc.result.Label(); got != tc.want {
			t.Fatalf("Label() = %q, want %q", got, tc.want)
		}
	}
}

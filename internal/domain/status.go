package domain

import "strings"

// CompatStatus classifies a title's SteamOS compatibility as derived from
// the styling tokens of its grid row.
type CompatStatus string

const (
	StatusVerified    CompatStatus = "Verified"
	StatusPlayable    CompatStatus = "Playable"
	StatusUnsupported CompatStatus = "Unsupported"
	StatusUnknown     CompatStatus = "Unknown"
)

// statusTable is the explicit, ordered token → classification table. The
// first entry whose token appears among a row's style tokens wins.
var statusTable = []struct {
	token  string
	status CompatStatus
}{
	{"verified", StatusVerified},
	{"playable", StatusPlayable},
	{"unsupported", StatusUnsupported},
}

// StatusFromTokens maps a row's style tokens to a CompatStatus using
// statusTable, falling back to StatusUnknown.
func StatusFromTokens(tokens []string) CompatStatus {
	present := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		present[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	for _, entry := range statusTable {
		if _, ok := present[entry.token]; ok {
			return entry.status
		}
	}
	return StatusUnknown
}

// StatusLabelFromTokens derives the display label used by the exact-match
// resolver. It first consults statusTable; otherwise a trailing
// "status-<x>" token maps to a capitalized <x>, then the last of several
// tokens is taken as-is, else "N/A".
func StatusLabelFromTokens(tokens []string) string {
	if s := StatusFromTokens(tokens); s != StatusUnknown {
		return string(s)
	}
	if len(tokens) == 0 {
		return "N/A"
	}
	last := tokens[len(tokens)-1]
	if trimmed, ok := strings.CutPrefix(last, "status-"); ok && trimmed != "" {
		return capitalize(trimmed)
	}
	if len(tokens) > 1 {
		return last
	}
	return "N/A"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

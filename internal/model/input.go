package model

import (
	"fmt"
	"strings"
)

// ArgumentError reports malformed input rejected before any fetch starts.
type ArgumentError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ParseSymbols splits a comma-separated symbol list.
func ParseSymbols(csv string) ([]string, error) {
	return NormalizeSymbols(strings.Split(csv, ","))
}

// NormalizeSymbols trims, drops blanks and de-duplicates, keeping first-seen
// order. At least one symbol is required.
func NormalizeSymbols(symbols []string) ([]string, error) {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, &ArgumentError{Field: "symbols", Reason: "at least one symbol is required"}
	}
	return out, nil
}

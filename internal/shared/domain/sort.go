package domain

import "strings"

// SortField is one resolved sort clause.
type SortField struct {
	Field string
	Desc  bool
}

// ParseSort parses ordered "±field" tokens: "-" means descending, "+" or
// no prefix means ascending. Empty tokens are skipped. Resolution against
// the entity's columns (and dropping of unknown fields) happens at
// compile time, so stale sort fields from persisted UI state never raise.
func ParseSort(tokens []string) []SortField {
	var sorts []SortField
	for _, token := range tokens {
		desc := strings.HasPrefix(token, "-")
		field := strings.TrimPrefix(strings.TrimPrefix(token, "-"), "+")
		if field == "" {
			continue
		}
		sorts = append(sorts, SortField{Field: field, Desc: desc})
	}
	return sorts
}

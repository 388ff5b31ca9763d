package domain

// PageRequest describes offset/limit pagination. Limit 0 is the explicit
// "unbounded" sentinel: no limit clause is applied, it never means "no
// results".
type PageRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Page is the pagination envelope returned by list operations.
// TotalCount reflects the unpaginated filtered set; with tolerant
// mapping len(Data) may be smaller.
type Page[T any] struct {
	Offset     int `json:"offset"`
	Limit      int `json:"limit"`
	TotalCount int `json:"total_count"`
	Data       []T `json:"data"`
}

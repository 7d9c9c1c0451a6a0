package models

import "math"

// Page is one slice of an ordered result set. Page numbers start at 1.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"per_page"`
	Total    int64 `json:"total"`
	HasNext  bool  `json:"has_next"`
	HasPrev  bool  `json:"has_prev"`
}

// NewPage fills in the navigation flags from the total row count.
func NewPage[T any](items []T, page, pageSize int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasNext:  hasNext(page, pageSize, total),
		HasPrev:  page > 1,
	}
}

// page*pageSize < total, without the multiplication.
func hasNext(page, pageSize int, total int64) bool {
	if total <= 0 || pageSize <= 0 {
		return false
	}
	return int64(page) <= (total-1)/int64(pageSize)
}

// Offset returns the number of rows skipped before the given page. It saturates
// at math.MaxInt, which is past the end of any result set.
func Offset(page, pageSize int) int {
	if page <= 1 || pageSize <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}

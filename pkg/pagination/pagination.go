// Package pagination provides page, cursor and sort handling for list queries.
package pagination

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Page size limits.
const (
	DefaultLimit = 16
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit inside a 32-bit OFFSET.
	MaxPage = math.MaxInt32 / MaxLimit
)

// Page holds offset pagination parameters.
type Page struct {
	Number int
	Limit  int
}

// New creates a Page, clamping invalid input to safe values. Page is kept
// within [1, MaxPage]. A non-positive limit becomes DefaultLimit and anything
// above MaxLimit is capped.
func New(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Number: page, Limit: limit}
}

// Parse creates a Page from raw request values. Anything that is not a
// whole number falls back to the defaults.
func Parse(page, limit any) Page {
	return New(ToInt(page, 1), ToInt(limit, DefaultLimit))
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// Result is one page of an offset-paginated list.
type Result[T any] struct {
	Items       []T   `json:"items"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
}

// NewResult creates a Result for the given page.
func NewResult[T any](items []T, total int64, p Page) Result[T] {
	if items == nil {
		items = make([]T, 0)
	}

	totalPages := 0
	if p.Limit > 0 {
		totalPages = int(total / int64(p.Limit))
		if total%int64(p.Limit) > 0 {
			totalPages++
		}
	}

	return Result[T]{
		Items:       items,
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: p.Number,
		PageSize:    p.Limit,
	}
}

// Counted is the aggregate-style response shape: rows plus a count.
type Counted[T any] struct {
	Data  []T   `json:"data"`
	Count int64 `json:"count"`
}

// ToCounted converts a page result into the aggregate-style shape.
func ToCounted[T any](r Result[T]) Counted[T] {
	return Counted[T]{Data: r.Items, Count: r.TotalItems}
}

// ToInt converts a loosely typed request value to an int.
// It returns def for nil, non-numeric or fractional input.
func ToInt(v any, def int) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		if t == float64(int(t)) {
			return int(t)
		}
	case json.Number:
		if n, err := strconv.Atoi(t.String()); err == nil {
			return n
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return def
}

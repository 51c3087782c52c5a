package shared

import (
	"github.com/hromada/backoffice/pkg/filter"
	"github.com/hromada/backoffice/pkg/pagination"
)

// Request keys that control paging and sorting. They are never treated as
// filter criteria.
const (
	KeyPage          = "page"
	KeyLimit         = "limit"
	KeySortBy        = "sort_by"
	KeySortDirection = "sort_direction"
	KeyCursor        = "cursor"
	KeyDirection     = "direction"
)

// ReservedKeys lists the paging and sorting keys.
var ReservedKeys = []string{KeyPage, KeyLimit, KeySortBy, KeySortDirection, KeyCursor, KeyDirection}

// ListQuery is a parsed list or search request.
type ListQuery struct {
	Filters filter.Spec
	Page    pagination.Page
	// Cursor is set when the client asked for keyset pagination.
	Cursor  *pagination.Cursor
	SortBy  string
	SortDir string
}

// NewListQuery splits a request spec into paging, sorting and filters.
// Cursor mode is selected when the request carries a "cursor" key, even an
// empty one, which asks for the first page.
func NewListQuery(spec filter.Spec) ListQuery {
	page, _ := spec.Get(KeyPage)
	limit, _ := spec.Get(KeyLimit)

	q := ListQuery{
		Filters: spec.Without(ReservedKeys...),
		Page:    pagination.Parse(page, limit),
		SortBy:  spec.String(KeySortBy),
		SortDir: spec.String(KeySortDirection),
	}

	if raw, ok := spec.Get(KeyCursor); ok {
		after := pagination.ToInt(raw, 0)
		c := pagination.NewCursor(int64(after), spec.String(KeyDirection), q.Page.Limit)
		q.Cursor = &c
	}
	return q
}

// Sort resolves the requested sort against the allow-list.
func (q ListQuery) Sort(spec pagination.SortSpec) pagination.Sort {
	return spec.Resolve(q.SortBy, q.SortDir)
}

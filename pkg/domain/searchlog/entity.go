// Package searchlog defines the audit trail of search requests.
package searchlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/pagination"
)

// Entry records one executed search.
type Entry struct {
	ID     shared.ID
	Module string
	// Filters are the criteria exactly as the client sent them.
	Filters     json.RawMessage
	ResultCount int64
	RequestID   string
	ClientIP    string
	CreatedAt   time.Time
}

// Sorting is the sort allow-list for search log lists.
var Sorting = pagination.NewSortSpec("id", "module", "created_at", "result_count")

// Repository defines the interface for search log persistence.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, q shared.ListQuery) (pagination.Result[*Entry], error)
	Scroll(ctx context.Context, q shared.ListQuery) (pagination.CursorResult[*Entry], error)

	// DeleteBefore removes entries created before t and returns how many.
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}

// Recorder accepts entries for storage. Implementations may store them
// asynchronously.
type Recorder interface {
	Record(ctx context.Context, e *Entry) error
}

package registry

import (
	"context"
	"io"
	"time"

	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/pagination"
)

// Sorting is the sort allow-list for registry lists.
var Sorting = pagination.NewSortSpec("id", "name", "title", "records_count", "published_at")

// Repository defines the interface for registry persistence.
type Repository interface {
	// Create inserts the registry. A duplicate name is a conflict.
	Create(ctx context.Context, r *Registry) error
	GetByID(ctx context.Context, id shared.ID) (*Registry, error)
	Update(ctx context.Context, r *Registry) error

	// Delete removes the registry together with its records.
	Delete(ctx context.Context, id shared.ID) error
	List(ctx context.Context, q shared.ListQuery) (pagination.Result[*Registry], error)

	// ListByStatus returns all registries with the status, oldest first.
	ListByStatus(ctx context.Context, status Status) ([]*Registry, error)

	// AddRecord inserts the record and increments the registry's
	// records_count in one transaction.
	AddRecord(ctx context.Context, rec *Record) error

	// ListRecords returns one page of records after the cursor.
	ListRecords(ctx context.Context, registryID shared.ID, c pagination.Cursor) (pagination.CursorResult[*Record], error)

	// EachRecord calls fn for every record of the registry in id order.
	EachRecord(ctx context.Context, registryID shared.ID, fn func(*Record) error) error

	// MarkPublished stamps published_at.
	MarkPublished(ctx context.Context, id shared.ID, at time.Time) error
}

// Publisher stores registry snapshots.
type Publisher interface {
	// Publish uploads body under key and returns the object location.
	Publish(ctx context.Context, key string, body io.Reader) (string, error)
}

package debtor

import (
	"context"

	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/pagination"
)

// Sorting is the sort allow-list for debtor lists.
var Sorting = pagination.NewSortSpec("id", "name", "total_debt", "reported_at")

// Repository defines the interface for debtor persistence.
type Repository interface {
	// Create inserts the debtor and sets its ID. A duplicate tax number is a
	// conflict.
	Create(ctx context.Context, d *Debtor) error

	GetByID(ctx context.Context, id shared.ID) (*Debtor, error)

	// Update returns a not-found error when no row matches.
	Update(ctx context.Context, d *Debtor) error

	// Delete returns a not-found error when no row matches.
	Delete(ctx context.Context, id shared.ID) error

	// List returns one page of debtors matching the query filters.
	List(ctx context.Context, q shared.ListQuery) (pagination.Result[*Debtor], error)
}

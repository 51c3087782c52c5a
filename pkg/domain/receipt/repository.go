package receipt

import (
	"context"

	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/pagination"
)

// Sorting is the sort allow-list for receipt lists.
var Sorting = pagination.NewSortSpec("id", "amount", "arrival_date", "name")

// Repository defines the interface for receipt persistence.
type Repository interface {
	// Create inserts the receipt. A duplicate identifier is a conflict.
	Create(ctx context.Context, r *Receipt) error
	GetByID(ctx context.Context, id shared.ID) (*Receipt, error)
	Delete(ctx context.Context, id shared.ID) error
	List(ctx context.Context, q shared.ListQuery) (pagination.Result[*Receipt], error)
	Scroll(ctx context.Context, q shared.ListQuery) (pagination.CursorResult[*Receipt], error)
}

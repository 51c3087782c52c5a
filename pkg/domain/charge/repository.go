package charge

import (
	"context"

	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/pagination"
)

// Sorting is the sort allow-list for charge lists.
var Sorting = pagination.NewSortSpec("id", "amount", "document_date", "payer_name", "status")

// Repository defines the interface for charge persistence.
type Repository interface {
	// Create inserts the charge. A duplicate document id is a conflict.
	Create(ctx context.Context, c *Charge) error
	GetByID(ctx context.Context, id shared.ID) (*Charge, error)

	// UpdateStatus stores the status and delivery date of c.
	UpdateStatus(ctx context.Context, c *Charge) error
	Delete(ctx context.Context, id shared.ID) error

	// List returns one page by offset.
	List(ctx context.Context, q shared.ListQuery) (pagination.Result[*Charge], error)

	// Scroll returns the rows after q.Cursor without counting the total.
	Scroll(ctx context.Context, q shared.ListQuery) (pagination.CursorResult[*Charge], error)
}

package cnap

import (
	"context"

	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/pagination"
)

// Sort allow-lists.
var (
	ServiceSorting = pagination.NewSortSpec("id", "name", "price", "identifier")
	AccountSorting = pagination.NewSortSpec("id", "amount", "created_at", "payer_name")
)

// ServiceRepository defines the interface for service persistence.
type ServiceRepository interface {
	// Create inserts the service. A duplicate identifier is a conflict.
	Create(ctx context.Context, s *Service) error
	GetByID(ctx context.Context, id shared.ID) (*Service, error)
	Update(ctx context.Context, s *Service) error

	// Delete fails with a conflict while accounts reference the service.
	Delete(ctx context.Context, id shared.ID) error
	List(ctx context.Context, q shared.ListQuery) (pagination.Result[*Service], error)
}

// AccountRepository defines the interface for account persistence.
type AccountRepository interface {
	// Create assigns the next account number of the service and inserts the
	// account in one transaction.
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id shared.ID) (*Account, error)
	Delete(ctx context.Context, id shared.ID) error
	List(ctx context.Context, q shared.ListQuery) (pagination.Result[*Account], error)
}

package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hromada/backoffice/pkg/domain/receipt"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/pagination"
	"github.com/hromada/backoffice/pkg/validator"
)

// ReceiptService handles tourist tax receipt business logic.
type ReceiptService struct {
	repo      receipt.Repository
	validator *validator.Validator
	audit     *SearchAuditor
	logger    *logger.Logger
}

// NewReceiptService creates a new receipt service.
func NewReceiptService(repo receipt.Repository, v *validator.Validator, audit *SearchAuditor, log *logger.Logger) *ReceiptService {
	return &ReceiptService{
		repo:      repo,
		validator: v,
		audit:     audit,
		logger:    log.With("service", "receipt"),
	}
}

// CreateReceiptInput represents input for creating a receipt.
type CreateReceiptInput struct {
	Identifier    string          `json:"identifier" validate:"required,max=50"`
	Name          string          `json:"name" validate:"required,max=255"`
	Counter       int             `json:"counter" validate:"required,min=1,max=1000"`
	Amount        decimal.Decimal `json:"amount" validate:"gte=0"`
	ArrivalDate   string          `json:"arrival_date" validate:"required,datetime=2006-01-02"`
	DepartureDate string          `json:"departure_date" validate:"required,datetime=2006-01-02"`
}

// Search lists one offset page of receipts.
func (s *ReceiptService) Search(ctx context.Context, q shared.ListQuery) (ListOutput[*receipt.Receipt], error) {
	result, err := s.repo.List(ctx, q)
	if err != nil {
		return ListOutput[*receipt.Receipt]{}, err
	}

	s.audit.Record(ctx, ModuleReceipts, q.Filters, result.TotalItems)
	return newListOutput(ModuleReceipts, result, q.Sort(receipt.Sorting)), nil
}

// Scroll lists the receipts after the query cursor.
func (s *ReceiptService) Scroll(ctx context.Context, q shared.ListQuery) (pagination.CursorResult[*receipt.Receipt], error) {
	result, err := s.repo.Scroll(ctx, q)
	if err != nil {
		return pagination.CursorResult[*receipt.Receipt]{}, err
	}

	s.audit.Record(ctx, ModuleReceipts, q.Filters, int64(len(result.Items)))
	return observeScroll(ModuleReceipts, result), nil
}

// Get retrieves a receipt by ID.
func (s *ReceiptService) Get(ctx context.Context, id shared.ID) (*receipt.Receipt, error) {
	return s.repo.GetByID(ctx, id)
}

// Create creates a new receipt.
func (s *ReceiptService) Create(ctx context.Context, input CreateReceiptInput) (*receipt.Receipt, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	arrival, err := parseDate("arrival_date", input.ArrivalDate)
	if err != nil {
		return nil, err
	}
	departure, err := parseDate("departure_date", input.DepartureDate)
	if err != nil {
		return nil, err
	}

	r, err := receipt.NewReceipt(receipt.NewReceiptParams{
		Identifier:    input.Identifier,
		Name:          input.Name,
		Counter:       input.Counter,
		Amount:        input.Amount,
		ArrivalDate:   arrival,
		DepartureDate: departure,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("receipt created", "id", r.ID, "nights", r.Nights())
	return r, nil
}

// Delete deletes a receipt.
func (s *ReceiptService) Delete(ctx context.Context, id shared.ID) error {
	return s.repo.Delete(ctx, id)
}

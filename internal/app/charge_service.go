package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hromada/backoffice/pkg/domain/charge"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/pagination"
	"github.com/hromada/backoffice/pkg/validator"
)

// ChargeService handles tax charge business logic.
type ChargeService struct {
	repo      charge.Repository
	validator *validator.Validator
	audit     *SearchAuditor
	logger    *logger.Logger
}

// NewChargeService creates a new charge service.
func NewChargeService(repo charge.Repository, v *validator.Validator, audit *SearchAuditor, log *logger.Logger) *ChargeService {
	return &ChargeService{
		repo:      repo,
		validator: v,
		audit:     audit,
		logger:    log.With("service", "charge"),
	}
}

// CreateChargeInput represents input for creating a charge.
type CreateChargeInput struct {
	TaxNumber     string          `json:"tax_number" validate:"required,tax_number"`
	PayerName     string          `json:"payer_name" validate:"required,max=255"`
	TaxClassifier string          `json:"tax_classifier" validate:"required,max=50"`
	AccountNumber string          `json:"account_number" validate:"max=50"`
	DocumentID    string          `json:"document_id" validate:"required,max=100"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	DocumentDate  string          `json:"document_date" validate:"required,datetime=2006-01-02"`
}

// ChangeChargeStatusInput represents input for changing a charge status.
type ChangeChargeStatusInput struct {
	Status string `json:"status" validate:"required,charge_status"`
	// At is the delivery date for the delivered status. It defaults to today.
	At string `json:"at" validate:"omitempty,datetime=2006-01-02"`
}

// Search lists one offset page of charges.
func (s *ChargeService) Search(ctx context.Context, q shared.ListQuery) (ListOutput[*charge.Charge], error) {
	result, err := s.repo.List(ctx, q)
	if err != nil {
		return ListOutput[*charge.Charge]{}, err
	}

	s.audit.Record(ctx, ModuleCharges, q.Filters, result.TotalItems)
	return newListOutput(ModuleCharges, result, q.Sort(charge.Sorting)), nil
}

// Scroll lists the charges after the query cursor.
func (s *ChargeService) Scroll(ctx context.Context, q shared.ListQuery) (pagination.CursorResult[*charge.Charge], error) {
	result, err := s.repo.Scroll(ctx, q)
	if err != nil {
		return pagination.CursorResult[*charge.Charge]{}, err
	}

	s.audit.Record(ctx, ModuleCharges, q.Filters, int64(len(result.Items)))
	return observeScroll(ModuleCharges, result), nil
}

// Get retrieves a charge by ID.
func (s *ChargeService) Get(ctx context.Context, id shared.ID) (*charge.Charge, error) {
	return s.repo.GetByID(ctx, id)
}

// Create creates a new charge.
func (s *ChargeService) Create(ctx context.Context, input CreateChargeInput) (*charge.Charge, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	documentDate, err := parseDate("document_date", input.DocumentDate)
	if err != nil {
		return nil, err
	}

	c, err := charge.NewCharge(charge.NewChargeParams{
		TaxNumber:     input.TaxNumber,
		PayerName:     input.PayerName,
		TaxClassifier: input.TaxClassifier,
		AccountNumber: input.AccountNumber,
		DocumentID:    input.DocumentID,
		Amount:        input.Amount,
		DocumentDate:  documentDate,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("charge created", "id", c.ID, "document_id", c.DocumentID)
	return c, nil
}

// ChangeStatus moves a charge to a new status.
func (s *ChargeService) ChangeStatus(ctx context.Context, id shared.ID, input ChangeChargeStatusInput) (*charge.Charge, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	status, err := charge.ParseStatus(input.Status)
	if err != nil {
		return nil, err
	}

	at := time.Now().UTC()
	if input.At != "" {
		if at, err = parseDate("at", input.At); err != nil {
			return nil, err
		}
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := c.Status
	if err := c.ChangeStatus(status, at); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, c); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("charge status changed", "id", c.ID, "from", from, "to", c.Status)
	return c, nil
}

// Delete deletes a charge.
func (s *ChargeService) Delete(ctx context.Context, id shared.ID) error {
	return s.repo.Delete(ctx, id)
}

package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hromada/backoffice/pkg/domain/debtor"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/validator"
)

// DebtorService handles debtor business logic.
type DebtorService struct {
	repo      debtor.Repository
	validator *validator.Validator
	audit     *SearchAuditor
	logger    *logger.Logger
}

// NewDebtorService creates a new debtor service.
func NewDebtorService(repo debtor.Repository, v *validator.Validator, audit *SearchAuditor, log *logger.Logger) *DebtorService {
	return &DebtorService{
		repo:      repo,
		validator: v,
		audit:     audit,
		logger:    log.With("service", "debtor"),
	}
}

// DebtorInput represents input for creating or updating a debtor.
type DebtorInput struct {
	Name               string          `json:"name" validate:"required,max=255"`
	TaxNumber          string          `json:"tax_number" validate:"required,tax_number"`
	ResidentialDebt    decimal.Decimal `json:"residential_debt" validate:"gte=0"`
	NonResidentialDebt decimal.Decimal `json:"non_residential_debt" validate:"gte=0"`
	LandDebt           decimal.Decimal `json:"land_debt" validate:"gte=0"`
	RentDebt           decimal.Decimal `json:"rent_debt" validate:"gte=0"`
	ReportedAt         string          `json:"reported_at" validate:"required,datetime=2006-01-02"`
}

func (in DebtorInput) debts() debtor.Debts {
	return debtor.Debts{
		Residential:    in.ResidentialDebt,
		NonResidential: in.NonResidentialDebt,
		Land:           in.LandDebt,
		Rent:           in.RentDebt,
	}
}

// Search lists debtors matching the query filters.
func (s *DebtorService) Search(ctx context.Context, q shared.ListQuery) (ListOutput[*debtor.Debtor], error) {
	result, err := s.repo.List(ctx, q)
	if err != nil {
		return ListOutput[*debtor.Debtor]{}, err
	}

	s.audit.Record(ctx, ModuleDebtors, q.Filters, result.TotalItems)
	return newListOutput(ModuleDebtors, result, q.Sort(debtor.Sorting)), nil
}

// Get retrieves a debtor by ID.
func (s *DebtorService) Get(ctx context.Context, id shared.ID) (*debtor.Debtor, error) {
	return s.repo.GetByID(ctx, id)
}

// Create creates a new debtor.
func (s *DebtorService) Create(ctx context.Context, input DebtorInput) (*debtor.Debtor, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	reportedAt, err := parseDate("reported_at", input.ReportedAt)
	if err != nil {
		return nil, err
	}

	d, err := debtor.NewDebtor(input.Name, input.TaxNumber, input.debts(), reportedAt)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("debtor created", "id", d.ID)
	return d, nil
}

// Update updates a debtor. The tax number cannot change.
func (s *DebtorService) Update(ctx context.Context, id shared.ID, input DebtorInput) (*debtor.Debtor, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	reportedAt, err := parseDate("reported_at", input.ReportedAt)
	if err != nil {
		return nil, err
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.TaxNumber != d.TaxNumber {
		return nil, shared.Validation("tax_number", "tax_number cannot be changed")
	}

	if err := d.Update(input.Name, input.debts(), reportedAt); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete deletes a debtor.
func (s *DebtorService) Delete(ctx context.Context, id shared.ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithContext(ctx).Info("debtor deleted", "id", id)
	return nil
}

package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hromada/backoffice/internal/metrics"
	"github.com/hromada/backoffice/pkg/domain/cnap"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/pagination"
	"github.com/hromada/backoffice/pkg/validator"
)

// CNAPService handles the citizen service center catalogue and the payment
// accounts issued for it.
type CNAPService struct {
	services  cnap.ServiceRepository
	accounts  cnap.AccountRepository
	validator *validator.Validator
	audit     *SearchAuditor
	logger    *logger.Logger
}

// NewCNAPService creates a new CNAP service.
func NewCNAPService(
	services cnap.ServiceRepository,
	accounts cnap.AccountRepository,
	v *validator.Validator,
	audit *SearchAuditor,
	log *logger.Logger,
) *CNAPService {
	return &CNAPService{
		services:  services,
		accounts:  accounts,
		validator: v,
		audit:     audit,
		logger:    log.With("service", "cnap"),
	}
}

// ServiceInput represents input for creating or updating a CNAP service.
type ServiceInput struct {
	Identifier string          `json:"identifier" validate:"required,max=50"`
	Name       string          `json:"name" validate:"required,max=500"`
	Price      decimal.Decimal `json:"price" validate:"gte=0"`
	EDRPOU     string          `json:"edrpou" validate:"required,edrpou"`
	IBAN       string          `json:"iban" validate:"required,iban_ua"`
	// Enabled defaults to true.
	Enabled *bool `json:"enabled"`
}

func (in ServiceInput) params() cnap.ServiceParams {
	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	return cnap.ServiceParams{
		Identifier: in.Identifier,
		Name:       in.Name,
		Price:      in.Price,
		EDRPOU:     in.EDRPOU,
		IBAN:       in.IBAN,
		Enabled:    enabled,
	}
}

// CreateAccountInput represents input for issuing an account.
type CreateAccountInput struct {
	ServiceID shared.ID `json:"service_id" validate:"required,gt=0"`
	PayerName string    `json:"payer_name" validate:"required,max=255"`
	// Amount defaults to the service price.
	Amount *decimal.Decimal `json:"amount"`
}

// SearchServices lists services in the aggregate {data, count} shape.
func (s *CNAPService) SearchServices(ctx context.Context, q shared.ListQuery) (pagination.Counted[*cnap.Service], error) {
	result, err := s.services.List(ctx, q)
	if err != nil {
		return pagination.Counted[*cnap.Service]{}, err
	}

	s.audit.Record(ctx, ModuleCNAPServices, q.Filters, result.TotalItems)
	metrics.ObserveList(ModuleCNAPServices, modeOffset, len(result.Items))
	return pagination.ToCounted(result), nil
}

// GetService retrieves a service by ID.
func (s *CNAPService) GetService(ctx context.Context, id shared.ID) (*cnap.Service, error) {
	return s.services.GetByID(ctx, id)
}

// CreateService creates a new service.
func (s *CNAPService) CreateService(ctx context.Context, input ServiceInput) (*cnap.Service, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	svc, err := cnap.NewService(input.params())
	if err != nil {
		return nil, err
	}

	if err := s.services.Create(ctx, svc); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("cnap service created", "id", svc.ID, "identifier", svc.Identifier)
	return svc, nil
}

// UpdateService updates a service.
func (s *CNAPService) UpdateService(ctx context.Context, id shared.ID, input ServiceInput) (*cnap.Service, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := svc.Update(input.params()); err != nil {
		return nil, err
	}

	if err := s.services.Update(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// DeleteService deletes a service without issued accounts.
func (s *CNAPService) DeleteService(ctx context.Context, id shared.ID) error {
	return s.services.Delete(ctx, id)
}

// SearchAccounts lists one offset page of accounts.
func (s *CNAPService) SearchAccounts(ctx context.Context, q shared.ListQuery) (ListOutput[*cnap.Account], error) {
	result, err := s.accounts.List(ctx, q)
	if err != nil {
		return ListOutput[*cnap.Account]{}, err
	}

	s.audit.Record(ctx, ModuleCNAPAccounts, q.Filters, result.TotalItems)
	return newListOutput(ModuleCNAPAccounts, result, q.Sort(cnap.AccountSorting)), nil
}

// GetAccount retrieves an account by ID.
func (s *CNAPService) GetAccount(ctx context.Context, id shared.ID) (*cnap.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// CreateAccount issues a payment account for a service.
func (s *CNAPService) CreateAccount(ctx context.Context, input CreateAccountInput) (*cnap.Account, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	svc, err := s.services.GetByID(ctx, input.ServiceID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.Validation("service_id", fmt.Sprintf("service %d does not exist", input.ServiceID))
		}
		return nil, err
	}

	account, err := cnap.NewAccount(svc, input.PayerName, input.Amount)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("cnap account issued",
		"id", account.ID,
		"service_id", svc.ID,
		"account_number", account.AccountNumber,
	)
	return account, nil
}

// DeleteAccount deletes an account.
func (s *CNAPService) DeleteAccount(ctx context.Context, id shared.ID) error {
	return s.accounts.Delete(ctx, id)
}

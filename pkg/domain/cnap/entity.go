// Package cnap defines the paid administrative services of the citizen
// service center and the payment accounts issued for them.
package cnap

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hromada/backoffice/pkg/domain/shared"
)

// Service is a paid administrative service.
type Service struct {
	ID         shared.ID
	Identifier string
	Name       string
	Price      decimal.Decimal
	// EDRPOU and IBAN identify the recipient of payments.
	EDRPOU  string
	IBAN    string
	Enabled bool
	// IssuedCount is the number of accounts issued for the service. It is
	// the sequence behind account numbers.
	IssuedCount int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ServiceParams holds the editable fields of a service.
type ServiceParams struct {
	Identifier string
	Name       string
	Price      decimal.Decimal
	EDRPOU     string
	IBAN       string
	Enabled    bool
}

// NewService creates a validated service.
func NewService(p ServiceParams) (*Service, error) {
	now := time.Now().UTC()
	s := &Service{CreatedAt: now}
	if err := s.apply(p, now); err != nil {
		return nil, err
	}
	return s, nil
}

// Update replaces the editable fields.
func (s *Service) Update(p ServiceParams) error {
	return s.apply(p, time.Now().UTC())
}

func (s *Service) apply(p ServiceParams, now time.Time) error {
	s.Identifier = strings.TrimSpace(p.Identifier)
	s.Name = strings.TrimSpace(p.Name)
	s.Price = p.Price
	s.EDRPOU = strings.TrimSpace(p.EDRPOU)
	s.IBAN = shared.NormalizeIBAN(p.IBAN)
	s.Enabled = p.Enabled
	s.UpdatedAt = now
	return s.Validate()
}

// Validate validates the service data.
func (s *Service) Validate() error {
	switch {
	case s.Identifier == "":
		return shared.Validation("identifier", "identifier is required")
	case s.Name == "":
		return shared.Validation("name", "name is required")
	case s.Price.IsNegative():
		return shared.Validation("price", "price must not be negative")
	case !shared.IsEDRPOU(s.EDRPOU):
		return shared.Validation("edrpou", "edrpou must have 8 digits")
	case !shared.IsIBANUA(s.IBAN):
		return shared.Validation("iban", "iban is not a valid Ukrainian IBAN")
	}
	return nil
}

// AccountStatus is the payment state of an account.
type AccountStatus string

const (
	AccountPending   AccountStatus = "pending"
	AccountPaid      AccountStatus = "paid"
	AccountCancelled AccountStatus = "cancelled"
)

// ParseAccountStatus parses an account status string.
func ParseAccountStatus(s string) (AccountStatus, error) {
	switch st := AccountStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case AccountPending, AccountPaid, AccountCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown account status %q", shared.ErrValidation, s)
	}
}

// Account is a payment account issued to a citizen for a service.
type Account struct {
	ID        shared.ID
	ServiceID shared.ID
	// AccountNumber is assigned when the account is stored.
	AccountNumber string
	PayerName     string
	Amount        decimal.Decimal
	Status        AccountStatus
	CreatedAt     time.Time
}

// NewAccount creates a pending account for the given service. The amount
// defaults to the service price.
func NewAccount(svc *Service, payerName string, amount *decimal.Decimal) (*Account, error) {
	if !svc.Enabled {
		return nil, shared.Validation("service_id", fmt.Sprintf("service %q is disabled", svc.Identifier))
	}
	a := &Account{
		ServiceID: svc.ID,
		PayerName: strings.TrimSpace(payerName),
		Amount:    svc.Price,
		Status:    AccountPending,
		CreatedAt: time.Now().UTC(),
	}
	if amount != nil {
		a.Amount = *amount
	}
	if a.PayerName == "" {
		return nil, shared.Validation("payer_name", "payer_name is required")
	}
	if !a.Amount.IsPositive() {
		return nil, shared.Validation("amount", "amount must be positive")
	}
	return a, nil
}

// AccountNumber formats the account number for the n-th account of a
// service, e.g. "DOV-01/000042".
func AccountNumber(serviceIdentifier string, n int64) string {
	return fmt.Sprintf("%s/%06d", serviceIdentifier, n)
}

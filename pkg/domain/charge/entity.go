// Package charge defines tax charges (tax notices) issued to payers.
package charge

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hromada/backoffice/pkg/domain/shared"
)

// Status is the delivery and payment state of a charge.
type Status string

const (
	StatusNew       Status = "new"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusNew, StatusSent, StatusDelivered, StatusPaid, StatusCancelled}
}

// ParseStatus parses a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllStatuses() {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown charge status %q", shared.ErrValidation, s)
}

// IsFinal reports whether the status can no longer change.
func (s Status) IsFinal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Charge is a tax notice for one payer and one tax classifier.
type Charge struct {
	ID            shared.ID
	TaxNumber     string
	PayerName     string
	TaxClassifier string
	AccountNumber string
	// DocumentID is the number of the tax notice, unique across charges.
	DocumentID   string
	Amount       decimal.Decimal
	DocumentDate time.Time
	DeliveryDate *time.Time
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewChargeParams holds the data of a new charge.
type NewChargeParams struct {
	TaxNumber     string
	PayerName     string
	TaxClassifier string
	AccountNumber string
	DocumentID    string
	Amount        decimal.Decimal
	DocumentDate  time.Time
}

// NewCharge creates a validated charge in the "new" status.
func NewCharge(p NewChargeParams) (*Charge, error) {
	now := time.Now().UTC()
	c := &Charge{
		TaxNumber:     strings.TrimSpace(p.TaxNumber),
		PayerName:     strings.TrimSpace(p.PayerName),
		TaxClassifier: strings.TrimSpace(p.TaxClassifier),
		AccountNumber: strings.TrimSpace(p.AccountNumber),
		DocumentID:    strings.TrimSpace(p.DocumentID),
		Amount:        p.Amount,
		DocumentDate:  p.DocumentDate,
		Status:        StatusNew,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate validates the charge data.
func (c *Charge) Validate() error {
	switch {
	case !shared.IsTaxNumber(c.TaxNumber):
		return shared.Validation("tax_number", "tax number must have 8 or 10 digits")
	case c.PayerName == "":
		return shared.Validation("payer_name", "payer_name is required")
	case c.TaxClassifier == "":
		return shared.Validation("tax_classifier", "tax_classifier is required")
	case c.DocumentID == "":
		return shared.Validation("document_id", "document_id is required")
	case !c.Amount.IsPositive():
		return shared.Validation("amount", "amount must be positive")
	case c.DocumentDate.IsZero():
		return shared.Validation("document_date", "document_date is required")
	}
	return nil
}

// ChangeStatus moves the charge to a new status. Paid and cancelled charges
// are final. Delivered charges record the delivery date.
func (c *Charge) ChangeStatus(to Status, at time.Time) error {
	if c.Status.IsFinal() {
		return shared.Validation("status", fmt.Sprintf("charge is already %s", c.Status))
	}
	if to == StatusDelivered {
		d := at.UTC()
		c.DeliveryDate = &d
	}
	c.Status = to
	c.UpdatedAt = time.Now().UTC()
	return nil
}

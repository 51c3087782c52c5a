// Package receipt defines tourist tax receipts issued to hotel guests.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hromada/backoffice/pkg/domain/shared"
)

// Status of a receipt.
type Status string

const (
	StatusIssued    Status = "issued"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// ParseStatus parses a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusIssued, StatusPaid, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown receipt status %q", shared.ErrValidation, s)
	}
}

// Receipt records the tourist tax paid for one stay.
type Receipt struct {
	ID shared.ID
	// Identifier is the printed receipt number.
	Identifier string
	Name       string
	// Counter is the number of guests covered by the receipt.
	Counter       int
	Amount        decimal.Decimal
	ArrivalDate   time.Time
	DepartureDate time.Time
	Status        Status
	CreatedAt     time.Time
}

// NewReceiptParams holds the data of a new receipt.
type NewReceiptParams struct {
	Identifier    string
	Name          string
	Counter       int
	Amount        decimal.Decimal
	ArrivalDate   time.Time
	DepartureDate time.Time
}

// NewReceipt creates a validated receipt in the "issued" status.
func NewReceipt(p NewReceiptParams) (*Receipt, error) {
	r := &Receipt{
		Identifier:    strings.TrimSpace(p.Identifier),
		Name:          strings.TrimSpace(p.Name),
		Counter:       p.Counter,
		Amount:        p.Amount,
		ArrivalDate:   p.ArrivalDate,
		DepartureDate: p.DepartureDate,
		Status:        StatusIssued,
		CreatedAt:     time.Now().UTC(),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Nights returns the length of the stay in nights.
func (r *Receipt) Nights() int {
	return int(r.DepartureDate.Sub(r.ArrivalDate).Hours() / 24)
}

// Validate validates the receipt data.
func (r *Receipt) Validate() error {
	switch {
	case r.Identifier == "":
		return shared.Validation("identifier", "identifier is required")
	case r.Name == "":
		return shared.Validation("name", "name is required")
	case r.Counter < 1:
		return shared.Validation("counter", "counter must be at least 1")
	case r.Amount.IsNegative():
		return shared.Validation("amount", "amount must not be negative")
	case r.ArrivalDate.IsZero():
		return shared.Validation("arrival_date", "arrival_date is required")
	case r.DepartureDate.Before(r.ArrivalDate):
		return shared.Validation("departure_date", "departure_date must not be before arrival_date")
	}
	return nil
}

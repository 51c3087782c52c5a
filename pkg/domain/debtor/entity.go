// Package debtor defines taxpayers with outstanding local tax debts.
package debtor

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hromada/backoffice/pkg/domain/shared"
)

// Debts holds the debt of one taxpayer by tax type.
type Debts struct {
	Residential    decimal.Decimal
	NonResidential decimal.Decimal
	Land           decimal.Decimal
	Rent           decimal.Decimal
}

// Total returns the sum of all debts.
func (d Debts) Total() decimal.Decimal {
	return d.Residential.Add(d.NonResidential).Add(d.Land).Add(d.Rent)
}

func (d Debts) validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"residential_debt", d.Residential},
		{"non_residential_debt", d.NonResidential},
		{"land_debt", d.Land},
		{"rent_debt", d.Rent},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return shared.Validation(f.name, f.name+" must not be negative")
		}
	}
	return nil
}

// Debtor is a taxpayer listed in the debtors register.
type Debtor struct {
	ID        shared.ID
	Name      string
	TaxNumber string
	Debts     Debts
	TotalDebt decimal.Decimal

	// ReportedAt is the date of the tax office report the debt comes from.
	ReportedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDebtor creates a validated debtor.
func NewDebtor(name, taxNumber string, debts Debts, reportedAt time.Time) (*Debtor, error) {
	now := time.Now().UTC()
	d := &Debtor{
		Name:       strings.TrimSpace(name),
		TaxNumber:  strings.TrimSpace(taxNumber),
		Debts:      debts,
		TotalDebt:  debts.Total(),
		ReportedAt: reportedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Update replaces the mutable fields. The tax number never changes.
func (d *Debtor) Update(name string, debts Debts, reportedAt time.Time) error {
	d.Name = strings.TrimSpace(name)
	d.Debts = debts
	d.TotalDebt = debts.Total()
	d.ReportedAt = reportedAt
	d.UpdatedAt = time.Now().UTC()
	return d.Validate()
}

// Validate validates the debtor data.
func (d *Debtor) Validate() error {
	if d.Name == "" {
		return shared.Validation("name", "name is required")
	}
	if len(d.Name) > 255 {
		return shared.Validation("name", "name must be at most 255 characters")
	}
	if !shared.IsTaxNumber(d.TaxNumber) {
		return shared.Validation("tax_number", fmt.Sprintf("tax number %q must have 8 or 10 digits", d.TaxNumber))
	}
	if d.ReportedAt.IsZero() {
		return shared.Validation("reported_at", "reported_at is required")
	}
	return d.Debts.validate()
}

package debtor

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hromada/backoffice/pkg/domain/shared"
)

var reported = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestNewDebtor(t *testing.T) {
	d, err := NewDebtor("  ТОВ Ромашка ", "12345678", Debts{
		Residential: decimal.RequireFromString("100.50"),
		Land:        decimal.RequireFromString("20"),
	}, reported)
	require.NoError(t, err)

	assert.Equal(t, "ТОВ Ромашка", d.Name)
	assert.True(t, d.TotalDebt.Equal(decimal.RequireFromString("120.50")))
}

func TestNewDebtor_Validation(t *testing.T) {
	tests := []struct {
		name      string
		debtor    string
		taxNumber string
		debts     Debts
		at        time.Time
		field     string
	}{
		{"missing name", "", "1234567890", Debts{}, reported, "name"},
		{"bad tax number", "Петренко", "123", Debts{}, reported, "tax_number"},
		{"missing date", "Петренко", "1234567890", Debts{}, time.Time{}, "reported_at"},
		{"negative debt", "Петренко", "1234567890", Debts{Rent: decimal.NewFromInt(-1)}, reported, "rent_debt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDebtor(tt.debtor, tt.taxNumber, tt.debts, tt.at)
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))

			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.field, de.Fields["field"])
		})
	}
}

func TestDebtor_Update(t *testing.T) {
	d, err := NewDebtor("Петренко", "1234567890", Debts{}, reported)
	require.NoError(t, err)

	err = d.Update("Петренко І.", Debts{NonResidential: decimal.NewFromInt(5)}, reported.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, "1234567890", d.TaxNumber)
	assert.True(t, d.TotalDebt.Equal(decimal.NewFromInt(5)))
}

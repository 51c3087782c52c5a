package receipt

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hromada/backoffice/pkg/domain/shared"
)

func TestNewReceipt(t *testing.T) {
	arrival := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	r, err := NewReceipt(NewReceiptParams{
		Identifier:    "TR-000123",
		Name:          "Іваненко Іван",
		Counter:       2,
		Amount:        decimal.RequireFromString("96.00"),
		ArrivalDate:   arrival,
		DepartureDate: arrival.AddDate(0, 0, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, r.Status)
	assert.Equal(t, 3, r.Nights())
}

func TestNewReceipt_Validation(t *testing.T) {
	arrival := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	base := NewReceiptParams{
		Identifier:    "TR-1",
		Name:          "Guest",
		Counter:       1,
		Amount:        decimal.NewFromInt(10),
		ArrivalDate:   arrival,
		DepartureDate: arrival.AddDate(0, 0, 1),
	}

	tests := []struct {
		name   string
		modify func(p *NewReceiptParams)
		field  string
	}{
		{"no identifier", func(p *NewReceiptParams) { p.Identifier = "" }, "identifier"},
		{"no name", func(p *NewReceiptParams) { p.Name = "" }, "name"},
		{"no guests", func(p *NewReceiptParams) { p.Counter = 0 }, "counter"},
		{"negative amount", func(p *NewReceiptParams) { p.Amount = decimal.NewFromInt(-1) }, "amount"},
		{"departure before arrival", func(p *NewReceiptParams) { p.DepartureDate = arrival.AddDate(0, 0, -1) }, "departure_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.modify(&p)
			_, err := NewReceipt(p)

			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.field, de.Fields["field"])
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("Paid")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, s)

	_, err = ParseStatus("refunded")
	assert.Error(t, err)
}

package validator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hromada/backoffice/pkg/domain/shared"
)

func TestNew(t *testing.T) {
	v := New()
	if v == nil || v.validate == nil {
		t.Fatal("expected validator to be initialized")
	}
}

func TestValidate_RequiredField(t *testing.T) {
	v := New()

	type TestStruct struct {
		Name string `json:"payer_name" validate:"required"`
	}

	err := v.Validate(TestStruct{})
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "payer_name", verrs[0].Field)
	assert.Equal(t, "is required", verrs[0].Message)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	assert.NoError(t, v.Validate(TestStruct{Name: "Петренко"}))
}

func TestValidate_CustomTags(t *testing.T) {
	v := New()

	type TestStruct struct {
		TaxNumber string `json:"tax_number" validate:"omitempty,tax_number"`
		EDRPOU    string `json:"edrpou" validate:"omitempty,edrpou"`
		IBAN      string `json:"iban" validate:"omitempty,iban_ua"`
		Direction string `json:"sort_direction" validate:"omitempty,sort_direction"`
		Charge    string `json:"charge_status" validate:"omitempty,charge_status"`
		Receipt   string `json:"receipt_status" validate:"omitempty,receipt_status"`
		Account   string `json:"account_status" validate:"omitempty,account_status"`
		Registry  string `json:"registry_status" validate:"omitempty,registry_status"`
	}

	tests := []struct {
		name    string
		input   TestStruct
		wantErr string
	}{
		{name: "empty passes", input: TestStruct{}},
		{name: "valid tax number", input: TestStruct{TaxNumber: "1234567890"}},
		{name: "invalid tax number", input: TestStruct{TaxNumber: "12345"}, wantErr: "tax_number"},
		{name: "invalid edrpou", input: TestStruct{EDRPOU: "1234567890"}, wantErr: "edrpou"},
		{name: "valid iban", input: TestStruct{IBAN: "UA213223130000026007233566001"}},
		{name: "invalid iban", input: TestStruct{IBAN: "UA00"}, wantErr: "iban"},
		{name: "direction upper", input: TestStruct{Direction: "DESC"}},
		{name: "invalid direction", input: TestStruct{Direction: "down"}, wantErr: "sort_direction"},
		{name: "valid charge status", input: TestStruct{Charge: "paid"}},
		{name: "invalid charge status", input: TestStruct{Charge: "lost"}, wantErr: "charge_status"},
		{name: "invalid receipt status", input: TestStruct{Receipt: "void"}, wantErr: "receipt_status"},
		{name: "invalid account status", input: TestStruct{Account: "void"}, wantErr: "account_status"},
		{name: "valid registry status", input: TestStruct{Registry: "published"}},
		{name: "invalid registry status", input: TestStruct{Registry: "hidden"}, wantErr: "registry_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.wantErr, verrs[0].Field)
			assert.Contains(t, verrs[0].Message, "must be")
		})
	}
}

func TestValidate_Decimal(t *testing.T) {
	v := New()

	type TestStruct struct {
		Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	}

	assert.NoError(t, v.Validate(TestStruct{Amount: decimal.RequireFromString("0.01")}))

	err := v.Validate(TestStruct{Amount: decimal.Zero})
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "amount", verrs[0].Field)
	assert.Equal(t, "must be greater than 0", verrs[0].Message)
}

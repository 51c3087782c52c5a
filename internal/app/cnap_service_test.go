package app

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hromada/backoffice/pkg/domain/cnap"
	"github.com/hromada/backoffice/pkg/domain/shared"
)

func newTestCNAPService() (*CNAPService, *mockCNAPServiceRepository, *mockCNAPAccountRepository) {
	v, log := testDeps()
	services := newMockCNAPServiceRepository()
	accounts := newMockCNAPAccountRepository(services)
	return NewCNAPService(services, accounts, v, nil, log), services, accounts
}

func validServiceInput() ServiceInput {
	return ServiceInput{
		Identifier: "DOV-01",
		Name:       "Видача довідки про склад сім'ї",
		Price:      decimal.RequireFromString("85.00"),
		EDRPOU:     "04054866",
		IBAN:       "ua21 3223 1300 0002 6007 2335 6600 1",
	}
}

func TestCNAPService_CreateService(t *testing.T) {
	svc, _, _ := newTestCNAPService()

	s, err := svc.CreateService(context.Background(), validServiceInput())
	require.NoError(t, err)

	assert.True(t, s.Enabled)
	assert.Equal(t, testIBAN, s.IBAN)
}

func TestCNAPService_CreateService_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServiceInput)
	}{
		{"bad edrpou", func(in *ServiceInput) { in.EDRPOU = "123" }},
		{"bad iban checksum", func(in *ServiceInput) { in.IBAN = "UA213223130000026007233566002" }},
		{"negative price", func(in *ServiceInput) { in.Price = decimal.NewFromInt(-5) }},
		{"missing identifier", func(in *ServiceInput) { in.Identifier = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestCNAPService()
			in := validServiceInput()
			tt.mutate(&in)

			_, err := svc.CreateService(context.Background(), in)
			assert.True(t, shared.IsValidation(err))
			assert.Empty(t, repo.services)
		})
	}
}

func TestCNAPService_SearchServices_CountedShape(t *testing.T) {
	svc, _, _ := newTestCNAPService()
	ctx := context.Background()

	_, err := svc.CreateService(ctx, validServiceInput())
	require.NoError(t, err)

	out, err := svc.SearchServices(ctx, shared.NewListQuery(nil))
	require.NoError(t, err)
	assert.Len(t, out.Data, 1)
	assert.Equal(t, int64(1), out.Count)
}

func TestCNAPService_CreateAccount(t *testing.T) {
	svc, _, _ := newTestCNAPService()
	ctx := context.Background()

	s, err := svc.CreateService(ctx, validServiceInput())
	require.NoError(t, err)

	first, err := svc.CreateAccount(ctx, CreateAccountInput{ServiceID: s.ID, PayerName: "Бондар Марія"})
	require.NoError(t, err)
	assert.Equal(t, "DOV-01/000001", first.AccountNumber)
	assert.Equal(t, "85", first.Amount.String())
	assert.Equal(t, cnap.AccountPending, first.Status)

	amount := decimal.NewFromInt(170)
	second, err := svc.CreateAccount(ctx, CreateAccountInput{ServiceID: s.ID, PayerName: "Бондар Марія", Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "DOV-01/000002", second.AccountNumber)
	assert.Equal(t, "170", second.Amount.String())
}

func TestCNAPService_CreateAccount_UnknownService(t *testing.T) {
	svc, _, accounts := newTestCNAPService()

	_, err := svc.CreateAccount(context.Background(), CreateAccountInput{ServiceID: 7, PayerName: "Бондар Марія"})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	assert.Equal(t, "service 7 does not exist", shared.MessageOf(err))
	assert.Empty(t, accounts.accounts)
}

func TestCNAPService_CreateAccount_DisabledService(t *testing.T) {
	svc, _, _ := newTestCNAPService()
	ctx := context.Background()

	in := validServiceInput()
	disabled := false
	in.Enabled = &disabled

	s, err := svc.CreateService(ctx, in)
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, CreateAccountInput{ServiceID: s.ID, PayerName: "Бондар Марія"})
	assert.True(t, shared.IsValidation(err))
}

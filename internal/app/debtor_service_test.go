package app

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/filter"
	"github.com/hromada/backoffice/pkg/logger"
)

func newTestDebtorService(recorder *recordingRecorder) (*DebtorService, *mockDebtorRepository) {
	v, log := testDeps()
	repo := newMockDebtorRepository()
	var audit *SearchAuditor
	if recorder != nil {
		audit = NewSearchAuditor(recorder, log)
	}
	return NewDebtorService(repo, v, audit, log), repo
}

func validDebtorInput() DebtorInput {
	return DebtorInput{
		Name:            "Петренко Іван",
		TaxNumber:       "1234567890",
		ResidentialDebt: decimal.NewFromInt(1200),
		LandDebt:        decimal.RequireFromString("300.50"),
		ReportedAt:      "2024-03-01",
	}
}

func TestDebtorService_Create(t *testing.T) {
	svc, repo := newTestDebtorService(nil)

	d, err := svc.Create(context.Background(), validDebtorInput())
	require.NoError(t, err)

	assert.Equal(t, shared.ID(1), d.ID)
	assert.Equal(t, "1500.5", d.TotalDebt.String())
	assert.Equal(t, "2024-03-01", d.ReportedAt.Format(dateLayout))
	assert.Len(t, repo.debtors, 1)
}

func TestDebtorService_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DebtorInput)
	}{
		{"missing name", func(in *DebtorInput) { in.Name = "" }},
		{"bad tax number", func(in *DebtorInput) { in.TaxNumber = "12345" }},
		{"negative debt", func(in *DebtorInput) { in.RentDebt = decimal.NewFromInt(-1) }},
		{"bad date", func(in *DebtorInput) { in.ReportedAt = "01.03.2024" }},
		{"missing date", func(in *DebtorInput) { in.ReportedAt = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestDebtorService(nil)
			in := validDebtorInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, shared.KindValidation, shared.KindOf(err))
			assert.Empty(t, repo.debtors)
		})
	}
}

func TestDebtorService_Create_Duplicate(t *testing.T) {
	svc, _ := newTestDebtorService(nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, validDebtorInput())
	require.NoError(t, err)

	_, err = svc.Create(ctx, validDebtorInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestDebtorService_Update(t *testing.T) {
	svc, _ := newTestDebtorService(nil)
	ctx := context.Background()

	d, err := svc.Create(ctx, validDebtorInput())
	require.NoError(t, err)

	in := validDebtorInput()
	in.Name = "Петренко Іван Петрович"
	in.LandDebt = decimal.Zero

	updated, err := svc.Update(ctx, d.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Петренко Іван Петрович", updated.Name)
	assert.Equal(t, "1200", updated.TotalDebt.String())
}

func TestDebtorService_Update_TaxNumberIsImmutable(t *testing.T) {
	svc, _ := newTestDebtorService(nil)
	ctx := context.Background()

	d, err := svc.Create(ctx, validDebtorInput())
	require.NoError(t, err)

	in := validDebtorInput()
	in.TaxNumber = "0987654321"

	_, err = svc.Update(ctx, d.ID, in)
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestDebtorService_Update_NotFound(t *testing.T) {
	svc, _ := newTestDebtorService(nil)

	_, err := svc.Update(context.Background(), 42, validDebtorInput())
	assert.True(t, shared.IsNotFound(err))
}

func TestDebtorService_Search_RecordsAudit(t *testing.T) {
	recorder := &recordingRecorder{}
	svc, _ := newTestDebtorService(recorder)

	ctx := context.WithValue(context.Background(), logger.ContextKeyRequestID, "req-1")
	ctx = context.WithValue(ctx, logger.ContextKeyClientIP, "10.0.0.7")

	_, err := svc.Create(ctx, validDebtorInput())
	require.NoError(t, err)

	q := shared.NewListQuery(filter.Spec{
		{Key: "name", Value: "Петренко"},
		{Key: "tax_number", Value: ""},
		{Key: "page", Value: 1},
		{Key: "sort_by", Value: "total_debt"},
	})

	out, err := svc.Search(ctx, q)
	require.NoError(t, err)

	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(1), out.TotalItems)
	assert.Equal(t, "total_debt", out.SortBy)
	assert.Equal(t, "desc", out.SortDirection)

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, ModuleDebtors, entry.Module)
	assert.JSONEq(t, `{"name":"Петренко"}`, string(entry.Filters))
	assert.Equal(t, int64(1), entry.ResultCount)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, "10.0.0.7", entry.ClientIP)
}

func TestDebtorService_Search_AuditFailureIsIgnored(t *testing.T) {
	svc, _ := newTestDebtorService(&recordingRecorder{err: errBoom})

	out, err := svc.Search(context.Background(), shared.NewListQuery(nil))
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, 16, out.PageSize)
}

func TestDebtorService_Delete(t *testing.T) {
	svc, repo := newTestDebtorService(nil)
	ctx := context.Background()

	d, err := svc.Create(ctx, validDebtorInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, d.ID))
	assert.Empty(t, repo.debtors)
	assert.True(t, shared.IsNotFound(svc.Delete(ctx, d.ID)))
}

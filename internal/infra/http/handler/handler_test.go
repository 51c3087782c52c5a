package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hromada/backoffice/internal/app"
	"github.com/hromada/backoffice/internal/infra/http/middleware"
	"github.com/hromada/backoffice/pkg/domain/charge"
	"github.com/hromada/backoffice/pkg/domain/cnap"
	"github.com/hromada/backoffice/pkg/domain/debtor"
	"github.com/hromada/backoffice/pkg/domain/registry"
	"github.com/hromada/backoffice/pkg/domain/searchlog"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/pagination"
)

var errBoom = errors.New("connection reset by peer")

// serve routes req through a chi router so that path parameters resolve.
func serve(t *testing.T, method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Method(method, pattern, h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// --- debtors ---------------------------------------------------------------

type fakeDebtorService struct {
	lastQuery shared.ListQuery
	lastInput app.DebtorInput
	items     []*debtor.Debtor
	err       error
}

func (f *fakeDebtorService) Search(_ context.Context, q shared.ListQuery) (app.ListOutput[*debtor.Debtor], error) {
	f.lastQuery = q
	if f.err != nil {
		return app.ListOutput[*debtor.Debtor]{}, f.err
	}
	s := q.Sort(debtor.Sorting)
	return app.ListOutput[*debtor.Debtor]{
		Result:        pagination.NewResult(f.items, int64(len(f.items)), q.Page),
		SortBy:        s.Field,
		SortDirection: string(s.Direction),
	}, nil
}

func (f *fakeDebtorService) Get(_ context.Context, id shared.ID) (*debtor.Debtor, error) {
	for _, d := range f.items {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, shared.NotFound("debtor")
}

func (f *fakeDebtorService) Create(_ context.Context, input app.DebtorInput) (*debtor.Debtor, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return testDebtor(), nil
}

func (f *fakeDebtorService) Update(_ context.Context, _ shared.ID, input app.DebtorInput) (*debtor.Debtor, error) {
	f.lastInput = input
	return testDebtor(), f.err
}

func (f *fakeDebtorService) Delete(context.Context, shared.ID) error { return f.err }

func testDebtor() *debtor.Debtor {
	return &debtor.Debtor{
		ID:        7,
		Name:      "Петренко Іван",
		TaxNumber: "1234567890",
		Debts: debtor.Debts{
			Residential: decimal.RequireFromString("1000.50"),
			Land:        decimal.RequireFromString("500"),
		},
		TotalDebt:  decimal.RequireFromString("1500.50"),
		ReportedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDebtorHandler_Search(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		wantKey string
		wantVal any
	}{
		{
			name:    "post body",
			method:  http.MethodPost,
			target:  "/api/v1/debtors/search",
			body:    `{"page":2,"limit":5,"sort_by":"total_debt","sort_direction":"asc","name":"Петренко"}`,
			wantKey: "name",
			wantVal: "Петренко",
		},
		{
			name:    "get query",
			method:  http.MethodGet,
			target:  "/api/v1/debtors/search?page=2&limit=5&sort_by=total_debt&sort_direction=asc&tax_number=1234567890",
			wantKey: "tax_number",
			wantVal: "1234567890",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeDebtorService{items: []*debtor.Debtor{testDebtor()}}
			h := NewDebtorHandler(svc, logger.NewNop())

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := serve(t, tt.method, "/api/v1/debtors/search", h.Search, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, 2, svc.lastQuery.Page.Number)
			assert.Equal(t, 5, svc.lastQuery.Page.Limit)
			assert.Nil(t, svc.lastQuery.Cursor)
			v, ok := svc.lastQuery.Filters.Get(tt.wantKey)
			require.True(t, ok)
			assert.EqualValues(t, tt.wantVal, v)

			body := decodeBody(t, rec)
			assert.Equal(t, "total_debt", body["sort_by"])
			assert.Equal(t, "asc", body["sort_direction"])
			assert.EqualValues(t, 2, body["currentPage"])
			items := body["items"].([]any)
			require.Len(t, items, 1)
			item := items[0].(map[string]any)
			assert.Equal(t, "1500.5", item["total_debt"])
			assert.Equal(t, "2024-03-01", item["reported_at"])
		})
	}
}

func TestDebtorHandler_Search_EmptyBody(t *testing.T) {
	svc := &fakeDebtorService{}
	h := NewDebtorHandler(svc, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/debtors/search", http.NoBody)
	rec := serve(t, http.MethodPost, "/api/v1/debtors/search", h.Search, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pagination.DefaultLimit, svc.lastQuery.Page.Limit)
	assert.Equal(t, []any{}, decodeBody(t, rec)["items"])
}

func TestDebtorHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		pattern  string
		target   string
		body     string
		svcErr   error
		handler  func(*DebtorHandler) http.HandlerFunc
		wantCode int
		wantErr  string
	}{
		{
			name:     "search body is not an object",
			method:   http.MethodPost,
			pattern:  "/api/v1/debtors/search",
			target:   "/api/v1/debtors/search",
			body:     `["name"]`,
			handler:  func(h *DebtorHandler) http.HandlerFunc { return h.Search },
			wantCode: http.StatusBadRequest,
			wantErr:  "BAD_REQUEST",
		},
		{
			name:     "bad id",
			method:   http.MethodGet,
			pattern:  "/api/v1/debtors/{id}",
			target:   "/api/v1/debtors/abc",
			handler:  func(h *DebtorHandler) http.HandlerFunc { return h.Get },
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "VALIDATION_FAILED",
		},
		{
			name:     "not found",
			method:   http.MethodGet,
			pattern:  "/api/v1/debtors/{id}",
			target:   "/api/v1/debtors/404",
			handler:  func(h *DebtorHandler) http.HandlerFunc { return h.Get },
			wantCode: http.StatusNotFound,
			wantErr:  "NOT_FOUND",
		},
		{
			name:     "duplicate tax number",
			method:   http.MethodPost,
			pattern:  "/api/v1/debtors",
			target:   "/api/v1/debtors",
			body:     `{"name":"Петренко Іван","tax_number":"1234567890","reported_at":"2024-03-01"}`,
			svcErr:   shared.Conflict("debtor with tax_number 1234567890 already exists", nil),
			handler:  func(h *DebtorHandler) http.HandlerFunc { return h.Create },
			wantCode: http.StatusConflict,
			wantErr:  "CONFLICT",
		},
		{
			name:     "unknown field",
			method:   http.MethodPost,
			pattern:  "/api/v1/debtors",
			target:   "/api/v1/debtors",
			body:     `{"name":"x","is_admin":true}`,
			handler:  func(h *DebtorHandler) http.HandlerFunc { return h.Create },
			wantCode: http.StatusBadRequest,
			wantErr:  "BAD_REQUEST",
		},
		{
			name:     "internal error is hidden",
			method:   http.MethodPost,
			pattern:  "/api/v1/debtors/search",
			target:   "/api/v1/debtors/search",
			body:     `{}`,
			svcErr:   errBoom,
			handler:  func(h *DebtorHandler) http.HandlerFunc { return h.Search },
			wantCode: http.StatusInternalServerError,
			wantErr:  "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeDebtorService{err: tt.svcErr}
			h := NewDebtorHandler(svc, logger.NewNop())

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := serve(t, tt.method, tt.pattern, tt.handler(h), req)

			assert.Equal(t, tt.wantCode, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantErr, body["code"])
			assert.NotEmpty(t, body["request_id"])
			assert.NotContains(t, rec.Body.String(), errBoom.Error())
		})
	}
}

func TestDebtorHandler_CreateAndDelete(t *testing.T) {
	svc := &fakeDebtorService{}
	h := NewDebtorHandler(svc, logger.NewNop())

	body := `{"name":"Петренко Іван","tax_number":"1234567890","residential_debt":"1000.50","land_debt":500,"reported_at":"2024-03-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/debtors", strings.NewReader(body))
	rec := serve(t, http.MethodPost, "/api/v1/debtors", h.Create, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1000.5", svc.lastInput.ResidentialDebt.String())
	assert.Equal(t, "500", svc.lastInput.LandDebt.String())

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/debtors/7", nil)
	rec = serve(t, http.MethodDelete, "/api/v1/debtors/{id}", h.Delete, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// --- charges ---------------------------------------------------------------

type fakeChargeService struct {
	scrolled  bool
	lastQuery shared.ListQuery
	lastInput app.ChangeChargeStatusInput
	err       error
}

func (f *fakeChargeService) Search(_ context.Context, q shared.ListQuery) (app.ListOutput[*charge.Charge], error) {
	f.lastQuery = q
	return app.ListOutput[*charge.Charge]{Result: pagination.NewResult([]*charge.Charge{testCharge()}, 1, q.Page)}, f.err
}

func (f *fakeChargeService) Scroll(_ context.Context, q shared.ListQuery) (pagination.CursorResult[*charge.Charge], error) {
	f.scrolled = true
	f.lastQuery = q
	next := int64(41)
	return pagination.CursorResult[*charge.Charge]{
		Items:      []*charge.Charge{testCharge()},
		HasMore:    true,
		NextCursor: &next,
		PageSize:   q.Cursor.Limit,
		Direction:  q.Cursor.Direction,
	}, f.err
}

func (f *fakeChargeService) Get(context.Context, shared.ID) (*charge.Charge, error) {
	return testCharge(), f.err
}

func (f *fakeChargeService) Create(context.Context, app.CreateChargeInput) (*charge.Charge, error) {
	return testCharge(), f.err
}

func (f *fakeChargeService) ChangeStatus(_ context.Context, _ shared.ID, input app.ChangeChargeStatusInput) (*charge.Charge, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	c := testCharge()
	delivered := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	c.Status = charge.StatusDelivered
	c.DeliveryDate = &delivered
	return c, nil
}

func (f *fakeChargeService) Delete(context.Context, shared.ID) error { return f.err }

func testCharge() *charge.Charge {
	return &charge.Charge{
		ID:            41,
		TaxNumber:     "1234567890",
		PayerName:     "Коваленко Олена",
		TaxClassifier: "18010300",
		DocumentID:    "ПП-001",
		Amount:        decimal.RequireFromString("2450.75"),
		DocumentDate:  time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		Status:        charge.StatusNew,
	}
}

func TestChargeHandler_Search_Modes(t *testing.T) {
	t.Run("cursor", func(t *testing.T) {
		svc := &fakeChargeService{}
		h := NewChargeHandler(svc, logger.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/charges/search",
			strings.NewReader(`{"cursor":"","limit":10,"amount":{"from":100},"tax_classifier":["18010300"]}`))
		rec := serve(t, http.MethodPost, "/api/v1/charges/search", h.Search, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, svc.scrolled)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["hasMore"])
		assert.EqualValues(t, 41, body["nextCursor"])
		assert.Equal(t, "desc", body["direction"])
		assert.EqualValues(t, 10, body["pageSize"])
		assert.Nil(t, body["totalItems"])
	})

	t.Run("offset", func(t *testing.T) {
		svc := &fakeChargeService{}
		h := NewChargeHandler(svc, logger.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/charges?status=new", nil)
		rec := serve(t, http.MethodGet, "/api/v1/charges", h.Search, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, svc.scrolled)
		body := decodeBody(t, rec)
		assert.EqualValues(t, 1, body["totalItems"])
		item := body["items"].([]any)[0].(map[string]any)
		assert.Equal(t, "2450.75", item["amount"])
		assert.Nil(t, item["delivery_date"])
	})
}

func TestChargeHandler_ChangeStatus(t *testing.T) {
	svc := &fakeChargeService{}
	h := NewChargeHandler(svc, logger.NewNop())

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/charges/41/status", strings.NewReader(`{"status":"delivered","at":"2024-03-04"}`))
	rec := serve(t, http.MethodPatch, "/api/v1/charges/{id}/status", h.ChangeStatus, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, app.ChangeChargeStatusInput{Status: "delivered", At: "2024-03-04"}, svc.lastInput)
	body := decodeBody(t, rec)
	assert.Equal(t, "delivered", body["status"])
	assert.Equal(t, "2024-03-04", body["delivery_date"])
}

// --- cnap ------------------------------------------------------------------

type fakeCNAPService struct {
	CNAPService
	accountInput app.CreateAccountInput
	err          error
}

func (f *fakeCNAPService) SearchServices(context.Context, shared.ListQuery) (pagination.Counted[*cnap.Service], error) {
	return pagination.Counted[*cnap.Service]{
		Data:  []*cnap.Service{{ID: 1, Identifier: "DOV-01", Name: "Довідка", Price: decimal.NewFromInt(85), Enabled: true}},
		Count: 1,
	}, f.err
}

func (f *fakeCNAPService) CreateAccount(_ context.Context, input app.CreateAccountInput) (*cnap.Account, error) {
	f.accountInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &cnap.Account{ID: 3, ServiceID: input.ServiceID, AccountNumber: "DOV-01/000001", PayerName: input.PayerName, Amount: decimal.NewFromInt(85), Status: cnap.AccountPending}, nil
}

func TestCNAPHandler_SearchServices_CountedShape(t *testing.T) {
	h := NewCNAPHandler(&fakeCNAPService{}, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cnap/services/search", strings.NewReader(`{"title":"довідка"}`))
	rec := serve(t, http.MethodPost, "/api/v1/cnap/services/search", h.SearchServices, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 1, body["count"])
	assert.Len(t, body["data"], 1)
	assert.NotContains(t, body, "items")
}

func TestCNAPHandler_CreateAccount(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &fakeCNAPService{}
		h := NewCNAPHandler(svc, logger.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/cnap/accounts", strings.NewReader(`{"service_id":1,"payer_name":"Бондар Марія"}`))
		rec := serve(t, http.MethodPost, "/api/v1/cnap/accounts", h.CreateAccount, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, shared.ID(1), svc.accountInput.ServiceID)
		assert.Equal(t, "DOV-01/000001", decodeBody(t, rec)["account_number"])
	})

	t.Run("unknown service", func(t *testing.T) {
		svc := &fakeCNAPService{err: shared.Validation("service_id", "service 9 does not exist")}
		h := NewCNAPHandler(svc, logger.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/cnap/accounts", strings.NewReader(`{"service_id":9,"payer_name":"Бондар Марія"}`))
		rec := serve(t, http.MethodPost, "/api/v1/cnap/accounts", h.CreateAccount, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "service 9 does not exist", decodeBody(t, rec)["message"])
	})
}

// --- registries ------------------------------------------------------------

type fakeRegistryService struct {
	RegistryService
	recordsQuery shared.ListQuery
	publishErr   error
}

func (f *fakeRegistryService) ListRecords(_ context.Context, registryID shared.ID, q shared.ListQuery) (pagination.CursorResult[*registry.Record], error) {
	f.recordsQuery = q
	return pagination.CursorResult[*registry.Record]{
		Items:     []*registry.Record{{ID: 1, RegistryID: registryID, Payload: json.RawMessage(`{"name":"Шевченка"}`)}},
		PageSize:  pagination.DefaultLimit,
		Direction: pagination.Desc,
	}, nil
}

func (f *fakeRegistryService) Publish(_ context.Context, id shared.ID) (*app.PublishResult, error) {
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	return &app.PublishResult{RegistryID: id, Name: "street-names", Key: "open-data/street-names/20240506T030000Z.json", Records: 2}, nil
}

func TestRegistryHandler_ListRecords(t *testing.T) {
	svc := &fakeRegistryService{}
	h := NewRegistryHandler(svc, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/registries/5/records?limit=20", nil)
	rec := serve(t, http.MethodGet, "/api/v1/registries/{id}/records", h.ListRecords, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, svc.recordsQuery.Page.Limit)
	body := decodeBody(t, rec)
	item := body["items"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"name": "Шевченка"}, item["payload"])
	assert.EqualValues(t, 5, item["registry_id"])
	assert.Contains(t, body, "nextCursor")
}

func TestRegistryHandler_Publish(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "published", wantCode: http.StatusOK},
		{name: "storage disabled", err: app.ErrPublishingDisabled, wantCode: http.StatusUnprocessableEntity},
		{name: "upload failed", err: errBoom, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRegistryHandler(&fakeRegistryService{publishErr: tt.err}, logger.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/registries/5/publish", nil)
			rec := serve(t, http.MethodPost, "/api/v1/registries/{id}/publish", h.Publish, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.err == nil {
				assert.Equal(t, "open-data/street-names/20240506T030000Z.json", decodeBody(t, rec)["key"])
			}
		})
	}
}

// --- search logs -----------------------------------------------------------

type fakeSearchLogService struct {
	mode string
}

func (f *fakeSearchLogService) Search(_ context.Context, q shared.ListQuery) (app.ListOutput[*searchlog.Entry], error) {
	f.mode = "offset"
	return app.ListOutput[*searchlog.Entry]{Result: pagination.NewResult([]*searchlog.Entry{}, 0, q.Page)}, nil
}

func (f *fakeSearchLogService) Scroll(context.Context, shared.ListQuery) (pagination.CursorResult[*searchlog.Entry], error) {
	f.mode = "cursor"
	return pagination.CursorResult[*searchlog.Entry]{
		Items: []*searchlog.Entry{{ID: 1, Module: "charges", Filters: json.RawMessage(`{"status":["paid"]}`), ClientIP: "10.0.0.1"}},
	}, nil
}

func TestSearchLogHandler_Search_Modes(t *testing.T) {
	tests := []struct {
		target   string
		wantMode string
	}{
		{"/api/v1/search-logs", "cursor"},
		{"/api/v1/search-logs?module=charges", "cursor"},
		{"/api/v1/search-logs?cursor=120&direction=asc", "cursor"},
		{"/api/v1/search-logs?page=2", "offset"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			svc := &fakeSearchLogService{}
			h := NewSearchLogHandler(svc, logger.NewNop())

			rec := serve(t, http.MethodGet, "/api/v1/search-logs", h.Search, httptest.NewRequest(http.MethodGet, tt.target, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantMode, svc.mode)
		})
	}
}

// --- health ----------------------------------------------------------------

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") })

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler().Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
	})

	t.Run("ready", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler(WithDatabase(ok), WithRedis(ok)).Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody(t, rec)["checks"], 2)
	})

	t.Run("redis down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler(WithDatabase(ok), WithRedis(down)).Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body ReadyResponse
		require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&body))
		assert.Equal(t, "not_ready", body.Status)
		assert.Equal(t, "ok", body.Checks["database"].Status)
		assert.Equal(t, "error", body.Checks["redis"].Status)
	})

	t.Run("nil checks are skipped", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler(WithRedis(nil)).Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hromada/backoffice/internal/app"
	"github.com/hromada/backoffice/pkg/domain/cnap"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/pagination"
)

// CNAPService is the use-case surface the CNAP handler needs.
type CNAPService interface {
	SearchServices(ctx context.Context, q shared.ListQuery) (pagination.Counted[*cnap.Service], error)
	GetService(ctx context.Context, id shared.ID) (*cnap.Service, error)
	CreateService(ctx context.Context, input app.ServiceInput) (*cnap.Service, error)
	UpdateService(ctx context.Context, id shared.ID, input app.ServiceInput) (*cnap.Service, error)
	DeleteService(ctx context.Context, id shared.ID) error

	SearchAccounts(ctx context.Context, q shared.ListQuery) (app.ListOutput[*cnap.Account], error)
	GetAccount(ctx context.Context, id shared.ID) (*cnap.Account, error)
	CreateAccount(ctx context.Context, input app.CreateAccountInput) (*cnap.Account, error)
	DeleteAccount(ctx context.Context, id shared.ID) error
}

// CNAPHandler handles administrative service centre (CNAP) services and
// the payment accounts issued for them.
type CNAPHandler struct {
	service CNAPService
	logger  *logger.Logger
}

// NewCNAPHandler creates a new CNAPHandler.
func NewCNAPHandler(service CNAPService, log *logger.Logger) *CNAPHandler {
	return &CNAPHandler{
		service: service,
		logger:  log.With("handler", "cnap"),
	}
}

// ServiceResponse represents a CNAP service.
type ServiceResponse struct {
	ID          shared.ID       `json:"id"`
	Identifier  string          `json:"identifier"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	EDRPOU      string          `json:"edrpou"`
	IBAN        string          `json:"iban"`
	Enabled     bool            `json:"enabled"`
	IssuedCount int64           `json:"issued_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toServiceResponse(s *cnap.Service) ServiceResponse {
	return ServiceResponse{
		ID:          s.ID,
		Identifier:  s.Identifier,
		Name:        s.Name,
		Price:       s.Price,
		EDRPOU:      s.EDRPOU,
		IBAN:        s.IBAN,
		Enabled:     s.Enabled,
		IssuedCount: s.IssuedCount,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// AccountResponse represents a payment account issued for a CNAP service.
type AccountResponse struct {
	ID            shared.ID       `json:"id"`
	ServiceID     shared.ID       `json:"service_id"`
	AccountNumber string          `json:"account_number"`
	PayerName     string          `json:"payer_name"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toAccountResponse(a *cnap.Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID,
		ServiceID:     a.ServiceID,
		AccountNumber: a.AccountNumber,
		PayerName:     a.PayerName,
		Amount:        a.Amount,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
	}
}

// SearchServices handles GET /api/v1/cnap/services and
// POST /api/v1/cnap/services/search.
func (h *CNAPHandler) SearchServices(w http.ResponseWriter, r *http.Request) {
	q, _, err := listQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out, err := h.service.SearchServices(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toCountedResponse(out, toServiceResponse))
}

// GetService handles GET /api/v1/cnap/services/{id}.
func (h *CNAPHandler) GetService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	s, err := h.service.GetService(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toServiceResponse(s))
}

// CreateService handles POST /api/v1/cnap/services.
func (h *CNAPHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var input app.ServiceInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	s, err := h.service.CreateService(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toServiceResponse(s))
}

// UpdateService handles PUT /api/v1/cnap/services/{id}.
func (h *CNAPHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var input app.ServiceInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	s, err := h.service.UpdateService(r.Context(), id, input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toServiceResponse(s))
}

// DeleteService handles DELETE /api/v1/cnap/services/{id}.
func (h *CNAPHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteService(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SearchAccounts handles GET /api/v1/cnap/accounts and
// POST /api/v1/cnap/accounts/search.
func (h *CNAPHandler) SearchAccounts(w http.ResponseWriter, r *http.Request) {
	q, _, err := listQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out, err := h.service.SearchAccounts(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toListResponse(out, toAccountResponse))
}

// GetAccount handles GET /api/v1/cnap/accounts/{id}.
func (h *CNAPHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	a, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(a))
}

// CreateAccount handles POST /api/v1/cnap/accounts.
func (h *CNAPHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var input app.CreateAccountInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	a, err := h.service.CreateAccount(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(a))
}

// DeleteAccount handles DELETE /api/v1/cnap/accounts/{id}.
func (h *CNAPHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

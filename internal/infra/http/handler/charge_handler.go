package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hromada/backoffice/internal/app"
	"github.com/hromada/backoffice/pkg/domain/charge"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/pagination"
)

// ChargeService is the use-case surface the charge handler needs.
type ChargeService interface {
	Search(ctx context.Context, q shared.ListQuery) (app.ListOutput[*charge.Charge], error)
	Scroll(ctx context.Context, q shared.ListQuery) (pagination.CursorResult[*charge.Charge], error)
	Get(ctx context.Context, id shared.ID) (*charge.Charge, error)
	Create(ctx context.Context, input app.CreateChargeInput) (*charge.Charge, error)
	ChangeStatus(ctx context.Context, id shared.ID, input app.ChangeChargeStatusInput) (*charge.Charge, error)
	Delete(ctx context.Context, id shared.ID) error
}

// ChargeHandler handles tax charges (tax notification decisions).
type ChargeHandler struct {
	service ChargeService
	logger  *logger.Logger
}

// NewChargeHandler creates a new ChargeHandler.
func NewChargeHandler(service ChargeService, log *logger.Logger) *ChargeHandler {
	return &ChargeHandler{
		service: service,
		logger:  log.With("handler", "charge"),
	}
}

// ChargeResponse represents a tax charge.
type ChargeResponse struct {
	ID            shared.ID       `json:"id"`
	TaxNumber     string          `json:"tax_number"`
	PayerName     string          `json:"payer_name"`
	TaxClassifier string          `json:"tax_classifier"`
	AccountNumber string          `json:"account_number,omitempty"`
	DocumentID    string          `json:"document_id"`
	Amount        decimal.Decimal `json:"amount"`
	DocumentDate  string          `json:"document_date"`
	DeliveryDate  *string         `json:"delivery_date"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toChargeResponse(c *charge.Charge) ChargeResponse {
	return ChargeResponse{
		ID:            c.ID,
		TaxNumber:     c.TaxNumber,
		PayerName:     c.PayerName,
		TaxClassifier: c.TaxClassifier,
		AccountNumber: c.AccountNumber,
		DocumentID:    c.DocumentID,
		Amount:        c.Amount,
		DocumentDate:  formatDate(c.DocumentDate),
		DeliveryDate:  formatDatePtr(c.DeliveryDate),
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// Search handles GET /api/v1/charges and POST /api/v1/charges/search.
// A "cursor" key switches to keyset pagination.
func (h *ChargeHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, _, err := listQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if q.Cursor != nil {
		out, err := h.service.Scroll(r.Context(), q)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toCursorResponse(out, toChargeResponse))
		return
	}

	out, err := h.service.Search(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(out, toChargeResponse))
}

// Get handles GET /api/v1/charges/{id}.
func (h *ChargeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toChargeResponse(c))
}

// Create handles POST /api/v1/charges.
func (h *ChargeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input app.CreateChargeInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toChargeResponse(c))
}

// ChangeStatus handles PATCH /api/v1/charges/{id}/status.
func (h *ChargeHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var input app.ChangeChargeStatusInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.service.ChangeStatus(r.Context(), id, input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toChargeResponse(c))
}

// Delete handles DELETE /api/v1/charges/{id}.
func (h *ChargeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

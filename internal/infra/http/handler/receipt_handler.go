package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hromada/backoffice/internal/app"
	"github.com/hromada/backoffice/pkg/domain/receipt"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/pagination"
)

// ReceiptService is the use-case surface the receipt handler needs.
type ReceiptService interface {
	Search(ctx context.Context, q shared.ListQuery) (app.ListOutput[*receipt.Receipt], error)
	Scroll(ctx context.Context, q shared.ListQuery) (pagination.CursorResult[*receipt.Receipt], error)
	Get(ctx context.Context, id shared.ID) (*receipt.Receipt, error)
	Create(ctx context.Context, input app.CreateReceiptInput) (*receipt.Receipt, error)
	Delete(ctx context.Context, id shared.ID) error
}

// ReceiptHandler handles tourist tax receipts.
type ReceiptHandler struct {
	service ReceiptService
	logger  *logger.Logger
}

// NewReceiptHandler creates a new ReceiptHandler.
func NewReceiptHandler(service ReceiptService, log *logger.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		service: service,
		logger:  log.With("handler", "receipt"),
	}
}

// ReceiptResponse represents a tourist tax receipt.
type ReceiptResponse struct {
	ID            shared.ID       `json:"id"`
	Identifier    string          `json:"identifier"`
	Name          string          `json:"name"`
	Counter       int             `json:"counter"`
	Amount        decimal.Decimal `json:"amount"`
	ArrivalDate   string          `json:"arrival_date"`
	DepartureDate string          `json:"departure_date"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toReceiptResponse(rc *receipt.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:            rc.ID,
		Identifier:    rc.Identifier,
		Name:          rc.Name,
		Counter:       rc.Counter,
		Amount:        rc.Amount,
		ArrivalDate:   formatDate(rc.ArrivalDate),
		DepartureDate: formatDate(rc.DepartureDate),
		Status:        string(rc.Status),
		CreatedAt:     rc.CreatedAt,
	}
}

// Search handles GET /api/v1/receipts and POST /api/v1/receipts/search.
func (h *ReceiptHandler) Search(w http.ResponseWriter, r *http.Request) {
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
		writeJSON(w, http.StatusOK, toCursorResponse(out, toReceiptResponse))
		return
	}

	out, err := h.service.Search(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(out, toReceiptResponse))
}

// Get handles GET /api/v1/receipts/{id}.
func (h *ReceiptHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rc, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toReceiptResponse(rc))
}

// Create handles POST /api/v1/receipts.
func (h *ReceiptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input app.CreateReceiptInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rc, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReceiptResponse(rc))
}

// Delete handles DELETE /api/v1/receipts/{id}.
func (h *ReceiptHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

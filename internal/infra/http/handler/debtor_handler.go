package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hromada/backoffice/internal/app"
	"github.com/hromada/backoffice/pkg/domain/debtor"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/logger"
)

// DebtorService is the use-case surface the debtor handler needs.
type DebtorService interface {
	Search(ctx context.Context, q shared.ListQuery) (app.ListOutput[*debtor.Debtor], error)
	Get(ctx context.Context, id shared.ID) (*debtor.Debtor, error)
	Create(ctx context.Context, input app.DebtorInput) (*debtor.Debtor, error)
	Update(ctx context.Context, id shared.ID, input app.DebtorInput) (*debtor.Debtor, error)
	Delete(ctx context.Context, id shared.ID) error
}

// DebtorHandler handles the debtors register.
type DebtorHandler struct {
	service DebtorService
	logger  *logger.Logger
}

// NewDebtorHandler creates a new DebtorHandler.
func NewDebtorHandler(service DebtorService, log *logger.Logger) *DebtorHandler {
	return &DebtorHandler{
		service: service,
		logger:  log.With("handler", "debtor"),
	}
}

// DebtorResponse represents a debtor.
type DebtorResponse struct {
	ID                 shared.ID       `json:"id"`
	Name               string          `json:"name"`
	TaxNumber          string          `json:"tax_number"`
	ResidentialDebt    decimal.Decimal `json:"residential_debt"`
	NonResidentialDebt decimal.Decimal `json:"non_residential_debt"`
	LandDebt           decimal.Decimal `json:"land_debt"`
	RentDebt           decimal.Decimal `json:"rent_debt"`
	TotalDebt          decimal.Decimal `json:"total_debt"`
	ReportedAt         string          `json:"reported_at"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func toDebtorResponse(d *debtor.Debtor) DebtorResponse {
	return DebtorResponse{
		ID:                 d.ID,
		Name:               d.Name,
		TaxNumber:          d.TaxNumber,
		ResidentialDebt:    d.Debts.Residential,
		NonResidentialDebt: d.Debts.NonResidential,
		LandDebt:           d.Debts.Land,
		RentDebt:           d.Debts.Rent,
		TotalDebt:          d.TotalDebt,
		ReportedAt:         formatDate(d.ReportedAt),
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

// Search handles GET /api/v1/debtors and POST /api/v1/debtors/search.
func (h *DebtorHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, _, err := listQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out, err := h.service.Search(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toListResponse(out, toDebtorResponse))
}

// Get handles GET /api/v1/debtors/{id}.
func (h *DebtorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toDebtorResponse(d))
}

// Create handles POST /api/v1/debtors.
func (h *DebtorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input app.DebtorInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	d, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDebtorResponse(d))
}

// Update handles PUT /api/v1/debtors/{id}.
func (h *DebtorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var input app.DebtorInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	d, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toDebtorResponse(d))
}

// Delete handles DELETE /api/v1/debtors/{id}.
func (h *DebtorHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

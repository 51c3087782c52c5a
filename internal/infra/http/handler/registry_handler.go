package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hromada/backoffice/internal/app"
	"github.com/hromada/backoffice/pkg/domain/registry"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/pagination"
)

// RegistryService is the use-case surface the registry handler needs.
type RegistryService interface {
	Search(ctx context.Context, q shared.ListQuery) (app.ListOutput[*registry.Registry], error)
	Get(ctx context.Context, id shared.ID) (*registry.Registry, error)
	Create(ctx context.Context, input app.RegistryInput) (*registry.Registry, error)
	Update(ctx context.Context, id shared.ID, input app.RegistryInput) (*registry.Registry, error)
	Delete(ctx context.Context, id shared.ID) error
	AddRecord(ctx context.Context, registryID shared.ID, input app.AddRecordInput) (*registry.Record, error)
	ListRecords(ctx context.Context, registryID shared.ID, q shared.ListQuery) (pagination.CursorResult[*registry.Record], error)
	Publish(ctx context.Context, id shared.ID) (*app.PublishResult, error)
}

// RegistryHandler handles open-data registries and their records.
type RegistryHandler struct {
	service RegistryService
	logger  *logger.Logger
}

// NewRegistryHandler creates a new RegistryHandler.
func NewRegistryHandler(service RegistryService, log *logger.Logger) *RegistryHandler {
	return &RegistryHandler{
		service: service,
		logger:  log.With("handler", "registry"),
	}
}

// RegistryResponse represents an open-data registry.
type RegistryResponse struct {
	ID           shared.ID  `json:"id"`
	Name         string     `json:"name"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	RecordsCount int64      `json:"records_count"`
	PublishedAt  *time.Time `json:"published_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toRegistryResponse(r *registry.Registry) RegistryResponse {
	return RegistryResponse{
		ID:           r.ID,
		Name:         r.Name,
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		Status:       string(r.Status),
		RecordsCount: r.RecordsCount,
		PublishedAt:  r.PublishedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// RecordResponse represents one registry record.
type RecordResponse struct {
	ID         shared.ID       `json:"id"`
	RegistryID shared.ID       `json:"registry_id"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toRecordResponse(r *registry.Record) RecordResponse {
	return RecordResponse{
		ID:         r.ID,
		RegistryID: r.RegistryID,
		Payload:    r.Payload,
		CreatedAt:  r.CreatedAt,
	}
}

// Search handles GET /api/v1/registries and POST /api/v1/registries/search.
func (h *RegistryHandler) Search(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, toListResponse(out, toRegistryResponse))
}

// Get handles GET /api/v1/registries/{id}.
func (h *RegistryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	reg, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toRegistryResponse(reg))
}

// Create handles POST /api/v1/registries.
func (h *RegistryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input app.RegistryInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	reg, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRegistryResponse(reg))
}

// Update handles PUT /api/v1/registries/{id}.
func (h *RegistryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var input app.RegistryInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	reg, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toRegistryResponse(reg))
}

// Delete handles DELETE /api/v1/registries/{id}.
func (h *RegistryHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// AddRecord handles POST /api/v1/registries/{id}/records.
func (h *RegistryHandler) AddRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var input app.AddRecordInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rec, err := h.service.AddRecord(r.Context(), id, input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRecordResponse(rec))
}

// ListRecords handles GET /api/v1/registries/{id}/records. Records are
// always paged by cursor.
func (h *RegistryHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	q, _, err := listQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out, err := h.service.ListRecords(r.Context(), id, q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toCursorResponse(out, toRecordResponse))
}

// Publish handles POST /api/v1/registries/{id}/publish.
func (h *RegistryHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.service.Publish(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

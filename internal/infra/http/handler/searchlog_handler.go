package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hromada/backoffice/internal/app"
	"github.com/hromada/backoffice/pkg/domain/searchlog"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/pagination"
)

// SearchLogService is the use-case surface the search log handler needs.
type SearchLogService interface {
	Search(ctx context.Context, q shared.ListQuery) (app.ListOutput[*searchlog.Entry], error)
	Scroll(ctx context.Context, q shared.ListQuery) (pagination.CursorResult[*searchlog.Entry], error)
}

// SearchLogHandler exposes the search audit trail.
type SearchLogHandler struct {
	service SearchLogService
	logger  *logger.Logger
}

// NewSearchLogHandler creates a new SearchLogHandler.
func NewSearchLogHandler(service SearchLogService, log *logger.Logger) *SearchLogHandler {
	return &SearchLogHandler{
		service: service,
		logger:  log.With("handler", "searchlog"),
	}
}

// SearchLogResponse represents one recorded search.
type SearchLogResponse struct {
	ID          shared.ID       `json:"id"`
	Module      string          `json:"module"`
	Filters     json.RawMessage `json:"filters"`
	ResultCount int64           `json:"result_count"`
	RequestID   string          `json:"request_id,omitempty"`
	ClientIP    string          `json:"ip,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toSearchLogResponse(e *searchlog.Entry) SearchLogResponse {
	return SearchLogResponse{
		ID:          e.ID,
		Module:      e.Module,
		Filters:     e.Filters,
		ResultCount: e.ResultCount,
		RequestID:   e.RequestID,
		ClientIP:    e.ClientIP,
		CreatedAt:   e.CreatedAt,
	}
}

// Search handles GET /api/v1/search-logs and POST /api/v1/search-logs/search.
// The log is paged by cursor unless the request asks for a page number.
func (h *SearchLogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, spec, err := listQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if _, paged := spec.Get(shared.KeyPage); paged && q.Cursor == nil {
		out, err := h.service.Search(r.Context(), q)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toListResponse(out, toSearchLogResponse))
		return
	}

	out, err := h.service.Scroll(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCursorResponse(out, toSearchLogResponse))
}

// Package jobs provides background job definitions and handlers using Asynq.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hromada/backoffice/internal/metrics"
	"github.com/hromada/backoffice/pkg/domain/searchlog"
	"github.com/hromada/backoffice/pkg/logger"
)

// Task types for search log jobs
const (
	TypeSearchLogRecord = "searchlog:record"
)

// QueueSearchLogs is the queue search log tasks run on.
const QueueSearchLogs = "searchlog"

// SearchLogPayload contains one executed search.
type SearchLogPayload struct {
	Module      string          `json:"module"`
	Filters     json.RawMessage `json:"filters"`
	ResultCount int64           `json:"result_count"`
	RequestID   string          `json:"request_id,omitempty"`
	ClientIP    string          `json:"client_ip,omitempty"`
	SearchedAt  time.Time       `json:"searched_at"`
}

// NewSearchLogPayload converts an entry into a task payload.
func NewSearchLogPayload(e *searchlog.Entry) SearchLogPayload {
	return SearchLogPayload{
		Module:      e.Module,
		Filters:     e.Filters,
		ResultCount: e.ResultCount,
		RequestID:   e.RequestID,
		ClientIP:    e.ClientIP,
		SearchedAt:  e.CreatedAt,
	}
}

// Entry converts the payload back into an entry.
func (p SearchLogPayload) Entry() *searchlog.Entry {
	filters := p.Filters
	if len(filters) == 0 {
		filters = json.RawMessage(`{}`)
	}
	return &searchlog.Entry{
		Module:      p.Module,
		Filters:     filters,
		ResultCount: p.ResultCount,
		RequestID:   p.RequestID,
		ClientIP:    p.ClientIP,
		CreatedAt:   p.SearchedAt,
	}
}

// NewSearchLogTask creates a task that records one search. taskID makes
// retried enqueues of the same search idempotent.
func NewSearchLogTask(payload SearchLogPayload, taskID string) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search log payload: %w", err)
	}

	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(10 * time.Second),
		asynq.Queue(QueueSearchLogs),
		asynq.Retention(time.Hour),
	}
	if taskID != "" {
		opts = append(opts, asynq.TaskID(taskID))
	}

	return asynq.NewTask(TypeSearchLogRecord, data, opts...), nil
}

// SearchLogTaskHandler persists queued search log entries.
type SearchLogTaskHandler struct {
	store  searchlog.Recorder
	logger *logger.Logger
}

// NewSearchLogTaskHandler creates a new search log task handler. store must
// write synchronously.
func NewSearchLogTaskHandler(store searchlog.Recorder, log *logger.Logger) *SearchLogTaskHandler {
	return &SearchLogTaskHandler{
		store:  store,
		logger: log.With("handler", "searchlog_tasks"),
	}
}

// RegisterHandlers registers the search log handlers on mux.
func (h *SearchLogTaskHandler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSearchLogRecord, h.HandleRecord)
}

// HandleRecord processes search log record tasks. Malformed payloads are not
// retried.
func (h *SearchLogTaskHandler) HandleRecord(ctx context.Context, t *asynq.Task) error {
	var payload SearchLogPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		metrics.SearchLogsProcessed.WithLabelValues(metrics.StatusError).Inc()
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Module == "" {
		metrics.SearchLogsProcessed.WithLabelValues(metrics.StatusError).Inc()
		return fmt.Errorf("search log payload without module: %w", asynq.SkipRetry)
	}

	err := h.store.Record(ctx, payload.Entry())
	metrics.SearchLogsProcessed.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		h.logger.Error("failed to record search",
			"module", payload.Module,
			"request_id", payload.RequestID,
			"error", err,
		)
		return err
	}
	return nil
}

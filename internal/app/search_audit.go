package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hromada/backoffice/pkg/domain/searchlog"
	"github.com/hromada/backoffice/pkg/filter"
	"github.com/hromada/backoffice/pkg/logger"
)

// SearchAuditor hands executed searches to a searchlog.Recorder. Recording
// failures are logged and never fail the search. A nil auditor records
// nothing.
type SearchAuditor struct {
	recorder searchlog.Recorder
	logger   *logger.Logger
}

// NewSearchAuditor creates a new SearchAuditor.
func NewSearchAuditor(recorder searchlog.Recorder, log *logger.Logger) *SearchAuditor {
	return &SearchAuditor{
		recorder: recorder,
		logger:   log.With("service", "search_audit"),
	}
}

// Record records one executed search of module.
func (a *SearchAuditor) Record(ctx context.Context, module string, filters filter.Spec, resultCount int64) {
	if a == nil || a.recorder == nil {
		return
	}

	body, err := json.Marshal(filters.Active())
	if err != nil {
		a.logger.WithContext(ctx).Warn("failed to encode search filters", "module", module, "error", err)
		return
	}

	entry := &searchlog.Entry{
		Module:      module,
		Filters:     body,
		ResultCount: resultCount,
		RequestID:   contextString(ctx, logger.ContextKeyRequestID),
		ClientIP:    contextString(ctx, logger.ContextKeyClientIP),
		CreatedAt:   time.Now().UTC(),
	}

	if err := a.recorder.Record(ctx, entry); err != nil {
		a.logger.WithContext(ctx).Warn("failed to record search", "module", module, "error", err)
	}
}

func contextString(ctx context.Context, key logger.ContextKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

package app

import (
	"context"
	"time"

	"github.com/hromada/backoffice/internal/metrics"
	"github.com/hromada/backoffice/pkg/domain/searchlog"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/pagination"
)

// minSearchLogRetention guards against pruning recent history by mistake.
const minSearchLogRetention = 24 * time.Hour

// SearchLogService reads and maintains the search audit trail. It also
// implements searchlog.Recorder by writing entries synchronously, which the
// background worker uses to persist queued entries.
type SearchLogService struct {
	repo   searchlog.Repository
	logger *logger.Logger

	now func() time.Time
}

var _ searchlog.Recorder = (*SearchLogService)(nil)

// NewSearchLogService creates a new search log service.
func NewSearchLogService(repo searchlog.Repository, log *logger.Logger) *SearchLogService {
	return &SearchLogService{
		repo:   repo,
		logger: log.With("service", "searchlog"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record stores one entry.
func (s *SearchLogService) Record(ctx context.Context, e *searchlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return err
	}

	s.logger.WithContext(ctx).Debug("search recorded",
		"id", e.ID,
		"module", e.Module,
		"result_count", e.ResultCount,
	)
	return nil
}

// Search lists one offset page of entries.
func (s *SearchLogService) Search(ctx context.Context, q shared.ListQuery) (ListOutput[*searchlog.Entry], error) {
	result, err := s.repo.List(ctx, q)
	if err != nil {
		return ListOutput[*searchlog.Entry]{}, err
	}
	return newListOutput(ModuleSearchLogs, result, q.Sort(searchlog.Sorting)), nil
}

// Scroll lists the entries after the query cursor. A query without a cursor
// starts at the newest entry.
func (s *SearchLogService) Scroll(ctx context.Context, q shared.ListQuery) (pagination.CursorResult[*searchlog.Entry], error) {
	result, err := s.repo.Scroll(ctx, q)
	if err != nil {
		return pagination.CursorResult[*searchlog.Entry]{}, err
	}
	return observeScroll(ModuleSearchLogs, result), nil
}

// Prune deletes entries older than retention and returns how many were
// removed.
func (s *SearchLogService) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention < minSearchLogRetention {
		return 0, shared.Validation("retention", "retention must be at least 24h")
	}

	cutoff := s.now().Add(-retention)
	n, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	metrics.SearchLogsPruned.Add(float64(n))
	s.logger.WithContext(ctx).Info("search logs pruned", "deleted", n, "cutoff", cutoff)
	return n, nil
}

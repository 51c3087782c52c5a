package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hromada/backoffice/internal/metrics"
	"github.com/hromada/backoffice/pkg/domain/searchlog"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/pagination"
	"github.com/hromada/backoffice/pkg/sqlbuilder"
)

// searchLogFilters are the filterable fields of the search log.
var searchLogFilters = sqlbuilder.Schema{
	"module":     sqlbuilder.Set("module"),
	"ip":         sqlbuilder.Exact("client_ip"),
	"request_id": sqlbuilder.Exact("request_id"),
	"created_at": sqlbuilder.Range("created_at"),
}

const searchLogColumns = "id, module, filters, result_count, request_id, client_ip, created_at"

// SearchLogRepository implements searchlog.Repository using PostgreSQL.
type SearchLogRepository struct {
	db *DB
}

// NewSearchLogRepository creates a new SearchLogRepository.
func NewSearchLogRepository(db *DB) *SearchLogRepository {
	return &SearchLogRepository{db: db}
}

// Create persists a search log entry.
func (r *SearchLogRepository) Create(ctx context.Context, e *searchlog.Entry) error {
	query := `
		INSERT INTO search_logs (module, filters, result_count, request_id, client_ip, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		e.Module,
		nullBytes(e.Filters),
		e.ResultCount,
		nullString(e.RequestID),
		nullString(e.ClientIP),
		e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to create search log: %w", err)
	}
	return nil
}

// List retrieves search log entries with offset pagination.
func (r *SearchLogRepository) List(ctx context.Context, q shared.ListQuery) (pagination.Result[*searchlog.Entry], error) {
	b := sqlbuilder.Select(searchLogColumns).
		From("search_logs").
		Filter(searchLogFilters, q.Filters, "").
		OrderBy(q.Sort(searchlog.Sorting))
	return listPage(ctx, r.db, "search_logs.list", b, q.Page, scanSearchLog)
}

// Scroll retrieves the entries after the query cursor.
func (r *SearchLogRepository) Scroll(ctx context.Context, q shared.ListQuery) (pagination.CursorResult[*searchlog.Entry], error) {
	b := sqlbuilder.Select(searchLogColumns).
		From("search_logs").
		Filter(searchLogFilters, q.Filters, "")
	return scrollPage(ctx, r.db, "search_logs.scroll", b, cursorOf(q), scanSearchLog, func(e *searchlog.Entry) int64 {
		return e.ID
	})
}

// DeleteBefore deletes entries created before t.
func (r *SearchLogRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	start := time.Now()
	result, err := r.db.ExecContext(ctx, `DELETE FROM search_logs WHERE created_at < $1`, t)
	metrics.ObserveQuery("search_logs.delete_before", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old search logs: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return count, nil
}

func scanSearchLog(row rowScanner) (*searchlog.Entry, error) {
	var (
		e         searchlog.Entry
		filters   []byte
		requestID sql.NullString
		clientIP  sql.NullString
	)
	err := row.Scan(&e.ID, &e.Module, &filters, &e.ResultCount, &requestID, &clientIP, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(filters) > 0 {
		e.Filters = json.RawMessage(filters)
	}
	e.RequestID = nullStringValue(requestID)
	e.ClientIP = nullStringValue(clientIP)
	return &e, nil
}

var _ searchlog.Repository = (*SearchLogRepository)(nil)

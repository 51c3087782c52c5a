package postgres

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hromada/backoffice/internal/metrics"
	"github.com/hromada/backoffice/pkg/pagination"
	"github.com/hromada/backoffice/pkg/sqlbuilder"
)

// listPage runs the page query and the count query of b concurrently and
// packages the result. Both queries share the builder's conditions.
func listPage[T any](
	ctx context.Context,
	db *DB,
	op string,
	b *sqlbuilder.SelectBuilder,
	page pagination.Page,
	scan func(rowScanner) (T, error),
) (pagination.Result[T], error) {
	start := time.Now()
	b.Paginate(page)
	countQuery, countArgs := b.BuildCount()
	query, args := b.Build()

	var (
		total int64
		items []T
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := db.QueryRowContext(gctx, countQuery, countArgs...).Scan(&total); err != nil {
			return fmt.Errorf("failed to count: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		items, err = queryRows(gctx, db, query, args, scan)
		return err
	})

	err := g.Wait()
	metrics.ObserveQuery(op, start, err)
	if err != nil {
		return pagination.Result[T]{}, translateReadError(err, op)
	}
	return pagination.NewResult(items, total, page), nil
}

// scrollPage runs b in cursor mode and trims the extra row.
func scrollPage[T any](
	ctx context.Context,
	db *DB,
	op string,
	b *sqlbuilder.SelectBuilder,
	c pagination.Cursor,
	scan func(rowScanner) (T, error),
	idOf func(T) int64,
) (pagination.CursorResult[T], error) {
	start := time.Now()
	query, args := b.After(c).Build()

	rows, err := queryRows(ctx, db, query, args, scan)
	metrics.ObserveQuery(op, start, err)
	if err != nil {
		return pagination.CursorResult[T]{}, translateReadError(err, op)
	}
	return pagination.NewCursorResult(rows, c, idOf), nil
}

// queryRows runs query and scans every row. Rows are always closed.
func queryRows[T any](
	ctx context.Context,
	db *DB,
	query string,
	args []any,
	scan func(rowScanner) (T, error),
) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return items, nil
}

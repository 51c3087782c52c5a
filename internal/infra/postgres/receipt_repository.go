package postgres

import (
	"context"

	"github.com/hromada/backoffice/pkg/domain/receipt"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/pagination"
	"github.com/hromada/backoffice/pkg/sqlbuilder"
)

// receiptFilters are the filterable fields of the receipts list.
var receiptFilters = sqlbuilder.Schema{
	"name":         sqlbuilder.Fuzzy("name"),
	"identifier":   sqlbuilder.Exact("identifier"),
	"counter":      sqlbuilder.Exact("counter"),
	"status":       sqlbuilder.Set("status"),
	"amount":       sqlbuilder.Range("amount"),
	"arrival_date": sqlbuilder.Range("arrival_date"),
}

const receiptColumns = "id, identifier, name, counter, amount, arrival_date, departure_date, status, created_at"

// ReceiptRepository implements receipt.Repository using PostgreSQL.
type ReceiptRepository struct {
	db *DB
}

// NewReceiptRepository creates a new ReceiptRepository.
func NewReceiptRepository(db *DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// Create persists a new receipt.
func (r *ReceiptRepository) Create(ctx context.Context, rc *receipt.Receipt) error {
	query := `
		INSERT INTO receipts (identifier, name, counter, amount, arrival_date, departure_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		rc.Identifier,
		rc.Name,
		rc.Counter,
		rc.Amount,
		rc.ArrivalDate,
		rc.DepartureDate,
		string(rc.Status),
		rc.CreatedAt,
	).Scan(&rc.ID)
	if err != nil {
		return translateWriteError(err, "create", "receipt", "identifier", rc.Identifier)
	}
	return nil
}

// GetByID retrieves a receipt by ID.
func (r *ReceiptRepository) GetByID(ctx context.Context, id shared.ID) (*receipt.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id), "receipt", scanReceipt)
}

// Delete removes a receipt.
func (r *ReceiptRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM receipts WHERE id = $1`, id)
	if err != nil {
		return translateDeleteError(err, "receipt")
	}
	return expectAffected(result, "receipt")
}

// List retrieves receipts matching the query filters with pagination.
func (r *ReceiptRepository) List(ctx context.Context, q shared.ListQuery) (pagination.Result[*receipt.Receipt], error) {
	b := sqlbuilder.Select(receiptColumns).
		From("receipts").
		Filter(receiptFilters, q.Filters, "").
		OrderBy(q.Sort(receipt.Sorting))
	return listPage(ctx, r.db, "receipts.list", b, q.Page, scanReceipt)
}

// Scroll retrieves the receipts after the query cursor.
func (r *ReceiptRepository) Scroll(ctx context.Context, q shared.ListQuery) (pagination.CursorResult[*receipt.Receipt], error) {
	b := sqlbuilder.Select(receiptColumns).
		From("receipts").
		Filter(receiptFilters, q.Filters, "")
	return scrollPage(ctx, r.db, "receipts.scroll", b, cursorOf(q), scanReceipt, func(rc *receipt.Receipt) int64 {
		return rc.ID
	})
}

func scanReceipt(row rowScanner) (*receipt.Receipt, error) {
	var (
		rc     receipt.Receipt
		status string
	)
	err := row.Scan(
		&rc.ID,
		&rc.Identifier,
		&rc.Name,
		&rc.Counter,
		&rc.Amount,
		&rc.ArrivalDate,
		&rc.DepartureDate,
		&status,
		&rc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rc.Status = receipt.Status(status)
	return &rc, nil
}

var _ receipt.Repository = (*ReceiptRepository)(nil)

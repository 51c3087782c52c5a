package postgres

import (
	"context"
	"database/sql"

	"github.com/hromada/backoffice/pkg/domain/charge"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/pagination"
	"github.com/hromada/backoffice/pkg/sqlbuilder"
)

// chargeFilters are the filterable fields of the charges list.
var chargeFilters = sqlbuilder.Schema{
	"payer_name":     sqlbuilder.Fuzzy("payer_name"),
	"tax_number":     sqlbuilder.Exact("tax_number"),
	"account_number": sqlbuilder.Exact("account_number"),
	"document_id":    sqlbuilder.Exact("document_id"),
	"tax_classifier": sqlbuilder.Set("tax_classifier"),
	"status":         sqlbuilder.Set("status"),
	"amount":         sqlbuilder.Range("amount"),
	"document_date":  sqlbuilder.Range("document_date"),
}

const chargeColumns = "id, tax_number, payer_name, tax_classifier, account_number, document_id, " +
	"amount, document_date, delivery_date, status, created_at, updated_at"

// ChargeRepository implements charge.Repository using PostgreSQL.
type ChargeRepository struct {
	db *DB
}

// NewChargeRepository creates a new ChargeRepository.
func NewChargeRepository(db *DB) *ChargeRepository {
	return &ChargeRepository{db: db}
}

// Create persists a new charge.
func (r *ChargeRepository) Create(ctx context.Context, c *charge.Charge) error {
	query := `
		INSERT INTO charges (
			tax_number, payer_name, tax_classifier, account_number, document_id,
			amount, document_date, delivery_date, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		c.TaxNumber,
		c.PayerName,
		c.TaxClassifier,
		nullString(c.AccountNumber),
		c.DocumentID,
		c.Amount,
		c.DocumentDate,
		nullTime(c.DeliveryDate),
		string(c.Status),
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return translateWriteError(err, "create", "charge", "document_id", c.DocumentID)
	}
	return nil
}

// GetByID retrieves a charge by ID.
func (r *ChargeRepository) GetByID(ctx context.Context, id shared.ID) (*charge.Charge, error) {
	query := `SELECT ` + chargeColumns + ` FROM charges WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id), "charge", scanCharge)
}

// UpdateStatus stores the status and delivery date of a charge.
func (r *ChargeRepository) UpdateStatus(ctx context.Context, c *charge.Charge) error {
	query := `UPDATE charges SET status = $2, delivery_date = $3, updated_at = $4 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, c.ID, string(c.Status), nullTime(c.DeliveryDate), c.UpdatedAt)
	if err != nil {
		return translateWriteError(err, "update", "charge", "status", string(c.Status))
	}
	return expectAffected(result, "charge")
}

// Delete removes a charge.
func (r *ChargeRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM charges WHERE id = $1`, id)
	if err != nil {
		return translateDeleteError(err, "charge")
	}
	return expectAffected(result, "charge")
}

// List retrieves charges matching the query filters with pagination.
func (r *ChargeRepository) List(ctx context.Context, q shared.ListQuery) (pagination.Result[*charge.Charge], error) {
	return listPage(ctx, r.db, "charges.list", r.selectQuery(q).OrderBy(q.Sort(charge.Sorting)), q.Page, scanCharge)
}

// Scroll retrieves the charges after the query cursor.
func (r *ChargeRepository) Scroll(ctx context.Context, q shared.ListQuery) (pagination.CursorResult[*charge.Charge], error) {
	return scrollPage(ctx, r.db, "charges.scroll", r.selectQuery(q), cursorOf(q), scanCharge, func(c *charge.Charge) int64 {
		return c.ID
	})
}

func (r *ChargeRepository) selectQuery(q shared.ListQuery) *sqlbuilder.SelectBuilder {
	return sqlbuilder.Select(chargeColumns).
		From("charges").
		Filter(chargeFilters, q.Filters, "")
}

func scanCharge(row rowScanner) (*charge.Charge, error) {
	var (
		c             charge.Charge
		accountNumber sql.NullString
		deliveryDate  sql.NullTime
		status        string
	)
	err := row.Scan(
		&c.ID,
		&c.TaxNumber,
		&c.PayerName,
		&c.TaxClassifier,
		&accountNumber,
		&c.DocumentID,
		&c.Amount,
		&c.DocumentDate,
		&deliveryDate,
		&status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.AccountNumber = nullStringValue(accountNumber)
	c.DeliveryDate = nullTimeValue(deliveryDate)
	c.Status = charge.Status(status)
	return &c, nil
}

// cursorOf returns the query cursor, or the first page when the query has
// none.
func cursorOf(q shared.ListQuery) pagination.Cursor {
	if q.Cursor != nil {
		return *q.Cursor
	}
	return pagination.NewCursor(0, "", q.Page.Limit)
}

var _ charge.Repository = (*ChargeRepository)(nil)

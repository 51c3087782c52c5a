package postgres

import (
	"context"

	"github.com/hromada/backoffice/pkg/domain/debtor"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/pagination"
	"github.com/hromada/backoffice/pkg/sqlbuilder"
)

// debtorFilters are the filterable fields of the debtors list.
var debtorFilters = sqlbuilder.Schema{
	"name":        sqlbuilder.Fuzzy("name"),
	"tax_number":  sqlbuilder.Exact("tax_number"),
	"total_debt":  sqlbuilder.Range("total_debt"),
	"reported_at": sqlbuilder.Range("reported_at"),
}

const debtorColumns = `id, name, tax_number, residential_debt, non_residential_debt,
	land_debt, rent_debt, total_debt, reported_at, created_at, updated_at`

// DebtorRepository implements debtor.Repository using PostgreSQL.
type DebtorRepository struct {
	db *DB
}

// NewDebtorRepository creates a new DebtorRepository.
func NewDebtorRepository(db *DB) *DebtorRepository {
	return &DebtorRepository{db: db}
}

// Create persists a new debtor.
func (r *DebtorRepository) Create(ctx context.Context, d *debtor.Debtor) error {
	query := `
		INSERT INTO debtors (
			name, tax_number, residential_debt, non_residential_debt,
			land_debt, rent_debt, total_debt, reported_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		d.Name,
		d.TaxNumber,
		d.Debts.Residential,
		d.Debts.NonResidential,
		d.Debts.Land,
		d.Debts.Rent,
		d.TotalDebt,
		d.ReportedAt,
		d.CreatedAt,
		d.UpdatedAt,
	).Scan(&d.ID)
	if err != nil {
		return translateWriteError(err, "create", "debtor", "tax_number", d.TaxNumber)
	}
	return nil
}

// GetByID retrieves a debtor by ID.
func (r *DebtorRepository) GetByID(ctx context.Context, id shared.ID) (*debtor.Debtor, error) {
	query := `SELECT ` + debtorColumns + ` FROM debtors WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id), "debtor", scanDebtor)
}

// Update updates an existing debtor.
func (r *DebtorRepository) Update(ctx context.Context, d *debtor.Debtor) error {
	query := `
		UPDATE debtors
		SET name = $2, residential_debt = $3, non_residential_debt = $4,
			land_debt = $5, rent_debt = $6, total_debt = $7, reported_at = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.Name,
		d.Debts.Residential,
		d.Debts.NonResidential,
		d.Debts.Land,
		d.Debts.Rent,
		d.TotalDebt,
		d.ReportedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return translateWriteError(err, "update", "debtor", "tax_number", d.TaxNumber)
	}
	return expectAffected(result, "debtor")
}

// Delete removes a debtor.
func (r *DebtorRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM debtors WHERE id = $1`, id)
	if err != nil {
		return translateDeleteError(err, "debtor")
	}
	return expectAffected(result, "debtor")
}

// List retrieves debtors matching the query filters with pagination.
func (r *DebtorRepository) List(ctx context.Context, q shared.ListQuery) (pagination.Result[*debtor.Debtor], error) {
	b := sqlbuilder.Select(debtorColumns).
		From("debtors").
		Filter(debtorFilters, q.Filters, "").
		OrderBy(q.Sort(debtor.Sorting))

	return listPage(ctx, r.db, "debtors.list", b, q.Page, scanDebtor)
}

func scanDebtor(row rowScanner) (*debtor.Debtor, error) {
	d := &debtor.Debtor{}
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.TaxNumber,
		&d.Debts.Residential,
		&d.Debts.NonResidential,
		&d.Debts.Land,
		&d.Debts.Rent,
		&d.TotalDebt,
		&d.ReportedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

var _ debtor.Repository = (*DebtorRepository)(nil)

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hromada/backoffice/pkg/domain/cnap"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/pagination"
	"github.com/hromada/backoffice/pkg/sqlbuilder"
)

// cnapServiceFilters are the filterable fields of the services list. "title"
// is what the admin UI sends for a name search.
var cnapServiceFilters = sqlbuilder.Schema{
	"name":       sqlbuilder.Fuzzy("name"),
	"title":      sqlbuilder.Fuzzy("name"),
	"identifier": sqlbuilder.Exact("identifier"),
	"edrpou":     sqlbuilder.Exact("edrpou"),
	"enabled":    sqlbuilder.Exact("enabled"),
	"price":      sqlbuilder.Range("price"),
}

// cnapAccountFilters are the filterable fields of the accounts list.
var cnapAccountFilters = sqlbuilder.Schema{
	"payer_name":     sqlbuilder.Fuzzy("payer_name"),
	"account_number": sqlbuilder.Exact("account_number"),
	"service_id":     sqlbuilder.Exact("service_id"),
	"status":         sqlbuilder.Set("status"),
	"amount":         sqlbuilder.Range("amount"),
	"created_at":     sqlbuilder.Range("created_at"),
}

const (
	cnapServiceColumns = "id, identifier, name, price, edrpou, iban, enabled, issued_count, created_at, updated_at"
	cnapAccountColumns = "id, service_id, account_number, payer_name, amount, status, created_at"
)

// CNAPServiceRepository implements cnap.ServiceRepository using PostgreSQL.
type CNAPServiceRepository struct {
	db *DB
}

// NewCNAPServiceRepository creates a new CNAPServiceRepository.
func NewCNAPServiceRepository(db *DB) *CNAPServiceRepository {
	return &CNAPServiceRepository{db: db}
}

// Create persists a new service.
func (r *CNAPServiceRepository) Create(ctx context.Context, s *cnap.Service) error {
	query := `
		INSERT INTO cnap_services (identifier, name, price, edrpou, iban, enabled, issued_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		s.Identifier,
		s.Name,
		s.Price,
		s.EDRPOU,
		s.IBAN,
		s.Enabled,
		s.IssuedCount,
		s.CreatedAt,
		s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		return translateWriteError(err, "create", "service", "identifier", s.Identifier)
	}
	return nil
}

// GetByID retrieves a service by ID.
func (r *CNAPServiceRepository) GetByID(ctx context.Context, id shared.ID) (*cnap.Service, error) {
	query := `SELECT ` + cnapServiceColumns + ` FROM cnap_services WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id), "service", scanCNAPService)
}

// Update updates an existing service. The issued counter is owned by
// account creation and is not written here.
func (r *CNAPServiceRepository) Update(ctx context.Context, s *cnap.Service) error {
	query := `
		UPDATE cnap_services
		SET identifier = $2, name = $3, price = $4, edrpou = $5, iban = $6, enabled = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.Identifier,
		s.Name,
		s.Price,
		s.EDRPOU,
		s.IBAN,
		s.Enabled,
		s.UpdatedAt,
	)
	if err != nil {
		return translateWriteError(err, "update", "service", "identifier", s.Identifier)
	}
	return expectAffected(result, "service")
}

// Delete removes a service. Services with issued accounts cannot be deleted.
func (r *CNAPServiceRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cnap_services WHERE id = $1`, id)
	if err != nil {
		return translateDeleteError(err, "service")
	}
	return expectAffected(result, "service")
}

// List retrieves services matching the query filters with pagination.
func (r *CNAPServiceRepository) List(ctx context.Context, q shared.ListQuery) (pagination.Result[*cnap.Service], error) {
	b := sqlbuilder.Select(cnapServiceColumns).
		From("cnap_services").
		Filter(cnapServiceFilters, q.Filters, "").
		OrderBy(q.Sort(cnap.ServiceSorting))
	return listPage(ctx, r.db, "cnap_services.list", b, q.Page, scanCNAPService)
}

func scanCNAPService(row rowScanner) (*cnap.Service, error) {
	var s cnap.Service
	err := row.Scan(
		&s.ID,
		&s.Identifier,
		&s.Name,
		&s.Price,
		&s.EDRPOU,
		&s.IBAN,
		&s.Enabled,
		&s.IssuedCount,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CNAPAccountRepository implements cnap.AccountRepository using PostgreSQL.
type CNAPAccountRepository struct {
	db *DB
}

// NewCNAPAccountRepository creates a new CNAPAccountRepository.
func NewCNAPAccountRepository(db *DB) *CNAPAccountRepository {
	return &CNAPAccountRepository{db: db}
}

// Create bumps the issued counter of the service, derives the account number
// from it and inserts the account, all in one transaction.
func (r *CNAPAccountRepository) Create(ctx context.Context, a *cnap.Account) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		var (
			identifier string
			issued     int64
		)
		err := tx.QueryRowContext(ctx, `
			UPDATE cnap_services
			SET issued_count = issued_count + 1
			WHERE id = $1
			RETURNING identifier, issued_count
		`, a.ServiceID).Scan(&identifier, &issued)
		if err != nil {
			return fmt.Errorf("failed to reserve account number: %w", err)
		}

		number := cnap.AccountNumber(identifier, issued)
		err = tx.QueryRowContext(ctx, `
			INSERT INTO cnap_accounts (service_id, account_number, payer_name, amount, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, a.ServiceID, number, a.PayerName, a.Amount, string(a.Status), a.CreatedAt).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}

		a.AccountNumber = number
		return nil
	})
}

// GetByID retrieves an account by ID.
func (r *CNAPAccountRepository) GetByID(ctx context.Context, id shared.ID) (*cnap.Account, error) {
	query := `SELECT ` + cnapAccountColumns + ` FROM cnap_accounts WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id), "account", scanCNAPAccount)
}

// Delete removes an account.
func (r *CNAPAccountRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cnap_accounts WHERE id = $1`, id)
	if err != nil {
		return translateDeleteError(err, "account")
	}
	return expectAffected(result, "account")
}

// List retrieves accounts matching the query filters with pagination.
func (r *CNAPAccountRepository) List(ctx context.Context, q shared.ListQuery) (pagination.Result[*cnap.Account], error) {
	b := sqlbuilder.Select(cnapAccountColumns).
		From("cnap_accounts").
		Filter(cnapAccountFilters, q.Filters, "").
		OrderBy(q.Sort(cnap.AccountSorting))
	return listPage(ctx, r.db, "cnap_accounts.list", b, q.Page, scanCNAPAccount)
}

func scanCNAPAccount(row rowScanner) (*cnap.Account, error) {
	var (
		a      cnap.Account
		status string
	)
	err := row.Scan(
		&a.ID,
		&a.ServiceID,
		&a.AccountNumber,
		&a.PayerName,
		&a.Amount,
		&status,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = cnap.AccountStatus(status)
	return &a, nil
}

var (
	_ cnap.ServiceRepository = (*CNAPServiceRepository)(nil)
	_ cnap.AccountRepository = (*CNAPAccountRepository)(nil)
)

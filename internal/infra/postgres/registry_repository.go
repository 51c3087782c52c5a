package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hromada/backoffice/internal/metrics"
	"github.com/hromada/backoffice/pkg/domain/registry"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/pagination"
	"github.com/hromada/backoffice/pkg/sqlbuilder"
)

// registryFilters are the filterable fields of the registries list.
var registryFilters = sqlbuilder.Schema{
	"title":        sqlbuilder.Fuzzy("title"),
	"name":         sqlbuilder.Fuzzy("name"),
	"category":     sqlbuilder.Set("category"),
	"status":       sqlbuilder.Set("status"),
	"published_at": sqlbuilder.Range("published_at"),
}

const (
	registryColumns = "id, name, title, description, category, status, records_count, published_at, created_at, updated_at"
	recordColumns   = "id, registry_id, payload, created_at"
)

// RegistryRepository implements registry.Repository using PostgreSQL.
type RegistryRepository struct {
	db *DB
}

// NewRegistryRepository creates a new RegistryRepository.
func NewRegistryRepository(db *DB) *RegistryRepository {
	return &RegistryRepository{db: db}
}

// Create persists a new registry.
func (r *RegistryRepository) Create(ctx context.Context, reg *registry.Registry) error {
	query := `
		INSERT INTO registries (name, title, description, category, status, records_count, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		reg.Name,
		reg.Title,
		nullString(reg.Description),
		reg.Category,
		string(reg.Status),
		reg.RecordsCount,
		nullTime(reg.PublishedAt),
		reg.CreatedAt,
		reg.UpdatedAt,
	).Scan(&reg.ID)
	if err != nil {
		return translateWriteError(err, "create", "registry", "name", reg.Name)
	}
	return nil
}

// GetByID retrieves a registry by ID.
func (r *RegistryRepository) GetByID(ctx context.Context, id shared.ID) (*registry.Registry, error) {
	query := `SELECT ` + registryColumns + ` FROM registries WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id), "registry", scanRegistry)
}

// Update updates an existing registry.
func (r *RegistryRepository) Update(ctx context.Context, reg *registry.Registry) error {
	query := `
		UPDATE registries
		SET name = $2, title = $3, description = $4, category = $5, status = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		reg.ID,
		reg.Name,
		reg.Title,
		nullString(reg.Description),
		reg.Category,
		string(reg.Status),
		reg.UpdatedAt,
	)
	if err != nil {
		return translateWriteError(err, "update", "registry", "name", reg.Name)
	}
	return expectAffected(result, "registry")
}

// Delete removes a registry. Its records are removed by cascade.
func (r *RegistryRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM registries WHERE id = $1`, id)
	if err != nil {
		return translateDeleteError(err, "registry")
	}
	return expectAffected(result, "registry")
}

// List retrieves registries matching the query filters with pagination.
func (r *RegistryRepository) List(ctx context.Context, q shared.ListQuery) (pagination.Result[*registry.Registry], error) {
	b := sqlbuilder.Select(registryColumns).
		From("registries").
		Filter(registryFilters, q.Filters, "").
		OrderBy(q.Sort(registry.Sorting))
	return listPage(ctx, r.db, "registries.list", b, q.Page, scanRegistry)
}

// ListByStatus retrieves all registries with the given status, oldest first.
func (r *RegistryRepository) ListByStatus(ctx context.Context, status registry.Status) ([]*registry.Registry, error) {
	start := time.Now()
	query := `SELECT ` + registryColumns + ` FROM registries WHERE status = $1 ORDER BY id ASC`

	items, err := queryRows(ctx, r.db, query, []any{string(status)}, scanRegistry)
	metrics.ObserveQuery("registries.list_by_status", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list registries by status: %w", err)
	}
	return items, nil
}

// AddRecord inserts a record and increments the registry's records_count in
// one transaction.
func (r *RegistryRepository) AddRecord(ctx context.Context, rec *registry.Record) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO registry_records (registry_id, payload, created_at)
			VALUES ($1, $2, $3)
			RETURNING id
		`, rec.RegistryID, []byte(rec.Payload), rec.CreatedAt).Scan(&rec.ID)
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE registries SET records_count = records_count + 1, updated_at = $2 WHERE id = $1
		`, rec.RegistryID, rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to count record: %w", err)
		}
		return expectAffected(result, "registry")
	})
}

// ListRecords retrieves one page of records after the cursor.
func (r *RegistryRepository) ListRecords(ctx context.Context, registryID shared.ID, c pagination.Cursor) (pagination.CursorResult[*registry.Record], error) {
	b := sqlbuilder.Select(recordColumns).
		From("registry_records").
		Where(sqlbuilder.Expr("registry_id = ?", registryID))
	return scrollPage(ctx, r.db, "registry_records.scroll", b, c, scanRecord, func(rec *registry.Record) int64 {
		return rec.ID
	})
}

// EachRecord streams every record of a registry in id order. Iteration stops
// at the first error returned by fn.
func (r *RegistryRepository) EachRecord(ctx context.Context, registryID shared.ID, fn func(*registry.Record) error) error {
	query := `SELECT ` + recordColumns + ` FROM registry_records WHERE registry_id = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, registryID)
	if err != nil {
		return fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return fmt.Errorf("failed to scan record: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate records: %w", err)
	}
	return nil
}

// MarkPublished stamps the publication time of a registry.
func (r *RegistryRepository) MarkPublished(ctx context.Context, id shared.ID, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE registries SET published_at = $2, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark registry published: %w", err)
	}
	return expectAffected(result, "registry")
}

func scanRegistry(row rowScanner) (*registry.Registry, error) {
	var (
		reg         registry.Registry
		description sql.NullString
		status      string
		publishedAt sql.NullTime
	)
	err := row.Scan(
		&reg.ID,
		&reg.Name,
		&reg.Title,
		&description,
		&reg.Category,
		&status,
		&reg.RecordsCount,
		&publishedAt,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	reg.Description = nullStringValue(description)
	reg.Status = registry.Status(status)
	reg.PublishedAt = nullTimeValue(publishedAt)
	return &reg, nil
}

func scanRecord(row rowScanner) (*registry.Record, error) {
	var (
		rec     registry.Record
		payload []byte
	)
	if err := row.Scan(&rec.ID, &rec.RegistryID, &payload, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Payload = json.RawMessage(payload)
	return &rec, nil
}

var _ registry.Repository = (*RegistryRepository)(nil)

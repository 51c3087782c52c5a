package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hromada/backoffice/internal/metrics"
	"github.com/hromada/backoffice/pkg/domain/registry"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/pagination"
	"github.com/hromada/backoffice/pkg/validator"
)

// ErrPublishingDisabled is returned by Publish when no snapshot storage is
// configured.
var ErrPublishingDisabled = fmt.Errorf("%w: snapshot storage is not configured", shared.ErrValidation)

// RegistryService handles open-data registries and their snapshots.
type RegistryService struct {
	repo      registry.Repository
	publisher registry.Publisher
	prefix    string
	validator *validator.Validator
	audit     *SearchAuditor
	logger    *logger.Logger

	now func() time.Time
}

// NewRegistryService creates a new registry service. publisher may be nil,
// in which case publication is rejected.
func NewRegistryService(
	repo registry.Repository,
	publisher registry.Publisher,
	prefix string,
	v *validator.Validator,
	audit *SearchAuditor,
	log *logger.Logger,
) *RegistryService {
	return &RegistryService{
		repo:      repo,
		publisher: publisher,
		prefix:    prefix,
		validator: v,
		audit:     audit,
		logger:    log.With("service", "registry"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RegistryInput represents input for creating or updating a registry.
type RegistryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Title       string `json:"title" validate:"required,max=500"`
	Description string `json:"description" validate:"max=5000"`
	Category    string `json:"category" validate:"required,max=100"`
	Status      string `json:"status" validate:"omitempty,registry_status"`
}

func (in RegistryInput) params() registry.Params {
	return registry.Params{
		Name:        in.Name,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Status:      registry.Status(in.Status),
	}
}

// AddRecordInput represents input for adding a record.
type AddRecordInput struct {
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// PublishResult describes a published snapshot.
type PublishResult struct {
	RegistryID  shared.ID `json:"registry_id" yaml:"registry_id"`
	Name        string    `json:"name" yaml:"name"`
	Key         string    `json:"key" yaml:"key"`
	Location    string    `json:"location" yaml:"location"`
	Records     int64     `json:"records" yaml:"records"`
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`
}

// Search lists one offset page of registries.
func (s *RegistryService) Search(ctx context.Context, q shared.ListQuery) (ListOutput[*registry.Registry], error) {
	result, err := s.repo.List(ctx, q)
	if err != nil {
		return ListOutput[*registry.Registry]{}, err
	}

	s.audit.Record(ctx, ModuleRegistries, q.Filters, result.TotalItems)
	return newListOutput(ModuleRegistries, result, q.Sort(registry.Sorting)), nil
}

// Get retrieves a registry by ID.
func (s *RegistryService) Get(ctx context.Context, id shared.ID) (*registry.Registry, error) {
	return s.repo.GetByID(ctx, id)
}

// Create creates a new registry.
func (s *RegistryService) Create(ctx context.Context, input RegistryInput) (*registry.Registry, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	r, err := registry.NewRegistry(input.params())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("registry created", "id", r.ID, "name", r.Name)
	return r, nil
}

// Update updates a registry.
func (s *RegistryService) Update(ctx context.Context, id shared.ID, input RegistryInput) (*registry.Registry, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.Update(input.params()); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete deletes a registry and its records.
func (s *RegistryService) Delete(ctx context.Context, id shared.ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithContext(ctx).Info("registry deleted", "id", id)
	return nil
}

// AddRecord appends a record to a registry.
func (s *RegistryService) AddRecord(ctx context.Context, registryID shared.ID, input AddRecordInput) (*registry.Record, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	r, err := s.repo.GetByID(ctx, registryID)
	if err != nil {
		return nil, err
	}
	if r.Status == registry.StatusArchived {
		return nil, shared.Validation("status", fmt.Sprintf("registry %q is archived", r.Name))
	}

	rec, err := registry.NewRecord(r.ID, input.Payload)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddRecord(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecords lists the records of a registry with cursor pagination. A query
// without a cursor starts at the newest record.
func (s *RegistryService) ListRecords(ctx context.Context, registryID shared.ID, q shared.ListQuery) (pagination.CursorResult[*registry.Record], error) {
	if _, err := s.repo.GetByID(ctx, registryID); err != nil {
		return pagination.CursorResult[*registry.Record]{}, err
	}

	c := pagination.NewCursor(0, "", q.Page.Limit)
	if q.Cursor != nil {
		c = *q.Cursor
	}

	result, err := s.repo.ListRecords(ctx, registryID, c)
	if err != nil {
		return pagination.CursorResult[*registry.Record]{}, err
	}
	return observeScroll(ModuleRegistries, result), nil
}

// Publish writes a snapshot of the registry to storage and stamps its
// publication time.
func (s *RegistryService) Publish(ctx context.Context, id shared.ID) (*PublishResult, error) {
	if s.publisher == nil {
		return nil, ErrPublishingDisabled
	}

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.publish(ctx, r)
	metrics.RegistryPublications.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		return nil, err
	}
	metrics.RegistryPublishedRecords.Add(float64(result.Records))

	s.logger.WithContext(ctx).Info("registry published",
		"id", r.ID,
		"name", r.Name,
		"key", result.Key,
		"records", result.Records,
	)
	return result, nil
}

// PublishAll publishes every registry in the published status. Failures are
// logged and do not stop the run.
func (s *RegistryService) PublishAll(ctx context.Context) ([]*PublishResult, error) {
	if s.publisher == nil {
		return nil, ErrPublishingDisabled
	}

	regs, err := s.repo.ListByStatus(ctx, registry.StatusPublished)
	if err != nil {
		return nil, err
	}

	results := make([]*PublishResult, 0, len(regs))
	var errs []error
	for _, r := range regs {
		result, err := s.Publish(ctx, r.ID)
		if err != nil {
			s.logger.WithContext(ctx).Error("failed to publish registry", "id", r.ID, "name", r.Name, "error", err)
			errs = append(errs, fmt.Errorf("registry %s: %w", r.Name, err))
			continue
		}
		results = append(results, result)
	}
	return results, errors.Join(errs...)
}

func (s *RegistryService) publish(ctx context.Context, r *registry.Registry) (*PublishResult, error) {
	if err := r.CanPublish(); err != nil {
		return nil, err
	}

	at := s.now()
	key := r.SnapshotKey(s.prefix, at)

	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	var records int64
	g.Go(func() error {
		n, err := s.writeSnapshot(gctx, r, at, pw)
		records = n
		_ = pw.CloseWithError(err)
		return err
	})

	var location string
	g.Go(func() error {
		var err error
		location, err = s.publisher.Publish(gctx, key, pr)
		// Unblocks the writer when the upload stops early.
		_ = pr.CloseWithError(err)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to publish registry %s: %w", r.Name, err)
	}

	if err := s.repo.MarkPublished(ctx, r.ID, at); err != nil {
		return nil, err
	}
	r.PublishedAt = &at

	return &PublishResult{
		RegistryID:  r.ID,
		Name:        r.Name,
		Key:         key,
		Location:    location,
		Records:     records,
		PublishedAt: at,
	}, nil
}

// snapshotHeader is the part of a snapshot that precedes the records.
type snapshotHeader struct {
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	PublishedAt time.Time `json:"published_at"`
}

// writeSnapshot streams the registry as
// {"registry": {...}, "records": [payload, ...]} and returns the record count.
func (s *RegistryService) writeSnapshot(ctx context.Context, r *registry.Registry, at time.Time, w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)

	header, err := json.Marshal(snapshotHeader{
		Name:        r.Name,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		PublishedAt: at,
	})
	if err != nil {
		return 0, err
	}

	if _, err := fmt.Fprintf(bw, `{"registry":%s,"records":[`, header); err != nil {
		return 0, err
	}

	var n int64
	err = s.repo.EachRecord(ctx, r.ID, func(rec *registry.Record) error {
		if n > 0 {
			if err := bw.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := bw.Write(rec.Payload); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}

	if _, err := bw.WriteString("]}"); err != nil {
		return n, err
	}
	return n, bw.Flush()
}

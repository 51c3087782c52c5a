// Package registry defines open-data registries: named sets of JSON records
// that are published as snapshots.
package registry

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hromada/backoffice/pkg/domain/shared"
)

var nameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$`)

// Status of a registry.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// ParseStatus parses a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusDraft, StatusPublished, StatusArchived:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown registry status %q", shared.ErrValidation, s)
	}
}

// Registry is an open-data set.
type Registry struct {
	ID shared.ID
	// Name is the slug used in snapshot object keys.
	Name         string
	Title        string
	Description  string
	Category     string
	Status       Status
	RecordsCount int64
	PublishedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Params holds the editable fields of a registry.
type Params struct {
	Name        string
	Title       string
	Description string
	Category    string
	Status      Status
}

// NewRegistry creates a validated registry. The status defaults to draft.
func NewRegistry(p Params) (*Registry, error) {
	now := time.Now().UTC()
	r := &Registry{CreatedAt: now}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if err := r.apply(p, now); err != nil {
		return nil, err
	}
	return r, nil
}

// Update replaces the editable fields. The name is kept when p.Name is empty.
func (r *Registry) Update(p Params) error {
	if p.Name == "" {
		p.Name = r.Name
	}
	if p.Status == "" {
		p.Status = r.Status
	}
	return r.apply(p, time.Now().UTC())
}

func (r *Registry) apply(p Params, now time.Time) error {
	r.Name = strings.ToLower(strings.TrimSpace(p.Name))
	r.Title = strings.TrimSpace(p.Title)
	r.Description = strings.TrimSpace(p.Description)
	r.Category = strings.TrimSpace(p.Category)
	r.Status = p.Status
	r.UpdatedAt = now
	return r.Validate()
}

// Validate validates the registry data.
func (r *Registry) Validate() error {
	switch {
	case r.Name == "":
		return shared.Validation("name", "name is required")
	case len(r.Name) > 100 || !nameRegex.MatchString(r.Name):
		return shared.Validation("name", "name must be lowercase alphanumeric with hyphens (e.g. 'street-names')")
	case r.Title == "":
		return shared.Validation("title", "title is required")
	case r.Category == "":
		return shared.Validation("category", "category is required")
	}
	if _, err := ParseStatus(string(r.Status)); err != nil {
		return shared.Validation("status", "status must be one of: draft, published, archived")
	}
	return nil
}

// CanPublish reports whether snapshots may be produced.
func (r *Registry) CanPublish() error {
	if r.Status == StatusArchived {
		return shared.Validation("status", fmt.Sprintf("registry %q is archived", r.Name))
	}
	return nil
}

// SnapshotKey returns the object key of a snapshot taken at t.
func (r *Registry) SnapshotKey(prefix string, t time.Time) string {
	key := fmt.Sprintf("%s/%s.json", r.Name, t.UTC().Format("20060102T150405Z"))
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}
	return key
}

// Record is one row of a registry.
type Record struct {
	ID         shared.ID
	RegistryID shared.ID
	Payload    json.RawMessage
	CreatedAt  time.Time
}

// NewRecord creates a record. The payload must be a JSON object.
func NewRecord(registryID shared.ID, payload json.RawMessage) (*Record, error) {
	var obj map[string]any
	if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
		return nil, shared.Validation("payload", "payload must be a JSON object")
	}
	return &Record{
		RegistryID: registryID,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

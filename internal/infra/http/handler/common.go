// Package handler implements the HTTP handlers of the back-office API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hromada/backoffice/internal/app"
	infrahttp "github.com/hromada/backoffice/internal/infra/http"
	"github.com/hromada/backoffice/internal/infra/http/middleware"
	"github.com/hromada/backoffice/pkg/apierror"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/filter"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/pagination"
)

const dateLayout = "2006-01-02"

// ListResponse is one offset page with the applied sort.
type ListResponse[T any] struct {
	Items         []T    `json:"items"`
	TotalItems    int64  `json:"totalItems"`
	TotalPages    int    `json:"totalPages"`
	CurrentPage   int    `json:"currentPage"`
	PageSize      int    `json:"pageSize"`
	SortBy        string `json:"sort_by"`
	SortDirection string `json:"sort_direction"`
}

// CursorResponse is one keyset page.
type CursorResponse[T any] struct {
	Items      []T    `json:"items"`
	HasMore    bool   `json:"hasMore"`
	NextCursor *int64 `json:"nextCursor"`
	PageSize   int    `json:"pageSize"`
	Direction  string `json:"direction"`
}

// CountedResponse is the {data, count} shape of aggregate listings.
type CountedResponse[T any] struct {
	Data  []T   `json:"data"`
	Count int64 `json:"count"`
}

func toListResponse[T, R any](out app.ListOutput[T], convert func(T) R) ListResponse[R] {
	return ListResponse[R]{
		Items:         mapItems(out.Items, convert),
		TotalItems:    out.TotalItems,
		TotalPages:    out.TotalPages,
		CurrentPage:   out.CurrentPage,
		PageSize:      out.PageSize,
		SortBy:        out.SortBy,
		SortDirection: out.SortDirection,
	}
}

func toCursorResponse[T, R any](out pagination.CursorResult[T], convert func(T) R) CursorResponse[R] {
	return CursorResponse[R]{
		Items:      mapItems(out.Items, convert),
		HasMore:    out.HasMore,
		NextCursor: out.NextCursor,
		PageSize:   out.PageSize,
		Direction:  string(out.Direction),
	}
}

func toCountedResponse[T, R any](out pagination.Counted[T], convert func(T) R) CountedResponse[R] {
	return CountedResponse[R]{
		Data:  mapItems(out.Data, convert),
		Count: out.Count,
	}
}

func mapItems[T, R any](items []T, convert func(T) R) []R {
	out := make([]R, len(items))
	for i, item := range items {
		out[i] = convert(item)
	}
	return out
}

// searchSpec reads search criteria from the JSON body of a POST request or
// from the query string otherwise. An empty body is an empty search.
func searchSpec(r *http.Request) (filter.Spec, error) {
	if r.Method != http.MethodPost {
		spec, err := filter.FromQuery(r.URL.RawQuery)
		if err != nil {
			return nil, apierror.BadRequest("Invalid query string")
		}
		return spec, nil
	}

	var spec filter.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return filter.Spec{}, nil
		}
		return nil, bodyError(err)
	}
	return spec, nil
}

// listQuery parses the paging, sorting and filter keys of a search request.
func listQuery(r *http.Request) (shared.ListQuery, filter.Spec, error) {
	spec, err := searchSpec(r)
	if err != nil {
		return shared.ListQuery{}, nil, err
	}
	return shared.NewListQuery(spec), spec, nil
}

// decodeJSON decodes a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return bodyError(err)
	}
	return nil
}

func bodyError(err error) error {
	switch {
	case middleware.IsBodyTooLarge(err):
		return apierror.PayloadTooLarge()
	case errors.Is(err, io.EOF):
		return apierror.BadRequest("Request body is required")
	default:
		return apierror.BadRequest("Invalid request body")
	}
}

// pathID parses the numeric {id} path parameter.
func pathID(r *http.Request, name string) (shared.ID, error) {
	return shared.ParseID(infrahttp.PathParam(r, name))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to its API error once for every handler. Server-side
// failures are logged with their cause; the client only sees a generic
// message.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	apiErr := apierror.FromError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		log.WithContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	apiErr.WriteJSON(w, middleware.GetRequestID(r.Context()))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

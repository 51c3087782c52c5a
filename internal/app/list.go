package app

import (
	"fmt"
	"time"

	"github.com/hromada/backoffice/internal/metrics"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/pagination"
)

// Module names used in search logs and metrics.
const (
	ModuleDebtors      = "debtors"
	ModuleCharges      = "charges"
	ModuleReceipts     = "receipts"
	ModuleCNAPServices = "cnap_services"
	ModuleCNAPAccounts = "cnap_accounts"
	ModuleRegistries   = "registries"
	ModuleSearchLogs   = "search_logs"
)

// List modes used in metrics.
const (
	modeOffset = "offset"
	modeCursor = "cursor"
)

// dateLayout is the wire format of calendar dates.
const dateLayout = "2006-01-02"

// ListOutput is one offset page with the resolved sort echoed back.
type ListOutput[T any] struct {
	pagination.Result[T]
	SortBy        string `json:"sort_by"`
	SortDirection string `json:"sort_direction"`
}

func newListOutput[T any](module string, r pagination.Result[T], s pagination.Sort) ListOutput[T] {
	metrics.ObserveList(module, modeOffset, len(r.Items))
	return ListOutput[T]{
		Result:        r,
		SortBy:        s.Field,
		SortDirection: string(s.Direction),
	}
}

func observeScroll[T any](module string, r pagination.CursorResult[T]) pagination.CursorResult[T] {
	metrics.ObserveList(module, modeCursor, len(r.Items))
	return r
}

// parseDate parses a YYYY-MM-DD date. Empty input yields the zero time.
func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, shared.Validation(field, fmt.Sprintf("%s must be a date in format YYYY-MM-DD", field))
	}
	return t, nil
}

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hromada/backoffice/internal/app"
	"github.com/hromada/backoffice/internal/infra/postgres"
	"github.com/hromada/backoffice/pkg/domain/searchlog"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/filter"
	"github.com/hromada/backoffice/pkg/pagination"
)

var searchesCmd = &cobra.Command{
	Use:     "searches",
	Aliases: []string{"search-logs"},
	Short:   "Inspect and prune the search audit log",
}

// searchListFlags are the filters of "searches list".
type searchListFlags struct {
	module    []string
	ip        string
	from      string
	to        string
	limit     int
	cursor    int64
	direction string
}

var listFlags searchListFlags

// spec builds the filter spec sent to the search log service. The cursor key
// is always present so the listing runs in cursor mode.
func (f searchListFlags) spec() (filter.Spec, error) {
	var spec filter.Spec

	if len(f.module) > 0 {
		spec = spec.Set("module", f.module)
	}
	if f.ip != "" {
		spec = spec.Set("ip", f.ip)
	}
	for _, r := range []struct{ key, value string }{
		{"created_at_from", f.from},
		{"created_at_to", f.to},
	} {
		key, value := r.key, r.value
		if value == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, value); err != nil {
			if _, err := time.Parse(time.RFC3339, value); err != nil {
				return nil, fmt.Errorf("%s: expected YYYY-MM-DD or RFC 3339 time, got %q", key, value)
			}
		}
		spec = spec.Set(key, value)
	}

	if f.limit < 0 || f.limit > pagination.MaxLimit {
		return nil, fmt.Errorf("limit must be between 1 and %d", pagination.MaxLimit)
	}
	if f.limit > 0 {
		spec = spec.Set(shared.KeyLimit, f.limit)
	}

	cursor := ""
	if f.cursor > 0 {
		cursor = strconv.FormatInt(f.cursor, 10)
	}
	spec = spec.Set(shared.KeyCursor, cursor)

	if f.direction != "" {
		spec = spec.Set(shared.KeyDirection, f.direction)
	}
	return spec, nil
}

// searchRow is the printable form of a search log entry.
type searchRow struct {
	ID          shared.ID `json:"id" yaml:"id"`
	Module      string    `json:"module" yaml:"module"`
	Filters     string    `json:"filters" yaml:"filters"`
	ResultCount int64     `json:"result_count" yaml:"result_count"`
	RequestID   string    `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	ClientIP    string    `json:"client_ip,omitempty" yaml:"client_ip,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

type searchPage struct {
	Items      []searchRow `json:"items" yaml:"items"`
	HasMore    bool        `json:"has_more" yaml:"has_more"`
	NextCursor *int64      `json:"next_cursor,omitempty" yaml:"next_cursor,omitempty"`
}

func toSearchPage(result pagination.CursorResult[*searchlog.Entry]) searchPage {
	page := searchPage{
		Items:      make([]searchRow, 0, len(result.Items)),
		HasMore:    result.HasMore,
		NextCursor: result.NextCursor,
	}
	for _, e := range result.Items {
		page.Items = append(page.Items, searchRow{
			ID:          e.ID,
			Module:      e.Module,
			Filters:     string(e.Filters),
			ResultCount: e.ResultCount,
			RequestID:   e.RequestID,
			ClientIP:    e.ClientIP,
			CreatedAt:   e.CreatedAt,
		})
	}
	return page
}

func printSearchPage(w io.Writer, page searchPage) error {
	if done, err := printStructured(w, page); done {
		return err
	}

	t := newTable(w, "ID", "MODULE", "RESULTS", "CLIENT IP", "CREATED AT", "FILTERS")
	for _, r := range page.Items {
		t.AddRow(fmt.Sprint(r.ID), r.Module, fmt.Sprint(r.ResultCount), r.ClientIP, shortTime(r.CreatedAt), truncate(r.Filters, 60))
	}
	if err := t.Flush(); err != nil {
		return err
	}
	if page.HasMore && page.NextCursor != nil {
		fmt.Fprintf(w, "\nmore results: --cursor %d\n", *page.NextCursor)
	}
	return nil
}

var searchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded searches, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		spec, err := listFlags.spec()
		if err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		svc := app.NewSearchLogService(postgres.NewSearchLogRepository(e.db), e.log)
		result, err := svc.Scroll(commandContext(cmd), shared.NewListQuery(spec))
		if err != nil {
			return err
		}
		return printSearchPage(cmd.OutOrStdout(), toSearchPage(result))
	},
}

var flagRetention time.Duration

var searchesPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete search log entries older than the retention period",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		retention := flagRetention
		if !cmd.Flags().Changed("retention") {
			retention = e.cfg.Scheduler.SearchLogRetention
		}

		svc := app.NewSearchLogService(postgres.NewSearchLogRepository(e.db), e.log)
		n, err := svc.Prune(commandContext(cmd), retention)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries older than %s\n", n, retention)
		return nil
	},
}

func init() {
	f := searchesListCmd.Flags()
	f.StringSliceVar(&listFlags.module, "module", nil, "Filter by module (repeatable)")
	f.StringVar(&listFlags.ip, "ip", "", "Filter by client IP")
	f.StringVar(&listFlags.from, "from", "", "Created at or after (YYYY-MM-DD or RFC 3339)")
	f.StringVar(&listFlags.to, "to", "", "Created at or before (YYYY-MM-DD or RFC 3339)")
	f.IntVar(&listFlags.limit, "limit", 0, "Page size")
	f.Int64Var(&listFlags.cursor, "cursor", 0, "Continue after this entry id")
	f.StringVar(&listFlags.direction, "direction", "", "Scroll direction: desc or asc")

	searchesPruneCmd.Flags().DurationVar(&flagRetention, "retention", 0, "Keep entries newer than this (default from SEARCH_LOG_RETENTION)")

	searchesCmd.AddCommand(searchesListCmd, searchesPruneCmd)
}

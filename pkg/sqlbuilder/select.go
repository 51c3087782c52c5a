package sqlbuilder

import (
	"strconv"
	"strings"

	"github.com/hromada/backoffice/pkg/filter"
	"github.com/hromada/backoffice/pkg/pagination"
)

// DefaultKeyColumn is the column used for cursor pagination and as the
// sort tiebreaker.
const DefaultKeyColumn = "id"

// SelectBuilder accumulates a SELECT statement for a list query.
// It is not safe for concurrent use; build one per request.
type SelectBuilder struct {
	columns []string
	from    string
	key     string
	where   []Fragment
	orderBy []string
	page    *pagination.Page
	cursor  *pagination.Cursor
}

// Select starts a builder for the given columns.
func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: columns, key: DefaultKeyColumn}
}

// From sets the FROM clause. It may include joins.
func (b *SelectBuilder) From(from string) *SelectBuilder {
	b.from = from
	return b
}

// Key sets the unique, monotonically increasing column used for cursors.
func (b *SelectBuilder) Key(column string) *SelectBuilder {
	b.key = column
	return b
}

// Where adds conditions. Empty fragments are ignored.
func (b *SelectBuilder) Where(conds ...Fragment) *SelectBuilder {
	for _, c := range conds {
		if !c.IsEmpty() {
			b.where = append(b.where, c)
		}
	}
	return b
}

// Filter adds the conditions the schema derives from spec.
func (b *SelectBuilder) Filter(schema Schema, spec filter.Spec, alias string) *SelectBuilder {
	return b.Where(schema.Conditions(spec, alias)...)
}

// OrderBy adds a resolved sort. The key column is appended as a tiebreaker
// so that pages are stable when sort values repeat.
func (b *SelectBuilder) OrderBy(s pagination.Sort) *SelectBuilder {
	if s.Column == "" {
		return b
	}
	b.orderBy = append(b.orderBy, s.SQL())
	if s.Column != b.key {
		b.orderBy = append(b.orderBy, b.key+" "+s.Direction.SQL())
	}
	return b
}

// Paginate switches the builder to offset mode.
func (b *SelectBuilder) Paginate(p pagination.Page) *SelectBuilder {
	b.page = &p
	b.cursor = nil
	return b
}

// After switches the builder to cursor mode. The key column is compared with
// the cursor, the result is ordered by the key in the cursor direction and
// one extra row is fetched to detect further pages. Any OrderBy is ignored.
func (b *SelectBuilder) After(c pagination.Cursor) *SelectBuilder {
	b.cursor = &c
	b.page = nil
	return b
}

// Build renders the statement with $n placeholders.
func (b *SelectBuilder) Build() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.from)

	where := b.where
	if b.cursor != nil && b.cursor.After > 0 {
		where = append(where[:len(where):len(where)], Expr(b.key+" "+b.cursor.Operator()+" ?", b.cursor.After))
	}
	cond := And(where...)
	values := append([]any{}, cond.Values...)
	if !cond.IsEmpty() {
		sb.WriteString(" WHERE ")
		sb.WriteString(cond.Text)
	}

	switch {
	case b.cursor != nil:
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.key)
		sb.WriteString(" ")
		sb.WriteString(b.cursor.Direction.SQL())
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.cursor.FetchLimit()))

	default:
		if len(b.orderBy) > 0 {
			sb.WriteString(" ORDER BY ")
			sb.WriteString(strings.Join(b.orderBy, ", "))
		}
		if b.page != nil {
			sb.WriteString(" LIMIT ? OFFSET ?")
			values = append(values, b.page.Limit, b.page.Offset())
		}
	}

	return Translate(sb.String(), values...)
}

// BuildCount renders a COUNT(*) statement with the same conditions, without
// ordering, pagination or cursor.
func (b *SelectBuilder) BuildCount() (string, []any) {
	cond := And(b.where...)
	text := "SELECT COUNT(*) FROM " + b.from
	if !cond.IsEmpty() {
		text += " WHERE " + cond.Text
	}
	return Translate(text, cond.Values...)
}

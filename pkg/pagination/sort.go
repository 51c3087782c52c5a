package pagination

import "strings"

// Direction is a sort direction as echoed back to clients.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SQL returns the direction as an SQL keyword.
func (d Direction) SQL() string {
	if d == Asc {
		return "ASC"
	}
	return "DESC"
}

// ParseDirection returns the lower-cased direction when s is "asc" or "desc"
// in any case, and def otherwise.
func ParseDirection(s string, def Direction) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Asc):
		return Asc
	case string(Desc):
		return Desc
	default:
		return def
	}
}

// Sort is a resolved, allow-listed sort.
type Sort struct {
	// Field is the client-facing name, echoed back as sort_by.
	Field string
	// Column is the database column the field maps to.
	Column    string
	Direction Direction
}

// SortSpec is the allow-list of sortable fields for one table.
type SortSpec struct {
	// Fields maps client-facing names to database columns.
	Fields           map[string]string
	DefaultField     string
	DefaultDirection Direction
}

// NewSortSpec creates a SortSpec whose client names equal the column names.
// The default direction is descending.
func NewSortSpec(defaultField string, fields ...string) SortSpec {
	m := make(map[string]string, len(fields)+1)
	for _, f := range fields {
		m[f] = f
	}
	m[defaultField] = defaultField
	return SortSpec{Fields: m, DefaultField: defaultField, DefaultDirection: Desc}
}

// Resolve validates a requested sort against the allow-list. An unknown
// field resolves to the default field, and an unknown direction to the
// default direction. The raw request string is never returned as a column.
func (s SortSpec) Resolve(sortBy, direction string) Sort {
	def := s.DefaultDirection
	if def == "" {
		def = Desc
	}

	field := strings.TrimSpace(sortBy)
	column, ok := s.Fields[field]
	if !ok {
		field = s.DefaultField
		column = s.Fields[s.DefaultField]
	}

	return Sort{
		Field:     field,
		Column:    column,
		Direction: ParseDirection(direction, def),
	}
}

// SQL renders the sort as an ORDER BY body, e.g. "total_debt DESC".
func (s Sort) SQL() string {
	if s.Column == "" {
		return ""
	}
	return s.Column + " " + s.Direction.SQL()
}

package pagination

// Cursor holds keyset pagination parameters: the last id the client has seen
// and the walk direction.
type Cursor struct {
	// After is the last-seen id. Zero means "start from the beginning".
	After     int64
	Direction Direction
	Limit     int
}

// NewCursor creates a Cursor. The direction is parsed case-insensitively and
// defaults to descending; the limit is clamped like Page limits.
func NewCursor(after int64, direction string, limit int) Cursor {
	if after < 0 {
		after = 0
	}
	return Cursor{
		After:     after,
		Direction: ParseDirection(direction, Desc),
		Limit:     New(1, limit).Limit,
	}
}

// FetchLimit is the number of rows to request: one more than the page size,
// so that the extra row reveals whether another page exists.
func (c Cursor) FetchLimit() int {
	return c.Limit + 1
}

// Operator returns the id comparison for the walk direction.
func (c Cursor) Operator() string {
	if c.Direction == Asc {
		return ">"
	}
	return "<"
}

// CursorResult is one page of a cursor-paginated list.
type CursorResult[T any] struct {
	Items      []T       `json:"items"`
	HasMore    bool      `json:"hasMore"`
	NextCursor *int64    `json:"nextCursor,omitempty"`
	PageSize   int       `json:"pageSize"`
	Direction  Direction `json:"direction"`
}

// NewCursorResult trims rows fetched with FetchLimit down to the page size and
// records whether more rows exist. idOf extracts the cursor id of a row.
func NewCursorResult[T any](rows []T, c Cursor, idOf func(T) int64) CursorResult[T] {
	hasMore := len(rows) > c.Limit
	if hasMore {
		rows = rows[:c.Limit]
	}
	if rows == nil {
		rows = make([]T, 0)
	}

	res := CursorResult[T]{
		Items:     rows,
		HasMore:   hasMore,
		PageSize:  c.Limit,
		Direction: c.Direction,
	}
	if hasMore && len(rows) > 0 {
		next := idOf(rows[len(rows)-1])
		res.NextCursor = &next
	}
	return res
}

package shared

import (
	"strconv"
	"strings"
)

// ID is the identifier of every stored row. IDs are generated by the
// database and grow monotonically, which cursor pagination relies on.
type ID = int64

// ParseID parses a path or body identifier. It rejects anything that is not
// a positive integer.
func ParseID(s string) (ID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, Validation("id", "id must be a positive integer")
	}
	return id, nil
}

package sqlbuilder

import (
	"strconv"
	"strings"
)

// Translate rewrites every "?" in template into PostgreSQL positional syntax,
// numbering them $1, $2, ... from left to right. The values are returned
// unchanged.
//
// A "?" inside a string literal or a jsonb "?" operator is rewritten as well,
// so templates must not contain them. The number of values is not checked;
// a mismatch is reported by the database when the statement runs.
func Translate(template string, values ...any) (string, []any) {
	return Rebind(template, 1), values
}

// Rebind rewrites "?" placeholders starting the numbering at start.
func Rebind(template string, start int) string {
	if !strings.Contains(template, "?") {
		return template
	}

	var b strings.Builder
	b.Grow(len(template) + 8)

	n := start
	for i := 0; i < len(template); i++ {
		if template[i] != '?' {
			b.WriteByte(template[i])
			continue
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
		n++
	}
	return b.String()
}

// CountPlaceholders returns the number of "?" tokens in template.
func CountPlaceholders(template string) int {
	return strings.Count(template, "?")
}

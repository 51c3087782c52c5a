// Package sqlbuilder builds parameterized PostgreSQL queries for list and
// search endpoints.
//
// Fragments are written with "?" placeholders and carry their values in the
// same order. Placeholders are numbered ($1, $2, ...) only once, when the final
// statement is rendered, so fragments can be combined freely without
// bookkeeping of parameter positions.
package sqlbuilder

import (
	"fmt"
	"strings"
)

// Fragment is a piece of SQL text and the values for its "?" placeholders.
// len(Values) always equals the number of placeholders in Text.
type Fragment struct {
	Text   string
	Values []any
}

// Expr creates a fragment from text and values. It panics when the number of
// values does not match the placeholders in text, which is a programming
// error in the caller.
func Expr(text string, values ...any) Fragment {
	if n := CountPlaceholders(text); n != len(values) {
		panic(fmt.Sprintf("sqlbuilder: %q has %d placeholders but %d values", text, n, len(values)))
	}
	return Fragment{Text: text, Values: values}
}

// IsEmpty reports whether the fragment carries no SQL.
func (f Fragment) IsEmpty() bool {
	return strings.TrimSpace(f.Text) == ""
}

// SQL renders the fragment with $n placeholders.
func (f Fragment) SQL() (string, []any) {
	return Translate(f.Text, f.Values...)
}

// Join concatenates non-empty fragments with sep, keeping value order.
func Join(sep string, parts ...Fragment) Fragment {
	texts := make([]string, 0, len(parts))
	var values []any
	for _, p := range parts {
		if p.IsEmpty() {
			continue
		}
		texts = append(texts, p.Text)
		values = append(values, p.Values...)
	}
	if values == nil {
		values = []any{}
	}
	return Fragment{Text: strings.Join(texts, sep), Values: values}
}

// And joins fragments with AND.
func And(parts ...Fragment) Fragment {
	return Join(" AND ", parts...)
}

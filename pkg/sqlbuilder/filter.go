package sqlbuilder

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/text/unicode/norm"

	"github.com/hromada/backoffice/pkg/filter"
)

// Kind tells the WHERE builder how to compare a field.
type Kind int

const (
	// KindExact compares with "=".
	KindExact Kind = iota
	// KindFuzzy compares with a case-insensitive substring match.
	KindFuzzy
	// KindRange accepts <key>_from and <key>_to bounds, and "=" on the bare key.
	KindRange
	// KindSet accepts a comma-separated list or an array and matches any element.
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindFuzzy:
		return "fuzzy"
	case KindRange:
		return "range"
	case KindSet:
		return "set"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Range key suffixes.
const (
	SuffixFrom = "_from"
	SuffixTo   = "_to"
)

// Field describes one filterable request key.
type Field struct {
	Column string
	Kind   Kind
}

// Exact returns an equality field.
func Exact(column string) Field { return Field{Column: column, Kind: KindExact} }

// Fuzzy returns a substring-match field.
func Fuzzy(column string) Field { return Field{Column: column, Kind: KindFuzzy} }

// Range returns a field that accepts _from/_to bounds.
func Range(column string) Field { return Field{Column: column, Kind: KindRange} }

// Set returns a set-membership field.
func Set(column string) Field { return Field{Column: column, Kind: KindSet} }

// Schema maps request keys to filterable columns. Keys that are not in the
// schema are ignored, so request input never chooses a column name.
type Schema map[string]Field

// Conditions turns the spec into one fragment per condition, in spec order.
// Empty values are skipped. alias, when set, qualifies bare column names.
func (s Schema) Conditions(spec filter.Spec, alias string) []Fragment {
	out := make([]Fragment, 0, len(spec))
	for _, c := range spec {
		if filter.IsEmpty(c.Value) {
			continue
		}
		if f, ok := s.condition(c.Key, c.Value, alias); ok {
			out = append(out, f)
		}
	}
	return out
}

// Where returns the conditions as a single fragment prefixed with " AND ",
// ready to append after an existing WHERE clause. It returns an empty
// fragment with no values when nothing applies.
func (s Schema) Where(spec filter.Spec, alias string) Fragment {
	f := And(s.Conditions(spec, alias)...)
	if f.IsEmpty() {
		return Fragment{Text: "", Values: []any{}}
	}
	f.Text = " AND " + f.Text
	return f
}

func (s Schema) condition(key string, value any, alias string) (Fragment, bool) {
	if base, ok := strings.CutSuffix(key, SuffixFrom); ok {
		if f, ok := s[base]; ok && f.Kind == KindRange {
			return bound(qualify(alias, f.Column), ">=", value)
		}
	}
	if base, ok := strings.CutSuffix(key, SuffixTo); ok {
		if f, ok := s[base]; ok && f.Kind == KindRange {
			return bound(qualify(alias, f.Column), "<=", value)
		}
	}

	f, ok := s[key]
	if !ok {
		return Fragment{}, false
	}
	col := qualify(alias, f.Column)

	switch f.Kind {
	case KindFuzzy:
		term := norm.NFC.String(strings.TrimSpace(scalarString(value)))
		if term == "" {
			return Fragment{}, false
		}
		return Expr(col+" ILIKE ?", WrapLike(term)), true

	case KindSet:
		if items, isList := setItems(value); isList {
			if len(items) == 0 {
				return Fragment{}, false
			}
			return Expr(col+" = ANY(?::text[])", pq.Array(items)), true
		}
		return bound(col, "=", value)

	default:
		return bound(col, "=", value)
	}
}

func bound(col, op string, value any) (Fragment, bool) {
	v, ok := scalar(value)
	if !ok {
		return Fragment{}, false
	}
	return Expr(col+" "+op+" ?", v), true
}

// scalar converts a decoded request value into a driver value. Objects and
// arrays cannot be compared with a scalar operator and are rejected.
func scalar(v any) (any, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		// Kept as text so that decimal amounts are not rounded.
		return t.String(), true
	case string:
		return strings.TrimSpace(t), true
	case bool, int, int32, int64, float32, float64:
		return t, true
	default:
		return nil, false
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool, int, int64, float64:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

// setItems returns the members of a list value: a JSON array or a string that
// contains a comma. The second result is false for single values.
func setItems(v any) ([]string, bool) {
	var raw []string
	switch t := v.(type) {
	case string:
		if !strings.Contains(t, ",") {
			return nil, false
		}
		raw = strings.Split(t, ",")
	case []string:
		raw = t
	case []any:
		raw = make([]string, 0, len(t))
		for _, item := range t {
			raw = append(raw, scalarString(item))
		}
	default:
		return nil, false
	}

	items := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items, true
}

func qualify(alias, column string) string {
	if alias == "" || strings.Contains(column, ".") {
		return column
	}
	return alias + "." + column
}

// EscapeLike escapes LIKE wildcards in user input.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// WrapLike returns a substring pattern for s: WrapLike("foo") is "%foo%".
func WrapLike(s string) string {
	return "%" + EscapeLike(s) + "%"
}

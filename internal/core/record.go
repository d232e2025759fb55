package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/hradmin/internal/datatable"
)

// Record is one API object. It is the row type of every resource table.
type Record map[string]any

// Lookup resolves a dotted path such as "branch.name" through nested objects.
func (r Record) Lookup(path string) any {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			if rec, isRec := cur.(Record); isRec {
				m = rec
			} else {
				return nil
			}
		}
		cur = m[part]
	}
	return cur
}

// Text formats the value at path for display.
func (r Record) Text(path string) string {
	return FormatValue(r.Lookup(path))
}

// ID returns the record's primary key as a string.
func (r Record) ID(field string) string {
	if field == "" {
		field = "id"
	}
	return FormatValue(r[field])
}

// FormatValue renders an API value as cell text. Nested objects show their
// name-like property; lists are joined.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		return x.Format("2006-01-02 15:04")
	case map[string]any:
		for _, k := range []string{"name", "title", "label", "full_name", "email", "id"} {
			if s := FormatValue(x[k]); s != "" {
				return s
			}
		}
		return ""
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			if s := FormatValue(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(x)
	}
}

// Col builds a sortable resource column. Dotted keys sort by the nested value.
func Col(key, label string) datatable.Column[Record] {
	c := datatable.Column[Record]{Key: key, Label: label}
	if strings.Contains(key, ".") {
		c.SortAccessor = func(r Record) any { return r.Lookup(key) }
	}
	return c
}

// NumCol is a right-aligned column.
func NumCol(key, label string) datatable.Column[Record] {
	c := Col(key, label)
	c.Align = datatable.AlignRight
	return c
}

// ActionCol is the trailing, never sortable, actions column.
func ActionCol() datatable.Column[Record] {
	return datatable.Column[Record]{Key: datatable.ActionKey, Label: "Actions", Align: datatable.AlignRight}
}

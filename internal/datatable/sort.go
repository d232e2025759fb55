package datatable

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction is the order applied to the effective sort column.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection returns Desc for "desc" (any case) and Asc otherwise.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// SortState is the selected sort column and direction. An empty Key means no
// column is selected.
type SortState struct {
	Key       string
	Direction Direction
}

// DefaultSort returns the initial sort state for cols: the first sortable
// column, ascending.
func DefaultSort[R any](cols []Column[R]) SortState {
	return SortState{Key: firstSortable(cols), Direction: Asc}
}

// Resolve validates state against cols. A key that no longer names a sortable
// column falls back to DefaultSort.
func Resolve[R any](cols []Column[R], state SortState) SortState {
	if i := findColumn(cols, state.Key); i >= 0 && cols[i].IsSortable() {
		if state.Direction != Desc {
			state.Direction = Asc
		}
		return state
	}
	return DefaultSort(cols)
}

// Click applies a header click on key to state: the active column flips
// direction, any other sortable column becomes active ascending. Clicks on
// unknown or non-sortable columns leave the state unchanged.
func Click[R any](cols []Column[R], state SortState, key string) SortState {
	current := Resolve(cols, state)
	i := findColumn(cols, key)
	if i < 0 || !cols[i].IsSortable() {
		return current
	}
	if current.Key == key {
		return SortState{Key: key, Direction: current.Direction.Toggle()}
	}
	return SortState{Key: key, Direction: Asc}
}

// DefaultLocale orders text when no locale is configured.
var DefaultLocale = language.English

// Comparer compares normalized values. It wraps a collator, which is not safe
// for concurrent use; each Table owns its own.
type Comparer struct {
	coll *collate.Collator
}

// NewComparer returns a case-insensitive, numeric-aware comparer for tag.
func NewComparer(tag language.Tag) *Comparer {
	return &Comparer{coll: collate.New(tag, collate.IgnoreCase, collate.Numeric)}
}

// Compare returns a negative number, zero or a positive number as a sorts
// before, with or after b.
func (c *Comparer) Compare(a, b any) int {
	return c.compare(normalize(a), normalize(b))
}

func (c *Comparer) compare(a, b sortValue) int {
	if a.isNum && b.isNum {
		return numericDiff(a.num, b.num)
	}
	return c.coll.CompareString(a.String(), b.String())
}

// SortRows returns a sorted copy of rows ordered by state. rows is never
// modified. When state resolves to no column the copy keeps input order.
func SortRows[R any](cmp *Comparer, cols []Column[R], rows []R, state SortState) []R {
	out := slices.Clone(rows)
	state = Resolve(cols, state)
	i := findColumn(cols, state.Key)
	if i < 0 || len(out) < 2 {
		return out
	}
	col := cols[i]

	// Extract once per row; accessors may be arbitrarily expensive.
	type keyed struct {
		val sortValue
		row R
	}
	ks := make([]keyed, len(out))
	for j, r := range out {
		ks[j] = keyed{val: normalize(col.value(r)), row: r}
	}

	sign := 1
	if state.Direction == Desc {
		sign = -1
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		return sign * cmp.compare(a.val, b.val)
	})

	for j := range ks {
		out[j] = ks[j].row
	}
	return out
}

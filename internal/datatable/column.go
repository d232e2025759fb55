package datatable

// ActionKey is the conventional key of a row-actions column. It is not
// sortable unless the column says otherwise.
const ActionKey = "action"

// Align is the horizontal alignment of a column's header and cells.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Column describes how to label, align and sort one field of a row.
type Column[R any] struct {
	Key   string // Unique among columns and stable across renders
	Label string
	Align Align // Defaults to AlignLeft

	// Sortable overrides the default (true unless Key is ActionKey).
	Sortable *bool

	// SortAccessor extracts the comparison value. When nil the property named
	// by Key is read off the row.
	SortAccessor func(R) any
}

// Sortable returns a pointer to b for use in Column.Sortable.
func Sortable(b bool) *bool {
	return &b
}

// IsSortable reports whether clicking the column header changes the sort.
func (c Column[R]) IsSortable() bool {
	if c.Sortable != nil {
		return *c.Sortable
	}
	return c.Key != ActionKey
}

// EffectiveAlign returns the column alignment with the default applied.
func (c Column[R]) EffectiveAlign() Align {
	switch c.Align {
	case AlignCenter, AlignRight:
		return c.Align
	default:
		return AlignLeft
	}
}

// value returns the raw comparison value of row for this column.
func (c Column[R]) value(row R) any {
	if c.SortAccessor != nil {
		return c.SortAccessor(row)
	}
	return Property(row, c.Key)
}

// firstSortable returns the key of the first sortable column, or "".
func firstSortable[R any](cols []Column[R]) string {
	for _, c := range cols {
		if c.IsSortable() {
			return c.Key
		}
	}
	return ""
}

// findColumn returns the index of the column with key, or -1.
func findColumn[R any](cols []Column[R], key string) int {
	if key == "" {
		return -1
	}
	for i, c := range cols {
		if c.Key == key {
			return i
		}
	}
	return -1
}

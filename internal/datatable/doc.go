// Package datatable provides the sorting, pagination and view-model logic shared
// by every list screen in the application.
//
// A Table is built from column descriptors and an arbitrary row type. It owns a
// single piece of state, the sort selection, and derives everything else (the
// effective sort column, the ordered rows, the clamped page and the visible
// slice) on demand. Renderers (the templ components in web/templates and the
// terminal renderer in tui) consume the View it produces and never re-implement
// sorting or slicing themselves.
//
// The page window is owned by the host: the table clamps the page it displays
// but reports page and page-size changes through callbacks instead of storing
// them.
//
// Sorting rules:
//
//   - The effective sort column is the last clicked column if it still exists
//     among the columns, otherwise the first sortable column.
//   - A column is sortable unless Sortable is set to false; a column keyed
//     "action" defaults to not sortable.
//   - Values come from SortAccessor when set, otherwise from the property named
//     by the column key (map entry or struct field).
//   - nil becomes "", booleans become 0/1, numbers pass through and anything
//     else becomes a lower-cased string.
//   - Two numbers compare numerically; otherwise values compare with a
//     locale-aware, case-insensitive, numeric-aware collation.
//   - Ties keep their input order.
package datatable

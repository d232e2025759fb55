package datatable

import (
	"strconv"

	"golang.org/x/text/language"
)

// DefaultEmptyMessage is shown when the visible slice is empty.
const DefaultEmptyMessage = "No records found"

// Props are the inputs a host page supplies to a Table.
//
// Row rendering is renderer specific and lives with the renderer (see
// templates.DataTable and tui.Browser); everything else is here.
type Props[R any] struct {
	Columns []Column[R]
	Rows    []R

	// RowKey extracts a stable key per row. Defaults to the row's position in
	// the sorted order.
	RowKey func(R) string

	Page        int
	RowsPerPage int

	// TotalRows overrides the sorted row count, for hosts that paginate on the
	// server and only pass one page of Rows.
	TotalRows *int

	// PaginateRows enables client-side slicing. Leave it off when Rows already
	// holds exactly one page.
	PaginateRows bool

	Loading      bool
	EmptyMessage string

	OnPageChange        func(page int)
	OnRowsPerPageChange func(rowsPerPage int)
}

// Status is what the table body shows.
type Status int

const (
	StatusRows Status = iota
	StatusLoading
	StatusEmpty
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusEmpty:
		return "empty"
	default:
		return "rows"
	}
}

// Header is one rendered column header.
type Header struct {
	Key       string
	Label     string
	Align     Align
	Sortable  bool
	Active    bool      // Column is the effective sort column
	Direction Direction // Meaningful when Active
}

// Item is one visible row with its key.
type Item[R any] struct {
	Key string
	Row R
}

// View is everything a renderer needs for one frame of the table.
type View[R any] struct {
	Headers      []Header
	Items        []Item[R]
	Status       Status
	EmptyMessage string
	Sort         SortState
	Pagination   Pagination
}

// Option configures a Table.
type Option func(*options)

type options struct {
	locale language.Tag
	sort   *SortState
}

// WithLocale selects the collation locale used for string comparison.
func WithLocale(tag language.Tag) Option {
	return func(o *options) { o.locale = tag }
}

// WithSort restores a previously selected sort state, e.g. from a URL. An
// invalid key falls back to the default on first use.
func WithSort(s SortState) Option {
	return func(o *options) { o.sort = &s }
}

// Table derives ordered, paginated views over Props. It holds only its own
// sort state and is not safe for concurrent use.
type Table[R any] struct {
	props Props[R]
	sort  SortState
	cmp   *Comparer
}

// New creates a Table with its sort initialised to the first sortable column.
func New[R any](props Props[R], opts ...Option) *Table[R] {
	o := options{locale: DefaultLocale}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Table[R]{
		props: props,
		cmp:   NewComparer(o.locale),
	}
	if o.sort != nil {
		t.sort = Resolve(props.Columns, *o.sort)
	} else {
		t.sort = DefaultSort(props.Columns)
	}
	return t
}

// Props returns the current inputs.
func (t *Table[R]) Props() Props[R] {
	return t.props
}

// SetProps replaces the inputs, resetting the sort state when its column is
// gone.
func (t *Table[R]) SetProps(p Props[R]) {
	t.props = p
	t.reconcile()
}

// SetColumns replaces the column set, resetting the sort state when its column
// is gone.
func (t *Table[R]) SetColumns(cols []Column[R]) {
	t.props.Columns = cols
	t.reconcile()
}

// SetRows replaces the rows; the sort state is kept.
func (t *Table[R]) SetRows(rows []R) {
	t.props.Rows = rows
}

// SetLoading toggles the busy state.
func (t *Table[R]) SetLoading(loading bool) {
	t.props.Loading = loading
}

func (t *Table[R]) reconcile() {
	t.sort = Resolve(t.props.Columns, t.sort)
}

// Sort returns the effective sort state.
func (t *Table[R]) Sort() SortState {
	return Resolve(t.props.Columns, t.sort)
}

// ClickHeader applies a header click and returns the new effective state.
func (t *Table[R]) ClickHeader(key string) SortState {
	t.sort = Click(t.props.Columns, t.sort, key)
	return t.sort
}

// NextSort returns the state a click on key would produce without applying
// it. Stateless renderers use it to build header links.
func (t *Table[R]) NextSort(key string) SortState {
	return Click(t.props.Columns, t.sort, key)
}

// Sorted returns the rows ordered by the effective sort state.
func (t *Table[R]) Sorted() []R {
	return SortRows(t.cmp, t.props.Columns, t.props.Rows, t.sort)
}

// Pagination returns the clamped page window for the current inputs.
func (t *Table[R]) Pagination() Pagination {
	return Paginate(t.props.Page, t.props.RowsPerPage, t.total(len(t.props.Rows)))
}

func (t *Table[R]) total(sorted int) int {
	if t.props.TotalRows != nil {
		return *t.props.TotalRows
	}
	return sorted
}

// Visible returns the rows handed to the row renderer.
func (t *Table[R]) Visible() []R {
	sorted := t.Sorted()
	if !t.props.PaginateRows {
		return sorted
	}
	p := Paginate(t.props.Page, t.props.RowsPerPage, t.total(len(sorted)))
	return Slice(sorted, p.Page, p.RowsPerPage)
}

// RequestPage reports a page selection to the host.
func (t *Table[R]) RequestPage(page int) {
	if t.props.OnPageChange != nil {
		t.props.OnPageChange(page)
	}
}

// RequestRowsPerPage reports a page-size selection to the host.
func (t *Table[R]) RequestRowsPerPage(n int) {
	if t.props.OnRowsPerPageChange != nil {
		t.props.OnRowsPerPageChange(n)
	}
}

// View computes the frame to render.
func (t *Table[R]) View() View[R] {
	state := t.Sort()

	headers := make([]Header, len(t.props.Columns))
	for i, c := range t.props.Columns {
		h := Header{
			Key:      c.Key,
			Label:    c.Label,
			Align:    c.EffectiveAlign(),
			Sortable: c.IsSortable(),
		}
		if h.Sortable && c.Key == state.Key {
			h.Active = true
			h.Direction = state.Direction
		}
		headers[i] = h
	}

	visible := t.Visible()
	items := make([]Item[R], len(visible))
	offset := 0
	if t.props.PaginateRows {
		p := t.Pagination()
		offset = (p.Page - 1) * p.RowsPerPage
	}
	for i, r := range visible {
		key := strconv.Itoa(offset + i)
		if t.props.RowKey != nil {
			key = t.props.RowKey(r)
		}
		items[i] = Item[R]{Key: key, Row: r}
	}

	msg := t.props.EmptyMessage
	if msg == "" {
		msg = DefaultEmptyMessage
	}

	status := StatusRows
	switch {
	case t.props.Loading:
		status = StatusLoading
	case len(items) == 0:
		status = StatusEmpty
	}

	return View[R]{
		Headers:      headers,
		Items:        items,
		Status:       status,
		EmptyMessage: msg,
		Sort:         state,
		Pagination:   t.Pagination(),
	}
}

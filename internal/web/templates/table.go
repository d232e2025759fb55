package templates

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/hradmin/internal/datatable"
)

// TableContainerID is the element a partial table response replaces.
const TableContainerID = "table-container"

// Links builds the URLs a stateless table emits instead of callbacks.
type Links struct {
	// Sort returns the URL selecting key with direction dir.
	Sort func(key string, dir datatable.Direction) string
	// Page returns the URL for a page number and page size.
	Page func(page, rowsPerPage int) string
}

// TableProps are the inputs of DataTable. Rows arrive already rendered;
// see RenderRows.
type TableProps struct {
	View    datatable.View[templ.Component]
	Caption string
	Links   Links

	// RowsPerPageOptions feed the pagination bar; nil hides it.
	RowsPerPageOptions []int
}

// RenderRows turns each visible item of v into its <tr> component. Each
// cell should carry CellClass(header) so alignment follows the column.
func RenderRows[R any](v datatable.View[R], renderRow func(datatable.Item[R], []datatable.Header) templ.Component) datatable.View[templ.Component] {
	items := make([]datatable.Item[templ.Component], len(v.Items))
	for i, item := range v.Items {
		items[i] = datatable.Item[templ.Component]{Key: item.Key, Row: renderRow(item, v.Headers)}
	}
	return datatable.View[templ.Component]{
		Headers:      v.Headers,
		Items:        items,
		Status:       v.Status,
		EmptyMessage: v.EmptyMessage,
		Sort:         v.Sort,
		Pagination:   v.Pagination,
	}
}

func (p TableProps) loading() bool {
	return p.View.Status == datatable.StatusLoading
}

// colspan spans status rows across every column.
func (p TableProps) colspan() string {
	return strconv.Itoa(max(len(p.View.Headers), 1))
}

func (p TableProps) hasPagination() bool {
	return p.RowsPerPageOptions != nil && p.Links.Page != nil
}

func (p TableProps) pagination() PaginationProps {
	return PaginationProps{
		Pagination: p.View.Pagination,
		Options:    p.RowsPerPageOptions,
		Href:       p.Links.Page,
	}
}

func ariaSort(h datatable.Header) string {
	switch {
	case !h.Active:
		return "none"
	case h.Direction == datatable.Desc:
		return "descending"
	default:
		return "ascending"
	}
}

// nextDirection is the direction a click on h selects.
func nextDirection(h datatable.Header) datatable.Direction {
	if h.Active {
		return h.Direction.Toggle()
	}
	return datatable.Asc
}

func sortGlyph(h datatable.Header) string {
	switch {
	case !h.Active:
		return "↕"
	case h.Direction == datatable.Desc:
		return "↓"
	default:
		return "↑"
	}
}

// CellClass returns the alignment class for a column's cells.
func CellClass(h datatable.Header) string {
	return "align-" + string(h.Align)
}

// PaginationProps are the inputs of PaginationBar.
type PaginationProps struct {
	Pagination datatable.Pagination
	Options    []int
	Href       func(page, rowsPerPage int) string
}

func (p PaginationProps) prevHref() string {
	return p.Href(p.Pagination.Page-1, p.Pagination.RowsPerPage)
}

func (p PaginationProps) nextHref() string {
	return p.Href(p.Pagination.Page+1, p.Pagination.RowsPerPage)
}

func (p PaginationProps) pageHref(page int) string {
	return p.Href(page, p.Pagination.RowsPerPage)
}

// maxPageLinks bounds the numbered page links around the current page.
const maxPageLinks = 7

// RangeLabel returns "Showing a–b of n", or "No records" when empty.
func RangeLabel(pg datatable.Pagination) string {
	if pg.TotalRows == 0 {
		return "No records"
	}
	return "Showing " + strconv.Itoa(pg.From) + "–" + strconv.Itoa(pg.To) + " of " + strconv.Itoa(pg.TotalRows)
}

// pageNumbers returns the page links to show. Zero marks an elided gap.
// The first and last pages are always included.
func pageNumbers(current, total int) []int {
	if total <= maxPageLinks {
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}

	start := max(2, current-2)
	end := min(total-1, current+2)
	out := []int{1}
	if start > 2 {
		out = append(out, 0)
	}
	for n := start; n <= end; n++ {
		out = append(out, n)
	}
	if end < total-1 {
		out = append(out, 0)
	}
	return append(out, total)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

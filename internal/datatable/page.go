package datatable

// Pagination is the derived page window shown to the user.
type Pagination struct {
	Page        int // Clamped into [1, TotalPages]
	RowsPerPage int
	TotalRows   int
	TotalPages  int
	From        int // 1-based index of the first row on the page, 0 when empty
	To          int // 1-based index of the last row on the page, 0 when empty
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// TotalPages returns max(1, ceil(total/rowsPerPage)). A non-positive
// rowsPerPage is treated as 1.
func TotalPages(total, rowsPerPage int) int {
	if rowsPerPage < 1 {
		rowsPerPage = 1
	}
	if total < 0 {
		total = 0
	}
	pages := (total + rowsPerPage - 1) / rowsPerPage
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage returns page clamped into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate derives the display window for total rows.
func Paginate(page, rowsPerPage, total int) Pagination {
	if rowsPerPage < 1 {
		rowsPerPage = 1
	}
	if total < 0 {
		total = 0
	}
	pages := TotalPages(total, rowsPerPage)
	page = ClampPage(page, pages)

	p := Pagination{
		Page:        page,
		RowsPerPage: rowsPerPage,
		TotalRows:   total,
		TotalPages:  pages,
	}
	if total > 0 {
		p.From = (page-1)*rowsPerPage + 1
		p.To = min(page*rowsPerPage, total)
		if p.From > total {
			p.From, p.To = 0, 0
		}
	}
	return p
}

// Slice returns rows[(page-1)*rowsPerPage : page*rowsPerPage], bounded by the
// length of rows.
func Slice[R any](rows []R, page, rowsPerPage int) []R {
	if rowsPerPage < 1 {
		rowsPerPage = 1
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * rowsPerPage
	if start >= len(rows) {
		return rows[:0:0]
	}
	end := min(start+rowsPerPage, len(rows))
	return rows[start:end:end]
}

package web

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/datatable"
	"github.com/JonMunkholm/hradmin/internal/web/templates"
)

// parseIntParam parses an integer query parameter, returning defaultVal when
// it is missing, malformed or below one.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil || val < 1 {
		return defaultVal
	}
	return val
}

// resource looks up the {key} route parameter.
func resource(r *http.Request) (core.Resource, error) {
	return core.Lookup(chi.URLParam(r, "key"))
}

// listQuery reads the list state of def from the URL. Page sizes outside the
// configured options and unknown sort keys fall back to the defaults.
func (s *Server) listQuery(r *http.Request, def core.Resource) core.ListQuery {
	q := r.URL.Query()

	size := parseIntParam(r, "size", s.cfg.Table.RowsPerPage)
	if !slices.Contains(s.cfg.Table.RowsPerPageOptions, size) {
		size = s.cfg.Table.RowsPerPage
	}

	sort := def.DefaultSort()
	if key := q.Get("sort"); key != "" {
		sort = datatable.Resolve(def.Columns, datatable.SortState{
			Key:       key,
			Direction: datatable.ParseDirection(q.Get("dir")),
		})
	}

	return core.ListQuery{
		Page:        parseIntParam(r, "page", 1),
		RowsPerPage: size,
		Sort:        sort,
		Search:      strings.TrimSpace(q.Get("search")),
	}
}

// listURL encodes q as a list screen URL below base.
func listURL(base string, q core.ListQuery) string {
	v := url.Values{}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.RowsPerPage > 0 {
		v.Set("size", strconv.Itoa(q.RowsPerPage))
	}
	if q.Sort.Key != "" {
		v.Set("sort", q.Sort.Key)
		v.Set("dir", string(q.Sort.Direction))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if len(v) == 0 {
		return base
	}
	return base + "?" + v.Encode()
}

// tableLinks builds the header and pagination URLs of a list screen. Sorting
// and resizing return to the first page.
func tableLinks(base string, q core.ListQuery) templates.Links {
	return templates.Links{
		Sort: func(key string, dir datatable.Direction) string {
			next := q
			next.Page = 1
			next.Sort = datatable.SortState{Key: key, Direction: dir}
			return listURL(base, next)
		},
		Page: func(page, size int) string {
			next := q
			next.Page = page
			next.RowsPerPage = size
			return listURL(base, next)
		},
	}
}

// formValues collects the posted values of fields.
func formValues(r *http.Request, fields []core.FieldSpec) map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := r.PostForm[f.Name]; ok && len(v) > 0 {
			values[f.Name] = v[0]
		}
	}
	return values
}

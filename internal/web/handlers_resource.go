package web

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/datatable"
	"github.com/JonMunkholm/hradmin/internal/export"
	"github.com/JonMunkholm/hradmin/internal/logging"
	"github.com/JonMunkholm/hradmin/internal/session"
	"github.com/JonMunkholm/hradmin/internal/web/templates"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// recordTable builds the table for one fetched page of def.
func (s *Server) recordTable(def core.Resource, q core.ListQuery, page core.ListPage) *datatable.Table[core.Record] {
	props := datatable.Props[core.Record]{
		Columns:      def.Columns,
		Rows:         page.Rows,
		Page:         q.Page,
		RowsPerPage:  q.RowsPerPage,
		PaginateRows: !page.Paged,
		RowKey: func(rec core.Record) string {
			return rec.ID(def.IDField())
		},
	}
	if page.Paged {
		total := page.Total
		props.TotalRows = &total
	}
	return datatable.New(props, datatable.WithLocale(s.locale), datatable.WithSort(q.Sort))
}

// handleList renders a resource list. HTMX requests get only the table.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	def, err := resource(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	q := s.listQuery(r, def)
	page, err := s.service.ListRecords(r.Context(), token(r), def.Info.Key, q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	base := templates.ResourcePath(def.Info.Key)
	view := s.recordTable(def, q, page).View()
	q.Page = view.Pagination.Page
	q.Sort = view.Sort

	exportQuery := q
	exportQuery.Page = 0
	exportQuery.RowsPerPage = 0

	props := templates.ListProps{
		Resource: def,
		Table: templates.TableProps{
			View:               templates.RenderRows(view, templates.RecordRow(def, listURL(base, q))),
			Caption:            def.Info.Label,
			Links:              tableLinks(base, q),
			RowsPerPageOptions: s.cfg.Table.RowsPerPageOptions,
		},
		Search:     q.Search,
		Size:       q.RowsPerPage,
		Sort:       q.Sort,
		ExportHref: listURL(base+"/export", exportQuery),
	}

	if isHTMX(r) {
		renderFragment(w, r, templates.TablePartial(props))
		return
	}
	s.render(w, r, http.StatusOK, def.Info.Label, base, templates.ResourceList(props))
}

// handleExport downloads every row matching the list's search and sort as
// an Excel workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	def, err := resource(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.exports.Acquire(ctx); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.exports.Release()

	q := s.listQuery(r, def)
	rows, err := s.service.AllRecords(ctx, token(r), def.Info.Key, q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sorted := datatable.New(datatable.Props[core.Record]{Columns: def.Columns, Rows: rows},
		datatable.WithLocale(s.locale), datatable.WithSort(q.Sort)).Sorted()
	headers, cells := export.Table(def.Columns, sorted, func(rec core.Record, key string) string {
		return rec.Text(key)
	})

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, export.SheetName(def.Info.Label), headers, cells); err != nil {
		s.respondError(w, r, err)
		return
	}

	name := export.FileName(def.Info.Key, s.now().Format(core.DateLayout))
	logging.FromContext(ctx).Info("export generated", "resource", def.Info.Key, "rows", len(cells))

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// handleNew shows the empty create form.
func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	def, err := resource(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if def.Info.ReadOnly {
		s.respondError(w, r, core.ErrReadOnly)
		return
	}
	s.renderForm(w, r, http.StatusOK, templates.FormProps{
		Resource: def,
		Creating: true,
		Values:   map[string]string{},
	})
}

// handleEdit shows the form for an existing record.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	def, err := resource(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if def.Info.ReadOnly {
		s.respondError(w, r, core.ErrReadOnly)
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := s.service.GetRecord(r.Context(), token(r), def.Info.Key, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.renderForm(w, r, http.StatusOK, templates.FormProps{
		Resource: def,
		ID:       id,
		Values:   core.FormValues(def.FormFields(false), rec),
	})
}

// handleCreate validates and posts a new record.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.save(w, r, "")
}

// handleUpdate validates and saves changes to a record.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s.save(w, r, chi.URLParam(r, "id"))
}

func (s *Server) save(w http.ResponseWriter, r *http.Request, id string) {
	def, err := resource(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, core.ValidationErrors{"form": "could not be read"})
		return
	}

	creating := id == ""
	values := formValues(r, def.FormFields(creating))
	if _, err := s.service.SaveRecord(r.Context(), token(r), def.Info.Key, id, values); err != nil {
		props := templates.FormProps{Resource: def, Creating: creating, ID: id, Values: values}
		s.formError(w, r, props, err)
		return
	}

	verb := " updated"
	if creating {
		verb = " created"
	}
	s.toast(r, session.ToastSuccess, def.Info.Singular+verb)
	redirect(w, r, templates.ResourcePath(def.Info.Key))
}

// formError re-renders a form with the failure. Field errors reported by the
// API are shown next to their inputs like local validation errors.
func (s *Server) formError(w http.ResponseWriter, r *http.Request, props templates.FormProps, err error) {
	status := core.HTTPStatus(err)
	if status == http.StatusUnauthorized || status == http.StatusNotFound || status == http.StatusForbidden {
		s.respondError(w, r, err)
		return
	}

	if ve, ok := core.AsValidationErrors(err); ok {
		props.Errors = ve
	}
	msg := core.MapError(err)
	props.Message = msg.Message + ". " + msg.Action + "."
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("save failed", "resource", props.Resource.Info.Key, "error", err)
	}
	s.renderForm(w, r, status, props)
}

// renderForm loads reference options and renders the record form.
func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, props templates.FormProps) {
	opts, err := s.service.FormOptions(r.Context(), token(r), props.Resource)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	props.Options = opts

	title := "Edit " + props.Resource.Info.Singular
	if props.Creating {
		title = "New " + props.Resource.Info.Singular
	}
	s.render(w, r, status, title, templates.ResourcePath(props.Resource.Info.Key), templates.ResourceForm(props))
}

// handleDelete removes a record and returns to the list.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	def, err := resource(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	back := localPath(r.PostFormValue("return"), templates.ResourcePath(def.Info.Key))
	if err := s.service.DeleteRecord(r.Context(), token(r), def.Info.Key, chi.URLParam(r, "id")); err != nil {
		s.actionError(w, r, back, err)
		return
	}
	s.toast(r, session.ToastSuccess, def.Info.Singular+" deleted")
	redirect(w, r, back)
}

// handleAction runs a registered row action such as approving a leave
// request. An optional "remark" is sent as the request body.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	def, err := resource(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	name := chi.URLParam(r, "action")
	var action *core.RowAction
	for i := range def.Actions {
		if def.Actions[i].Name == name {
			action = &def.Actions[i]
			break
		}
	}
	if action == nil {
		s.respondError(w, r, core.ErrUnknownResource)
		return
	}

	var body core.Record
	if remark := core.CleanInput(r.PostFormValue("remark")); remark != "" {
		body = core.Record{"remark": remark}
	}

	back := localPath(r.PostFormValue("return"), templates.ResourcePath(def.Info.Key))
	if _, err := s.service.RunAction(r.Context(), token(r), def.Info.Key, chi.URLParam(r, "id"), name, body); err != nil {
		s.actionError(w, r, back, err)
		return
	}
	s.toast(r, session.ToastSuccess, action.Label+" completed")
	redirect(w, r, back)
}

// actionError reports a failed row operation as a toast on the list it was
// started from. Expired sign-ins still go through respondError.
func (s *Server) actionError(w http.ResponseWriter, r *http.Request, back string, err error) {
	if core.HTTPStatus(err) == http.StatusUnauthorized {
		s.respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Warn("row operation failed", "path", r.URL.Path, "error", err)
	s.toast(r, session.ToastError, core.FormatUserError(err))
	redirect(w, r, back)
}

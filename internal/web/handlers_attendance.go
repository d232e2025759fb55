package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/datatable"
	"github.com/JonMunkholm/hradmin/internal/session"
	"github.com/JonMunkholm/hradmin/internal/web/templates"
)

const (
	recentAttendance = 10
	maxPhotoBytes    = 8 << 20
)

// handleAttendance shows the check-in form and the latest entries.
func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	s.renderAttendance(w, r, http.StatusOK, templates.AttendanceProps{})
}

func (s *Server) renderAttendance(w http.ResponseWriter, r *http.Request, status int, props templates.AttendanceProps) {
	rows, err := s.service.RecentAttendance(r.Context(), token(r), recentAttendance)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	def, err := core.Lookup("attendance")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	// Rows arrive newest first; the table keeps that order.
	cols := make([]datatable.Column[core.Record], len(def.Columns))
	for i, c := range def.Columns {
		c.Sortable = datatable.Sortable(false)
		cols[i] = c
	}

	t := datatable.New(datatable.Props[core.Record]{
		Columns:      cols,
		Rows:         rows,
		EmptyMessage: "No attendance recorded yet",
	}, datatable.WithLocale(s.locale))

	props.Recent = templates.TableProps{
		View:    templates.RenderRows(t.View(), templates.RecordRow(def, "")),
		Caption: "Recent attendance",
	}
	s.render(w, r, status, "Attendance", "/attendance", templates.AttendancePage(props))
}

// handleCheckIn records a check-in.
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	s.recordAttendance(w, r, "Checked in", s.service.CheckIn)
}

// handleCheckOut records a check-out.
func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	s.recordAttendance(w, r, "Checked out", s.service.CheckOut)
}

type attendanceFunc func(ctx context.Context, token string, in core.AttendanceInput) (core.Record, error)

func (s *Server) recordAttendance(w http.ResponseWriter, r *http.Request, done string, submit attendanceFunc) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+1<<20)
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.renderAttendance(w, r, status, templates.AttendanceProps{
			Message: "The upload could not be read. Photos must be smaller than 8 MB.",
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := core.AttendanceInput{
		Latitude:  r.FormValue("latitude"),
		Longitude: r.FormValue("longitude"),
		Note:      r.FormValue("note"),
		At:        s.now(),
	}

	file, header, err := r.FormFile("photo")
	switch {
	case err == nil:
		defer file.Close()
		if header.Size > 0 {
			in.Photo = file
			in.PhotoName = header.Filename
		}
	case !errors.Is(err, http.ErrMissingFile):
		s.respondError(w, r, err)
		return
	}

	if _, err := submit(r.Context(), token(r), in); err != nil {
		status := core.HTTPStatus(err)
		if status == http.StatusUnauthorized {
			s.respondError(w, r, err)
			return
		}
		props := templates.AttendanceProps{Note: in.Note, Message: core.FormatUserError(err)}
		if ve, ok := core.AsValidationErrors(err); ok {
			props.Errors = ve
		}
		s.renderAttendance(w, r, status, props)
		return
	}

	s.toast(r, session.ToastSuccess, done)
	redirect(w, r, "/attendance")
}

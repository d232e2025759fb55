package web

// errors.go turns handler errors into responses.
//
// Every error is mapped through core.MapError, logged with the request ID,
// and rendered as an HTMX fragment, JSON, or a full page depending on the
// request. Authentication failures end the API session and send the browser
// to the login page instead.

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/logging"
	"github.com/JonMunkholm/hradmin/internal/session"
	mw "github.com/JonMunkholm/hradmin/internal/web/middleware"
	"github.com/JonMunkholm/hradmin/internal/web/templates"
)

// ErrorResponse is the JSON body of an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the matching response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := core.HTTPStatus(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= 500 {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if status == http.StatusUnauthorized {
		s.signedOut(w, r, err, msg)
		return
	}

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, msg, status)
	case wantsJSON(r):
		respondErrorJSON(w, msg, status)
	default:
		s.render(w, r, status, "Error", "", templates.ErrorAlert(msg.Message, msg.Action, msg.Code))
	}
}

// signedOut clears an expired API token and sends the client to /login.
func (s *Server) signedOut(w http.ResponseWriter, r *http.Request, err error, msg core.UserMessage) {
	ctx := r.Context()
	if sess, ok := session.FromContext(ctx); ok && !errors.Is(err, mw.ErrSignedOut) {
		if cerr := sess.ClearAuth(ctx); cerr != nil {
			logging.FromContext(ctx).Error("clear session failed", "error", cerr)
		}
		s.toast(r, session.ToastWarning, msg.Message+". "+msg.Action+".")
	}

	login := "/login"
	if r.Method == http.MethodGet && !isHTMX(r) {
		login += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}

	switch {
	case isHTMX(r):
		w.Header().Set("HX-Redirect", login)
		w.WriteHeader(http.StatusUnauthorized)
	case wantsJSON(r):
		respondErrorJSON(w, msg, http.StatusUnauthorized)
	default:
		http.Redirect(w, r, login, http.StatusSeeOther)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	serve(w, r, statusCode, templates.ErrorAlert(msg.Message, msg.Action, msg.Code))
}

// isHTMX reports whether the request asks for a fragment.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

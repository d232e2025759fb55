package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/logging"
	"github.com/JonMunkholm/hradmin/internal/session"
	mw "github.com/JonMunkholm/hradmin/internal/web/middleware"
	"github.com/JonMunkholm/hradmin/internal/web/templates"
)

// token returns the API token of an authenticated request.
func token(r *http.Request) string {
	return mw.Token(r.Context())
}

// render writes body inside the page layout with the session's theme and
// pending toasts.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, title, active string, body templ.Component) {
	ctx := r.Context()
	page := templates.Page{
		Title:  title,
		User:   core.GetUserFromContext(ctx),
		Active: active,
	}
	if mw.Token(ctx) != "" {
		page.Nav = s.nav
	}
	if sess, ok := session.FromContext(ctx); ok {
		var err error
		if page.Theme, err = sess.Theme(ctx); err != nil {
			logging.FromContext(ctx).Warn("read theme failed", "error", err)
		}
		if page.Toasts, err = sess.DrainToasts(ctx); err != nil {
			logging.FromContext(ctx).Warn("read toasts failed", "error", err)
		}
	}

	serve(w, r, status, templates.Layout(page, body))
}

// renderFragment writes a component without the layout, for HTMX swaps.
func renderFragment(w http.ResponseWriter, r *http.Request, c templ.Component) {
	serve(w, r, http.StatusOK, c)
}

// serve renders c into a buffer and writes it with status. A failed render
// answers 500 instead of a truncated page.
func serve(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	templ.Handler(c, templ.WithStatus(status), templ.WithErrorHandler(renderFailed)).ServeHTTP(w, r)
}

func renderFailed(r *http.Request, err error) http.Handler {
	logging.FromContext(r.Context()).Error("render failed", "error", err)
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	})
}

// toast queues a notification for the next rendered page.
func (s *Server) toast(r *http.Request, level session.ToastLevel, message string) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return
	}
	if err := sess.PushToast(r.Context(), level, message); err != nil {
		logging.FromContext(r.Context()).Warn("push toast failed", "error", err)
	}
}

// redirect answers a form post with 303 See Other, or HX-Redirect for HTMX.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// localPath returns raw when it is a same-site path, else fallback. Used for
// user-supplied return targets.
func localPath(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return u.RequestURI()
}

// refererPath returns the path of a same-host Referer.
func refererPath(r *http.Request, fallback string) string {
	u, err := url.Parse(r.Referer())
	if err != nil || u.Host != r.Host {
		return fallback
	}
	return localPath(u.RequestURI(), fallback)
}

// storeError marks a session store failure so it maps to SES002.
func storeError(err error) error {
	return fmt.Errorf("session store: %w", err)
}

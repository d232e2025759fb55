package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/hradmin/internal/apiclient"
	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/logging"
	"github.com/JonMunkholm/hradmin/internal/session"
	"github.com/JonMunkholm/hradmin/internal/web/templates"
)

// handleLoginPage shows the sign-in form, or skips it when already signed in.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := localPath(r.URL.Query().Get("next"), "/")
	if sess, ok := session.FromContext(r.Context()); ok {
		if tok, err := sess.Token(r.Context()); err == nil && tok != "" {
			http.Redirect(w, r, next, http.StatusSeeOther)
			return
		}
	}
	s.render(w, r, http.StatusOK, "Sign in", "", templates.Login(templates.LoginProps{Next: next}))
}

// handleLogin exchanges credentials for an API token and stores it in a
// freshly issued session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, core.ValidationErrors{"form": "could not be read"})
		return
	}
	username := r.PostForm.Get("username")
	next := localPath(r.PostForm.Get("next"), "/")
	props := templates.LoginProps{Username: username, Next: next}

	auth, err := s.service.Login(ctx, username, r.PostForm.Get("password"))
	if err != nil {
		status := core.HTTPStatus(err)
		if ve, ok := core.AsValidationErrors(err); ok {
			props.Errors = ve
		} else if errors.Is(err, apiclient.ErrUnauthorized) {
			status = http.StatusUnauthorized
			props.Message = "Invalid username or password"
		} else {
			props.Message = core.FormatUserError(err)
			logging.FromContext(ctx).Warn("login failed", "error", err)
		}
		s.render(w, r, status, "Sign in", "", templates.Login(props))
		return
	}

	old, ok := session.FromContext(ctx)
	if !ok {
		s.respondError(w, r, session.ErrNoSession)
		return
	}
	sess, err := s.sessions.Rotate(ctx, w, old)
	if err != nil {
		s.respondError(w, r, storeError(err))
		return
	}
	ctx = session.NewContext(ctx, sess)
	r = r.WithContext(ctx)
	if err := sess.SetAuth(ctx, auth.Token, auth.User); err != nil {
		s.respondError(w, r, storeError(err))
		return
	}

	logging.FromContext(ctx).Info("user signed in", "user", auth.User)
	s.toast(r, session.ToastSuccess, "Signed in as "+auth.User)
	redirect(w, r, next)
}

// handleLogout drops the API token. The session itself survives so the theme
// is kept.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if sess, ok := session.FromContext(ctx); ok {
		if err := sess.ClearAuth(ctx); err != nil {
			s.respondError(w, r, storeError(err))
			return
		}
		s.toast(r, session.ToastInfo, "You have been signed out")
	}
	redirect(w, r, "/login")
}

// handleTheme sets the posted theme, or toggles it when none is given.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := session.FromContext(ctx)
	if !ok {
		s.respondError(w, r, session.ErrNoSession)
		return
	}

	var err error
	if v := r.PostFormValue("theme"); v != "" {
		err = sess.SetTheme(ctx, session.ParseTheme(v))
	} else {
		_, err = sess.ToggleTheme(ctx)
	}
	if err != nil {
		s.respondError(w, r, storeError(err))
		return
	}

	if isHTMX(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, refererPath(r, "/"), http.StatusSeeOther)
}

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/session"
)

// ErrSignedOut is reported when a protected route is requested without an
// API token in the session.
var ErrSignedOut = errors.New("unauthorized: not signed in")

type tokenKey struct{}

// Token returns the API bearer token placed in ctx by RequireAuth.
func Token(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// WithToken stores an API token in ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// Sessions loads (or issues) the browser session and stores it in the
// request context together with the client metadata used for logging.
func Sessions(m *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := m.Load(w, r)
			ctx := session.NewContext(r.Context(), sess)
			ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr)
			ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
			if user, err := sess.User(ctx); err == nil && user != "" {
				ctx = core.ContextWithUser(ctx, user)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth passes requests whose session holds an API token and hands
// everything else to fail: ErrSignedOut when there is no token, a wrapped
// store error when the session could not be read.
func RequireAuth(fail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				fail(w, r, ErrSignedOut)
				return
			}
			token, err := sess.Token(r.Context())
			if err != nil {
				fail(w, r, fmt.Errorf("session store: %w", err))
				return
			}
			if token == "" {
				fail(w, r, ErrSignedOut)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
		})
	}
}

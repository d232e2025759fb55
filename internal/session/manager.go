package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Keys used inside a session namespace.
const (
	KeyToken  = "auth_token"
	KeyUser   = "auth_user"
	KeyTheme  = "theme"
	KeyToasts = "toasts"
)

// DefaultCookieName is the cookie carrying the session ID.
const DefaultCookieName = "hradmin_session"

const (
	themeTTL = 365 * 24 * time.Hour
	toastTTL = 5 * time.Minute
)

// Theme is the UI colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns ThemeDark for "dark" and ThemeLight otherwise.
func ParseTheme(s string) Theme {
	if s == string(ThemeDark) {
		return ThemeDark
	}
	return ThemeLight
}

// ToastLevel is the severity of a toast notification.
type ToastLevel string

const (
	ToastInfo    ToastLevel = "info"
	ToastSuccess ToastLevel = "success"
	ToastWarning ToastLevel = "warning"
	ToastError   ToastLevel = "error"
)

// Toast is a one-shot notification shown on the next rendered page.
type Toast struct {
	ID      string     `json:"id"`
	Level   ToastLevel `json:"level"`
	Message string     `json:"message"`
}

// Options configure a Manager.
type Options struct {
	CookieName string
	TTL        time.Duration // Lifetime of the auth token (default 12h)
	Secure     bool          // Set the Secure cookie attribute
}

// Manager binds HTTP requests to session namespaces in a Store.
type Manager struct {
	store  Store
	cookie string
	ttl    time.Duration
	secure bool
}

// NewManager creates a Manager over store.
func NewManager(store Store, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.TTL <= 0 {
		opts.TTL = 12 * time.Hour
	}
	return &Manager{
		store:  store,
		cookie: opts.CookieName,
		ttl:    opts.TTL,
		secure: opts.Secure,
	}
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// Load returns the request's session, issuing a new session cookie when the
// request has none or carries a malformed ID.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) *Session {
	if s, err := m.FromRequest(r); err == nil {
		return s
	}

	return m.issue(w)
}

func (m *Manager) issue(w http.ResponseWriter) *Session {
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(themeTTL / time.Second),
	})
	return m.Open(id)
}

// Rotate moves old to a freshly issued session ID and wipes the old
// namespace. Theme and queued toasts carry over; auth values do not. Call it
// before storing credentials so an ID known before sign-in never becomes
// authenticated.
func (m *Manager) Rotate(ctx context.Context, w http.ResponseWriter, old *Session) (*Session, error) {
	next := m.issue(w)
	carry := []struct {
		key string
		ttl time.Duration
	}{
		{KeyTheme, themeTTL},
		{KeyToasts, toastTTL},
	}
	for _, c := range carry {
		v, ok, err := m.store.Get(ctx, old.ID, c.key)
		if err != nil {
			return nil, fmt.Errorf("rotate session: %w", err)
		}
		if !ok {
			continue
		}
		if err := m.store.Set(ctx, next.ID, c.key, v, c.ttl); err != nil {
			return nil, fmt.Errorf("rotate session: %w", err)
		}
	}
	if err := m.store.Clear(ctx, old.ID); err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}
	return next, nil
}

// FromRequest returns the session named by the request cookie without issuing
// a new one.
func (m *Manager) FromRequest(r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cookie)
	if err != nil {
		return nil, ErrNoSession
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return nil, ErrNoSession
	}
	return m.Open(c.Value), nil
}

// Open returns the session with a known ID. The CLI uses a fixed ID.
func (m *Manager) Open(id string) *Session {
	return &Session{ID: id, m: m}
}

// Expire removes the session cookie from the browser.
func (m *Manager) Expire(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// Session is a handle on one namespace of the store.
type Session struct {
	ID string
	m  *Manager
}

// Token returns the API auth token, or "" when signed out.
func (s *Session) Token(ctx context.Context) (string, error) {
	v, _, err := s.m.store.Get(ctx, s.ID, KeyToken)
	return v, err
}

// User returns the display name recorded at sign-in.
func (s *Session) User(ctx context.Context) (string, error) {
	v, _, err := s.m.store.Get(ctx, s.ID, KeyUser)
	return v, err
}

// SetAuth records a successful sign-in.
func (s *Session) SetAuth(ctx context.Context, token, user string) error {
	if err := s.m.store.Set(ctx, s.ID, KeyToken, token, s.m.ttl); err != nil {
		return err
	}
	return s.m.store.Set(ctx, s.ID, KeyUser, user, s.m.ttl)
}

// ClearAuth signs the session out, keeping theme and toasts.
func (s *Session) ClearAuth(ctx context.Context) error {
	if err := s.m.store.Delete(ctx, s.ID, KeyToken); err != nil {
		return err
	}
	return s.m.store.Delete(ctx, s.ID, KeyUser)
}

// Theme returns the selected theme, defaulting to light.
func (s *Session) Theme(ctx context.Context) (Theme, error) {
	v, _, err := s.m.store.Get(ctx, s.ID, KeyTheme)
	if err != nil {
		return ThemeLight, err
	}
	return ParseTheme(v), nil
}

// SetTheme stores the theme.
func (s *Session) SetTheme(ctx context.Context, t Theme) error {
	return s.m.store.Set(ctx, s.ID, KeyTheme, string(ParseTheme(string(t))), themeTTL)
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *Session) ToggleTheme(ctx context.Context) (Theme, error) {
	cur, err := s.Theme(ctx)
	if err != nil {
		return cur, err
	}
	next := ThemeDark
	if cur == ThemeDark {
		next = ThemeLight
	}
	return next, s.SetTheme(ctx, next)
}

// PushToast queues a notification for the next page render.
func (s *Session) PushToast(ctx context.Context, level ToastLevel, message string) error {
	toasts, err := s.toasts(ctx)
	if err != nil {
		return err
	}
	toasts = append(toasts, Toast{ID: uuid.NewString(), Level: level, Message: message})
	data, err := json.Marshal(toasts)
	if err != nil {
		return fmt.Errorf("encode toasts: %w", err)
	}
	return s.m.store.Set(ctx, s.ID, KeyToasts, string(data), toastTTL)
}

// DrainToasts returns and removes all queued notifications.
func (s *Session) DrainToasts(ctx context.Context) ([]Toast, error) {
	toasts, err := s.toasts(ctx)
	if err != nil || len(toasts) == 0 {
		return nil, err
	}
	if err := s.m.store.Delete(ctx, s.ID, KeyToasts); err != nil {
		return nil, err
	}
	return toasts, nil
}

func (s *Session) toasts(ctx context.Context) ([]Toast, error) {
	raw, ok, err := s.m.store.Get(ctx, s.ID, KeyToasts)
	if err != nil || !ok || raw == "" {
		return nil, err
	}
	var toasts []Toast
	if err := json.Unmarshal([]byte(raw), &toasts); err != nil {
		// A corrupt queue is dropped rather than blocking every page.
		return nil, nil
	}
	return toasts, nil
}

// Destroy removes every value in the session.
func (s *Session) Destroy(ctx context.Context) error {
	return s.m.store.Clear(ctx, s.ID)
}

type ctxKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by NewContext.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}

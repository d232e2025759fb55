package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestManager_LoadIssuesCookieOnce(t *testing.T) {
	m := NewManager(NewMemoryStore(), Options{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s := m.Load(rec, req)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != DefaultCookieName || c.Value != s.ID {
		t.Errorf("cookie = %s=%s, want %s=%s", c.Name, c.Value, DefaultCookieName, s.ID)
	}
	if !c.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}

	// A request carrying the cookie reuses the session without a new cookie.
	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(c)
	s2 := m.Load(rec2, req2)
	if s2.ID != s.ID {
		t.Errorf("second Load ID = %q, want %q", s2.ID, s.ID)
	}
	if n := len(rec2.Result().Cookies()); n != 0 {
		t.Errorf("second Load set %d cookies, want 0", n)
	}
}

func TestManager_FromRequestRejectsBadID(t *testing.T) {
	m := NewManager(NewMemoryStore(), Options{CookieName: "sid"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := m.FromRequest(req); err != ErrNoSession {
		t.Errorf("no cookie: err = %v, want ErrNoSession", err)
	}

	req.AddCookie(&http.Cookie{Name: "sid", Value: "../../etc"})
	if _, err := m.FromRequest(req); err != ErrNoSession {
		t.Errorf("bad cookie: err = %v, want ErrNoSession", err)
	}
}

func TestSession_AuthThemeToasts(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), Options{TTL: time.Hour})
	s := m.Open("11111111-1111-1111-1111-111111111111")

	if tok, _ := s.Token(ctx); tok != "" {
		t.Errorf("Token on new session = %q, want empty", tok)
	}
	if err := s.SetAuth(ctx, "tok-1", "ada"); err != nil {
		t.Fatalf("SetAuth: %v", err)
	}
	if tok, _ := s.Token(ctx); tok != "tok-1" {
		t.Errorf("Token = %q, want tok-1", tok)
	}
	if u, _ := s.User(ctx); u != "ada" {
		t.Errorf("User = %q, want ada", u)
	}

	if th, _ := s.Theme(ctx); th != ThemeLight {
		t.Errorf("default Theme = %q, want light", th)
	}
	if th, _ := s.ToggleTheme(ctx); th != ThemeDark {
		t.Errorf("ToggleTheme = %q, want dark", th)
	}
	if th, _ := s.Theme(ctx); th != ThemeDark {
		t.Errorf("Theme after toggle = %q, want dark", th)
	}

	s.PushToast(ctx, ToastSuccess, "Saved")
	s.PushToast(ctx, ToastError, "Oops")
	toasts, err := s.DrainToasts(ctx)
	if err != nil {
		t.Fatalf("DrainToasts: %v", err)
	}
	if len(toasts) != 2 || toasts[0].Message != "Saved" || toasts[1].Level != ToastError {
		t.Errorf("DrainToasts = %+v, want Saved then error Oops", toasts)
	}
	if toasts[0].ID == "" || toasts[0].ID == toasts[1].ID {
		t.Error("toasts need distinct IDs")
	}
	if again, _ := s.DrainToasts(ctx); len(again) != 0 {
		t.Errorf("second DrainToasts = %d toasts, want 0", len(again))
	}

	if err := s.ClearAuth(ctx); err != nil {
		t.Fatalf("ClearAuth: %v", err)
	}
	if tok, _ := s.Token(ctx); tok != "" {
		t.Errorf("Token after ClearAuth = %q, want empty", tok)
	}
	if th, _ := s.Theme(ctx); th != ThemeDark {
		t.Error("ClearAuth must keep the theme")
	}
}

func TestContextRoundTrip(t *testing.T) {
	m := NewManager(NewMemoryStore(), Options{})
	s := m.Open("x")
	ctx := NewContext(context.Background(), s)
	got, ok := FromContext(ctx)
	if !ok || got != s {
		t.Errorf("FromContext = %v, %v; want original session", got, ok)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext on bare context should miss")
	}
}

func TestManager_Rotate(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), Options{CookieName: "sid"})
	old := m.Open("22222222-2222-2222-2222-222222222222")
	if err := old.SetAuth(ctx, "stolen", "mallory"); err != nil {
		t.Fatal(err)
	}
	if err := old.SetTheme(ctx, ThemeDark); err != nil {
		t.Fatal(err)
	}
	if err := old.PushToast(ctx, ToastInfo, "hello"); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	next, err := m.Rotate(ctx, rec, old)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != next.ID || next.ID == old.ID {
		t.Fatalf("cookies = %v, want one cookie for a new ID", cookies)
	}
	if tok, _ := next.Token(ctx); tok != "" {
		t.Errorf("rotated token = %q, want empty", tok)
	}
	if theme, _ := next.Theme(ctx); theme != ThemeDark {
		t.Errorf("rotated theme = %q, want dark", theme)
	}
	if toasts, _ := next.DrainToasts(ctx); len(toasts) != 1 || toasts[0].Message != "hello" {
		t.Errorf("rotated toasts = %v", toasts)
	}
	if _, ok, _ := m.Store().Get(ctx, old.ID, KeyTheme); ok {
		t.Error("old namespace still holds values")
	}
}

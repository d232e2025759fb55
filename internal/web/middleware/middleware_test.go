package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/session"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"no trusted proxies ignores headers", nil, "203.0.113.9:5555",
			map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.9:5555"},
		{"trusted proxy real ip", []string{"10.0.0.0/8"}, "10.1.2.3:443",
			map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"trusted proxy forwarded chain", []string{"10.0.0.0/8"}, "10.1.2.3:443",
			map[string]string{"X-Forwarded-For": "198.51.100.8, 10.9.9.9"}, "198.51.100.8"},
		{"single address entry", []string{"127.0.0.1"}, "127.0.0.1:9000",
			map[string]string{"X-Real-IP": "192.0.2.1"}, "192.0.2.1"},
		{"untrusted source", []string{"10.0.0.0/8"}, "192.0.2.50:1234",
			map[string]string{"X-Real-IP": "1.2.3.4"}, "192.0.2.50:1234"},
		{"invalid header kept", []string{"10.0.0.0/8"}, "10.0.0.1:1",
			map[string]string{"X-Real-IP": "not-an-ip"}, "10.0.0.1:1"},
		{"invalid cidr skipped", []string{"bogus", "10.0.0.0/8"}, "10.0.0.1:1",
			map[string]string{"X-Real-IP": "192.0.2.2"}, "192.0.2.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientAddr(t *testing.T) {
	for in, want := range map[string]string{
		"192.0.2.1:80":        "192.0.2.1",
		"[2001:db8::1]:443":   "2001:db8::1",
		"192.0.2.9":           "192.0.2.9",
		"[::ffff:10.0.0.1]:1": "10.0.0.1",
	} {
		got, ok := ClientAddr(in)
		if !ok || got.String() != want {
			t.Errorf("ClientAddr(%q) = %v, %v; want %s", in, got, ok, want)
		}
	}
	if _, ok := ClientAddr("nonsense"); ok {
		t.Error("ClientAddr(nonsense) ok = true")
	}
}

func TestRequireAuth(t *testing.T) {
	store := session.NewMemoryStore()
	mgr := session.NewManager(store, session.Options{})

	var failed error
	var seenToken, seenUser string
	protected := Sessions(mgr)(RequireAuth(func(w http.ResponseWriter, r *http.Request, err error) {
		failed = err
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenToken = Token(r.Context())
		seenUser = core.GetUserFromContext(r.Context())
	})))

	// No cookie: a session is issued but carries no token.
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !errors.Is(failed, ErrSignedOut) {
		t.Fatalf("fail err = %v, want ErrSignedOut", failed)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}

	sess := mgr.Open(cookies[0].Value)
	if err := sess.SetAuth(context.Background(), "tok-9", "ada"); err != nil {
		t.Fatal(err)
	}

	failed = nil
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	protected.ServeHTTP(httptest.NewRecorder(), req)
	if failed != nil {
		t.Fatalf("fail called: %v", failed)
	}
	if seenToken != "tok-9" || seenUser != "ada" {
		t.Errorf("token %q user %q, want tok-9 ada", seenToken, seenUser)
	}
}

func TestLogger_CapturesStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("x"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

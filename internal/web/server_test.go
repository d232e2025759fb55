package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/JonMunkholm/hradmin/internal/apiclient"
	"github.com/JonMunkholm/hradmin/internal/config"
	"github.com/JonMunkholm/hradmin/internal/core"
	_ "github.com/JonMunkholm/hradmin/internal/core/resources"
	"github.com/JonMunkholm/hradmin/internal/export"
	"github.com/JonMunkholm/hradmin/internal/session"
	"github.com/JonMunkholm/hradmin/internal/web/templates"
)

// fakeAPI serves canned records per endpoint.
type fakeAPI struct {
	mu       sync.Mutex
	lists    map[string][]map[string]any
	raw      any
	loginErr error
	listErr  error
	saveErr  error
	calls    []string
	payload  map[string]any
	fields   map[string]string
	files    int
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAPI) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeAPI) Login(_ context.Context, user, _ string) (apiclient.Auth, error) {
	f.record("login " + user)
	if f.loginErr != nil {
		return apiclient.Auth{}, f.loginErr
	}
	return apiclient.Auth{Token: "tok-" + user, User: user}, nil
}

func (f *fakeAPI) List(_ context.Context, _, endpoint string, _ apiclient.ListParams) (apiclient.ListResult, error) {
	f.record("list " + endpoint)
	if f.listErr != nil {
		return apiclient.ListResult{}, f.listErr
	}
	items := f.lists[endpoint]
	return apiclient.ListResult{Items: items, Total: len(items)}, nil
}

func (f *fakeAPI) Get(_ context.Context, _, endpoint, id string) (map[string]any, error) {
	f.record("get " + endpoint + "/" + id)
	return map[string]any{"id": id, "name": "Annual", "code": "AN"}, nil
}

func (f *fakeAPI) Create(_ context.Context, _, endpoint string, rec map[string]any) (map[string]any, error) {
	f.record("create " + endpoint)
	f.payload = rec
	return rec, f.saveErr
}

func (f *fakeAPI) Update(_ context.Context, _, endpoint, id string, rec map[string]any) (map[string]any, error) {
	f.record("update " + endpoint + "/" + id)
	f.payload = rec
	return rec, f.saveErr
}

func (f *fakeAPI) Delete(_ context.Context, _, endpoint, id string) error {
	f.record("delete " + endpoint + "/" + id)
	return f.saveErr
}

func (f *fakeAPI) Action(_ context.Context, _, path string, body map[string]any) (map[string]any, error) {
	f.record("action " + path)
	f.payload = body
	return map[string]any{"status": "approved"}, f.saveErr
}

func (f *fakeAPI) PostMultipart(_ context.Context, _, path string, fields map[string]string, files ...apiclient.File) (map[string]any, error) {
	f.record("multipart " + path)
	f.fields = fields
	f.files = len(files)
	return map[string]any{"ok": true}, nil
}

func (f *fakeAPI) Raw(_ context.Context, _, endpoint string) (any, error) {
	f.record("raw " + endpoint)
	return f.raw, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		API:      config.APIConfig{BaseURL: "http://hr.test", Timeout: time.Second},
		Session:  config.SessionConfig{Store: config.StoreMemory, CookieName: "sid", TTL: time.Hour},
		Table:    config.TableConfig{CollationLocale: "en", RowsPerPage: 10, RowsPerPageOptions: []int{5, 10, 25}},
		Export:   config.ExportConfig{MaxRows: 100, PageSize: 10, MaxConcurrent: 1, MaxWaitTime: time.Second},
		Rate:     config.RateLimitConfig{Enabled: false, RequestsPerMinute: 100, LoginPerMinute: 5},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

type harness struct {
	t   *testing.T
	api *fakeAPI
	mgr *session.Manager
	srv *Server
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	api := &fakeAPI{lists: map[string][]map[string]any{}}
	mgr := session.NewManager(session.NewMemoryStore(), session.Options{CookieName: cfg.Session.CookieName, TTL: cfg.Session.TTL})
	svc := core.NewService(api, core.ServiceConfig{})
	srv := NewServer(svc, mgr, export.NewLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWaitTime), cfg)
	srv.now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	return &harness{t: t, api: api, mgr: mgr, srv: srv}
}

// signIn returns a cookie for a session holding an API token.
func (h *harness) signIn(user string) *http.Cookie {
	h.t.Helper()
	id := uuid.NewString()
	if err := h.mgr.Open(id).SetAuth(context.Background(), "tok-"+user, user); err != nil {
		h.t.Fatal(err)
	}
	return &http.Cookie{Name: "sid", Value: id}
}

func (h *harness) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.srv.Router().ServeHTTP(rec, req)
	return rec
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	for _, hdr := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if rec.Header().Get(hdr) == "" {
			t.Errorf("missing %s header", hdr)
		}
	}
}

func TestProtectedRoute_RedirectsToLogin(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/r/leave-types?page=2", nil), nil)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	want := "/login?next=" + url.QueryEscape("/r/leave-types?page=2")
	if got := rec.Header().Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
	if h.api.called("list leave-types") {
		t.Error("API called without a token")
	}
}

func TestLogin_SignsInAndRedirects(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(postForm("/login", url.Values{
		"username": {"ada"},
		"password": {"secret"},
		"next":     {"/r/leave-types"},
	}), nil)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := rec.Header().Get("Location"); got != "/r/leave-types" {
		t.Errorf("Location = %q, want /r/leave-types", got)
	}
	// One cookie for the anonymous session, then the rotated one.
	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("cookies = %d, want 2", len(cookies))
	}
	signedIn := cookies[len(cookies)-1]

	tok, err := h.mgr.Open(signedIn.Value).Token(context.Background())
	if err != nil || tok != "tok-ada" {
		t.Fatalf("stored token = %q, %v; want tok-ada", tok, err)
	}

	page := h.do(httptest.NewRequest(http.MethodGet, "/", nil), signedIn)
	if page.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", page.Code)
	}
	body := page.Body.String()
	for _, want := range []string{"Welcome, ada", "Signed in as ada", "Leave Types"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestLogin_RotatesSessionID(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	planted := uuid.NewString()
	if err := h.mgr.Open(planted).SetTheme(ctx, session.ThemeDark); err != nil {
		t.Fatal(err)
	}

	rec := h.do(postForm("/login", url.Values{
		"username": {"alice"},
		"password": {"secret"},
	}), &http.Cookie{Name: "sid", Value: planted})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	fresh := cookies[0].Value
	if fresh == planted {
		t.Fatal("session ID was not rotated")
	}

	if tok, _ := h.mgr.Open(planted).Token(ctx); tok != "" {
		t.Errorf("planted session token = %q, want empty", tok)
	}
	if tok, _ := h.mgr.Open(fresh).Token(ctx); tok != "tok-alice" {
		t.Errorf("new session token = %q, want tok-alice", tok)
	}
	if theme, _ := h.mgr.Open(fresh).Theme(ctx); theme != session.ThemeDark {
		t.Errorf("theme = %q, want dark carried over", theme)
	}
	if toasts, _ := h.mgr.Open(fresh).DrainToasts(ctx); len(toasts) != 1 {
		t.Errorf("toasts = %d, want the sign-in toast", len(toasts))
	}
}

func TestLogin_RejectsForeignNext(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(postForm("/login", url.Values{
		"username": {"ada"},
		"password": {"secret"},
		"next":     {"//evil.example/x"},
	}), nil)
	if got := rec.Header().Get("Location"); got != "/" {
		t.Errorf("Location = %q, want /", got)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		loginErr error
		status   int
		want     string
	}{
		{
			name:   "missing password",
			form:   url.Values{"username": {"ada"}},
			status: http.StatusUnprocessableEntity,
			want:   "Password is required",
		},
		{
			name:     "wrong credentials",
			form:     url.Values{"username": {"ada"}, "password": {"nope"}},
			loginErr: &apiclient.APIError{Status: http.StatusUnauthorized, Message: "bad credentials"},
			status:   http.StatusUnauthorized,
			want:     "Invalid username or password",
		},
		{
			name:     "api down",
			form:     url.Values{"username": {"ada"}, "password": {"x"}},
			loginErr: &apiclient.APIError{Status: http.StatusServiceUnavailable},
			status:   http.StatusBadGateway,
			want:     "API006",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.api.loginErr = tt.loginErr
			rec := h.do(postForm("/login", tt.form), nil)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body missing %q", tt.want)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t, nil)
	cookie := h.signIn("ada")

	rec := h.do(postForm("/logout", nil), cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("logout = %d %q, want 303 /login", rec.Code, rec.Header().Get("Location"))
	}
	if tok, _ := h.mgr.Open(cookie.Value).Token(context.Background()); tok != "" {
		t.Errorf("token after logout = %q, want empty", tok)
	}
}

func leaveTypes() []map[string]any {
	return []map[string]any{
		{"id": 1, "name": "Sick", "code": "SK", "is_paid": true},
		{"id": 2, "name": "annual", "code": "AN", "is_paid": true},
		{"id": 3, "name": "Unpaid", "code": "UP", "is_paid": false},
	}
}

func TestList(t *testing.T) {
	h := newHarness(t, nil)
	h.api.lists["leave-types"] = leaveTypes()
	cookie := h.signIn("ada")

	rec := h.do(httptest.NewRequest(http.MethodGet, "/r/leave-types?size=5", nil), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<!doctype html>") {
		t.Error("full page expected")
	}
	if !strings.Contains(body, "Showing 1–3 of 3") {
		t.Error("range label missing")
	}
	// Locale collation places "annual" before "Sick".
	if strings.Index(body, "annual") > strings.Index(body, "Sick") {
		t.Error("rows not sorted by name")
	}
}

func TestList_SearchFiltersRows(t *testing.T) {
	h := newHarness(t, nil)
	h.api.lists["leave-types"] = leaveTypes()
	cookie := h.signIn("ada")

	rec := h.do(httptest.NewRequest(http.MethodGet, "/r/leave-types?search=unp", nil), cookie)
	body := rec.Body.String()
	if !strings.Contains(body, "Unpaid") || strings.Contains(body, "Sick") {
		t.Errorf("search did not filter rows")
	}
}

func TestList_HTMXPartial(t *testing.T) {
	h := newHarness(t, nil)
	h.api.lists["leave-types"] = leaveTypes()
	cookie := h.signIn("ada")

	req := httptest.NewRequest(http.MethodGet, "/r/leave-types?sort=code&dir=desc", nil)
	req.Header.Set("HX-Request", "true")
	rec := h.do(req, cookie)

	body := rec.Body.String()
	if strings.Contains(body, "<!doctype html>") {
		t.Error("partial response contains the layout")
	}
	if !strings.Contains(body, `id="table-container"`) {
		t.Error("partial response missing table container")
	}
	if strings.Index(body, "UP") > strings.Index(body, "AN") {
		t.Error("rows not sorted by code descending")
	}
}

func TestList_UnknownResource(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/r/nope", nil), h.signIn("ada"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestExport(t *testing.T) {
	h := newHarness(t, nil)
	h.api.lists["leave-types"] = leaveTypes()

	rec := h.do(httptest.NewRequest(http.MethodGet, "/r/leave-types/export", nil), h.signIn("ada"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); got != xlsxContentType {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "leave-types-2026-10-18.xlsx") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip container")
	}
}

func TestExpiredToken(t *testing.T) {
	t.Run("page", func(t *testing.T) {
		h := newHarness(t, nil)
		h.api.listErr = &apiclient.APIError{Status: http.StatusUnauthorized}
		cookie := h.signIn("ada")

		rec := h.do(httptest.NewRequest(http.MethodGet, "/r/leave-types", nil), cookie)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
		}
		if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?next=") {
			t.Errorf("Location = %q", loc)
		}
		if tok, _ := h.mgr.Open(cookie.Value).Token(context.Background()); tok != "" {
			t.Errorf("token kept after 401: %q", tok)
		}

		login := h.do(httptest.NewRequest(http.MethodGet, "/login", nil), cookie)
		if !strings.Contains(login.Body.String(), "Your session has expired") {
			t.Error("expiry toast not shown on the login page")
		}
	})

	t.Run("htmx", func(t *testing.T) {
		h := newHarness(t, nil)
		h.api.listErr = &apiclient.APIError{Status: http.StatusUnauthorized}

		req := httptest.NewRequest(http.MethodGet, "/r/leave-types", nil)
		req.Header.Set("HX-Request", "true")
		rec := h.do(req, h.signIn("ada"))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		if got := rec.Header().Get("HX-Redirect"); got != "/login" {
			t.Errorf("HX-Redirect = %q, want /login", got)
		}
	})
}

func TestCreate(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		h := newHarness(t, nil)
		rec := h.do(postForm("/r/leave-types", url.Values{"code": {"AN"}}), h.signIn("ada"))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "Name is required") {
			t.Error("field error missing")
		}
		if !strings.Contains(body, `value="AN"`) {
			t.Error("submitted value not kept")
		}
		if h.api.called("create leave-types") {
			t.Error("API called with invalid input")
		}
	})

	t.Run("api field errors", func(t *testing.T) {
		h := newHarness(t, nil)
		h.api.saveErr = &apiclient.APIError{Status: http.StatusUnprocessableEntity, Message: "invalid", Fields: map[string]string{"code": "is taken"}}
		rec := h.do(postForm("/r/leave-types", url.Values{"name": {"Annual"}, "code": {"AN"}}), h.signIn("ada"))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
		}
		if !strings.Contains(rec.Body.String(), "Code is taken") {
			t.Error("API field error not shown")
		}
	})

	t.Run("success", func(t *testing.T) {
		h := newHarness(t, nil)
		rec := h.do(postForm("/r/leave-types", url.Values{"name": {"Annual"}, "code": {"AN"}, "is_paid": {"true"}}), h.signIn("ada"))
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/r/leave-types" {
			t.Fatalf("create = %d %q", rec.Code, rec.Header().Get("Location"))
		}
		want := map[string]any{"name": "Annual", "code": "AN", "is_paid": true}
		if diff := cmp.Diff(want, h.api.payload); diff != "" {
			t.Errorf("payload mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestEditAndUpdate(t *testing.T) {
	h := newHarness(t, nil)
	cookie := h.signIn("ada")

	edit := h.do(httptest.NewRequest(http.MethodGet, "/r/leave-types/4/edit", nil), cookie)
	if edit.Code != http.StatusOK {
		t.Fatalf("edit status = %d", edit.Code)
	}
	if !strings.Contains(edit.Body.String(), `value="Annual"`) {
		t.Error("edit form not prefilled")
	}

	rec := h.do(postForm("/r/leave-types/4", url.Values{"name": {"Annual"}, "code": {"AL"}}), cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("update status = %d", rec.Code)
	}
	if !h.api.called("update leave-types/4") {
		t.Errorf("calls = %v", h.api.calls)
	}
}

func TestReadOnlyResource(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/r/attendance/new", nil), h.signIn("ada"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestDelete_ReturnsToList(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(postForm("/r/leave-types/3/delete", url.Values{"return": {"/r/leave-types?page=2"}}), h.signIn("ada"))

	if got := rec.Header().Get("Location"); got != "/r/leave-types?page=2" {
		t.Errorf("Location = %q", got)
	}
	if !h.api.called("delete leave-types/3") {
		t.Errorf("calls = %v", h.api.calls)
	}
}

func TestRowAction(t *testing.T) {
	h := newHarness(t, nil)
	cookie := h.signIn("ada")

	rec := h.do(postForm("/r/leave-requests/7/approve", url.Values{"remark": {" ok "}}), cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if !h.api.called("action leave-requests/7/approve") {
		t.Errorf("calls = %v", h.api.calls)
	}
	if diff := cmp.Diff(map[string]any{"remark": "ok"}, h.api.payload); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}

	unknown := h.do(postForm("/r/leave-requests/7/archive", nil), cookie)
	if unknown.Code != http.StatusNotFound {
		t.Errorf("unknown action status = %d, want %d", unknown.Code, http.StatusNotFound)
	}
}

func TestRowAction_FailureBecomesToast(t *testing.T) {
	h := newHarness(t, nil)
	h.api.saveErr = &apiclient.APIError{Status: http.StatusConflict, Message: "already decided"}
	cookie := h.signIn("ada")

	rec := h.do(postForm("/r/leave-requests/7/reject", nil), cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/r/leave-requests" {
		t.Fatalf("reject = %d %q", rec.Code, rec.Header().Get("Location"))
	}
	toasts, err := h.mgr.Open(cookie.Value).DrainToasts(context.Background())
	if err != nil || len(toasts) != 1 {
		t.Fatalf("toasts = %v, %v", toasts, err)
	}
	if toasts[0].Level != session.ToastError || !strings.Contains(toasts[0].Message, "already decided") {
		t.Errorf("toast = %+v", toasts[0])
	}
}

func TestTheme(t *testing.T) {
	h := newHarness(t, nil)
	cookie := h.signIn("ada")

	req := postForm("/theme", nil)
	req.Header.Set("Referer", "http://example.com/r/leave-types")
	rec := h.do(req, cookie)
	if got := rec.Header().Get("Location"); got != "/r/leave-types" {
		t.Errorf("Location = %q, want /r/leave-types", got)
	}

	theme, err := h.mgr.Open(cookie.Value).Theme(context.Background())
	if err != nil || theme != session.ThemeDark {
		t.Errorf("theme = %q, %v; want dark", theme, err)
	}

	page := h.do(httptest.NewRequest(http.MethodGet, "/organization", nil), cookie)
	if !strings.Contains(page.Body.String(), `data-theme="dark"`) {
		t.Error("dark theme not applied")
	}
}

func TestCheckIn(t *testing.T) {
	h := newHarness(t, nil)

	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	mpw.WriteField("latitude", "52.52")
	mpw.WriteField("longitude", "13.40")
	mpw.WriteField("note", "office")
	fw, _ := mpw.CreateFormFile("photo", "me.jpg")
	fw.Write([]byte("jpeg"))
	mpw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attendance/check-in", &buf)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	rec := h.do(req, h.signIn("ada"))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/attendance" {
		t.Fatalf("check-in = %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if !h.api.called("multipart attendance/check-in") {
		t.Errorf("calls = %v", h.api.calls)
	}
	if h.api.files != 1 || h.api.fields["note"] != "office" {
		t.Errorf("fields = %v files = %d", h.api.fields, h.api.files)
	}
	if got := h.api.fields["timestamp"]; got != "2026-10-18T09:00:00Z" {
		t.Errorf("timestamp = %q", got)
	}
}

func TestCheckOut_InvalidCoordinates(t *testing.T) {
	h := newHarness(t, nil)

	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	mpw.WriteField("latitude", "north")
	mpw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attendance/check-out", &buf)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	rec := h.do(req, h.signIn("ada"))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if !strings.Contains(rec.Body.String(), "Latitude must be a number") {
		t.Error("field error missing")
	}
}

func TestOrganization(t *testing.T) {
	h := newHarness(t, nil)
	h.api.raw = []any{
		map[string]any{"id": 1, "name": "Grace", "title": "CEO", "children": []any{
			map[string]any{"id": 2, "name": "Linus", "title": "CTO"},
		}},
	}

	rec := h.do(httptest.NewRequest(http.MethodGet, "/organization", nil), h.signIn("ada"))
	body := rec.Body.String()
	for _, want := range []string{"Grace", "Linus", "2 people"} {
		if !strings.Contains(body, want) {
			t.Errorf("org chart missing %q", want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 2
	h := newHarness(t, cfg)

	for i := range 2 {
		if rec := h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil), nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Accept", "application/json")
	rec := h.do(req, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", body.Code)
	}
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/r/users?page=2", "/r/users?page=2"},
		{"", "/"},
		{"https://evil.example/", "/"},
		{"//evil.example/", "/"},
		{`/\evil.example`, "/"},
		{"relative", "/"},
	}
	for _, tt := range tests {
		if got := localPath(tt.in, "/"); got != tt.want {
			t.Errorf("localPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStoreErrorMapsToSessionCode(t *testing.T) {
	err := storeError(errors.New("disk full"))
	if got := core.MapError(err).Code; got != "SES002" {
		t.Errorf("code = %q, want SES002", got)
	}
}

func TestServe_RenderFailureIs500(t *testing.T) {
	broken := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, "<p>half")
		return errors.New("boom")
	})
	rec := httptest.NewRecorder()
	serve(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, broken)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rec.Body.String(), "half") {
		t.Errorf("partial output written: %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	serve(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, templates.ErrorAlert("Saved", "", ""))
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
}

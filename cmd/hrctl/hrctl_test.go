package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/hradmin/internal/apiclient"
	"github.com/JonMunkholm/hradmin/internal/config"
	"github.com/JonMunkholm/hradmin/internal/core"
	_ "github.com/JonMunkholm/hradmin/internal/core/resources"
	"github.com/JonMunkholm/hradmin/internal/session"
)

type fakeAPI struct {
	mu      sync.Mutex
	lists   map[string][]map[string]any
	listErr error
	calls   []string
	payload map[string]any
	tokens  []string
	created []string
}

func (f *fakeAPI) record(call, token string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
}

func (f *fakeAPI) Login(_ context.Context, user, password string) (apiclient.Auth, error) {
	f.record("login "+user, "")
	if password != "secret" {
		return apiclient.Auth{}, &apiclient.APIError{Status: 401, Message: "bad credentials"}
	}
	return apiclient.Auth{Token: "tok-" + user, User: user}, nil
}

func (f *fakeAPI) List(_ context.Context, token, endpoint string, _ apiclient.ListParams) (apiclient.ListResult, error) {
	f.record("list "+endpoint, token)
	if f.listErr != nil {
		return apiclient.ListResult{}, f.listErr
	}
	items := f.lists[endpoint]
	return apiclient.ListResult{Items: items, Total: len(items)}, nil
}

func (f *fakeAPI) Get(context.Context, string, string, string) (map[string]any, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) Create(_ context.Context, token, endpoint string, rec map[string]any) (map[string]any, error) {
	f.record("create "+endpoint, token)
	name, _ := rec["name"].(string)
	if name == "Dup" {
		return nil, &apiclient.APIError{Status: 409, Message: "Duplicate code"}
	}
	f.mu.Lock()
	f.created = append(f.created, name)
	f.mu.Unlock()
	return rec, nil
}

func (f *fakeAPI) Update(context.Context, string, string, string, map[string]any) (map[string]any, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) Delete(context.Context, string, string, string) error {
	return errors.New("not implemented")
}

func (f *fakeAPI) Action(_ context.Context, token, path string, body map[string]any) (map[string]any, error) {
	f.record("action "+path, token)
	f.payload = body
	return map[string]any{"status": "approved"}, nil
}

func (f *fakeAPI) PostMultipart(context.Context, string, string, map[string]string, ...apiclient.File) (map[string]any, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) Raw(context.Context, string, string) (any, error) {
	return nil, errors.New("not implemented")
}

// harness runs hrctl commands against a fake API and a shared memory store.
type harness struct {
	t     *testing.T
	api   *fakeAPI
	store *session.MemoryStore
	stdin string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("API_BASE_URL", "http://hr.test")
	t.Setenv("SESSION_STORE", "memory")
	return &harness{
		t: t,
		api: &fakeAPI{lists: map[string][]map[string]any{
			"branches": {
				{"id": 1, "name": "Head Office", "code": "HQ"},
				{"id": 2, "name": "Zeta Depot", "code": "ZD"},
				{"id": 3, "name": "Airport", "code": "AP"},
			},
		}},
		store: session.NewMemoryStore(),
	}
}

func (h *harness) run(args ...string) (stdout, stderr string, err error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	c := newCLI(strings.NewReader(h.stdin), &out, &errOut)
	c.newAPI = func(*config.Config) core.API { return h.api }
	c.openStore = func(context.Context, string) (session.Store, error) { return h.store, nil }
	c.now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	err = c.execute(args)
	return out.String(), errOut.String(), err
}

func (h *harness) storedToken() string {
	h.t.Helper()
	v, _, err := h.store.Get(context.Background(), cliSessionID, session.KeyToken)
	if err != nil {
		h.t.Fatalf("Get token: %v", err)
	}
	return v
}

func (h *harness) signIn() {
	h.t.Helper()
	if _, stderr, err := h.run("login", "-u", "alice", "-p", "secret"); err != nil {
		h.t.Fatalf("login: %v (%s)", err, stderr)
	}
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("login", "--user", "alice", "--password", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Signed in as alice") {
		t.Errorf("output = %q", out)
	}
	if got := h.storedToken(); got != "tok-alice" {
		t.Errorf("token = %q, want tok-alice", got)
	}

	out, _, err = h.run("whoami")
	if err != nil || strings.TrimSpace(out) != "alice" {
		t.Errorf("whoami = %q, %v", out, err)
	}
}

func TestLogin_Prompts(t *testing.T) {
	h := newHarness(t)
	h.stdin = "bob\nsecret\n"

	out, _, err := h.run("login")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Username: ") || !strings.Contains(out, "Signed in as bob") {
		t.Errorf("output = %q", out)
	}
	if got := h.storedToken(); got != "tok-bob" {
		t.Errorf("token = %q, want tok-bob", got)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"wrong password", []string{"login", "-u", "alice", "-p", "nope"}, "invalid username or password"},
		{"empty username", []string{"login", "-u", " ", "-p", "secret"}, "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, stderr, err := h.run(tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.want)
			}
			if got := h.storedToken(); got != "" {
				t.Errorf("token = %q, want none", got)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	if _, _, err := h.run("logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if got := h.storedToken(); got != "" {
		t.Errorf("token = %q after logout", got)
	}

	_, stderr, err := h.run("list", "branches")
	if !errors.Is(err, errNotSignedIn) {
		t.Errorf("err = %v, want errNotSignedIn", err)
	}
	if !strings.Contains(stderr, "Not signed in") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestList(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	out, _, err := h.run("list", "branches", "--sort", "name", "--desc", "--size", "2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	zeta, head := strings.Index(out, "Zeta Depot"), strings.Index(out, "Head Office")
	if zeta < 0 || head < 0 || zeta > head {
		t.Errorf("rows not sorted by name descending:\n%s", out)
	}
	if strings.Contains(out, "Airport") {
		t.Errorf("page 1 of size 2 shows the third row:\n%s", out)
	}
	if !strings.Contains(out, "Showing 1–2 of 3") {
		t.Errorf("footer missing:\n%s", out)
	}
	if got := h.api.tokens[len(h.api.tokens)-1]; got != "tok-alice" {
		t.Errorf("API token = %q, want tok-alice", got)
	}

	out, _, err = h.run("list", "branches", "--search", "air")
	if err != nil {
		t.Fatalf("list --search: %v", err)
	}
	if !strings.Contains(out, "Airport") || strings.Contains(out, "Head Office") {
		t.Errorf("search output:\n%s", out)
	}
}

func TestList_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown resource", []string{"list", "payroll"}, "VAL003"},
		{"unknown sort column", []string{"list", "branches", "--sort", "salary"}, `by "salary"`},
		{"missing argument", []string{"list"}, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.signIn()
			_, stderr, err := h.run(tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.want)
			}
		})
	}
}

func TestExpiredTokenSignsOut(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.api.listErr = &apiclient.APIError{Status: 401, Message: "token expired"}

	_, stderr, err := h.run("list", "branches")
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if !strings.Contains(stderr, "API001") {
		t.Errorf("stderr = %q", stderr)
	}
	if got := h.storedToken(); got != "" {
		t.Errorf("token = %q, want cleared", got)
	}
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	path := filepath.Join(t.TempDir(), "branches.xlsx")

	out, _, err := h.run("export", "branches", "-o", path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "Wrote 3 rows to "+path) {
		t.Errorf("output = %q", out)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Branches")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	want := [][]string{
		{"Name", "Code", "Phone", "Active"},
		{"Airport", "AP"},
		{"Head Office", "HQ"},
		{"Zeta Depot", "ZD"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestDecide(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	out, _, err := h.run("decide", "7", "reject", "--remark", "Peak season")
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !strings.Contains(out, "Leave request 7 rejected") {
		t.Errorf("output = %q", out)
	}
	if got := h.api.calls[len(h.api.calls)-1]; got != "action leave-requests/7/reject" {
		t.Errorf("last call = %q", got)
	}
	if diff := cmp.Diff(map[string]any{"remark": "Peak season"}, h.api.payload); diff != "" {
		t.Errorf("payload (-want +got):\n%s", diff)
	}

	_, stderr, err := h.run("decide", "7", "maybe")
	if err == nil || !strings.Contains(stderr, "must be approve or reject") {
		t.Errorf("invalid decision: err = %v, stderr = %q", err, stderr)
	}
}

func TestTheme(t *testing.T) {
	h := newHarness(t)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"theme"}, "Theme: dark"},
		{[]string{"theme"}, "Theme: light"},
		{[]string{"theme", "dark"}, "Theme: dark"},
		{[]string{"theme", "dark"}, "Theme: dark"},
	}
	for _, s := range steps {
		out, _, err := h.run(s.args...)
		if err != nil {
			t.Fatalf("%v: %v", s.args, err)
		}
		if strings.TrimSpace(out) != s.want {
			t.Errorf("%v = %q, want %q", s.args, out, s.want)
		}
	}

	if _, _, err := h.run("theme", "purple"); err == nil {
		t.Error("theme purple: expected error")
	}
}

func TestResources(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("resources")
	if err != nil {
		t.Fatalf("resources: %v", err)
	}
	for _, want := range []string{"Organization", "branches", "Leave Requests", "attendance", "read-only"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errNotSignedIn, "Not signed in. Run 'hrctl login' first."},
		{core.ValidationErrors{"password": "is required"}, "password: is required"},
		{core.ErrReadOnly, "This screen is read-only (Code: VAL002). Records here are managed elsewhere"},
		{errors.New("flag provided but not defined"), "flag provided but not defined"},
	}
	for _, tt := range tests {
		if got := describe(tt.err); got != tt.want {
			t.Errorf("describe(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestImport(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	dir := t.TempDir()
	src := filepath.Join(dir, "branches.csv")
	csv := "Name,Code,Phone\nHead Office,HQ,555-0100\nNorth,,\nDup,DUP,\nSouth,S1,\n"
	if err := os.WriteFile(src, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	failed := filepath.Join(dir, "failed.csv")

	out, _, err := h.run("import", "branches", src, "--failed", failed)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	for _, want := range []string{
		"Imported 2 of 4 rows into branches",
		"line 3: code: is required",
		"line 4: api 409: Duplicate code",
		"Failed rows written to " + failed,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	sort.Strings(h.api.created)
	if diff := cmp.Diff([]string{"Head Office", "South"}, h.api.created); diff != "" {
		t.Errorf("created (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(failed)
	if err != nil {
		t.Fatalf("read failed rows: %v", err)
	}
	if !strings.HasPrefix(string(data), "Line,Status,Name,Code,Phone\n3,code: is required,North,,\n") {
		t.Errorf("failed file:\n%s", data)
	}
}

func TestImport_DryRun(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	src := filepath.Join(t.TempDir(), "branches.csv")
	if err := os.WriteFile(src, []byte("Name,Code\nHead Office,HQ\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := h.run("import", "branches", src, "--dry-run")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Validated 1 of 1 rows") {
		t.Errorf("output = %q", out)
	}
	if len(h.api.created) != 0 {
		t.Errorf("dry run created %v", h.api.created)
	}
}

func TestReset(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	if _, _, err := h.run("theme", "dark"); err != nil {
		t.Fatal(err)
	}

	out, _, err := h.run("reset")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !strings.Contains(out, "Local session cleared") {
		t.Errorf("output = %q", out)
	}
	if got := h.storedToken(); got != "" {
		t.Errorf("token = %q after reset", got)
	}
	if out, _, _ := h.run("theme"); strings.TrimSpace(out) != "Theme: dark" {
		t.Errorf("theme after reset toggled to %q, want dark from light default", out)
	}
}

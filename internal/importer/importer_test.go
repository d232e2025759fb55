package importer

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/hradmin/internal/apiclient"
	"github.com/JonMunkholm/hradmin/internal/core"
)

func branches() core.Resource {
	return core.Resource{
		Info: core.ResourceInfo{Key: "branches", Label: "Branches", Singular: "Branch"},
		Fields: []core.FieldSpec{
			{Name: "name", Label: "Name", Required: true},
			{Name: "code", Label: "Code", Required: true},
			{Name: "phone", Label: "Phone"},
			{Name: "is_active", Label: "Active", Type: core.FieldBool},
		},
	}
}

const branchCSV = `Branch export,,
Generated 2026-10-18,,
Name,Code,Phone
Head Office,HQ,555-0100
,,
North,,555-0101
Dup,DUP,
South,S1,
`

type recorder struct {
	mu    sync.Mutex
	saved []map[string]string
	fail  map[string]error // by name
}

func (r *recorder) save(_ context.Context, values map[string]string) (core.Record, error) {
	if err := r.fail[values["name"]]; err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.saved = append(r.saved, values)
	r.mu.Unlock()
	return core.Record{"id": 1}, nil
}

func TestRun(t *testing.T) {
	rec := &recorder{fail: map[string]error{
		"Dup": &apiclient.APIError{Status: 409, Message: "Duplicate code"},
	}}

	res, err := Run(context.Background(), branches(), strings.NewReader(branchCSV), rec.save, Options{Workers: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.TotalRows != 4 || res.Accepted != 2 {
		t.Errorf("total = %d accepted = %d, want 4 and 2", res.TotalRows, res.Accepted)
	}

	wantFailed := []FailedRow{
		{Line: 6, Reason: "code: is required", Data: []string{"North", "", "555-0101"}},
		{Line: 7, Reason: "api 409: Duplicate code", Data: []string{"Dup", "DUP", ""}},
	}
	if diff := cmp.Diff(wantFailed, res.Failed); diff != "" {
		t.Errorf("failed rows (-want +got):\n%s", diff)
	}

	sort.Slice(rec.saved, func(i, j int) bool { return rec.saved[i]["name"] < rec.saved[j]["name"] })
	wantSaved := []map[string]string{
		{"name": "Head Office", "code": "HQ", "phone": "555-0100"},
		{"name": "South", "code": "S1", "phone": ""},
	}
	if diff := cmp.Diff(wantSaved, rec.saved); diff != "" {
		t.Errorf("saved values (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := WriteFailed(&buf, res); err != nil {
		t.Fatalf("WriteFailed: %v", err)
	}
	want := "Line,Status,Name,Code,Phone\n" +
		"6,code: is required,North,,555-0101\n" +
		"7,api 409: Duplicate code,Dup,DUP,\n"
	if got := buf.String(); got != want {
		t.Errorf("failed file = %q, want %q", got, want)
	}
}

func TestRun_MultilineFieldLineNumbers(t *testing.T) {
	const data = "Name,Code,Phone\n" +
		"\"Head\nOffice\",HQ,555\n" +
		"North,,555-0101\n" +
		"\"South\n\nWing\",S1,\n" +
		"East,,\n"

	res, err := Run(context.Background(), branches(), strings.NewReader(data), nil, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var got []int
	for _, f := range res.Failed {
		got = append(got, f.Line)
	}
	if diff := cmp.Diff([]int{4, 8}, got); diff != "" {
		t.Errorf("failed lines (-want +got):\n%s", diff)
	}
}

func TestRun_DryRun(t *testing.T) {
	rec := &recorder{}
	res, err := Run(context.Background(), branches(), strings.NewReader(branchCSV), rec.save, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Accepted != 3 || len(res.Failed) != 1 {
		t.Errorf("accepted = %d failed = %d, want 3 and 1", res.Accepted, len(res.Failed))
	}
	if len(rec.saved) != 0 {
		t.Errorf("dry run saved %d rows", len(rec.saved))
	}
}

func TestRun_UnauthorizedAborts(t *testing.T) {
	save := func(context.Context, map[string]string) (core.Record, error) {
		return nil, &apiclient.APIError{Status: 401}
	}
	_, err := Run(context.Background(), branches(), strings.NewReader(branchCSV), save, Options{})
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestRun_Errors(t *testing.T) {
	readOnly := branches()
	readOnly.Info.ReadOnly = true

	tests := []struct {
		name string
		def  core.Resource
		csv  string
		want string
	}{
		{"read-only resource", readOnly, branchCSV, "read-only"},
		{"empty file", branches(), "", "empty file"},
		{"no header", branches(), "Name,Phone\nHQ,555\n", "required columns: name, code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), tt.def, strings.NewReader(tt.csv), nil, Options{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, branches(), strings.NewReader(branchCSV), nil, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestMakeHeaderIndex(t *testing.T) {
	header := []string{"\ufeffNAME", `="Code"`, "is-active", "Name"}
	got := MakeHeaderIndex(header, branches().Fields)
	want := HeaderIndex{"name": 0, "code": 1, "is_active": 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MakeHeaderIndex (-want +got):\n%s", diff)
	}
}

func TestCleanHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Name", "name"},
		{"  Leave Type ", "leave_type"},
		{"\ufeffstart-date", "start_date"},
		{`="Code"`, "code"},
	}
	for _, tt := range tests {
		if got := CleanHeader(tt.in); got != tt.want {
			t.Errorf("CleanHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

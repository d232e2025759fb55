package export

import (
	"bytes"
	"testing"

	"github.com/JonMunkholm/hradmin/internal/datatable"
	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX_RoundTrip(t *testing.T) {
	headers := []string{"Name", "Code"}
	rows := [][]string{
		{"Head Office", "HQ"},
		{"Branch: North", "N1"},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, "Branches", headers, rows); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = f.Close() }()

	if got := f.GetSheetName(0); got != "Branches" {
		t.Errorf("sheet name = %q, want Branches", got)
	}

	got, err := f.GetRows("Branches")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	want := [][]string{
		{"Name", "Code"},
		{"Head Office", "HQ"},
		{"Branch: North", "N1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteXLSX_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, "", []string{"A"}, nil); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, _ := f.GetRows("Sheet1")
	if len(rows) != 1 || rows[0][0] != "A" {
		t.Errorf("rows = %v, want single header row", rows)
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Leave Requests", "Leave Requests"},
		{"a/b:c", "a-b-c"},
		{"", "Sheet1"},
		{"  ", "Sheet1"},
		{"An extremely long worksheet name here", "An extremely long worksheet nam"},
	}
	for _, tt := range tests {
		if got := SheetName(tt.in); got != tt.want {
			t.Errorf("SheetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTable_DropsActionColumn(t *testing.T) {
	type row struct{ Name, Role string }
	cols := []datatable.Column[row]{
		{Key: "name", Label: "Name"},
		{Key: datatable.ActionKey, Label: "Actions"},
		{Key: "role", Label: "Role"},
	}
	rows := []row{{"Ada", "Admin"}, {"Grace", "Staff"}}

	headers, cells := Table(cols, rows, func(r row, key string) string {
		if key == "name" {
			return r.Name
		}
		return r.Role
	})

	if diff := cmp.Diff([]string{"Name", "Role"}, headers); diff != "" {
		t.Errorf("headers (-want +got):\n%s", diff)
	}
	want := [][]string{{"Ada", "Admin"}, {"Grace", "Staff"}}
	if diff := cmp.Diff(want, cells); diff != "" {
		t.Errorf("cells (-want +got):\n%s", diff)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("Leave Requests", "2024-05-01"); got != "leave-requests-2024-05-01.xlsx" {
		t.Errorf("FileName = %q", got)
	}
	if got := FileName("", ""); got != "export.xlsx" {
		t.Errorf("FileName empty = %q", got)
	}
}

package core

import "testing"

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   any
		wantOK bool
	}{
		{"positive integer", "123", int64(123), true},
		{"negative integer", "-456", int64(-456), true},
		{"decimal", "123.45", 123.45, true},
		{"leading decimal point", ".5", 0.5, true},
		{"currency and thousands", "$1,234.50", 1234.5, true},
		{"euro", "€99", int64(99), true},
		{"accounting negative", "(12.50)", -12.5, true},
		{"scientific", "1e3", 1000.0, true},
		{"empty", "", nil, false},
		{"text", "abc", nil, false},
		{"double dot", "1.2.3", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseNumber(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"2024-01-15", "2024-01-15", true},
		{"2024/01/15", "2024-01-15", true},
		{"1/15/2024", "2024-01-15", true},
		{"Jan 15, 2024", "2024-01-15", true},
		{"15 Jan 2024", "2024-01-15", true},
		{"20240115", "2024-01-15", true},
		{"2024-01-15T08:00:00Z", "2024-01-15", true},
		{"", "", false},
		{"yesterday", "", false},
		{"2024-13-45", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseDate(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"09:30", "09:30", true},
		{"17:45:10", "17:45", true},
		{"9:30 AM", "09:30", true},
		{"5:15pm", "17:15", true},
		{"25:00", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseTime(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseTime(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "YES", "y", "1", "on", " t "} {
		if v, ok := ParseBool(s); !ok || !v {
			t.Errorf("ParseBool(%q) = %v, %v; want true", s, v, ok)
		}
	}
	for _, s := range []string{"false", "No", "n", "0", "off"} {
		if v, ok := ParseBool(s); !ok || v {
			t.Errorf("ParseBool(%q) = %v, %v; want false", s, v, ok)
		}
	}
	if _, ok := ParseBool("maybe"); ok {
		t.Error("ParseBool(maybe) ok = true")
	}
}

func TestParseReference(t *testing.T) {
	if v, ok := ParseReference("42"); !ok || v != int64(42) {
		t.Errorf("ParseReference(42) = %v, %v", v, ok)
	}
	uuid := "5f1c3a9e-7d2b-4c1a-9e8f-0a1b2c3d4e5f"
	if v, ok := ParseReference(uuid); !ok || v != uuid {
		t.Errorf("ParseReference(uuid) = %v, %v", v, ok)
	}
	if _, ok := ParseReference(" "); ok {
		t.Error("blank reference ok = true")
	}
}

func TestCleanInput(t *testing.T) {
	tests := map[string]string{
		"  hello  ": "hello",
		`="00123"`:  "00123",
		"plain":     "plain",
		"":          "",
	}
	for in, want := range tests {
		if got := CleanInput(in); got != want {
			t.Errorf("CleanInput(%q) = %q, want %q", in, got, want)
		}
	}
}

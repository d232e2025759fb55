package core

// convert.go turns form input into the values sent to the HR API.
//
// Browsers mostly submit well-formed values, but the CLI and pasted input do
// not, so parsing is lenient:
//   - Several date layouts (ISO, US, EU, "Jan 2, 2006")
//   - Currency symbols and thousands separators in numbers
//   - yes/no, true/false, on/off and 1/0 booleans
//   - 12 and 24 hour clock times
//
// Each ParseX returns ok=false for empty or invalid input.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// DateLayout and TimeLayout are the canonical wire formats.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	dateLayouts = []string{
		DateLayout, "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "02.01.2006",
		"Jan 2, 2006", "2 Jan 2006", "January 2, 2006",
		"20060102",
		time.RFC3339,
	}
	timeLayouts = []string{TimeLayout, "15:04:05", "3:04PM", "3:04 PM", "3:04pm", "3:04 pm"}
)

// ParseDate parses a date and returns it in DateLayout.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), true
		}
	}
	return "", false
}

// ParseTime parses a clock time and returns it in TimeLayout.
func ParseTime(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(TimeLayout), true
		}
	}
	return "", false
}

// ParseNumber parses a number, accepting currency symbols, thousands
// separators and accounting negatives "(12.50)". Integral values come back
// as int64, everything else as float64.
func ParseNumber(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "").Replace(s)
	if negative {
		s = "-" + s
	}
	if !numericRegex.MatchString(s) {
		return nil, false
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

// ParseBool accepts true/false, yes/no, on/off, t/f, y/n and 1/0.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1", "on":
		return true, true
	case "false", "f", "no", "n", "0", "off":
		return false, true
	default:
		return false, false
	}
}

// ParseReference converts a select value into an API id: integers when the
// value is numeric, the raw string otherwise (UUIDs, slugs).
func ParseReference(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	return s, true
}

// CleanInput trims whitespace and strips a spreadsheet formula prefix
// (="...") left over from pasted cells.
func CleanInput(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	}
	return s
}

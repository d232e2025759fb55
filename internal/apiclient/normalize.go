package apiclient

// normalize.go extracts lists, totals, single objects and tokens from API
// responses whose envelope varies between endpoints and API versions:
//
//	[ {...}, ... ]
//	{"data": [ ... ], "total": 12}
//	{"data": {"items": [ ... ], "meta": {"total": 12}}}
//	{"items": [ ... ], "pagination": {"total": 12}}
//	{"results": [ ... ], "count": 12}
//
// Anything unrecognised yields an empty list rather than an error.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

var listKeys = []string{"items", "rows", "results", "records", "data", "list"}

var totalKeys = []string{"total", "count", "total_count", "totalCount", "totalItems", "total_items", "totalRecords"}

// decodeJSON decodes body keeping numbers as json.Number.
func decodeJSON(body []byte) (any, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return doc, nil
}

// ExtractList returns the record list and the total reported by the server
// (or -1 when the response carries none).
func ExtractList(doc any) ([]map[string]any, int) {
	switch v := doc.(type) {
	case []any:
		return objects(v), -1
	case map[string]any:
		return extractFromObject(v, 0)
	default:
		return []map[string]any{}, -1
	}
}

func extractFromObject(obj map[string]any, depth int) ([]map[string]any, int) {
	total := findTotal(obj)
	if depth > 2 {
		return []map[string]any{}, total
	}
	for _, k := range listKeys {
		switch v := obj[k].(type) {
		case []any:
			return objects(v), total
		case map[string]any:
			items, inner := extractFromObject(v, depth+1)
			if total < 0 {
				total = inner
			}
			return items, total
		}
	}
	return []map[string]any{}, total
}

// findTotal looks for a count at the top level, then under meta and
// pagination.
func findTotal(obj map[string]any) int {
	for _, k := range totalKeys {
		if n, ok := intOf(obj[k]); ok {
			return n
		}
	}
	for _, k := range []string{"meta", "pagination", "page_info", "pageInfo"} {
		if inner, ok := obj[k].(map[string]any); ok {
			for _, tk := range totalKeys {
				if n, ok := intOf(inner[tk]); ok {
					return n
				}
			}
		}
	}
	return -1
}

// ExtractObject unwraps a single record from {"data": {...}} style envelopes.
func ExtractObject(doc any) map[string]any {
	obj, ok := doc.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	for _, k := range []string{"data", "item", "record", "result"} {
		if inner, ok := obj[k].(map[string]any); ok {
			return inner
		}
	}
	return obj
}

// ExtractToken finds an auth token in a login response.
func ExtractToken(doc any) string {
	obj, ok := doc.(map[string]any)
	if !ok {
		return ""
	}
	for _, scope := range []map[string]any{obj, asObject(obj["data"])} {
		for _, k := range []string{"token", "access_token", "accessToken", "jwt"} {
			if s := stringOf(scope[k]); s != "" {
				return s
			}
		}
	}
	return ""
}

// ExtractUser finds a display name for the signed-in user.
func ExtractUser(doc any, fallback string) string {
	obj, ok := doc.(map[string]any)
	if !ok {
		return fallback
	}
	for _, scope := range []map[string]any{asObject(obj["user"]), asObject(asObject(obj["data"])["user"]), asObject(obj["data"])} {
		for _, k := range []string{"name", "full_name", "username", "email"} {
			if s := stringOf(scope[k]); s != "" {
				return s
			}
		}
	}
	return fallback
}

func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func asObject(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

func stringOf(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	default:
		return ""
	}
}

func intOf(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		if f, err := x.Float64(); err == nil {
			return int(f), true
		}
	case float64:
		return int(x), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, true
		}
	}
	return 0, false
}

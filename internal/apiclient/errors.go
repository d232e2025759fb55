package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrUnauthorized is wrapped by errors for 401 responses. Callers sign the
// user out when they see it.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response from the HR API.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string // Per-field validation messages, if any
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + e.Fields[k]
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return fmt.Sprintf("api %d: %s", e.Status, msg)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401s.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// StatusOf returns the HTTP status of an API error, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// decodeError builds an APIError from a response body of unknown shape.
func decodeError(status int, body []byte) *APIError {
	e := &APIError{Status: status}

	doc, err := decodeJSON(body)
	if err != nil {
		e.Message = strings.TrimSpace(string(body))
		if len(e.Message) > 200 {
			e.Message = e.Message[:200]
		}
		return e
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return e
	}

	for _, k := range []string{"message", "error", "detail", "msg"} {
		if s := stringOf(obj[k]); s != "" {
			e.Message = s
			break
		}
		// {"error": {"message": "..."}}
		if inner, ok := obj[k].(map[string]any); ok {
			if s := stringOf(inner["message"]); s != "" {
				e.Message = s
				break
			}
		}
	}

	switch errs := obj["errors"].(type) {
	case map[string]any:
		e.Fields = make(map[string]string, len(errs))
		for field, v := range errs {
			e.Fields[field] = firstMessage(v)
		}
	case []any:
		var msgs []string
		for _, v := range errs {
			if m := firstMessage(v); m != "" {
				msgs = append(msgs, m)
			}
		}
		if e.Message == "" && len(msgs) > 0 {
			e.Message = strings.Join(msgs, "; ")
		}
	case string:
		if e.Message == "" {
			e.Message = errs
		}
	}
	return e
}

// firstMessage flattens a validation message value ("x", ["x", "y"], {"message": "x"}).
func firstMessage(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		if len(x) > 0 {
			return firstMessage(x[0])
		}
	case map[string]any:
		return stringOf(x["message"])
	}
	return ""
}

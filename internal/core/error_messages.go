package core

// error_messages.go: Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # API Errors (API001-API099)
//
// Errors returned by, or on the way to, the remote HR API:
//
//	API001 - Unauthorized: Your session has expired
//	         Action: Please sign in again
//	         Match: HTTP 401, apiclient.ErrUnauthorized
//
//	API002 - Forbidden: You do not have permission to do that
//	         Action: Ask an administrator for access
//	         Match: HTTP 403
//
//	API003 - Not found: The record could not be found
//	         Action: It may have been deleted. Refresh the list
//	         Match: HTTP 404
//
//	API004 - Conflict: The record conflicts with an existing one
//	         Action: Check for duplicates and try again
//	         Match: HTTP 409, "already exists", "duplicate"
//
//	API005 - Rejected: The HR service rejected the submitted data
//	         Action: Review the highlighted fields
//	         Match: HTTP 400, 422
//
//	API006 - Unavailable: The HR service is unavailable
//	         Action: Please try again in a few moments
//	         Match: HTTP 5xx, "connection refused", "no such host"
//
//	API007 - Timeout: The HR service took too long to respond
//	         Action: Please try again
//	         Match: "timeout", "deadline exceeded"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid form: Some fields are invalid
//	         Action: Correct the highlighted fields and submit again
//	         Match: ValidationErrors
//
//	VAL002 - Not editable: This screen is read-only
//	         Action: Records here are managed elsewhere
//	         Match: ErrReadOnly
//
//	VAL003 - Unknown screen: The requested screen does not exist
//	         Action: Use the navigation menu
//	         Match: ErrUnknownResource
//
// # Session Errors (SES001-SES099)
//
//	SES001 - No session: Your browser session could not be found
//	         Action: Please sign in
//	         Match: "session not found"
//
//	SES002 - Session storage: Session storage is unavailable
//	         Action: Please try again in a few moments
//	         Match: "session store"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Match: "rate limit", HTTP 429
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Typed errors are checked first: API status codes, ValidationErrors and the
// package sentinels. Everything else falls back to case-insensitive substring
// patterns, where the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/hradmin/internal/apiclient"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgUnauthorized = UserMessage{"Your session has expired", "Please sign in again", "API001"}
	msgForbidden    = UserMessage{"You do not have permission to do that", "Ask an administrator for access", "API002"}
	msgNotFound     = UserMessage{"The record could not be found", "It may have been deleted. Refresh the list", "API003"}
	msgConflict     = UserMessage{"The record conflicts with an existing one", "Check for duplicates and try again", "API004"}
	msgRejected     = UserMessage{"The HR service rejected the submitted data", "Review the highlighted fields", "API005"}
	msgUnavailable  = UserMessage{"The HR service is unavailable", "Please try again in a few moments", "API006"}
	msgTimeout      = UserMessage{"The HR service took too long to respond", "Please try again", "API007"}
	msgInvalidForm  = UserMessage{"Some fields are invalid", "Correct the highlighted fields and submit again", "VAL001"}
	msgReadOnly     = UserMessage{"This screen is read-only", "Records here are managed elsewhere", "VAL002"}
	msgUnknown      = UserMessage{"The requested screen does not exist", "Use the navigation menu", "VAL003"}
	msgNoSession    = UserMessage{"Your browser session could not be found", "Please sign in", "SES001"}
	msgStore        = UserMessage{"Session storage is unavailable", "Please try again in a few moments", "SES002"}
	msgRateLimited  = UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// Order matters: more specific patterns come first.
var errorPatterns = []errorPattern{
	{"unauthorized", msgUnauthorized},
	{"session not found", msgNoSession},
	{"session store", msgStore},
	{"rate limit", msgRateLimited},
	{"already exists", msgConflict},
	{"duplicate", msgConflict},
	{"deadline exceeded", msgTimeout},
	{"timeout", msgTimeout},
	{"connection refused", msgUnavailable},
	{"connection reset", msgUnavailable},
	{"no such host", msgUnavailable},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage if err is nil.
//
// For 4xx API errors the server's own message replaces the generic one, as
// it usually names the offending record or rule.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ve ValidationErrors
	switch {
	case errors.As(err, &ve):
		return msgInvalidForm
	case errors.Is(err, ErrReadOnly):
		return msgReadOnly
	case errors.Is(err, ErrUnknownResource):
		return msgUnknown
	case errors.Is(err, apiclient.ErrUnauthorized):
		return msgUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		msg := byStatus(apiErr.Status)
		if apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Message != "" {
			msg.Message = apiErr.Message
		}
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func byStatus(status int) UserMessage {
	switch {
	case status == http.StatusUnauthorized:
		return msgUnauthorized
	case status == http.StatusForbidden:
		return msgForbidden
	case status == http.StatusNotFound:
		return msgNotFound
	case status == http.StatusConflict:
		return msgConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return msgRejected
	case status == http.StatusTooManyRequests:
		return msgRateLimited
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return msgTimeout
	case status >= 500:
		return msgUnavailable
	default:
		return defaultMessage
	}
}

// HTTPStatus returns the status code a handler should answer with for err.
func HTTPStatus(err error) int {
	switch MapError(err).Code {
	case "":
		return http.StatusOK
	case "API001", "SES001":
		return http.StatusUnauthorized
	case "API002", "VAL002":
		return http.StatusForbidden
	case "API003", "VAL003":
		return http.StatusNotFound
	case "API004":
		return http.StatusConflict
	case "API005", "VAL001":
		return http.StatusUnprocessableEntity
	case "API006", "SES002":
		return http.StatusBadGateway
	case "API007":
		return http.StatusGatewayTimeout
	case "RATE001":
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}

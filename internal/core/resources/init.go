// Package resources registers all HR resources with the core registry.
// Import this package to ensure all resources are registered.
package resources

import (
	"strings"

	"github.com/JonMunkholm/hradmin/internal/core"
)

// Each file uses init() to register its resources.

// lowerEmail stores email addresses in lower case; the API matches logins
// case-sensitively.
func lowerEmail(p core.Record, _ bool) core.Record {
	if s, ok := p["email"].(string); ok {
		p["email"] = strings.ToLower(s)
	}
	return p
}

// pending reports whether a leave request still awaits a decision.
func pending(r core.Record) bool {
	s := strings.ToLower(r.Text("status"))
	return s == "" || s == "pending"
}

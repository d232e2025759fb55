// Package core provides the business logic of the HR admin application.
//
// This package holds the domain independent of any UI or transport layer.
// It is used by the web handlers and the hrctl CLI alike.
//
// # Architecture
//
//   - Resources: registered via the registry, each resource names its API
//     endpoint, table columns, form fields and row actions.
//   - Service: the entry point for all operations (list, save, delete,
//     leave decisions, attendance, organisation tree).
//   - Validation: form values are checked and converted before any API call.
//
// # Resource Registry
//
// Resources are registered at init time using [Register], normally from the
// resources subpackage:
//
//	core.Register(core.Resource{
//	    Info: core.ResourceInfo{Key: "branches", Group: "Organization", Label: "Branches"},
//	    Fields: []core.FieldSpec{
//	        {Name: "name", Label: "Name", Required: true},
//	        {Name: "code", Label: "Code"},
//	    },
//	})
//
// Columns are derived from the fields when none are given.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - API001-API007: remote API errors (auth, permissions, conflicts, outages)
//   - VAL001-VAL003: validation and unknown screens
//   - SES001-SES002: browser session problems
//   - RATE001: request throttling
package core

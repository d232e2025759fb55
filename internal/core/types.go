package core

import (
	"errors"

	"github.com/JonMunkholm/hradmin/internal/datatable"
)

var (
	// ErrUnknownResource is returned for resource keys missing from the registry.
	ErrUnknownResource = errors.New("unknown resource")
	// ErrReadOnly is returned when mutating a resource registered as read-only.
	ErrReadOnly = errors.New("resource is read-only")
)

// FieldType is the input kind of a form field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEmail
	FieldPassword
	FieldNumber
	FieldDate
	FieldTime
	FieldBool
	FieldEnum
	FieldTextarea
	FieldReference
)

// String returns the HTML input type used to render the field.
func (t FieldType) String() string {
	switch t {
	case FieldEmail:
		return "email"
	case FieldPassword:
		return "password"
	case FieldNumber:
		return "number"
	case FieldDate:
		return "date"
	case FieldTime:
		return "time"
	case FieldBool:
		return "checkbox"
	case FieldEnum, FieldReference:
		return "select"
	case FieldTextarea:
		return "textarea"
	default:
		return "text"
	}
}

// FieldSpec describes one form field of a resource.
type FieldSpec struct {
	Name       string // JSON property sent to the API
	Label      string // Form label
	Type       FieldType
	Required   bool
	Options    []string // Allowed values for FieldEnum
	Ref        string   // Resource key whose records populate a FieldReference select
	RefLabel   string   // Property of the referenced record shown in the select (default "name")
	CreateOnly bool     // Only shown and sent when creating
	Help       string
}

// DisplayLabel returns Label, falling back to Name.
func (f FieldSpec) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// ResourceInfo contains display and routing information about a resource.
type ResourceInfo struct {
	Key      string // URL key: "leave-types"
	Group    string // Navigation group: "Leave"
	Label    string // Plural display name: "Leave Types"
	Singular string // "Leave Type"
	Endpoint string // API path relative to the base URL: "leave-types"
	IDField  string // Primary key property, default "id"

	// ServerPaged resources return one page per request together with a
	// total; the table then renders Rows as-is instead of slicing them.
	ServerPaged bool

	// ReadOnly resources have no create, edit or delete screens.
	ReadOnly bool
}

// RowAction is an extra per-row operation such as approving a leave request.
type RowAction struct {
	Name    string // Path segment posted to: "approve"
	Label   string
	Style   string // "primary", "danger"
	Confirm string // Optional confirmation prompt

	// Visible decides per row whether the action applies. Nil means always.
	Visible func(Record) bool
}

// Resource contains everything needed to list and edit one API collection.
type Resource struct {
	Info    ResourceInfo
	Columns []datatable.Column[Record]
	Fields  []FieldSpec
	Actions []RowAction

	// Prepare adjusts a validated payload before it is sent, e.g. normalising
	// an email address. Optional.
	Prepare func(payload Record, creating bool) Record
}

// IDField returns the primary key property name.
func (r Resource) IDField() string {
	if r.Info.IDField != "" {
		return r.Info.IDField
	}
	return "id"
}

// Field returns the field spec named name.
func (r Resource) Field(name string) (FieldSpec, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FormFields returns the fields shown on the create or edit form.
func (r Resource) FormFields(creating bool) []FieldSpec {
	out := make([]FieldSpec, 0, len(r.Fields))
	for _, f := range r.Fields {
		if f.CreateOnly && !creating {
			continue
		}
		out = append(out, f)
	}
	return out
}

// References returns the distinct resource keys referenced by form fields.
func (r Resource) References() []string {
	var refs []string
	seen := map[string]bool{}
	for _, f := range r.Fields {
		if f.Type == FieldReference && f.Ref != "" && !seen[f.Ref] {
			seen[f.Ref] = true
			refs = append(refs, f.Ref)
		}
	}
	return refs
}

// Option is one entry of a select input.
type Option struct {
	Value string
	Label string
}

// ListQuery is the host-owned state of a resource list screen.
type ListQuery struct {
	Page        int
	RowsPerPage int
	Sort        datatable.SortState
	Search      string
}

// ListPage is the result of listing a resource.
type ListPage struct {
	Rows []Record

	// Total is the server-reported total for ServerPaged resources, else
	// len(Rows).
	Total int

	// Paged reports that Rows holds only the requested page.
	Paged bool
}

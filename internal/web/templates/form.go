package templates

import (
	"github.com/JonMunkholm/hradmin/internal/core"
)

// FormProps are the inputs of ResourceForm.
type FormProps struct {
	Resource core.Resource
	Creating bool
	ID       string
	Values   map[string]string
	Errors   core.ValidationErrors
	Options  map[string][]core.Option // Reference field options by field name
	Message  string                   // Form-level error
}

func (p FormProps) title() string {
	if p.Creating {
		return "New " + p.Resource.Info.Singular
	}
	return "Edit " + p.Resource.Info.Singular
}

func (p FormProps) action() string {
	if p.Creating {
		return ResourcePath(p.Resource.Info.Key)
	}
	return RecordPath(p.Resource.Info.Key, p.ID)
}

func fieldID(f core.FieldSpec) string {
	return "field-" + f.Name
}

func checked(value string) bool {
	b, _ := core.ParseBool(value)
	return b
}

// selectOptions lists the choices of an enum or reference field. Enum values
// are their own labels.
func selectOptions(f core.FieldSpec, refs []core.Option) []core.Option {
	if f.Type != core.FieldEnum {
		return refs
	}
	opts := make([]core.Option, len(f.Options))
	for i, o := range f.Options {
		opts[i] = core.Option{Value: o, Label: o}
	}
	return opts
}

// LoginProps are the inputs of Login.
type LoginProps struct {
	Username string
	Next     string
	Errors   core.ValidationErrors
	Message  string
}

var (
	usernameField = core.FieldSpec{Name: "username", Label: "Username or email", Required: true}
	passwordField = core.FieldSpec{Name: "password", Label: "Password", Type: core.FieldPassword, Required: true}
)

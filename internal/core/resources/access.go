package resources

import (
	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/datatable"
)

func init() {
	core.Register(core.Resource{
		Info: core.ResourceInfo{
			Key:      "roles",
			Group:    "Access",
			Label:    "Roles",
			Singular: "Role",
		},
		Fields: []core.FieldSpec{
			{Name: "name", Label: "Name", Required: true},
			{Name: "description", Label: "Description", Type: core.FieldTextarea},
		},
		Columns: []datatable.Column[core.Record]{
			core.Col("name", "Name"),
			core.Col("description", "Description"),
			core.NumCol("users_count", "Users"),
			core.ActionCol(),
		},
	})

	core.Register(core.Resource{
		Info: core.ResourceInfo{
			Key:      "permissions",
			Group:    "Access",
			Label:    "Permissions",
			Singular: "Permission",
		},
		Fields: []core.FieldSpec{
			{Name: "name", Label: "Name", Required: true, Help: "Dotted identifier, e.g. leave.approve"},
			{Name: "module", Label: "Module", Type: core.FieldEnum, Required: true,
				Options: []string{"organization", "access", "leave", "attendance"}},
			{Name: "role_id", Label: "Granted To", Type: core.FieldReference, Ref: "roles"},
			{Name: "description", Label: "Description"},
		},
		Columns: []datatable.Column[core.Record]{
			core.Col("name", "Name"),
			core.Col("module", "Module"),
			core.Col("role.name", "Granted To"),
			core.Col("description", "Description"),
			core.ActionCol(),
		},
	})
}

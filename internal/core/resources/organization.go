package resources

import (
	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/datatable"
)

func init() {
	registerBranches()
	registerDesignations()
	registerEmploymentTypes()
	registerUsers()
}

func registerBranches() {
	core.Register(core.Resource{
		Info: core.ResourceInfo{
			Key:      "branches",
			Group:    "Organization",
			Label:    "Branches",
			Singular: "Branch",
		},
		Fields: []core.FieldSpec{
			{Name: "name", Label: "Name", Required: true},
			{Name: "code", Label: "Code", Required: true},
			{Name: "address", Label: "Address", Type: core.FieldTextarea},
			{Name: "phone", Label: "Phone"},
			{Name: "is_active", Label: "Active", Type: core.FieldBool},
		},
		Columns: []datatable.Column[core.Record]{
			core.Col("name", "Name"),
			core.Col("code", "Code"),
			core.Col("phone", "Phone"),
			core.Col("is_active", "Active"),
			core.ActionCol(),
		},
	})
}

func registerDesignations() {
	core.Register(core.Resource{
		Info: core.ResourceInfo{
			Key:      "designations",
			Group:    "Organization",
			Label:    "Designations",
			Singular: "Designation",
		},
		Fields: []core.FieldSpec{
			{Name: "name", Label: "Title", Required: true},
			{Name: "level", Label: "Level", Type: core.FieldNumber},
			{Name: "description", Label: "Description", Type: core.FieldTextarea},
		},
		Columns: []datatable.Column[core.Record]{
			core.Col("name", "Title"),
			core.NumCol("level", "Level"),
			core.Col("description", "Description"),
			core.ActionCol(),
		},
	})
}

func registerEmploymentTypes() {
	// Columns derived from fields
	core.Register(core.Resource{
		Info: core.ResourceInfo{
			Key:      "employment-types",
			Group:    "Organization",
			Label:    "Employment Types",
			Singular: "Employment Type",
		},
		Fields: []core.FieldSpec{
			{Name: "name", Label: "Name", Required: true},
			{Name: "description", Label: "Description"},
		},
	})
}

func registerUsers() {
	core.Register(core.Resource{
		Info: core.ResourceInfo{
			Key:         "users",
			Group:       "Organization",
			Label:       "Employees",
			Singular:    "Employee",
			ServerPaged: true,
		},
		Fields: []core.FieldSpec{
			{Name: "employee_code", Label: "Employee Code", Required: true},
			{Name: "name", Label: "Full Name", Required: true},
			{Name: "email", Label: "Email", Type: core.FieldEmail, Required: true},
			{Name: "phone", Label: "Phone"},
			{Name: "password", Label: "Password", Type: core.FieldPassword, CreateOnly: true, Required: true},
			{Name: "branch_id", Label: "Branch", Type: core.FieldReference, Ref: "branches", Required: true},
			{Name: "designation_id", Label: "Designation", Type: core.FieldReference, Ref: "designations"},
			{Name: "role_id", Label: "Role", Type: core.FieldReference, Ref: "roles", Required: true},
			{Name: "employment_type_id", Label: "Employment Type", Type: core.FieldReference, Ref: "employment-types"},
			{Name: "manager_id", Label: "Reports To", Type: core.FieldReference, Ref: "users"},
			{Name: "joining_date", Label: "Joining Date", Type: core.FieldDate},
			{Name: "is_active", Label: "Active", Type: core.FieldBool},
		},
		Columns: []datatable.Column[core.Record]{
			core.Col("employee_code", "Code"),
			core.Col("name", "Name"),
			core.Col("email", "Email"),
			core.Col("branch.name", "Branch"),
			core.Col("designation.name", "Designation"),
			core.Col("joining_date", "Joined"),
			core.Col("is_active", "Active"),
			core.ActionCol(),
		},
		Prepare: lowerEmail,
	})
}

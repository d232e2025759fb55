package core

import (
	"testing"

	"github.com/JonMunkholm/hradmin/internal/datatable"
	"github.com/google/go-cmp/cmp"
)

func withRegistry(t *testing.T, defs ...Resource) {
	t.Helper()
	registryMu.Lock()
	saved := registry
	registry = make(map[string]Resource)
	registryMu.Unlock()

	for _, d := range defs {
		Register(d)
	}

	t.Cleanup(func() {
		registryMu.Lock()
		registry = saved
		registryMu.Unlock()
	})
}

func TestRegister_Defaults(t *testing.T) {
	withRegistry(t, Resource{
		Info: ResourceInfo{Key: "branches", Group: "Organization", Label: "Branches"},
		Fields: []FieldSpec{
			{Name: "name", Label: "Name"},
			{Name: "secret", Type: FieldPassword},
			{Name: "code"},
		},
	})

	def, ok := Get("branches")
	if !ok {
		t.Fatal("Get(branches) not found")
	}
	if def.Info.Endpoint != "branches" {
		t.Errorf("Endpoint = %q, want branches", def.Info.Endpoint)
	}
	if def.Info.Singular != "Branches" {
		t.Errorf("Singular = %q, want Label fallback", def.Info.Singular)
	}
	if def.IDField() != "id" {
		t.Errorf("IDField = %q, want id", def.IDField())
	}

	var keys, labels []string
	for _, c := range def.Columns {
		keys = append(keys, c.Key)
		labels = append(labels, c.Label)
	}
	if diff := cmp.Diff([]string{"name", "code", datatable.ActionKey}, keys); diff != "" {
		t.Errorf("derived column keys (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Name", "code", "Actions"}, labels); diff != "" {
		t.Errorf("derived column labels (-want +got):\n%s", diff)
	}
	if got := def.DefaultSort(); got.Key != "name" || got.Direction != datatable.Asc {
		t.Errorf("DefaultSort = %+v, want name asc", got)
	}
}

func TestRegister_PanicsOnDuplicate(t *testing.T) {
	withRegistry(t, Resource{Info: ResourceInfo{Key: "roles", Group: "Access", Label: "Roles"}})

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register(Resource{Info: ResourceInfo{Key: "roles"}})
}

func TestRegistry_Ordering(t *testing.T) {
	withRegistry(t,
		Resource{Info: ResourceInfo{Key: "z", Group: "Zeta", Label: "Zed"}},
		Resource{Info: ResourceInfo{Key: "lt", Group: "Leave", Label: "Leave Types"}},
		Resource{Info: ResourceInfo{Key: "br", Group: "Organization", Label: "Branches"}},
		Resource{Info: ResourceInfo{Key: "us", Group: "Organization", Label: "Employees"}},
		Resource{Info: ResourceInfo{Key: "ro", Group: "Access", Label: "Roles"}},
		Resource{Info: ResourceInfo{Key: "a", Group: "Alpha", Label: "A"}},
	)

	if diff := cmp.Diff([]string{"Organization", "Access", "Leave", "Alpha", "Zeta"}, Groups()); diff != "" {
		t.Errorf("Groups (-want +got):\n%s", diff)
	}

	var keys []string
	for _, d := range All() {
		keys = append(keys, d.Info.Key)
	}
	if diff := cmp.Diff([]string{"br", "us", "ro", "lt", "a", "z"}, keys); diff != "" {
		t.Errorf("All order (-want +got):\n%s", diff)
	}

	org := ByGroup("Organization")
	if len(org) != 2 || org[0].Info.Key != "br" {
		t.Errorf("ByGroup(Organization) = %v", org)
	}
	if Count() != 6 {
		t.Errorf("Count = %d, want 6", Count())
	}

	if _, err := Lookup("missing"); err == nil {
		t.Error("Lookup(missing) returned nil error")
	}
}

func TestResource_FormFieldsAndReferences(t *testing.T) {
	def := Resource{Fields: []FieldSpec{
		{Name: "name"},
		{Name: "password", CreateOnly: true},
		{Name: "branch_id", Type: FieldReference, Ref: "branches"},
		{Name: "home_branch_id", Type: FieldReference, Ref: "branches"},
		{Name: "role_id", Type: FieldReference, Ref: "roles"},
	}}

	if got := len(def.FormFields(true)); got != 5 {
		t.Errorf("FormFields(create) = %d fields, want 5", got)
	}
	if got := len(def.FormFields(false)); got != 4 {
		t.Errorf("FormFields(edit) = %d fields, want 4", got)
	}
	if diff := cmp.Diff([]string{"branches", "roles"}, def.References()); diff != "" {
		t.Errorf("References (-want +got):\n%s", diff)
	}
	if _, ok := def.Field("role_id"); !ok {
		t.Error("Field(role_id) not found")
	}
}

package resources

import (
	"testing"

	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/datatable"
)

func TestAllResourcesRegistered(t *testing.T) {
	want := []string{
		"branches", "roles", "users", "permissions", "designations",
		"employment-types", "leave-types", "leave-masters", "leave-requests", "attendance",
	}
	for _, key := range want {
		if _, ok := core.Get(key); !ok {
			t.Errorf("resource %q not registered", key)
		}
	}
	if core.Count() != len(want) {
		t.Errorf("Count = %d, want %d", core.Count(), len(want))
	}

	groups := core.Groups()
	if len(groups) != 4 || groups[0] != "Organization" || groups[3] != "Attendance" {
		t.Errorf("Groups = %v", groups)
	}
}

func TestResourceDefinitionsConsistent(t *testing.T) {
	for _, def := range core.All() {
		t.Run(def.Info.Key, func(t *testing.T) {
			if len(def.Columns) == 0 {
				t.Fatal("no columns")
			}
			seen := map[string]bool{}
			for i, c := range def.Columns {
				if seen[c.Key] {
					t.Errorf("duplicate column key %q", c.Key)
				}
				seen[c.Key] = true
				if c.Key == datatable.ActionKey && i != len(def.Columns)-1 {
					t.Error("action column must be last")
				}
			}
			if def.Info.ReadOnly && seen[datatable.ActionKey] {
				t.Error("read-only resource has an action column")
			}
			if def.DefaultSort().Key == "" {
				t.Error("no sortable column")
			}

			for _, f := range def.Fields {
				if f.Type == core.FieldReference {
					if _, ok := core.Get(f.Ref); !ok {
						t.Errorf("field %s references unknown resource %q", f.Name, f.Ref)
					}
				}
				if f.Type == core.FieldEnum && len(f.Options) == 0 {
					t.Errorf("enum field %s has no options", f.Name)
				}
			}
		})
	}
}

func TestLeaveRequestActionsOnlyWhilePending(t *testing.T) {
	def, _ := core.Get("leave-requests")
	if len(def.Actions) != 2 {
		t.Fatalf("actions = %d, want approve and reject", len(def.Actions))
	}
	for _, a := range def.Actions {
		if !a.Visible(core.Record{"status": "Pending"}) {
			t.Errorf("%s hidden for pending request", a.Name)
		}
		if a.Visible(core.Record{"status": "approved"}) {
			t.Errorf("%s shown for decided request", a.Name)
		}
	}
}

func TestUsersLowercaseEmail(t *testing.T) {
	def, _ := core.Get("users")
	got := def.Prepare(core.Record{"email": "Ada@Example.COM"}, true)
	if got["email"] != "ada@example.com" {
		t.Errorf("email = %v", got["email"])
	}
}

package core

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return v
}

func TestBuildOrgTree_Nested(t *testing.T) {
	doc := decode(t, `{"data": {
		"id": 1, "name": "Grace", "designation": {"name": "CEO"},
		"children": [
			{"id": 3, "name": "Linus", "children": []},
			{"id": 2, "name": "ada", "designation": "CTO", "children": [
				{"id": 4, "name": "Ken"}
			]}
		]
	}}`)

	want := []OrgNode{{
		ID: "1", Name: "Grace", Title: "CEO",
		Children: []OrgNode{
			{ID: "2", Name: "ada", Title: "CTO", Children: []OrgNode{{ID: "4", Name: "Ken"}}},
			{ID: "3", Name: "Linus", Children: []OrgNode{}},
		},
	}}
	if diff := cmp.Diff(want, BuildOrgTree(doc)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildOrgTree_Flat(t *testing.T) {
	doc := decode(t, `[
		{"id": 4, "name": "Ken", "parent_id": 2},
		{"id": 1, "name": "Grace"},
		{"id": 2, "name": "Ada", "parent_id": 1},
		{"id": 3, "name": "Linus", "manager_id": 1},
		{"id": 9, "name": "Orphan", "parent_id": 77}
	]`)

	got := BuildOrgTree(doc)
	if len(got) != 2 {
		t.Fatalf("roots = %d, want 2 (Grace and Orphan)", len(got))
	}
	if got[0].Name != "Grace" || got[1].Name != "Orphan" {
		t.Errorf("roots = %s, %s", got[0].Name, got[1].Name)
	}
	if got[0].Size() != 4 {
		t.Errorf("Grace subtree size = %d, want 4", got[0].Size())
	}
	if got[0].Children[0].Name != "Ada" || got[0].Children[0].Children[0].Name != "Ken" {
		t.Errorf("unexpected shape: %+v", got[0])
	}
}

func TestBuildOrgTree_CycleAndEmpty(t *testing.T) {
	doc := decode(t, `{"items": [
		{"id": 1, "name": "A", "parent_id": 2},
		{"id": 2, "name": "B", "parent_id": 1}
	]}`)
	got := BuildOrgTree(doc)
	total := 0
	for _, n := range got {
		total += n.Size()
	}
	if total != 2 {
		t.Errorf("cycle kept %d nodes, want 2", total)
	}

	if got := BuildOrgTree(decode(t, `{"message": "no data"}`)); len(got) != 0 {
		t.Errorf("empty payload = %v", got)
	}
}

func TestService_OrgTree(t *testing.T) {
	api := &fakeAPI{raw: decode(t, `[{"id": 1, "name": "Grace"}]`)}
	svc := NewService(api, ServiceConfig{OrgEndpoint: "org"})

	nodes, err := svc.OrgTree(context.Background(), "tok")
	if err != nil {
		t.Fatalf("OrgTree: %v", err)
	}
	if len(nodes) != 1 || api.calls[0] != "raw org" {
		t.Errorf("nodes %v calls %v", nodes, api.calls)
	}
}

package core

import (
	"sort"
	"strings"

	"github.com/JonMunkholm/hradmin/internal/apiclient"
)

// OrgNode is one position in the organisation hierarchy.
type OrgNode struct {
	ID       string
	Name     string
	Title    string
	Children []OrgNode
}

// Size returns the number of nodes in the subtree rooted at n.
func (n OrgNode) Size() int {
	total := 1
	for _, c := range n.Children {
		total += c.Size()
	}
	return total
}

var childKeys = []string{"children", "subordinates", "reports", "nodes"}

var parentKeys = []string{"parent_id", "parentId", "manager_id", "managerId", "reports_to"}

// BuildOrgTree accepts either a nested tree ({"children": [...]}) or a flat
// list whose entries reference their parent by id, and returns the roots.
// Entries whose parent is missing become roots. Siblings are ordered by name.
func BuildOrgTree(doc any) []OrgNode {
	var items []map[string]any
	switch v := doc.(type) {
	case map[string]any:
		// A single root object, or an envelope around a list
		if hasAny(v, childKeys) {
			items = []map[string]any{v}
		} else if inner, ok := v["data"].(map[string]any); ok && hasAny(inner, childKeys) {
			items = []map[string]any{inner}
		} else {
			items, _ = apiclient.ExtractList(v)
		}
	default:
		items, _ = apiclient.ExtractList(v)
	}

	nested := false
	for _, it := range items {
		if hasAny(it, childKeys) {
			nested = true
			break
		}
	}
	if nested {
		return nestedNodes(items)
	}
	return flatNodes(items)
}

func nestedNodes(items []map[string]any) []OrgNode {
	out := make([]OrgNode, 0, len(items))
	for _, it := range items {
		n := newOrgNode(it)
		for _, k := range childKeys {
			if list, ok := it[k].([]any); ok {
				n.Children = nestedNodes(objectList(list))
				break
			}
		}
		out = append(out, n)
	}
	sortNodes(out)
	return out
}

func flatNodes(items []map[string]any) []OrgNode {
	byID := make(map[string]map[string]any, len(items))
	for _, it := range items {
		byID[Record(it).ID("id")] = it
	}

	children := make(map[string][]map[string]any)
	var roots []map[string]any
	for _, it := range items {
		parent := ""
		for _, k := range parentKeys {
			if p := FormatValue(it[k]); p != "" {
				parent = p
				break
			}
		}
		if parent == "" || byID[parent] == nil || parent == Record(it).ID("id") {
			roots = append(roots, it)
			continue
		}
		children[parent] = append(children[parent], it)
	}

	visited := make(map[string]bool, len(items))
	var build func(it map[string]any) OrgNode
	build = func(it map[string]any) OrgNode {
		n := newOrgNode(it)
		visited[n.ID] = true
		for _, c := range children[n.ID] {
			if visited[Record(c).ID("id")] {
				continue
			}
			n.Children = append(n.Children, build(c))
		}
		sortNodes(n.Children)
		return n
	}

	out := make([]OrgNode, 0, len(roots))
	for _, r := range roots {
		out = append(out, build(r))
	}
	// Parent cycles leave entries unreachable from any root
	for _, it := range items {
		if !visited[Record(it).ID("id")] {
			out = append(out, build(it))
		}
	}
	sortNodes(out)
	return out
}

func newOrgNode(it map[string]any) OrgNode {
	rec := Record(it)
	name := ""
	for _, k := range []string{"name", "full_name", "title", "label"} {
		if name = rec.Text(k); name != "" {
			break
		}
	}
	title := ""
	for _, k := range []string{"designation", "position", "role", "job_title"} {
		if title = rec.Text(k); title != "" {
			break
		}
	}
	if title == name {
		title = ""
	}
	return OrgNode{ID: rec.ID("id"), Name: name, Title: title}
}

func sortNodes(nodes []OrgNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return strings.ToLower(nodes[i].Name) < strings.ToLower(nodes[j].Name)
	})
}

func hasAny(m map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := m[k].([]any); ok {
			return true
		}
	}
	return false
}

func objectList(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

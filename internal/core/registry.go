package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/hradmin/internal/datatable"
)

var (
	registry   = make(map[string]Resource)
	registryMu sync.RWMutex
)

// groupOrder fixes the navigation order of known groups. Unknown groups
// sort after these, alphabetically.
var groupOrder = map[string]int{
	"Organization": 0,
	"Access":       1,
	"Leave":        2,
	"Attendance":   3,
}

// Register adds a resource to the registry.
// Panics if a resource with the same key is already registered.
func Register(def Resource) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("resource already registered: %s", def.Info.Key))
	}

	if def.Info.Endpoint == "" {
		def.Info.Endpoint = def.Info.Key
	}
	if def.Info.Singular == "" {
		def.Info.Singular = def.Info.Label
	}

	// Derive columns from the form fields when none are given
	if len(def.Columns) == 0 && len(def.Fields) > 0 {
		for _, f := range def.Fields {
			if f.Type == FieldPassword {
				continue
			}
			def.Columns = append(def.Columns, Col(f.Name, f.DisplayLabel()))
		}
		if !def.Info.ReadOnly {
			def.Columns = append(def.Columns, ActionCol())
		}
	}

	registry[def.Info.Key] = def
}

// Get returns a resource by key.
// Returns false if not found.
func Get(key string) (Resource, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// Lookup is Get returning ErrUnknownResource.
func Lookup(key string) (Resource, error) {
	def, ok := Get(key)
	if !ok {
		return Resource{}, fmt.Errorf("%w: %s", ErrUnknownResource, key)
	}
	return def, nil
}

// All returns all registered resources.
// Sorted by group then by label for consistent ordering.
func All() []Resource {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Resource, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return groupLess(result[i].Info.Group, result[j].Info.Group)
		}
		return result[i].Info.Label < result[j].Info.Label
	})

	return result
}

// ByGroup returns all resources for a specific group.
// Sorted by label for consistent ordering.
func ByGroup(group string) []Resource {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []Resource
	for _, def := range registry {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Label < result[j].Info.Label
	})

	return result
}

// Groups returns all unique group names in navigation order.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range registry {
		seen[def.Info.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool { return groupLess(groups[i], groups[j]) })
	return groups
}

func groupLess(a, b string) bool {
	ia, okA := groupOrder[a]
	ib, okB := groupOrder[b]
	switch {
	case okA && okB:
		return ia < ib
	case okA != okB:
		return okA
	default:
		return a < b
	}
}

// Count returns the number of registered resources.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered resources.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Resource)
}

// SortableColumns returns the keys of a resource's sortable columns.
func (r Resource) SortableColumns() []string {
	var keys []string
	for _, c := range r.Columns {
		if c.IsSortable() {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// DefaultSort is the sort a fresh list screen starts with.
func (r Resource) DefaultSort() datatable.SortState {
	return datatable.DefaultSort(r.Columns)
}

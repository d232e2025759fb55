package templates

import (
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/datatable"
)

// ResourcePath returns the base URL of a resource screen.
func ResourcePath(key string) string {
	return "/r/" + url.PathEscape(key)
}

// RecordPath returns the URL of one record below its resource.
func RecordPath(key, id string) string {
	return ResourcePath(key) + "/" + url.PathEscape(id)
}

// RecordRow returns a row renderer for resource records. returnTo is posted
// with row actions so the handler can come back to the same page.
func RecordRow(def core.Resource, returnTo string) func(datatable.Item[core.Record], []datatable.Header) templ.Component {
	return func(item datatable.Item[core.Record], headers []datatable.Header) templ.Component {
		return recordRow(def, returnTo, item, headers)
	}
}

// recordBase is the URL row actions post below, or "" when the record has
// no ID to address.
func recordBase(def core.Resource, rec core.Record) string {
	id := rec.ID(def.IDField())
	if id == "" {
		return ""
	}
	return RecordPath(def.Info.Key, id)
}

func actionVisible(a core.RowAction, rec core.Record) bool {
	return a.Visible == nil || a.Visible(rec)
}

func actionClass(a core.RowAction) string {
	return "btn btn-" + orDefault(a.Style, "primary")
}

func deletePrompt(def core.Resource) string {
	noun := "record"
	if def.Info.Singular != "" {
		noun = strings.ToLower(def.Info.Singular)
	}
	return "Delete this " + noun + "?"
}

// ListProps are the inputs of ResourceList.
type ListProps struct {
	Resource   core.Resource
	Table      TableProps
	Search     string
	Size       int
	Sort       datatable.SortState
	ExportHref string
}

// TablePartial renders only the table container for in-place updates.
func TablePartial(props ListProps) templ.Component {
	return DataTable(props.Table)
}

package resources

import (
	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/datatable"
)

func init() {
	// Entries are created by check-in/check-out, never edited directly.
	core.Register(core.Resource{
		Info: core.ResourceInfo{
			Key:         "attendance",
			Group:       "Attendance",
			Label:       "Attendance Log",
			Singular:    "Attendance Entry",
			ServerPaged: true,
			ReadOnly:    true,
		},
		Columns: []datatable.Column[core.Record]{
			core.Col("user.name", "Employee"),
			core.Col("date", "Date"),
			core.Col("check_in", "Check In"),
			core.Col("check_out", "Check Out"),
			core.NumCol("hours", "Hours"),
			core.Col("status", "Status"),
		},
	})
}

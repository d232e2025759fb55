package resources

import (
	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/datatable"
)

func init() {
	registerLeaveTypes()
	registerLeaveMasters()
	registerLeaveRequests()
}

func registerLeaveTypes() {
	core.Register(core.Resource{
		Info: core.ResourceInfo{
			Key:      "leave-types",
			Group:    "Leave",
			Label:    "Leave Types",
			Singular: "Leave Type",
		},
		Fields: []core.FieldSpec{
			{Name: "name", Label: "Name", Required: true},
			{Name: "code", Label: "Code", Required: true},
			{Name: "is_paid", Label: "Paid", Type: core.FieldBool},
			{Name: "description", Label: "Description", Type: core.FieldTextarea},
		},
		Columns: []datatable.Column[core.Record]{
			core.Col("name", "Name"),
			core.Col("code", "Code"),
			core.Col("is_paid", "Paid"),
			core.ActionCol(),
		},
	})
}

// Leave masters hold the yearly allowance per leave type and employment type.
func registerLeaveMasters() {
	core.Register(core.Resource{
		Info: core.ResourceInfo{
			Key:      "leave-masters",
			Group:    "Leave",
			Label:    "Leave Masters",
			Singular: "Leave Master",
		},
		Fields: []core.FieldSpec{
			{Name: "leave_type_id", Label: "Leave Type", Type: core.FieldReference, Ref: "leave-types", Required: true},
			{Name: "employment_type_id", Label: "Employment Type", Type: core.FieldReference, Ref: "employment-types"},
			{Name: "days_per_year", Label: "Days per Year", Type: core.FieldNumber, Required: true},
			{Name: "carry_forward", Label: "Carry Forward", Type: core.FieldBool},
			{Name: "max_carry_forward", Label: "Max Carry Forward", Type: core.FieldNumber},
		},
		Columns: []datatable.Column[core.Record]{
			core.Col("leave_type.name", "Leave Type"),
			core.Col("employment_type.name", "Employment Type"),
			core.NumCol("days_per_year", "Days / Year"),
			core.Col("carry_forward", "Carry Forward"),
			core.NumCol("max_carry_forward", "Max Carry"),
			core.ActionCol(),
		},
	})
}

func registerLeaveRequests() {
	core.Register(core.Resource{
		Info: core.ResourceInfo{
			Key:         "leave-requests",
			Group:       "Leave",
			Label:       "Leave Requests",
			Singular:    "Leave Request",
			ServerPaged: true,
		},
		Fields: []core.FieldSpec{
			{Name: "user_id", Label: "Employee", Type: core.FieldReference, Ref: "users", Required: true},
			{Name: "leave_type_id", Label: "Leave Type", Type: core.FieldReference, Ref: "leave-types", Required: true},
			{Name: "start_date", Label: "From", Type: core.FieldDate, Required: true},
			{Name: "end_date", Label: "To", Type: core.FieldDate, Required: true},
			{Name: "half_day", Label: "Half Day", Type: core.FieldBool},
			{Name: "reason", Label: "Reason", Type: core.FieldTextarea},
		},
		Columns: []datatable.Column[core.Record]{
			core.Col("user.name", "Employee"),
			core.Col("leave_type.name", "Type"),
			core.Col("start_date", "From"),
			core.Col("end_date", "To"),
			core.NumCol("days", "Days"),
			core.Col("status", "Status"),
			core.ActionCol(),
		},
		Actions: []core.RowAction{
			{Name: core.DecisionApprove, Label: "Approve", Style: "primary", Visible: pending},
			{Name: core.DecisionReject, Label: "Reject", Style: "danger", Confirm: "Reject this leave request?", Visible: pending},
		},
	})
}

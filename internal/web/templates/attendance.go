package templates

import (
	"github.com/JonMunkholm/hradmin/internal/core"
)

// AttendanceProps are the inputs of AttendancePage.
type AttendanceProps struct {
	Recent  TableProps
	Errors  core.ValidationErrors
	Message string
	Note    string
}

var (
	latitudeField  = core.FieldSpec{Name: "latitude", Label: "Latitude", Type: core.FieldNumber}
	longitudeField = core.FieldSpec{Name: "longitude", Label: "Longitude", Type: core.FieldNumber}
	noteField      = core.FieldSpec{Name: "note", Label: "Note", Type: core.FieldTextarea}
)

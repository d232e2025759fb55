package core

// validation.go checks submitted form values against a resource's field specs
// and converts them into the payload sent to the API.
//
// Validation collects every problem rather than stopping at the first, so the
// form can highlight all invalid fields at once. Server-side field errors
// returned by the API are merged into the same ValidationErrors shape.

import (
	"errors"
	"net/mail"
	"slices"
	"sort"
	"strings"

	"github.com/JonMunkholm/hradmin/internal/apiclient"
)

// ValidationErrors maps field names to a human-readable message. The empty
// key holds form-level messages.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		if k == "" {
			parts[i] = v[k]
		} else {
			parts[i] = k + ": " + v[k]
		}
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has a message.
func (v ValidationErrors) Add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// AsValidationErrors extracts field errors from err: either a
// ValidationErrors or an API error that carries per-field messages.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		out := make(ValidationErrors, len(apiErr.Fields))
		for k, msg := range apiErr.Fields {
			out[k] = msg
		}
		return out, true
	}
	return nil, false
}

// ValidateForm validates values against fields and returns the typed payload.
// Fields that are empty and optional are omitted from the payload, except
// booleans which are always sent (an unchecked box submits nothing).
func ValidateForm(fields []FieldSpec, values map[string]string, creating bool) (Record, error) {
	payload := make(Record, len(fields))
	errs := ValidationErrors{}

	for _, spec := range fields {
		if spec.CreateOnly && !creating {
			continue
		}

		raw := CleanInput(values[spec.Name])

		if spec.Type == FieldBool {
			b, ok := ParseBool(raw)
			if raw != "" && !ok {
				errs.Add(spec.Name, "must be yes or no")
				continue
			}
			payload[spec.Name] = b
			continue
		}

		if raw == "" {
			if spec.Required {
				errs.Add(spec.Name, "is required")
			}
			continue
		}

		v, err := ValidateValue(raw, spec)
		if err != nil {
			errs.Add(spec.Name, err.Error())
			continue
		}
		payload[spec.Name] = v
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return payload, nil
}

// ValidateValue validates a single non-empty value and converts it to the
// type the API expects.
func ValidateValue(raw string, spec FieldSpec) (any, error) {
	switch spec.Type {
	case FieldEmail:
		addr, err := mail.ParseAddress(raw)
		if err != nil || addr.Address != raw {
			return nil, errors.New("must be a valid email address")
		}
		return raw, nil
	case FieldNumber:
		n, ok := ParseNumber(raw)
		if !ok {
			return nil, errors.New("must be a number")
		}
		return n, nil
	case FieldDate:
		d, ok := ParseDate(raw)
		if !ok {
			return nil, errors.New("must be a date (YYYY-MM-DD)")
		}
		return d, nil
	case FieldTime:
		t, ok := ParseTime(raw)
		if !ok {
			return nil, errors.New("must be a time (HH:MM)")
		}
		return t, nil
	case FieldEnum:
		if len(spec.Options) > 0 {
			i := slices.IndexFunc(spec.Options, func(o string) bool { return strings.EqualFold(o, raw) })
			if i < 0 {
				return nil, errors.New("must be one of: " + strings.Join(spec.Options, ", "))
			}
			return spec.Options[i], nil
		}
		return raw, nil
	case FieldReference:
		v, _ := ParseReference(raw)
		return v, nil
	default:
		return raw, nil
	}
}

// FormValues converts a record into form input strings, the inverse of
// ValidateForm. Nested reference objects yield their id.
func FormValues(fields []FieldSpec, rec Record) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.Type == FieldPassword {
			continue
		}
		v := rec[f.Name]
		if f.Type == FieldReference {
			if v == nil {
				// Many APIs return {"branch": {...}} instead of "branch_id"
				v = rec.Lookup(strings.TrimSuffix(f.Name, "_id") + ".id")
			} else if obj, ok := v.(map[string]any); ok {
				v = obj["id"]
			}
		}
		switch f.Type {
		case FieldBool:
			if b, ok := v.(bool); ok && b {
				out[f.Name] = "true"
			} else if s, ok := ParseBool(FormatValue(v)); ok && s {
				out[f.Name] = "true"
			}
		case FieldDate:
			s := FormatValue(v)
			if d, ok := ParseDate(s); ok {
				s = d
			}
			out[f.Name] = s
		default:
			out[f.Name] = FormatValue(v)
		}
	}
	return out
}

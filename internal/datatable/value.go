package datatable

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Property reads the property named key off row.
//
// Maps with string keys are indexed directly. Structs (or pointers to structs)
// are searched for an exported field whose json tag name, or failing that whose
// Go name, equals key. Any other row shape yields nil.
func Property(row any, key string) any {
	switch r := row.(type) {
	case nil:
		return nil
	case map[string]any:
		return r[key]
	case map[string]string:
		if v, ok := r[key]; ok {
			return v
		}
		return nil
	}

	v := reflect.ValueOf(row)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil
		}
		mv := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
		if !mv.IsValid() || !mv.CanInterface() {
			return nil
		}
		return mv.Interface()
	case reflect.Struct:
		return structField(v, key)
	default:
		return nil
	}
}

func structField(v reflect.Value, key string) any {
	var byName []int
	for _, f := range reflect.VisibleFields(v.Type()) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag == key {
			return fieldValue(v, f.Index)
		}
		if f.Name == key && byName == nil {
			byName = f.Index
		}
	}
	if byName != nil {
		return fieldValue(v, byName)
	}
	return nil
}

// fieldValue follows index through embedded structs. A nil embedded pointer
// yields nil.
func fieldValue(v reflect.Value, index []int) any {
	f, err := v.FieldByIndexErr(index)
	if err != nil || !f.CanInterface() {
		return nil
	}
	return f.Interface()
}

// timeLayout is fixed width so digit runs compare correctly under numeric
// collation.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// sortValue is a normalized comparison value: either a number or a
// lower-cased string.
type sortValue struct {
	num   float64
	str   string
	isNum bool
}

func (v sortValue) String() string {
	if v.isNum {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

// normalize maps a raw value onto the comparison domain.
func normalize(raw any) sortValue {
	switch x := raw.(type) {
	case nil:
		return sortValue{}
	case bool:
		if x {
			return sortValue{num: 1, isNum: true}
		}
		return sortValue{num: 0, isNum: true}
	case int:
		return sortValue{num: float64(x), isNum: true}
	case int8:
		return sortValue{num: float64(x), isNum: true}
	case int16:
		return sortValue{num: float64(x), isNum: true}
	case int32:
		return sortValue{num: float64(x), isNum: true}
	case int64:
		return sortValue{num: float64(x), isNum: true}
	case uint:
		return sortValue{num: float64(x), isNum: true}
	case uint8:
		return sortValue{num: float64(x), isNum: true}
	case uint16:
		return sortValue{num: float64(x), isNum: true}
	case uint32:
		return sortValue{num: float64(x), isNum: true}
	case uint64:
		return sortValue{num: float64(x), isNum: true}
	case float32:
		return sortValue{num: float64(x), isNum: true}
	case float64:
		return sortValue{num: x, isNum: true}
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return sortValue{num: f, isNum: true}
		}
		return sortValue{str: strings.ToLower(x.String())}
	case string:
		return sortValue{str: strings.ToLower(x)}
	case time.Time:
		if x.IsZero() {
			return sortValue{}
		}
		return sortValue{str: strings.ToLower(x.UTC().Format(timeLayout))}
	case *time.Time:
		if x == nil || x.IsZero() {
			return sortValue{}
		}
		return sortValue{str: strings.ToLower(x.UTC().Format(timeLayout))}
	case fmt.Stringer:
		if v := reflect.ValueOf(raw); v.Kind() == reflect.Pointer && v.IsNil() {
			return sortValue{}
		}
		return sortValue{str: strings.ToLower(x.String())}
	}

	v := reflect.ValueOf(raw)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return sortValue{}
		}
		return normalize(v.Elem().Interface())
	}
	return sortValue{str: strings.ToLower(fmt.Sprint(raw))}
}

// numericDiff returns the sign of a-b, treating NaN as equal.
func numericDiff(a, b float64) int {
	d := a - b
	switch {
	case math.IsNaN(d):
		return 0
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

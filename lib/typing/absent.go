package typing

import (
	"database/sql/driver"
	"math"
	"reflect"
	"time"
)

// IsAbsent reports whether [value] is one of the representations of a missing value:
// untyped nil, a nil pointer/map/slice, NaN, the zero [time.Time] or an invalid sql.Null* value.
func IsAbsent(value any) bool {
	if value == nil {
		return true
	}

	reflectValue := reflect.ValueOf(value)
	switch reflectValue.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if reflectValue.IsNil() {
			return true
		}
	default:
	}

	switch castedValue := value.(type) {
	case float64:
		return math.IsNaN(castedValue)
	case float32:
		return math.IsNaN(float64(castedValue))
	case time.Time:
		return castedValue.IsZero()
	case *time.Time:
		return castedValue.IsZero()
	case driver.Valuer:
		underlying, err := castedValue.Value()
		return err == nil && underlying == nil
	}

	return false
}

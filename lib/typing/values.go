package typing

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const DateFormat = "2006-01-02"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	DateFormat,
}

// Validate checks that [value] has a shape the store accepts for [kind]. Absent values are always valid.
func Validate(kind Kind, value any) error {
	_, err := canonical(kind, value, false)
	return err
}

// Canonical returns a comparable representation of [value] for [kind].
// It accepts both incoming row values and values scanned back from a store (which may arrive as []byte or strings).
func Canonical(kind Kind, value any) (any, error) {
	return canonical(kind, value, true)
}

// Equal reports whether [a] and [b] represent the same value for [kind].
func Equal(kind Kind, a, b any) (bool, error) {
	canonicalA, err := Canonical(kind, a)
	if err != nil {
		return false, err
	}

	canonicalB, err := Canonical(kind, b)
	if err != nil {
		return false, err
	}

	return canonicalA == canonicalB, nil
}

// AsTime interprets [value] as a point in time. Strings without a zone are read as UTC.
func AsTime(value any) (time.Time, error) {
	value, err := unwrapValuer(value)
	if err != nil {
		return time.Time{}, err
	}

	switch castedValue := value.(type) {
	case time.Time:
		return castedValue, nil
	case *time.Time:
		if castedValue == nil {
			return time.Time{}, fmt.Errorf("value is nil")
		}
		return *castedValue, nil
	case string:
		return parseTime(castedValue)
	case []byte:
		return parseTime(string(castedValue))
	default:
		return time.Time{}, fmt.Errorf("expected a time or string, got %T", value)
	}
}

// AsDate is [AsTime] truncated to a calendar date in UTC.
func AsDate(value any) (time.Time, error) {
	ts, err := AsTime(value)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
}

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("failed to parse %q as a time", value)
}

func unwrapValuer(value any) (any, error) {
	if valuer, ok := value.(driver.Valuer); ok {
		underlying, err := valuer.Value()
		if err != nil {
			return nil, fmt.Errorf("failed to read %T: %w", value, err)
		}
		return underlying, nil
	}

	return value, nil
}

func canonical(kind Kind, value any, lenient bool) (any, error) {
	if IsAbsent(value) {
		return nil, nil
	}

	value, err := unwrapValuer(value)
	if err != nil {
		return nil, err
	}

	if IsAbsent(value) {
		return nil, nil
	}

	switch kind {
	case String:
		return toString(value, lenient)
	case Integer:
		return toInteger(value, lenient)
	case Float:
		return toFloat(value, lenient)
	case Boolean:
		return toBoolean(value, lenient)
	case Date:
		ts, err := AsDate(value)
		if err != nil {
			return nil, err
		}
		return ts.Format(DateFormat), nil
	case Timestamp:
		ts, err := AsTime(value)
		if err != nil {
			return nil, err
		}
		return ts.UTC().Format(time.RFC3339Nano), nil
	default:
		return nil, fmt.Errorf("unsupported kind: %q", kind)
	}
}

func toString(value any, lenient bool) (string, error) {
	switch castedValue := value.(type) {
	case string:
		return castedValue, nil
	case []byte:
		return string(castedValue), nil
	case json.Number:
		return castedValue.String(), nil
	}

	if lenient {
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return fmt.Sprint(value), nil
		}
	}

	return "", fmt.Errorf("expected a string, got %T", value)
}

func toInteger(value any, lenient bool) (int64, error) {
	switch castedValue := value.(type) {
	case int:
		return int64(castedValue), nil
	case int8:
		return int64(castedValue), nil
	case int16:
		return int64(castedValue), nil
	case int32:
		return int64(castedValue), nil
	case int64:
		return castedValue, nil
	case uint:
		return uintToInt64(uint64(castedValue))
	case uint8:
		return int64(castedValue), nil
	case uint16:
		return int64(castedValue), nil
	case uint32:
		return int64(castedValue), nil
	case uint64:
		return uintToInt64(castedValue)
	case float32:
		return floatToInt64(float64(castedValue))
	case float64:
		return floatToInt64(castedValue)
	case json.Number:
		if intValue, err := castedValue.Int64(); err == nil {
			return intValue, nil
		}
		floatValue, err := castedValue.Float64()
		if err != nil {
			return 0, fmt.Errorf("failed to parse %q as a number: %w", castedValue, err)
		}
		return floatToInt64(floatValue)
	case bool:
		if lenient {
			if castedValue {
				return 1, nil
			}
			return 0, nil
		}
	case string:
		if lenient {
			return strconv.ParseInt(strings.TrimSpace(castedValue), 10, 64)
		}
	case []byte:
		if lenient {
			return strconv.ParseInt(strings.TrimSpace(string(castedValue)), 10, 64)
		}
	}

	return 0, fmt.Errorf("expected an integer, got %T", value)
}

func uintToInt64(value uint64) (int64, error) {
	if value > math.MaxInt64 {
		return 0, fmt.Errorf("value %d overflows int64", value)
	}
	return int64(value), nil
}

func floatToInt64(value float64) (int64, error) {
	if value != math.Trunc(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("expected an integer, got float %v", value)
	}
	if value > math.MaxInt64 || value < math.MinInt64 {
		return 0, fmt.Errorf("value %v overflows int64", value)
	}
	return int64(value), nil
}

func toFloat(value any, lenient bool) (float64, error) {
	switch castedValue := value.(type) {
	case float32:
		return float64(castedValue), nil
	case float64:
		return castedValue, nil
	case json.Number:
		return castedValue.Float64()
	case string:
		if lenient {
			return strconv.ParseFloat(strings.TrimSpace(castedValue), 64)
		}
	case []byte:
		if lenient {
			return strconv.ParseFloat(strings.TrimSpace(string(castedValue)), 64)
		}
	}

	intValue, err := toInteger(value, false)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %T", value)
	}
	return float64(intValue), nil
}

func toBoolean(value any, lenient bool) (bool, error) {
	switch castedValue := value.(type) {
	case bool:
		return castedValue, nil
	case string:
		if lenient {
			return strconv.ParseBool(strings.TrimSpace(castedValue))
		}
	case []byte:
		if lenient {
			return strconv.ParseBool(strings.TrimSpace(string(castedValue)))
		}
	}

	intValue, err := toInteger(value, false)
	if err != nil || (intValue != 0 && intValue != 1) {
		return false, fmt.Errorf("expected a boolean, got %T", value)
	}
	return intValue == 1, nil
}

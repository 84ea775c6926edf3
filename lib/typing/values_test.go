package typing

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	{
		// Absent values are always valid
		for _, kind := range validKinds {
			assert.NoError(t, Validate(kind, nil))
			assert.NoError(t, Validate(kind, sql.NullString{}))
		}
	}
	{
		// String
		assert.NoError(t, Validate(String, "Sales"))
		assert.NoError(t, Validate(String, []byte("Sales")))
		assert.ErrorContains(t, Validate(String, 123), "expected a string, got int")
	}
	{
		// Integer
		assert.NoError(t, Validate(Integer, 1))
		assert.NoError(t, Validate(Integer, uint8(1)))
		assert.NoError(t, Validate(Integer, 2.0))
		assert.NoError(t, Validate(Integer, json.Number("42")))
		assert.ErrorContains(t, Validate(Integer, 2.5), "expected an integer, got float 2.5")
		assert.ErrorContains(t, Validate(Integer, "1"), "expected an integer, got string")
		assert.ErrorContains(t, Validate(Integer, uint64(1<<63)), "overflows int64")
	}
	{
		// Float
		assert.NoError(t, Validate(Float, 7.5))
		assert.NoError(t, Validate(Float, 8))
		assert.NoError(t, Validate(Float, json.Number("7.25")))
		assert.ErrorContains(t, Validate(Float, "7.5"), "expected a number, got string")
	}
	{
		// Boolean
		assert.NoError(t, Validate(Boolean, true))
		assert.NoError(t, Validate(Boolean, 1))
		assert.ErrorContains(t, Validate(Boolean, 2), "expected a boolean, got int")
	}
	{
		// Date and timestamp
		assert.NoError(t, Validate(Date, "2024-01-15"))
		assert.NoError(t, Validate(Date, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)))
		assert.NoError(t, Validate(Timestamp, "2024-01-15T08:30:00Z"))
		assert.NoError(t, Validate(Timestamp, "2024-01-15 08:30:00"))
		assert.ErrorContains(t, Validate(Date, "15/01/2024"), `failed to parse "15/01/2024" as a time`)
		assert.ErrorContains(t, Validate(Timestamp, 12), "expected a time or string, got int")
	}
	{
		// Unknown kind
		assert.ErrorContains(t, Validate(Invalid, "foo"), `unsupported kind: "invalid"`)
	}
}

func TestEqual(t *testing.T) {
	type _tc struct {
		name     string
		kind     Kind
		a        any
		b        any
		expected bool
	}

	tcs := []_tc{
		{name: "strings", kind: String, a: "Sales", b: "Sales", expected: true},
		{name: "string vs bytes", kind: String, a: "Sales", b: []byte("Sales"), expected: true},
		{name: "different strings", kind: String, a: "Sales", b: "Sales & Marketing", expected: false},
		{name: "nil vs nil", kind: String, a: nil, b: sql.NullString{}, expected: true},
		{name: "nil vs value", kind: String, a: nil, b: "", expected: false},
		{name: "int vs int64", kind: Integer, a: 3, b: int64(3), expected: true},
		{name: "json number vs bytes", kind: Integer, a: json.Number("3"), b: []byte("3"), expected: true},
		{name: "float vs int", kind: Float, a: 8.0, b: 8, expected: true},
		{name: "date string vs time", kind: Date, a: "2024-01-15", b: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), expected: true},
		{name: "date with time component", kind: Date, a: "2024-01-15T10:00:00Z", b: "2024-01-15", expected: true},
		{name: "different dates", kind: Date, a: "2024-01-15", b: "2024-01-16", expected: false},
		{name: "timestamps across zones", kind: Timestamp, a: "2024-01-15T10:00:00+02:00", b: time.Date(2024, time.January, 15, 8, 0, 0, 0, time.UTC), expected: true},
		{name: "bool vs int", kind: Boolean, a: true, b: int64(1), expected: true},
	}

	for _, tc := range tcs {
		actual, err := Equal(tc.kind, tc.a, tc.b)
		assert.NoError(t, err, tc.name)
		assert.Equal(t, tc.expected, actual, tc.name)
	}

	_, err := Equal(Integer, "abc", 1)
	assert.ErrorContains(t, err, `invalid syntax`)
}

func TestAsDate(t *testing.T) {
	{
		ts, err := AsDate("2024-03-31")
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), ts)
	}
	{
		ts, err := AsDate(time.Date(2024, time.March, 31, 23, 59, 0, 0, time.FixedZone("PST", -8*60*60)))
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), ts)
	}
	{
		_, err := AsDate(false)
		assert.ErrorContains(t, err, "expected a time or string, got bool")
	}
}

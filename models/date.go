package models

import (
	"fmt"

	"github.com/artie-labs/dimload/lib/typing"
)

// DeriveDateParts overwrites the calendar attributes of a dim_date row from its work_date.
// Weeks are ISO 8601 weeks. Rows without a work_date are left alone so key validation can reject them.
func DeriveDateParts(row map[string]any) error {
	value, ok := row["work_date"]
	if !ok || typing.IsAbsent(value) {
		return nil
	}

	workDate, err := typing.AsDate(value)
	if err != nil {
		return fmt.Errorf("failed to parse work_date: %w", err)
	}

	_, week := workDate.ISOWeek()
	row["work_date"] = workDate.Format(typing.DateFormat)
	row["year"] = workDate.Year()
	row["month"] = int(workDate.Month())
	row["day"] = workDate.Day()
	row["week"] = week
	row["quarter"] = (int(workDate.Month())-1)/3 + 1
	return nil
}

package upsert

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	{
		// ConfigurationError
		assert.Equal(t, `invalid configuration for table "dim_date": key columns cannot be empty`, newConfigurationError("dim_date", "key columns cannot be empty").Error())
		assert.Equal(t, "invalid configuration: chunk size must be positive", ConfigurationError{Reason: "chunk size must be positive"}.Error())
	}
	{
		// ValidationError
		err := ValidationError{Table: "dim_department", ChunkIndex: 1, Row: 502, Column: "department_id", Reason: "key value is missing"}
		assert.Equal(t, `row 502 of table "dim_department" (chunk 1) is invalid, column "department_id": key value is missing`, err.Error())

		err.Column = ""
		assert.Equal(t, `row 502 of table "dim_department" (chunk 1) is invalid: key value is missing`, err.Error())
	}
	{
		// StoreError
		err := fmt.Errorf("load failed: %w", StoreError{Table: "dim_date", ChunkIndex: 2, Offset: 1000, Retryable: true, Err: io.ErrUnexpectedEOF})
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

		var storeErr StoreError
		assert.True(t, errors.As(err, &storeErr))
		assert.True(t, storeErr.Retryable)
		assert.Equal(t, `failed to apply chunk 2 (offset 1000) of table "dim_date": unexpected EOF`, storeErr.Error())
	}
}

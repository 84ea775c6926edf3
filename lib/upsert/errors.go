package upsert

import (
	"fmt"
)

// ConfigurationError is returned before any store access when the request cannot be served as configured.
type ConfigurationError struct {
	Table  string
	Reason string
}

func (c ConfigurationError) Error() string {
	if c.Table == "" {
		return fmt.Sprintf("invalid configuration: %s", c.Reason)
	}

	return fmt.Sprintf("invalid configuration for table %q: %s", c.Table, c.Reason)
}

func newConfigurationError(table, format string, args ...any) ConfigurationError {
	return ConfigurationError{Table: table, Reason: fmt.Sprintf(format, args...)}
}

// ValidationError rejects a chunk because of one of its rows. [Row] is the position of the row within the whole batch.
type ValidationError struct {
	Table      string
	ChunkIndex int
	Row        int
	// Column is empty when the failure is not tied to a single column.
	Column string
	Reason string
}

func (v ValidationError) Error() string {
	if v.Column == "" {
		return fmt.Sprintf("row %d of table %q (chunk %d) is invalid: %s", v.Row, v.Table, v.ChunkIndex, v.Reason)
	}

	return fmt.Sprintf("row %d of table %q (chunk %d) is invalid, column %q: %s", v.Row, v.Table, v.ChunkIndex, v.Column, v.Reason)
}

// StoreError wraps a failure raised by the store while a chunk was being applied. The chunk's transaction was rolled back.
type StoreError struct {
	Table      string
	ChunkIndex int
	Offset     int
	// Retryable is set when resubmitting the same chunk may succeed, e.g. after a deadlock or a dropped connection.
	Retryable bool
	Err       error
}

func (s StoreError) Error() string {
	return fmt.Sprintf("failed to apply chunk %d (offset %d) of table %q: %v", s.ChunkIndex, s.Offset, s.Table, s.Err)
}

func (s StoreError) Unwrap() error {
	return s.Err
}

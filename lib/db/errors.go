package db

import (
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"syscall"
)

var retryableErrs = []error{
	syscall.ECONNRESET,
	syscall.ECONNREFUSED,
	io.EOF,
	io.ErrUnexpectedEOF,
	driver.ErrBadConn,
}

// Some drivers flatten network errors into strings.
var retryableMessages = []string{
	"connection reset by peer",
	"connection refused",
	"broken pipe",
}

// IsRetryableError reports whether [err] is a connection-level failure that is safe to retry.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	for _, retryableErr := range retryableErrs {
		if errors.Is(err, retryableErr) {
			return true
		}
	}

	for _, message := range retryableMessages {
		if strings.Contains(err.Error(), message) {
			return true
		}
	}

	return false
}

package destination

import (
	"github.com/artie-labs/dimload/lib/config"
	"github.com/artie-labs/dimload/lib/db"
	"github.com/artie-labs/dimload/lib/sql"
)

// Destination is a relational store that the upsert engine can write to.
type Destination interface {
	db.Store

	GetConfig() config.Config
	Dialect() sql.Dialect
}

// IsRetryableError reports whether [err] is a transient failure, either at the connection level or a
// dialect specific one such as a deadlock or serialization failure.
func IsRetryableError(dest Destination, err error) bool {
	return db.IsRetryableError(err) || dest.Dialect().IsRetryableErr(err)
}

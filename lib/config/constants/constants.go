package constants

const (
	// Original credential variables, used when a destination section does not set a value.
	EnvDBUser     = "DB_USER"
	EnvDBPassword = "DB_PASSWORD"
	EnvDBHost     = "DB_HOST"
	EnvDBPort     = "DB_PORT"
	EnvDBName     = "DB_NAME"

	DefaultDBHost = "localhost"
	DefaultDBPort = 8432
)

// ExporterKind is used for the Telemetry package
type ExporterKind string

const (
	Datadog ExporterKind = "datadog"
)

type DestinationKind string

const (
	MSSQL    DestinationKind = "mssql"
	MySQL    DestinationKind = "mysql"
	Postgres DestinationKind = "postgres"
	SQLite   DestinationKind = "sqlite"
)

var validDestinations = []DestinationKind{
	MSSQL,
	MySQL,
	Postgres,
	SQLite,
}

func IsValidDestination(destination DestinationKind) bool {
	for _, validDest := range validDestinations {
		if destination == validDest {
			return true
		}
	}

	return false
}

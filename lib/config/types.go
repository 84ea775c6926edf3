package config

import (
	"github.com/artie-labs/dimload/lib/config/constants"
)

type Sentry struct {
	DSN string `yaml:"dsn"`
}

type Reporting struct {
	Sentry *Sentry `yaml:"sentry"`
}

type Postgres struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	DisableSSL bool   `yaml:"disableSSL"`
}

type MySQL struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type MSSQL struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type SQLite struct {
	// Path to the database file, ":memory:" is accepted for throwaway runs.
	Path string `yaml:"path"`
}

type Redis struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
}

type Checkpoint struct {
	// Redis stores checkpoints so an interrupted load can resume, they are kept in memory when unset.
	Redis      *Redis `yaml:"redis,omitempty"`
	TTLSeconds int    `yaml:"ttlSeconds"`
}

type Retry struct {
	MaxAttempts  int `yaml:"maxAttempts"`
	JitterBaseMs int `yaml:"jitterBaseMs"`
	JitterMaxMs  int `yaml:"jitterMaxMs"`
}

type Table struct {
	Name string `yaml:"name"`
	// Input is the path of a JSON Lines file holding already cleaned rows.
	Input         string   `yaml:"input"`
	KeyColumns    []string `yaml:"keyColumns,omitempty"`
	NonKeyColumns []string `yaml:"nonKeyColumns,omitempty"`
}

type Config struct {
	Output constants.DestinationKind `yaml:"outputSource"`

	// Supported destinations
	MSSQL    *MSSQL    `yaml:"mssql,omitempty"`
	MySQL    *MySQL    `yaml:"mysql,omitempty"`
	Postgres *Postgres `yaml:"postgres,omitempty"`
	SQLite   *SQLite   `yaml:"sqlite,omitempty"`

	ChunkSize int `yaml:"chunkSize"`
	// EffectiveDate (YYYY-MM-DD) starts new versions of rows that do not carry a start_date. Defaults to the load date.
	EffectiveDate      string  `yaml:"effectiveDate,omitempty"`
	MaxChunksPerSecond float64 `yaml:"maxChunksPerSecond,omitempty"`
	BootstrapTables    bool    `yaml:"bootstrapTables"`
	Tables             []Table `yaml:"tables"`

	Retry      Retry      `yaml:"retry"`
	Checkpoint Checkpoint `yaml:"checkpoint"`
	Reporting  Reporting  `yaml:"reporting"`
	Telemetry  struct {
		Metrics struct {
			Provider constants.ExporterKind `yaml:"provider"`
			Settings map[string]any         `yaml:"settings,omitempty"`
		}
	}
}

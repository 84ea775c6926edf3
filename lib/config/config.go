package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artie-labs/dimload/lib/config/constants"
	"github.com/artie-labs/dimload/lib/typing"
)

const (
	DefaultChunkSize = 500

	defaultRetryMaxAttempts  = 3
	defaultRetryJitterBaseMs = 500
	defaultRetryJitterMaxMs  = 3500
	defaultCheckpointTTL     = 7 * 24 * time.Hour
)

func readFileToConfig(pathToConfig string) (*Config, error) {
	file, err := os.Open(pathToConfig)
	if err != nil {
		return nil, err
	}

	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	var config Config
	if err = yaml.Unmarshal(bytes, &config); err != nil {
		return nil, err
	}

	config.setDefaults()
	if err = config.applyEnvironment(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) setDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = defaultRetryMaxAttempts
	}

	if c.Retry.JitterBaseMs == 0 {
		c.Retry.JitterBaseMs = defaultRetryJitterBaseMs
	}

	if c.Retry.JitterMaxMs == 0 {
		c.Retry.JitterMaxMs = defaultRetryJitterMaxMs
	}

	if c.Checkpoint.TTLSeconds == 0 {
		c.Checkpoint.TTLSeconds = int(defaultCheckpointTTL.Seconds())
	}
}

func (c Checkpoint) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// ParsedEffectiveDate returns the configured effective date, or [fallback] when none is set.
func (c Config) ParsedEffectiveDate(fallback time.Time) (time.Time, error) {
	if c.EffectiveDate == "" {
		return fallback, nil
	}

	return time.Parse(typing.DateFormat, c.EffectiveDate)
}

func (c Config) validateDestination() error {
	switch c.Output {
	case constants.Postgres:
		if c.Postgres == nil {
			return fmt.Errorf("postgres config is missing")
		}
	case constants.MySQL:
		if c.MySQL == nil {
			return fmt.Errorf("mysql config is missing")
		}
	case constants.MSSQL:
		if c.MSSQL == nil {
			return fmt.Errorf("mssql config is missing")
		}
	case constants.SQLite:
		if c.SQLite == nil || c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is missing")
		}
	}

	return nil
}

// Validate will check the output source validity and every table entry.
// Table names and columns are checked against the registry when the load starts.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}

	if !constants.IsValidDestination(c.Output) {
		return fmt.Errorf("invalid destination: %q", c.Output)
	}

	if err := c.validateDestination(); err != nil {
		return err
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be a positive number, current value: %d", c.ChunkSize)
	}

	if c.MaxChunksPerSecond < 0 {
		return fmt.Errorf("max chunks per second cannot be negative, current value: %v", c.MaxChunksPerSecond)
	}

	if c.EffectiveDate != "" {
		if _, err := time.Parse(typing.DateFormat, c.EffectiveDate); err != nil {
			return fmt.Errorf("effective date %q is not a valid date: %w", c.EffectiveDate, err)
		}
	}

	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry max attempts must be a positive number, current value: %d", c.Retry.MaxAttempts)
	}

	if c.Retry.JitterBaseMs <= 0 || c.Retry.JitterMaxMs < c.Retry.JitterBaseMs {
		return fmt.Errorf("retry jitter is invalid, base: %d, max: %d", c.Retry.JitterBaseMs, c.Retry.JitterMaxMs)
	}

	if len(c.Tables) == 0 {
		return fmt.Errorf("no tables are configured")
	}

	seen := make(map[string]bool)
	for i, table := range c.Tables {
		if table.Name == "" {
			return fmt.Errorf("table %d is missing a name", i)
		}

		if seen[table.Name] {
			return fmt.Errorf("table %q is configured more than once", table.Name)
		}
		seen[table.Name] = true

		if table.Input == "" {
			return fmt.Errorf("table %q is missing an input file", table.Name)
		}
	}

	if c.Checkpoint.Redis != nil && c.Checkpoint.Redis.Address == "" {
		return fmt.Errorf("redis checkpoint address is missing")
	}

	return nil
}

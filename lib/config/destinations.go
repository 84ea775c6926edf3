package config

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/artie-labs/dimload/lib/config/constants"
	"github.com/artie-labs/dimload/lib/environ"
)

func (p Postgres) DSN() string {
	dsn := fmt.Sprintf("postgres://%s@%s:%d/%s", url.UserPassword(p.Username, p.Password).String(), p.Host, p.Port, p.Database)
	if p.DisableSSL {
		dsn = fmt.Sprintf("%s?sslmode=disable", dsn)
	}

	return dsn
}

func (m MySQL) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = m.Username
	cfg.Passwd = m.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", m.Host, m.Port)
	cfg.DBName = m.Database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func (m MSSQL) DSN() string {
	query := url.Values{}
	query.Add("database", m.Database)

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(m.Username, m.Password),
		Host:     fmt.Sprintf("%s:%d", m.Host, m.Port),
		RawQuery: query.Encode(),
	}

	return u.String()
}

// DSN enables foreign keys and waits on a locked database instead of failing right away.
func (s SQLite) DSN() string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", s.Path)
}

// credentials are the DB_* environment variables with their defaults.
type credentials struct {
	host     string
	port     int
	username string
	password string
	database string
}

func credentialsFromEnv() (credentials, error) {
	port, err := strconv.Atoi(environ.GetOrDefault(constants.EnvDBPort, strconv.Itoa(constants.DefaultDBPort)))
	if err != nil {
		return credentials{}, fmt.Errorf("failed to parse %s: %w", constants.EnvDBPort, err)
	}

	return credentials{
		host:     environ.GetOrDefault(constants.EnvDBHost, constants.DefaultDBHost),
		port:     port,
		username: environ.GetOrDefault(constants.EnvDBUser, ""),
		password: environ.GetOrDefault(constants.EnvDBPassword, ""),
		database: environ.GetOrDefault(constants.EnvDBName, ""),
	}, nil
}

// fill copies the environment credentials into every empty field.
func (c credentials) fill(host *string, port *int, username, password, database *string) {
	if *host == "" {
		*host = c.host
	}
	if *port == 0 {
		*port = c.port
	}
	if *username == "" {
		*username = c.username
	}
	if *password == "" {
		*password = c.password
	}
	if *database == "" {
		*database = c.database
	}
}

// requireEnvironment is checked when the file has no section for the destination, so every credential comes from the environment.
func requireEnvironment() error {
	return environ.Require(constants.EnvDBUser, constants.EnvDBPassword, constants.EnvDBName)
}

// applyEnvironment fills the selected destination from the DB_* environment variables where the file left it empty.
func (c *Config) applyEnvironment() error {
	var err error
	var creds credentials
	switch c.Output {
	case constants.Postgres:
		if creds, err = credentialsFromEnv(); err != nil {
			return err
		}
		if c.Postgres == nil {
			if err = requireEnvironment(); err != nil {
				return err
			}
			c.Postgres = &Postgres{}
		}
		creds.fill(&c.Postgres.Host, &c.Postgres.Port, &c.Postgres.Username, &c.Postgres.Password, &c.Postgres.Database)
	case constants.MySQL:
		if creds, err = credentialsFromEnv(); err != nil {
			return err
		}
		if c.MySQL == nil {
			if err = requireEnvironment(); err != nil {
				return err
			}
			c.MySQL = &MySQL{}
		}
		creds.fill(&c.MySQL.Host, &c.MySQL.Port, &c.MySQL.Username, &c.MySQL.Password, &c.MySQL.Database)
	case constants.MSSQL:
		if creds, err = credentialsFromEnv(); err != nil {
			return err
		}
		if c.MSSQL == nil {
			if err = requireEnvironment(); err != nil {
				return err
			}
			c.MSSQL = &MSSQL{}
		}
		creds.fill(&c.MSSQL.Host, &c.MSSQL.Port, &c.MSSQL.Username, &c.MSSQL.Password, &c.MSSQL.Database)
	}

	return nil
}

package core

import (
	"context"
	"encoding/json"
	"fmt"
)

// DefaultDatabase is the SQLite file used when no database is configured.
const DefaultDatabase = "database.db"

type (
	// Adapter opens drivers for one dialect.
	Adapter interface {
		Connect(cfg ConnectionConfig) (Driver, error)
	}

	// Driver is a single scoped connection to a data source.
	Driver interface {
		Ping(context.Context) error
		Query(ctx context.Context, query string, args ...any) (ResultStream, error)
		Columns(ctx context.Context, table string) (Schema, error)
		Close()
	}

	// Source executes SQL against a data source described by a ConnectionConfig.
	// Every call establishes and releases its own connection.
	Source interface {
		Execute(ctx context.Context, query string, cfg ConnectionConfig) (*Result, error)
		DescribeTable(ctx context.Context, table string, cfg ConnectionConfig) (Schema, error)
	}
)

// ConnectionConfig describes how to reach a data source. It is passed by value and
// never modified by the pipeline.
type ConnectionConfig struct {
	Dialect  Dialect
	Database string
	User     string
	Password string
	Host     string
	Port     string
	// Options are extra driver parameters appended to the DSN.
	Options map[string]string
}

// WithDefaults returns a copy with the dialect and database defaults applied.
func (c ConnectionConfig) WithDefaults() ConnectionConfig {
	if c.Dialect == "" {
		c.Dialect = DialectSQLite
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	return c
}

// IsZero reports whether no field is set.
func (c ConnectionConfig) IsZero() bool {
	return c.Dialect == "" && c.Database == "" && c.User == "" && c.Password == "" &&
		c.Host == "" && c.Port == "" && len(c.Options) == 0
}

// Expand returns a copy of the config with template expanded fields.
func (c ConnectionConfig) Expand() (ConnectionConfig, error) {
	out := c
	fields := []*string{&out.Database, &out.User, &out.Password, &out.Host, &out.Port}
	for _, f := range fields {
		ex, err := Expand(*f)
		if err != nil {
			return ConnectionConfig{}, fmt.Errorf("core.Expand: %w", err)
		}
		*f = ex
	}

	if len(c.Options) > 0 {
		out.Options = make(map[string]string, len(c.Options))
		for k, v := range c.Options {
			out.Options[k] = expandOrDefault(v)
		}
	}

	return out, nil
}

// MarshalJSON hides the password.
func (c ConnectionConfig) MarshalJSON() ([]byte, error) {
	password := ""
	if c.Password != "" {
		password = "***"
	}
	return json.Marshal(struct {
		Dialect  string            `json:"dialect"`
		Database string            `json:"database"`
		User     string            `json:"user,omitempty"`
		Password string            `json:"password,omitempty"`
		Host     string            `json:"host,omitempty"`
		Port     string            `json:"port,omitempty"`
		Options  map[string]string `json:"options,omitempty"`
	}{
		Dialect:  string(c.Dialect),
		Database: c.Database,
		User:     c.User,
		Password: password,
		Host:     c.Host,
		Port:     c.Port,
		Options:  c.Options,
	})
}

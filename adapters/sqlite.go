//go:build (darwin && (amd64 || arm64)) || (freebsd && (386 || amd64 || arm || arm64)) || (linux && (386 || amd64 || arm || arm64 || ppc64le || riscv64 || s390x)) || (netbsd && amd64) || (openbsd && (amd64 || arm64)) || (windows && (amd64 || arm64))

package adapters

import (
	"database/sql"
	"fmt"
	nurl "net/url"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/dbask/dbask/core"
	"github.com/dbask/dbask/core/builders"
)

// Register client
func init() {
	_ = register(&SQLite{}, core.DialectSQLite)
}

var _ core.Adapter = (*SQLite)(nil)

type SQLite struct {
	// driverName overrides the database/sql driver, used in tests
	driverName string
}

// sqlitePathEscaper escapes what the sqlite URI parser would otherwise take
// for a query, a fragment or an escape sequence.
var sqlitePathEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// sqliteDSN opens the database file read only unless the options say otherwise.
// A missing file is an error instead of a fresh empty database. A database that
// already is a file: URI is used as it is.
func sqliteDSN(cfg core.ConnectionConfig) string {
	if strings.HasPrefix(cfg.Database, "file:") {
		return cfg.Database
	}

	q := nurl.Values{}
	for k, v := range cfg.Options {
		q.Set(k, v)
	}
	if q.Get("mode") == "" {
		q.Set("mode", "ro")
	}

	return "file:" + sqlitePathEscaper.Replace(cfg.Database) + "?" + q.Encode()
}

func (s *SQLite) Connect(cfg core.ConnectionConfig) (core.Driver, error) {
	driverName := s.driverName
	if driverName == "" {
		driverName = "sqlite"
	}

	db, err := sql.Open(driverName, sqliteDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to sqlite database: %w", err)
	}

	return &sqliteDriver{
		sqlDriver: sqlDriver{c: builders.NewClient(db)},
	}, nil
}

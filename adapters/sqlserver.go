package adapters

import (
	"database/sql"
	"fmt"
	"net"
	nurl "net/url"

	"github.com/google/uuid"
	mssql "github.com/microsoft/go-mssqldb"

	"github.com/dbask/dbask/core"
	"github.com/dbask/dbask/core/builders"
)

// Register client
func init() {
	_ = register(&SQLServer{}, core.DialectMSSQL)
}

var _ core.Adapter = (*SQLServer)(nil)

type SQLServer struct {
	// driverName overrides the database/sql driver, used in tests
	driverName string
}

func sqlServerDSN(cfg core.ConnectionConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	if cfg.Port != "" {
		host = net.JoinHostPort(host, cfg.Port)
	}

	u := &nurl.URL{
		Scheme: "sqlserver",
		Host:   host,
	}
	if cfg.User != "" {
		u.User = nurl.UserPassword(cfg.User, cfg.Password)
	}

	q := nurl.Values{}
	for k, v := range cfg.Options {
		q.Set(k, v)
	}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// uniqueIdentifierProcessor decodes the mixed endian wire form of a uniqueidentifier.
func uniqueIdentifierProcessor(a any) any {
	b, ok := a.([]byte)
	if !ok {
		return a
	}

	var id mssql.UniqueIdentifier
	if err := id.Scan(b); err != nil {
		return a
	}

	return uuid.UUID(id)
}

func (s *SQLServer) Connect(cfg core.ConnectionConfig) (core.Driver, error) {
	driverName := s.driverName
	if driverName == "" {
		driverName = "sqlserver"
	}

	db, err := sql.Open(driverName, sqlServerDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to sqlserver database: %w", err)
	}

	return &sqlServerDriver{
		sqlDriver: sqlDriver{c: builders.NewClient(db,
			builders.WithCustomTypeProcessor("uniqueidentifier", uniqueIdentifierProcessor),
			builders.WithCustomTypeProcessor("decimal", numericProcessor),
			builders.WithCustomTypeProcessor("money", numericProcessor),
		)},
	}, nil
}

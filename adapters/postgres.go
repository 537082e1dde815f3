package adapters

import (
	"database/sql"
	"fmt"
	"net"
	nurl "net/url"

	_ "github.com/lib/pq"

	"github.com/dbask/dbask/core"
	"github.com/dbask/dbask/core/builders"
)

// Register client
func init() {
	_ = register(&Postgres{}, core.DialectPostgreSQL)
}

var _ core.Adapter = (*Postgres)(nil)

type Postgres struct {
	// driverName overrides the database/sql driver, used in tests
	driverName string
}

func postgresDSN(cfg core.ConnectionConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	if cfg.Port != "" {
		host = net.JoinHostPort(host, cfg.Port)
	}

	u := &nurl.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		u.User = nurl.UserPassword(cfg.User, cfg.Password)
	}

	q := nurl.Values{}
	for k, v := range cfg.Options {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func (p *Postgres) Connect(cfg core.ConnectionConfig) (core.Driver, error) {
	driverName := p.driverName
	if driverName == "" {
		driverName = "postgres"
	}

	db, err := sql.Open(driverName, postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to postgres database: %w", err)
	}

	return &postgresDriver{
		sqlDriver: sqlDriver{c: builders.NewClient(db,
			builders.WithCustomTypeProcessor("numeric", numericProcessor),
		)},
	}, nil
}

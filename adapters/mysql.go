package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"net"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"

	"github.com/dbask/dbask/core"
	"github.com/dbask/dbask/core/builders"
)

// Register client
func init() {
	_ = register(&MySQL{}, core.DialectMySQL)
}

var _ core.Adapter = (*MySQL)(nil)

type MySQL struct {
	// driverName overrides the database/sql driver, used in tests
	driverName string
}

// mysqlDSN never enables multiStatements, a generated query runs alone.
func mysqlDSN(cfg core.ConnectionConfig) string {
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == "" {
		port = "3306"
	}

	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(host, port)
	c.DBName = cfg.Database
	if len(cfg.Options) > 0 {
		c.Params = make(map[string]string, len(cfg.Options))
		for k, v := range cfg.Options {
			c.Params[k] = v
		}
	}

	return c.FormatDSN()
}

func (m *MySQL) Connect(cfg core.ConnectionConfig) (core.Driver, error) {
	driverName := m.driverName
	if driverName == "" {
		driverName = "mysql"
	}

	db, err := sql.Open(driverName, mysqlDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mysql database: %w", err)
	}

	return &mysqlDriver{
		sqlDriver: sqlDriver{c: builders.NewClient(db,
			builders.WithCustomTypeProcessor("decimal", numericProcessor),
		)},
	}, nil
}

var _ core.Driver = (*mysqlDriver)(nil)

type mysqlDriver struct {
	sqlDriver
}

func (d *mysqlDriver) Columns(ctx context.Context, table string) (core.Schema, error) {
	schema, name := splitQualified(table)

	b := core.DialectMySQL.StatementBuilder().
		Select("column_name", "data_type").
		From("information_schema.columns").
		Where(sq.Eq{"table_name": name})

	if schema != "" {
		b = b.Where(sq.Eq{"table_schema": schema})
	} else {
		b = b.Where("table_schema = DATABASE()")
	}

	return d.columnsFrom(ctx, b.OrderBy("ordinal_position"))
}

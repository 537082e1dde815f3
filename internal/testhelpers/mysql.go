package testhelpers

import (
	"context"

	tc "github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/dbask/dbask/core"
)

type MySQLContainer struct {
	*tcmysql.MySQLContainer
	Config core.ConnectionConfig
}

// NewMySQLContainer starts a seeded MySQL container and returns the
// connection config that reaches it.
func NewMySQLContainer(ctx context.Context) (*MySQLContainer, error) {
	seedFile, err := GetTestDataFile("mysql_seed.sql")
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	ctr, err := tcmysql.Run(
		ctx,
		"mysql:9.2.0",
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ProviderType: GetContainerProvider(),
		}),
		tcmysql.WithDatabase("dev"),
		tcmysql.WithPassword("password"),
		tcmysql.WithUsername("root"),
		tcmysql.WithScripts(seedFile.Name()),
	)
	if err != nil {
		return nil, err
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := ctr.MappedPort(ctx, "3306/tcp")
	if err != nil {
		return nil, err
	}

	return &MySQLContainer{
		MySQLContainer: ctr,
		Config: core.ConnectionConfig{
			Dialect:  core.DialectMySQL,
			Database: "dev",
			User:     "root",
			Password: "password",
			Host:     host,
			Port:     port.Port(),
			Options:  map[string]string{"tls": "skip-verify"},
		},
	}, nil
}

package testhelpers

import (
	"context"

	tc "github.com/testcontainers/testcontainers-go"
	tcpsql "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/dbask/dbask/core"
)

type PostgresContainer struct {
	*tcpsql.PostgresContainer
	Config core.ConnectionConfig
}

// NewPostgresContainer starts a seeded postgres container and returns the
// connection config that reaches it.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	seedFile, err := GetTestDataFile("postgres_seed.sql")
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	ctr, err := tcpsql.Run(
		ctx,
		"postgres:16-alpine",
		tcpsql.BasicWaitStrategies(),
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ProviderType: GetContainerProvider(),
		}),
		tcpsql.WithInitScripts(seedFile.Name()),
		tcpsql.WithDatabase("dev"),
		tcpsql.WithUsername("postgres"),
		tcpsql.WithPassword("postgres"),
	)
	if err != nil {
		return nil, err
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, err
	}

	return &PostgresContainer{
		PostgresContainer: ctr,
		Config: core.ConnectionConfig{
			Dialect:  core.DialectPostgreSQL,
			Database: "dev",
			User:     "postgres",
			Password: "postgres",
			Host:     host,
			Port:     port.Port(),
			Options:  map[string]string{"sslmode": "disable"},
		},
	}, nil
}

//go:build integration

package adapters_test

import (
	"context"
	"log"
	"testing"

	tsuite "github.com/stretchr/testify/suite"
	tc "github.com/testcontainers/testcontainers-go"

	"github.com/dbask/dbask/adapters"
	"github.com/dbask/dbask/core"
	th "github.com/dbask/dbask/internal/testhelpers"
)

// sourceSuite runs the same checks against every seeded container.
type sourceSuite struct {
	tsuite.Suite
	ctx    context.Context
	ctr    tc.Container
	cfg    core.ConnectionConfig
	source *adapters.Source
}

func (suite *sourceSuite) TearDownSuite() {
	tc.CleanupContainer(suite.T(), suite.ctr)
}

func (suite *sourceSuite) TestShouldDescribeTable() {
	t := suite.T()

	schema, err := suite.source.DescribeTable(suite.ctx, th.SeedTable, suite.cfg)
	suite.Require().NoError(err)

	t.Log(schema)
	suite.Equal([]string{"user_id", "day", "kwh", "note"}, schema.Names())
}

func (suite *sourceSuite) TestShouldErrorMissingTable() {
	_, err := suite.source.DescribeTable(suite.ctx, "no_such_table", suite.cfg)
	suite.ErrorIs(err, core.ErrQueryExecution)
}

func (suite *sourceSuite) TestShouldErrorInvalidQuery() {
	_, err := suite.source.Execute(suite.ctx, "invalid sql", suite.cfg)
	suite.ErrorIs(err, core.ErrQueryExecution)
}

func (suite *sourceSuite) TestShouldReturnRows() {
	query := suite.cfg.Dialect.LimitRows(
		suite.cfg.Dialect.StatementBuilder().
			Select("SUM(kwh) AS total").
			From(th.SeedTable).
			Where("user_id = 'user_1'"),
		1,
	)
	sql, _, err := query.ToSql()
	suite.Require().NoError(err)

	result, err := suite.source.Execute(suite.ctx, sql, suite.cfg)
	suite.Require().NoError(err)
	// decimal sums come back as text and are turned into numbers
	suite.Equal(map[string]any{"total": float64(30)}, result.First())
}

func (suite *sourceSuite) TestShouldErrorWrongPassword() {
	cfg := suite.cfg
	cfg.Password = "wrong"

	_, err := suite.source.Execute(suite.ctx, "SELECT 1", cfg)
	suite.ErrorIs(err, core.ErrConnection)
}

// testify/suite can't handle parallel tests, see
// https://github.com/stretchr/testify/issues/934

type PostgresTestSuite struct{ sourceSuite }

func TestPostgresTestSuite(t *testing.T) {
	tsuite.Run(t, new(PostgresTestSuite))
}

func (suite *PostgresTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	ctr, err := th.NewPostgresContainer(suite.ctx)
	if err != nil {
		log.Fatal(err)
	}

	suite.ctr = ctr
	suite.cfg = ctr.Config
	suite.source = adapters.NewSource(nil)
}

type MySQLTestSuite struct{ sourceSuite }

func TestMySQLTestSuite(t *testing.T) {
	tsuite.Run(t, new(MySQLTestSuite))
}

func (suite *MySQLTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	ctr, err := th.NewMySQLContainer(suite.ctx)
	if err != nil {
		log.Fatal(err)
	}

	suite.ctr = ctr
	suite.cfg = ctr.Config
	suite.source = adapters.NewSource(nil)
}

type SQLServerTestSuite struct{ sourceSuite }

func TestSQLServerTestSuite(t *testing.T) {
	tsuite.Run(t, new(SQLServerTestSuite))
}

func (suite *SQLServerTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	ctr, err := th.NewSQLServerContainer(suite.ctx)
	if err != nil {
		log.Fatal(err)
	}

	suite.ctr = ctr
	suite.cfg = ctr.Config
	suite.source = adapters.NewSource(nil)
}

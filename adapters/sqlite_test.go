package adapters

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbask/dbask/core"
)

func newSQLiteFixture(t *testing.T) core.ConnectionConfig {
	t.Helper()
	return newSQLiteFixtureNamed(t, "energy.db")
}

func newSQLiteFixtureNamed(t *testing.T, name string) core.ConnectionConfig {
	t.Helper()
	r := require.New(t)

	path := filepath.Join(t.TempDir(), name)
	db, err := sql.Open("sqlite", sqliteDSN(core.ConnectionConfig{Database: path, Options: map[string]string{"mode": "rwc"}}))
	r.NoError(err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE daily (user_id TEXT, kwh INTEGER, day TEXT);
		INSERT INTO daily VALUES ('user_1', 10, '2024-01-01'), ('user_1', 20, '2024-01-02'), ('user_2', NULL, NULL);
	`)
	r.NoError(err)

	return core.ConnectionConfig{Dialect: core.DialectSQLite, Database: path}
}

func TestSQLite_Execute(t *testing.T) {
	r := require.New(t)
	cfg := newSQLiteFixture(t)
	source := NewSource(nil)

	result, err := source.Execute(context.Background(), "SELECT SUM(kwh) AS total FROM daily WHERE user_id = 'user_1'", cfg)
	r.NoError(err)
	r.Equal(core.Header{"total"}, result.Header())
	r.Equal(map[string]any{"total": int64(30)}, result.First())
}

func TestSQLite_DescribeTable(t *testing.T) {
	r := require.New(t)
	cfg := newSQLiteFixture(t)
	source := NewSource(nil)

	got, err := source.DescribeTable(context.Background(), "daily", cfg)
	r.NoError(err)
	r.Equal(core.Schema{
		{Name: "user_id", Type: "TEXT"},
		{Name: "kwh", Type: "INTEGER"},
		{Name: "day", Type: "TEXT"},
	}, got)

	_, err = source.DescribeTable(context.Background(), "missing", cfg)
	r.ErrorIs(err, core.ErrQueryExecution)
}

func TestSQLite_ReadOnly(t *testing.T) {
	cfg := newSQLiteFixture(t)

	_, err := NewSource(nil).Execute(context.Background(), "INSERT INTO daily VALUES ('user_3', 1, '2024-01-03')", cfg)
	require.ErrorIs(t, err, core.ErrQueryExecution)
}

func TestSQLite_MissingDatabase(t *testing.T) {
	cfg := core.ConnectionConfig{Dialect: core.DialectSQLite, Database: filepath.Join(t.TempDir(), "nope.db")}

	_, err := NewSource(nil).Execute(context.Background(), "SELECT 1", cfg)
	require.ErrorIs(t, err, core.ErrConnection)
}

func TestSQLite_SpecialCharactersInPath(t *testing.T) {
	for _, name := range []string{"energy#2024.db", "energy?v=2.db", "energy 50%.db", "energy%20.db"} {
		t.Run(name, func(t *testing.T) {
			r := require.New(t)
			cfg := newSQLiteFixtureNamed(t, name)

			schema, err := NewSource(nil).DescribeTable(context.Background(), "daily", cfg)
			r.NoError(err)
			r.Equal([]string{"user_id", "kwh", "day"}, schema.Names())

			_, err = os.Stat(cfg.Database)
			r.NoError(err, "the file is created under its literal name")
		})
	}
}

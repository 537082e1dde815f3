package adapters

import (
	"context"

	"github.com/dbask/dbask/core"
)

var _ core.Driver = (*sqliteDriver)(nil)

type sqliteDriver struct {
	sqlDriver
}

func (d *sqliteDriver) Columns(ctx context.Context, table string) (core.Schema, error) {
	// sqlite is single schema, a qualifier would only name the attached database
	_, name := splitQualified(table)

	b := core.DialectSQLite.StatementBuilder().
		Select("name AS column_name", "type AS data_type").
		From("pragma_table_info(?)").
		OrderBy("cid")

	query, _, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	return d.c.ColumnsFromQuery(ctx, query, name)
}

package adapters

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/dbask/dbask/core"
)

var _ core.Driver = (*sqlServerDriver)(nil)

type sqlServerDriver struct {
	sqlDriver
}

func (d *sqlServerDriver) Columns(ctx context.Context, table string) (core.Schema, error) {
	schema, name := splitQualified(table)

	b := core.DialectMSSQL.StatementBuilder().
		Select("column_name", "data_type").
		From("information_schema.columns").
		Where(sq.Eq{"table_name": name})

	if schema != "" {
		b = b.Where(sq.Eq{"table_schema": schema})
	} else {
		b = b.Where("table_schema = SCHEMA_NAME()")
	}

	return d.columnsFrom(ctx, b.OrderBy("ordinal_position"))
}

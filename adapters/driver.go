package adapters

import (
	"context"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/dbask/dbask/core"
	"github.com/dbask/dbask/core/builders"
)

// sqlDriver holds what every database/sql backed driver shares. Specific
// drivers embed it and add their catalog lookup.
type sqlDriver struct {
	c *builders.Client
}

func (d *sqlDriver) Ping(ctx context.Context) error {
	return d.c.Ping(ctx)
}

func (d *sqlDriver) Query(ctx context.Context, query string, args ...any) (core.ResultStream, error) {
	rows, err := d.c.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (d *sqlDriver) Close() { d.c.Close() }

// columnsFrom runs a catalog query that selects name and type pairs.
func (d *sqlDriver) columnsFrom(ctx context.Context, b sq.SelectBuilder) (core.Schema, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return d.c.ColumnsFromQuery(ctx, query, args...)
}

// splitQualified splits "schema.table" into its parts. The schema is empty for
// unqualified names.
func splitQualified(table string) (schema, name string) {
	i := strings.LastIndex(table, ".")
	if i < 0 {
		return "", table
	}
	return table[:i], table[i+1:]
}

// numericProcessor turns textual decimals, as most drivers return them, into numbers.
func numericProcessor(a any) any {
	b, ok := a.([]byte)
	if !ok {
		return a
	}
	s := string(b)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

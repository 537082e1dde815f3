// Package profiler reads the shape of a table: its columns and two sample rows
// picked by how many of their values are NULL.
package profiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dbask/dbask/core"
)

// ErrNoColumns is returned when the Source describes a table with an empty
// schema. adapters.Source never does: an empty catalog lookup is reported there
// as core.ErrQueryExecution, since a missing table looks the same.
var ErrNoColumns = errors.New("table has no columns")

// SampleRowSet holds the illustrative rows of a table. Either map is empty
// when the table has no rows.
type SampleRowSet struct {
	FewestNull map[string]any `json:"fewest_null"`
	MostNull   map[string]any `json:"most_null"`
}

// Extreme selects which end of the null count ordering a sample query returns.
type Extreme int

const (
	FewestNull Extreme = iota
	MostNull
)

func (e Extreme) String() string {
	if e == MostNull {
		return "most_null"
	}
	return "fewest_null"
}

// SampleQuery returns the query picking the row with the fewest (or most) NULL
// values. Both variants sort ascending: the most null row is found by counting
// the non NULL values instead.
func SampleQuery(dialect core.Dialect, table string, schema core.Schema, extreme Extreme) (string, error) {
	if len(schema) < 1 {
		return "", ErrNoColumns
	}

	isNull, notNull := 1, 0
	if extreme == MostNull {
		isNull, notNull = 0, 1
	}

	terms := make([]string, 0, len(schema))
	for _, col := range schema {
		terms = append(terms, fmt.Sprintf("CASE WHEN %s IS NULL THEN %d ELSE %d END",
			dialect.QuoteIdentifier(col.Name), isNull, notNull))
	}

	b := dialect.StatementBuilder().
		Select("*").
		From(dialect.QuoteIdentifier(table)).
		OrderBy("(" + strings.Join(terms, " + ") + ") ASC")

	query, _, err := dialect.LimitRows(b, 1).ToSql()
	if err != nil {
		return "", err
	}

	return query, nil
}

type Profiler struct {
	source core.Source
	log    *slog.Logger
}

type Option func(*Profiler)

func WithLogger(log *slog.Logger) Option {
	return func(p *Profiler) {
		p.log = log
	}
}

func New(source core.Source, opts ...Option) *Profiler {
	p := &Profiler{
		source: source,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Profile describes the table and fetches its two sample rows. Every query
// runs on its own connection.
func (p *Profiler) Profile(ctx context.Context, table string, cfg core.ConnectionConfig) (core.Schema, SampleRowSet, error) {
	schema, err := p.source.DescribeTable(ctx, table, cfg)
	if err != nil {
		return nil, SampleRowSet{}, fmt.Errorf("source.DescribeTable: %w", err)
	}
	if len(schema) < 1 {
		return nil, SampleRowSet{}, fmt.Errorf("%w: %q", ErrNoColumns, table)
	}

	fewest, err := p.sample(ctx, table, schema, cfg, FewestNull)
	if err != nil {
		return nil, SampleRowSet{}, err
	}
	most, err := p.sample(ctx, table, schema, cfg, MostNull)
	if err != nil {
		return nil, SampleRowSet{}, err
	}

	p.log.DebugContext(ctx, "profiled table",
		slog.String("table", table),
		slog.Int("columns", len(schema)),
	)

	return schema, SampleRowSet{FewestNull: fewest, MostNull: most}, nil
}

func (p *Profiler) sample(ctx context.Context, table string, schema core.Schema, cfg core.ConnectionConfig, extreme Extreme) (map[string]any, error) {
	query, err := SampleQuery(cfg.Dialect, table, schema, extreme)
	if err != nil {
		return nil, fmt.Errorf("profiler.SampleQuery: %w", err)
	}

	result, err := p.source.Execute(ctx, query, cfg)
	if err != nil {
		return nil, fmt.Errorf("source.Execute(%s): %w", extreme, err)
	}

	return result.First(), nil
}

package builders

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dbask/dbask/core"
)

// default sql client used by other specific implementations
type Client struct {
	db             *sql.DB
	typeProcessors map[string]func(any) any
}

func NewClient(db *sql.DB, opts ...ClientOption) *Client {
	config := clientConfig{
		typeProcessors: make(map[string]func(any) any),
	}
	for _, opt := range opts {
		opt(&config)
	}

	return &Client{
		db:             db,
		typeProcessors: config.typeProcessors,
	}
}

// Ping verifies the data source is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Conn(ctx context.Context) (*Conn, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	return &Conn{
		conn:           conn,
		typeProcessors: c.typeProcessors,
	}, nil
}

// Query checks out a dedicated connection, runs the query on it and hands the
// connection back when the returned stream is closed.
func (c *Client) Query(ctx context.Context, query string, args ...any) (*ResultStream, error) {
	con, err := c.Conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := con.Query(ctx, query, args...)
	if err != nil {
		_ = con.Close()
		return nil, err
	}

	rows.SetCallback(func() { _ = con.Close() })
	return rows, nil
}

// ColumnsFromQuery executes a given catalog query and converts the results to
// columns. A query should return a result that is at least 2 columns wide and
// have the following structure:
//
//	1st elem: name - string
//	2nd elem: type - string
func (c *Client) ColumnsFromQuery(ctx context.Context, query string, args ...any) (core.Schema, error) {
	result, err := c.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	return ColumnsFromResultStream(result)
}

func (c *Client) Close() {
	_ = c.db.Close()
}

// connection to use for execution
type Conn struct {
	conn           *sql.Conn
	typeProcessors map[string]func(any) any
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

func (c *Conn) getTypeProcessor(typ string) func(any) any {
	proc, ok := c.typeProcessors[strings.ToLower(typ)]
	if ok {
		return proc
	}

	return func(val any) any {
		valb, ok := val.([]byte)
		if ok {
			return string(valb)
		}
		return val
	}
}

// Query executes a query on a connection and returns a result stream.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*ResultStream, error) {
	dbRows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	header, err := dbRows.Columns()
	if err != nil {
		_ = dbRows.Close()
		return nil, err
	}

	dbCols, err := dbRows.ColumnTypes()
	if err != nil {
		_ = dbRows.Close()
		return nil, err
	}

	processors := make([]func(any) any, len(dbCols))
	for i := range dbCols {
		processors[i] = c.getTypeProcessor(dbCols[i].DatabaseTypeName())
	}

	// a single lookahead keeps HasNext idempotent
	var (
		advanced bool
		has      bool
	)
	hasNextFunc := func() bool {
		if !advanced {
			has = dbRows.Next()
			advanced = true
		}
		return has
	}

	nextFunc := func() (core.Row, error) {
		if !hasNextFunc() {
			if err := dbRows.Err(); err != nil {
				return nil, err
			}
			return nil, errNoNextRow
		}
		advanced = false

		columns := make([]any, len(dbCols))
		columnPointers := make([]any, len(dbCols))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}

		if err := dbRows.Scan(columnPointers...); err != nil {
			return nil, err
		}

		row := make(core.Row, len(dbCols))
		for i := range dbCols {
			row[i] = processors[i](columns[i])
		}

		return row, nil
	}

	rows := NewResultStreamBuilder().
		WithNextFunc(nextFunc, hasNextFunc).
		WithHeader(header).
		WithErrFunc(dbRows.Err).
		WithCloseFunc(func() {
			_ = dbRows.Close()
		}).
		Build()

	return rows, nil
}

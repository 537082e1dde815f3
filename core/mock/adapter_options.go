package mock

import (
	"context"

	"github.com/dbask/dbask/core"
)

type queryResult struct {
	header core.Header
	rows   []core.Row
}

type adapterConfig struct {
	querySideEffects map[string]func(context.Context) error
	queryResults     map[string]queryResult
	tableColumns     map[string]core.Schema
	connectErr       error
	pingErr          error
}

type AdapterOption func(*adapterConfig)

func AdapterWithQuerySideEffect(query string, sideEffect func(context.Context) error) AdapterOption {
	return func(c *adapterConfig) {
		_, ok := c.querySideEffects[query]
		if ok {
			panic("side effect already registered for query: " + query)
		}

		c.querySideEffects[query] = sideEffect
	}
}

// AdapterWithQueryResult returns the given header and rows for an exact query.
func AdapterWithQueryResult(query string, header core.Header, rows []core.Row) AdapterOption {
	return func(c *adapterConfig) {
		_, ok := c.queryResults[query]
		if ok {
			panic("result already registered for query: " + query)
		}

		c.queryResults[query] = queryResult{header: header, rows: rows}
	}
}

func AdapterWithTableDefinition(table string, columns core.Schema) AdapterOption {
	return func(c *adapterConfig) {
		_, ok := c.tableColumns[table]
		if ok {
			panic("columns already registered for table: " + table)
		}

		c.tableColumns[table] = columns
	}
}

// AdapterWithConnectError makes every Connect call fail.
func AdapterWithConnectError(err error) AdapterOption {
	return func(c *adapterConfig) {
		c.connectErr = err
	}
}

// AdapterWithPingError makes every driver fail to ping.
func AdapterWithPingError(err error) AdapterOption {
	return func(c *adapterConfig) {
		c.pingErr = err
	}
}

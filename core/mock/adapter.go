package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/dbask/dbask/core"
)

var _ core.Driver = (*driver)(nil)

type driver struct {
	adapter *Adapter
	closed  bool
}

func (d *driver) Ping(ctx context.Context) error {
	return d.adapter.config.pingErr
}

func (d *driver) Query(ctx context.Context, query string, args ...any) (core.ResultStream, error) {
	d.adapter.record(query)

	eff, ok := d.adapter.config.querySideEffects[query]
	if ok {
		err := eff(ctx)
		if err != nil {
			return nil, fmt.Errorf("side effect error: %w", err)
		}
	}

	if res, ok := d.adapter.config.queryResults[query]; ok {
		return NewResultStream(res.rows, ResultStreamWithHeader(res.header)), nil
	}

	return NewResultStream(d.adapter.data), nil
}

func (d *driver) Columns(ctx context.Context, table string) (core.Schema, error) {
	columns, ok := d.adapter.config.tableColumns[table]
	if !ok {
		return nil, fmt.Errorf("unknown table: %s", table)
	}

	return columns, nil
}

func (d *driver) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.adapter.mu.Lock()
	d.adapter.open--
	d.adapter.mu.Unlock()
}

var _ core.Adapter = (*Adapter)(nil)

// Adapter is an in-memory core.Adapter. Unless a result is registered for a
// query, every query returns the default data.
type Adapter struct {
	data   []core.Row
	config *adapterConfig

	mu       sync.Mutex
	queries  []string
	open     int
	maxOpen  int
	connects int
}

func NewAdapter(data []core.Row, opts ...AdapterOption) *Adapter {
	config := &adapterConfig{
		querySideEffects: make(map[string]func(context.Context) error),
		queryResults:     make(map[string]queryResult),
		tableColumns:     make(map[string]core.Schema),
	}
	for _, opt := range opts {
		opt(config)
	}

	return &Adapter{
		data:   data,
		config: config,
	}
}

func (a *Adapter) Connect(_ core.ConnectionConfig) (core.Driver, error) {
	if a.config.connectErr != nil {
		return nil, a.config.connectErr
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.connects++
	a.open++
	if a.open > a.maxOpen {
		a.maxOpen = a.open
	}

	return &driver{adapter: a}, nil
}

func (a *Adapter) record(query string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queries = append(a.queries, query)
}

// Queries returns all queries executed so far, in order.
func (a *Adapter) Queries() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.queries...)
}

// Connects returns the number of drivers handed out.
func (a *Adapter) Connects() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connects
}

// OpenDrivers returns the number of drivers not closed yet.
func (a *Adapter) OpenDrivers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open
}

// MaxOpenDrivers returns the highest number of simultaneously open drivers.
func (a *Adapter) MaxOpenDrivers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxOpen
}

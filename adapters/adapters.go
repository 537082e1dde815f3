package adapters

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dbask/dbask/core"
)

var errNoValidDialects = errors.New("no valid dialects provided")

// registeredAdapters holds implemented adapters - specific adapters register themselves in their init functions.
var registeredAdapters = make(map[core.Dialect]core.Adapter)

// register registers a new adapter for specific dialects
func register(adapter core.Adapter, dialects ...core.Dialect) error {
	if len(dialects) < 1 {
		return errNoValidDialects
	}

	invalidCount := 0
	for _, d := range dialects {
		if !d.Valid() {
			invalidCount++
			continue
		}
		registeredAdapters[d] = adapter
	}

	if invalidCount == len(dialects) {
		return errNoValidDialects
	}

	return nil
}

// Mux resolves the adapter of a dialect. The zero value serves the registered
// adapters; AddAdapter overrides them for this Mux only.
type Mux struct {
	mu        sync.RWMutex
	overrides map[core.Dialect]core.Adapter
}

func (m *Mux) GetAdapter(dialect core.Dialect) (core.Adapter, error) {
	m.mu.RLock()
	value, ok := m.overrides[dialect]
	m.mu.RUnlock()
	if ok {
		return value, nil
	}

	value, ok = registeredAdapters[dialect]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedDialect, dialect)
	}

	return value, nil
}

func (m *Mux) AddAdapter(dialect core.Dialect, adapter core.Adapter) error {
	if !dialect.Valid() {
		return fmt.Errorf("%w: %q", core.ErrUnsupportedDialect, dialect)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overrides == nil {
		m.overrides = make(map[core.Dialect]core.Adapter)
	}
	m.overrides[dialect] = adapter

	return nil
}

var _ core.Source = (*Source)(nil)

// Source runs queries through the adapter of the configured dialect. Each call
// opens its own driver and closes it before returning.
type Source struct {
	mux *Mux
}

// NewSource returns a Source backed by mux. A nil mux serves the registered adapters.
func NewSource(mux *Mux) *Source {
	if mux == nil {
		mux = new(Mux)
	}
	return &Source{mux: mux}
}

func (s *Source) connect(ctx context.Context, cfg core.ConnectionConfig) (core.Driver, error) {
	adapter, err := s.mux.GetAdapter(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	driver, err := adapter.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConnection, err)
	}

	if err := driver.Ping(ctx); err != nil {
		driver.Close()
		return nil, fmt.Errorf("%w: %w", core.ErrConnection, err)
	}

	return driver, nil
}

// Execute runs the query and returns the drained result.
func (s *Source) Execute(ctx context.Context, query string, cfg core.ConnectionConfig) (*core.Result, error) {
	driver, err := s.connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer driver.Close()

	rows, err := driver.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrQueryExecution, err)
	}

	result, err := core.Collect(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrQueryExecution, err)
	}

	return result, nil
}

// DescribeTable returns the columns of table in catalog order. A table without
// catalog entries is reported as a query execution error.
func (s *Source) DescribeTable(ctx context.Context, table string, cfg core.ConnectionConfig) (core.Schema, error) {
	driver, err := s.connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer driver.Close()

	columns, err := driver.Columns(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrQueryExecution, err)
	}

	if len(columns) < 1 {
		return nil, fmt.Errorf("%w: table %q does not exist or has no columns", core.ErrQueryExecution, table)
	}

	return columns, nil
}

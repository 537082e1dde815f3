package builders

import (
	"errors"
	"sync"

	"github.com/dbask/dbask/core"
)

var errNoNextRow = errors.New("no next row")

var _ core.ResultStream = (*ResultStream)(nil)

// ResultStream fills core.ResultStream interface for all sql dbs
type ResultStream struct {
	next     func() (core.Row, error)
	hasNext  func() bool
	err      func() error
	close    func()
	callback func()
	header   core.Header
	once     sync.Once
}

// SetCallback registers a function invoked exactly once when the stream closes.
func (r *ResultStream) SetCallback(callback func()) {
	r.callback = callback
}

func (r *ResultStream) Header() core.Header {
	return r.header
}

func (r *ResultStream) HasNext() bool {
	return r.hasNext()
}

func (r *ResultStream) Next() (core.Row, error) {
	rows, err := r.next()
	if err != nil || rows == nil {
		r.Close()
		return nil, err
	}
	return rows, nil
}

// Err reports an error that ended iteration early.
func (r *ResultStream) Err() error {
	return r.err()
}

func (r *ResultStream) Close() {
	r.once.Do(func() {
		r.close()
		if r.callback != nil {
			r.callback()
		}
	})
	r.hasNext = func() bool {
		return false
	}
}

// ResultStreamBuilder builds the rows
type ResultStreamBuilder struct {
	next    func() (core.Row, error)
	hasNext func() bool
	err     func() error
	header  core.Header
	close   func()
}

func NewResultStreamBuilder() *ResultStreamBuilder {
	return &ResultStreamBuilder{
		next:    func() (core.Row, error) { return nil, errNoNextRow },
		hasNext: func() bool { return false },
		err:     func() error { return nil },
		header:  core.Header{},
		close:   func() {},
	}
}

func (b *ResultStreamBuilder) WithNextFunc(fn func() (core.Row, error), has func() bool) *ResultStreamBuilder {
	b.next = fn
	b.hasNext = has
	return b
}

func (b *ResultStreamBuilder) WithHeader(header core.Header) *ResultStreamBuilder {
	b.header = header
	return b
}

func (b *ResultStreamBuilder) WithErrFunc(fn func() error) *ResultStreamBuilder {
	b.err = fn
	return b
}

func (b *ResultStreamBuilder) WithCloseFunc(fn func()) *ResultStreamBuilder {
	b.close = fn
	return b
}

func (b *ResultStreamBuilder) Build() *ResultStream {
	return &ResultStream{
		next:    b.next,
		hasNext: b.hasNext,
		err:     b.err,
		header:  b.header,
		close:   b.close,
	}
}

package core

import (
	"fmt"
)

var ErrInvalidRange = func(from, to int) error { return fmt.Errorf("invalid selection range: %d ... %d", from, to) }

// Result is the drained form of the ResultStream iterator
type Result struct {
	header Header
	rows   []Row
}

// NewResult returns a result holding the provided header and rows.
func NewResult(header Header, rows []Row) *Result {
	return &Result{header: header, rows: rows}
}

// Collect drains the stream into a new Result and closes the stream.
func Collect(iter ResultStream) (*Result, error) {
	r := new(Result)
	if err := r.SetIter(iter); err != nil {
		return nil, err
	}
	return r, nil
}

// SetIter drains the ResultStream iterator into the result, replacing any
// previous content. The iterator is closed on return.
func (cr *Result) SetIter(iter ResultStream) error {
	// close iterator on return
	defer iter.Close()

	cr.header = iter.Header()
	cr.rows = make([]Row, 0)

	for iter.HasNext() {
		row, err := iter.Next()
		if err != nil {
			cr.rows = nil
			return err
		}

		cr.rows = append(cr.rows, row)
	}

	// streams backed by a cursor report errors that ended iteration early
	if e, ok := iter.(interface{ Err() error }); ok {
		if err := e.Err(); err != nil {
			cr.rows = nil
			return err
		}
	}

	return nil
}

func (cr *Result) Format(formatter Formatter, from, to int) ([]byte, error) {
	rows, err := cr.Rows(from, to)
	if err != nil {
		return nil, fmt.Errorf("cr.Rows: %w", err)
	}

	f, err := formatter.Format(cr.header, rows)
	if err != nil {
		return nil, fmt.Errorf("formatter.Format: %w", err)
	}

	return f, nil
}

func (cr *Result) Len() int {
	return len(cr.rows)
}

func (cr *Result) Header() Header {
	return cr.header
}

// Rows returns the rows in [from, to). Negative indexes count from the end,
// so (0, -1) selects everything.
func (cr *Result) Rows(from, to int) ([]Row, error) {
	// validation
	if (from < 0 && to < 0) || (from >= 0 && to >= 0) {
		if from > to {
			return nil, ErrInvalidRange(from, to)
		}
	}
	// undefined -> error
	if from < 0 && to >= 0 {
		return nil, ErrInvalidRange(from, to)
	}

	// calculate range
	length := len(cr.rows)
	if from < 0 {
		from += length + 1
		if from < 0 {
			from = 0
		}
	}
	if to < 0 {
		to += length + 1
		if to < 0 {
			to = 0
		}
	}

	if from > length {
		from = length
	}
	if to > length {
		to = length
	}

	return cr.rows[from:to], nil
}

// Records returns every row as a column name to value map.
func (cr *Result) Records() []map[string]any {
	records := make([]map[string]any, 0, len(cr.rows))
	for _, row := range cr.rows {
		records = append(records, cr.record(row))
	}
	return records
}

// First returns the first row as a record, or an empty record when there are no rows.
func (cr *Result) First() map[string]any {
	if len(cr.rows) == 0 {
		return map[string]any{}
	}
	return cr.record(cr.rows[0])
}

func (cr *Result) record(row Row) map[string]any {
	record := make(map[string]any, len(row))
	for i, val := range row {
		var h string
		if i < len(cr.header) {
			h = cr.header[i]
		} else {
			h = fmt.Sprintf("<unknown-field-%d>", i)
		}
		record[h] = val
	}
	return record
}

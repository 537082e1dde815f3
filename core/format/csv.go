package format

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/dbask/dbask/core"
)

var _ core.Formatter = (*CSV)(nil)

// CSV writes the header followed by one record per row. NULL is an empty field.
type CSV struct{}

func NewCSV() *CSV {
	return &CSV{}
}

func csvField(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

func (cf *CSV) Format(header core.Header, rows []core.Row) ([]byte, error) {
	b := new(bytes.Buffer)
	w := csv.NewWriter(b)

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("w.Write: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, csvField(v))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("w.Write: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("w.Flush: %w", err)
	}

	return b.Bytes(), nil
}

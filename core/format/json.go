package format

import (
	"encoding/json"
	"fmt"

	"github.com/dbask/dbask/core"
)

var _ core.Formatter = (*JSON)(nil)

type JSON struct{}

func NewJSON() *JSON {
	return &JSON{}
}

func (jf *JSON) Format(header core.Header, rows []core.Row) ([]byte, error) {
	data := core.NewResult(header, rows).Records()

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.MarshalIndent: %w", err)
	}

	return out, nil
}

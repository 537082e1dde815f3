package format_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbask/dbask/core"
	"github.com/dbask/dbask/core/format"
)

var (
	testHeader = core.Header{"user_id", "kwh"}
	testRows   = []core.Row{{"user_1", int64(10)}, {"user_2", 5.5}}
)

func TestCSV_Format(t *testing.T) {
	out, err := format.NewCSV().Format(testHeader, testRows)
	require.NoError(t, err)
	assert.Equal(t, "user_id,kwh\nuser_1,10\nuser_2,5.5\n", string(out))

	out, err = format.NewCSV().Format(testHeader, []core.Row{{"user_3", nil}, {[]byte("user, 4"), 1}})
	require.NoError(t, err)
	assert.Equal(t, "user_id,kwh\nuser_3,\n\"user, 4\",1\n", string(out))
}

func TestJSON_Format(t *testing.T) {
	out, err := format.NewJSON().Format(testHeader, testRows)
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, []map[string]any{
		{"user_id": "user_1", "kwh": float64(10)},
		{"user_id": "user_2", "kwh": 5.5},
	}, got)
}

func TestTable_Format(t *testing.T) {
	out, err := format.NewTable().Format(testHeader, testRows)
	require.NoError(t, err)

	rendered := string(out)
	for _, want := range []string{"user_id", "kwh", "user_1", "10", "user_2", "5.5"} {
		assert.Contains(t, rendered, want)
	}
}

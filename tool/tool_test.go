package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbask/dbask/ask"
	"github.com/dbask/dbask/core"
)

type recordingAsker struct {
	params []ask.Params
	reply  string
	err    error
}

func (a *recordingAsker) Ask(_ context.Context, p ask.Params) (string, error) {
	a.params = append(a.params, p)
	return a.reply, a.err
}

var serverDefaults = core.ConnectionConfig{Dialect: core.DialectSQLite, Database: "energy.db"}

func connect(t *testing.T, asker Asker) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	t1, t2 := mcp.NewInMemoryTransports()

	serverSession, err := NewServer(asker, serverDefaults, "test").Connect(ctx, t1, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
		_ = serverSession.Close()
	})
	return session
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestTool_ListsDescription(t *testing.T) {
	r := require.New(t)
	session := connect(t, &recordingAsker{})

	res, err := session.ListTools(context.Background(), nil)
	r.NoError(err)
	r.Len(res.Tools, 1)
	r.Equal(Name, res.Tools[0].Name)

	for _, param := range []string{"question", "table_name", "column_description_json", "simplified_answer", "connection_config"} {
		r.Contains(res.Tools[0].Description, param)
	}
	r.Contains(res.Tools[0].Description, "exactly as the user asked")
}

func TestTool_ForwardsVerbatim(t *testing.T) {
	r := require.New(t)
	asker := &recordingAsker{reply: "30 kWh"}
	session := connect(t, asker)

	question := "  用户user_1的总用电量是多少？ "
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: Name,
		Arguments: map[string]any{
			"question":                question,
			"table_name":              "daily",
			"column_description_json": map[string]any{"kwh": "energy used"},
			"simplified_answer":       true,
		},
	})
	r.NoError(err)
	r.False(res.IsError)
	r.Equal("30 kWh", text(t, res))

	r.Len(asker.params, 1)
	got := asker.params[0]
	r.Equal(question, got.Question)
	r.Equal("daily", got.Table)
	r.True(got.Simplify)
	r.Equal(map[string]any{"kwh": "energy used"}, got.Glossary)
	r.Equal(serverDefaults, got.Connection)
}

func TestTool_Connection(t *testing.T) {
	r := require.New(t)
	asker := &recordingAsker{reply: "ok"}
	session := connect(t, asker)

	_, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: Name,
		Arguments: map[string]any{
			"question":   "How many rows?",
			"table_name": "daily",
			"connection_config": map[string]any{
				"dialect":  "postgres",
				"database": "energy",
				"host":     "db.internal",
				"options":  map[string]any{"sslmode": "disable"},
			},
		},
	})
	r.NoError(err)
	r.Equal(core.ConnectionConfig{
		Dialect:  core.DialectPostgreSQL,
		Database: "energy",
		Host:     "db.internal",
		Options:  map[string]string{"sslmode": "disable"},
	}, asker.params[0].Connection)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: Name,
		Arguments: map[string]any{
			"question":          "How many rows?",
			"table_name":        "daily",
			"connection_config": map[string]any{"dialect": "oracle"},
		},
	})
	r.NoError(err)
	r.True(res.IsError)
	r.Contains(text(t, res), "unsupported dialect")
	r.Len(asker.params, 1)
}

func TestTool_AskError(t *testing.T) {
	asker := &recordingAsker{err: errors.New("query execution failed: no such column")}
	session := connect(t, asker)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      Name,
		Arguments: map[string]any{"question": "q", "table_name": "daily"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: query execution failed: no such column", text(t, res))
}

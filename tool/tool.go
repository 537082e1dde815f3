// Package tool exposes the question pipeline as an MCP tool.
package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dbask/dbask/ask"
	"github.com/dbask/dbask/core"
)

const Name = "db_query_tool"

// Asker answers a single invocation.
type Asker interface {
	Ask(ctx context.Context, p ask.Params) (string, error)
}

type ConnectionInput struct {
	Dialect  string            `json:"dialect,omitempty" jsonschema:"one of SQLITE, POSTGRESQL, MYSQL, MSSQL; defaults to SQLITE"`
	Database string            `json:"database,omitempty" jsonschema:"database name or SQLite file path; defaults to database.db"`
	User     string            `json:"user,omitempty"`
	Password string            `json:"password,omitempty"`
	Host     string            `json:"host,omitempty"`
	Port     string            `json:"port,omitempty"`
	Options  map[string]string `json:"options,omitempty" jsonschema:"extra driver parameters such as sslmode"`
}

func (c *ConnectionInput) isZero() bool {
	return c == nil || (c.Dialect == "" && c.Database == "" && c.User == "" && c.Password == "" &&
		c.Host == "" && c.Port == "" && len(c.Options) == 0)
}

func (c *ConnectionInput) config() (core.ConnectionConfig, error) {
	dialect, err := core.ParseDialect(c.Dialect)
	if err != nil {
		return core.ConnectionConfig{}, err
	}
	return core.ConnectionConfig{
		Dialect:  dialect,
		Database: c.Database,
		User:     c.User,
		Password: c.Password,
		Host:     c.Host,
		Port:     c.Port,
		Options:  c.Options,
	}, nil
}

// Input is the argument object of the tool.
type Input struct {
	Question              string           `json:"question" jsonschema:"the user's question, passed through unchanged"`
	TableName             string           `json:"table_name" jsonschema:"the table to query"`
	ColumnDescriptionJSON any              `json:"column_description_json,omitempty" jsonschema:"column glossary as an object, inline JSON or a path to a .json/.yaml file"`
	SimplifiedAnswer      bool             `json:"simplified_answer,omitempty" jsonschema:"reply with the bare conclusion; defaults to false"`
	ConnectionConfig      *ConnectionInput `json:"connection_config,omitempty" jsonschema:"data source connection; defaults to the server connection"`
}

// Description is the tool description shown to the calling agent.
func Description() string {
	return `Answers a question about one database table. The tool writes a read-only SQL query, runs it and explains the result.

Parameters:
1. question (required): the user's question. Pass it exactly as the user asked it, do not rephrase, translate or shorten it.
2. table_name (required): the table to query.
3. column_description_json (optional, default none): descriptions of the columns, as an object, inline JSON, or a path to a .json, .yaml or .yml file.
4. simplified_answer (optional, default false): when true only the conclusion is returned, without the calculation.
5. connection_config (optional, default the server connection): dialect (SQLITE, POSTGRESQL, MYSQL or MSSQL, default SQLITE), database (default database.db), user, password, host, port and options.`
}

// Register adds the tool to server. Calls without a connection use defaults.
func Register(server *mcp.Server, asker Asker, defaults core.ConnectionConfig) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        Name,
		Description: Description(),
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in Input) (*mcp.CallToolResult, any, error) {
		return handle(ctx, asker, defaults, in)
	})
}

// NewServer returns an MCP server carrying only the query tool.
func NewServer(asker Asker, defaults core.ConnectionConfig, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "dbask", Version: version}, nil)
	Register(server, asker, defaults)
	return server
}

func handle(ctx context.Context, asker Asker, defaults core.ConnectionConfig, in Input) (*mcp.CallToolResult, any, error) {
	cfg := defaults
	if !in.ConnectionConfig.isZero() {
		var err error
		cfg, err = in.ConnectionConfig.config()
		if err != nil {
			return errorResult(err), nil, nil
		}
	}

	reply, err := asker.Ask(ctx, ask.Params{
		Question:   in.Question,
		Table:      in.TableName,
		Glossary:   in.ColumnDescriptionJSON,
		Simplify:   in.SimplifiedAnswer,
		Connection: cfg,
	})
	if err != nil {
		return errorResult(err), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: reply},
		},
	}, nil, nil
}

// errorResult reports a failure inside the tool result, not as a protocol error.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Error: %s", err)},
		},
		IsError: true,
	}
}

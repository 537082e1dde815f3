package synth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dbask/dbask/core"
	"github.com/dbask/dbask/glossary"
	"github.com/dbask/dbask/llm"
	"github.com/dbask/dbask/profiler"
)

const timestampLayout = "2006-01-02 15:04:05"

// orderedTypes marshals a schema as a column to type object in catalog order.
type orderedTypes core.Schema

func (o orderedTypes) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, c := range o {
		if i > 0 {
			b.WriteByte(',')
		}
		name, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		typ, err := json.Marshal(c.Type)
		if err != nil {
			return nil, err
		}
		b.Write(name)
		b.WriteByte(':')
		b.Write(typ)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

type promptInfo struct {
	ColumnGlossary map[string]string     `json:"column_glossary"`
	TableSchema    orderedTypes          `json:"table_schema"`
	SampleRows     profiler.SampleRowSet `json:"sample_rows"`
}

// knownGlossary drops descriptions of columns the table does not have.
func knownGlossary(descriptions map[string]string, schema core.Schema) map[string]string {
	return glossary.Glossary(descriptions).Filter(schema)
}

// InfoContext renders the grounding material of a request: the glossary, the
// column types and the sample rows, as JSON.
func InfoContext(in Input) (string, error) {
	info := promptInfo{
		ColumnGlossary: knownGlossary(in.Glossary, in.Schema),
		TableSchema:    orderedTypes(in.Schema),
		SampleRows:     in.Samples,
	}
	if info.SampleRows.FewestNull == nil {
		info.SampleRows.FewestNull = map[string]any{}
	}
	if info.SampleRows.MostNull == nil {
		info.SampleRows.MostNull = map[string]any{}
	}

	out, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}
	return string(out), nil
}

func buildPrompt(in Input, now time.Time) string {
	columns := strings.Join(in.Schema.Names(), ",")

	var b strings.Builder
	fmt.Fprintf(&b, "Database table = %s\n", in.Table)
	fmt.Fprintf(&b, "Based on the current time %s, turn the user's question = %s\n", now.Format(timestampLayout), in.Question)
	fmt.Fprintf(&b, "into %s SQL over the columns %s, using the column glossary, table schema and sample rows for reference.", in.Dialect, columns)
	return b.String()
}

func buildSystemPrompt(in Input) string {
	columns := strings.Join(in.Schema.Names(), ",")
	keyword := in.Dialect.RowLimit().Keyword()

	var b strings.Builder
	b.WriteString("Only produce a SQL query that reads data. Reply with the query and nothing else.\n")
	b.WriteString("---\n")
	b.WriteString("The query must follow this template:\n")
	if in.Dialect.RowLimit() == core.RowLimitPrefix {
		fmt.Fprintf(&b, "    SELECT [DISTINCT] [TOP <rows>] [COUNT|SUM] %s FROM %s\n", columns, in.Table)
	} else {
		fmt.Fprintf(&b, "    SELECT [DISTINCT] [COUNT|SUM] %s FROM %s\n", columns, in.Table)
	}
	b.WriteString("    [WHERE <condition 1> AND <condition 2> AND ... AND <condition n>]\n")
	b.WriteString("    [ORDER BY <sort column> <ASC|DESC>]\n")
	if in.Dialect.RowLimit() == core.RowLimitSuffix {
		b.WriteString("    [LIMIT <rows>]\n")
	}
	b.WriteString("---\n")
	fmt.Fprintf(&b, "Write the columns %s and the table %s exactly as given, never replace them.\n", columns, in.Table)
	b.WriteString("Parts in [] are optional, use them only when the question needs them.\n")
	b.WriteString("Conditions start with WHERE and are joined with AND, they narrow down the rows.\n")
	b.WriteString("Sort columns start with ORDER BY and end with ASC or DESC.\n")
	b.WriteString("---\n")
	b.WriteString("Rules:\n")
	b.WriteString("1. Never use GROUP BY, HAVING, JOIN, UNION, INSERT, UPDATE, DELETE or ALL.\n")
	b.WriteString("2. SUM may only be used on numeric columns and only when the question asks for a total.\n")
	b.WriteString("3. COUNT may only be used when the question asks how many rows there are.\n")
	fmt.Fprintf(&b, "4. %s may only be used when the question asks for the top results. %s queries use %s and nothing else to cap rows.\n", keyword, in.Dialect, keyword)
	b.WriteString("5. SELECT appears exactly once.\n")
	return b.String()
}

// Request builds the completion request asking for the query.
func Request(in Input, now time.Time) (llm.Request, error) {
	info, err := InfoContext(in)
	if err != nil {
		return llm.Request{}, err
	}

	return llm.Request{
		Prompt:       buildPrompt(in, now),
		SystemPrompt: buildSystemPrompt(in),
		Info:         info,
	}, nil
}

// stripMarkdownSQL removes a surrounding markdown code fence.
func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 && !strings.ContainsAny(trimmed[:nl], " \t") {
			// language tag such as ```sql
			trimmed = trimmed[nl+1:]
		}
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}

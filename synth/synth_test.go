package synth_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbask/dbask/core"
	"github.com/dbask/dbask/llm/mock"
	"github.com/dbask/dbask/profiler"
	"github.com/dbask/dbask/synth"
)

var fixedNow = time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)

func input(question string, dialect core.Dialect) synth.Input {
	return synth.Input{
		Question: question,
		Table:    "daily",
		Schema:   core.Schema{{Name: "user_id", Type: "TEXT"}, {Name: "kwh", Type: "INTEGER"}},
		Samples: profiler.SampleRowSet{
			FewestNull: map[string]any{"user_id": "user_1", "kwh": int64(10)},
			MostNull:   map[string]any{"user_id": "user_2", "kwh": nil},
		},
		Glossary: map[string]string{"kwh": "energy used that day", "USER_ID": "customer", "ghost": "not a column"},
		Dialect:  dialect,
	}
}

func TestSynthesize(t *testing.T) {
	r := require.New(t)

	gen := mock.NewGenerator("```sql\nSELECT SUM(kwh) FROM daily WHERE user_id = 'user_1';\n```")
	s := synth.New(gen, synth.WithClock(func() time.Time { return fixedNow }))

	got, err := s.Synthesize(context.Background(), input("What is the total kwh for user_1?", core.DialectSQLite))
	r.NoError(err)
	r.Equal("SELECT SUM(kwh) FROM daily WHERE user_id = 'user_1'", got.String())
	r.Equal(core.DialectSQLite, got.Dialect())

	reqs := gen.Requests()
	r.Len(reqs, 1)
	req := reqs[0]

	r.Contains(req.Prompt, "2024-05-02 08:30:00")
	r.Contains(req.Prompt, "What is the total kwh for user_1?")
	r.Contains(req.Prompt, "daily")
	r.Contains(req.Prompt, "user_id,kwh")
	r.Contains(req.Prompt, "SQLITE")

	r.Contains(req.SystemPrompt, "[LIMIT <rows>]")
	r.NotContains(req.SystemPrompt, "TOP <rows>")
	r.Contains(req.SystemPrompt, "GROUP BY, HAVING, JOIN, UNION, INSERT, UPDATE, DELETE or ALL")

	var info map[string]json.RawMessage
	r.NoError(json.Unmarshal([]byte(req.Info), &info))
	r.JSONEq(`{"kwh": "energy used that day", "user_id": "customer"}`, string(info["column_glossary"]))
	r.Equal(`{"user_id":"TEXT","kwh":"INTEGER"}`, string(info["table_schema"]))
	r.JSONEq(`{"fewest_null": {"user_id": "user_1", "kwh": 10}, "most_null": {"user_id": "user_2", "kwh": null}}`, string(info["sample_rows"]))
}

func TestSynthesize_MSSQLSystemPrompt(t *testing.T) {
	r := require.New(t)

	gen := mock.NewGenerator("SELECT TOP 3 kwh FROM daily ORDER BY kwh DESC")
	got, err := synth.New(gen).Synthesize(context.Background(), input("Which are the top 3 days?", core.DialectMSSQL))
	r.NoError(err)
	r.Equal("SELECT TOP 3 kwh FROM daily ORDER BY kwh DESC", got.String())

	system := gen.Requests()[0].SystemPrompt
	r.Contains(system, "[TOP <rows>]")
	r.NotContains(system, "LIMIT")
}

func TestSynthesize_Rejected(t *testing.T) {
	gen := mock.NewGenerator("SELECT user_id, SUM(kwh) FROM daily GROUP BY user_id")

	got, err := synth.New(gen).Synthesize(context.Background(), input("What is the total kwh per user?", core.DialectSQLite))
	require.ErrorIs(t, err, core.ErrInvalidSQL)
	assert.True(t, got.IsZero())

	var verr *synth.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, synth.RuleForbiddenKeyword, verr.Rule)

	// no regeneration
	assert.Len(t, gen.Requests(), 1)
}

func TestSynthesize_GenerationError(t *testing.T) {
	gen := mock.NewGenerator().ThenFail(errors.New("rate limited"))

	_, err := synth.New(gen).Synthesize(context.Background(), input("total?", core.DialectSQLite))
	require.ErrorIs(t, err, core.ErrGenerationService)
	assert.ErrorContains(t, err, "rate limited")
}

func TestSynthesize_UnsupportedDialect(t *testing.T) {
	gen := mock.NewGenerator("SELECT kwh FROM daily")

	_, err := synth.New(gen).Synthesize(context.Background(), input("kwh?", "ORACLE"))
	require.ErrorIs(t, err, core.ErrUnsupportedDialect)
	assert.Empty(t, gen.Requests())
}

// The aggregate and row cap constructs only survive validation when the
// question asks for them.
func TestSynthesize_IntentGating(t *testing.T) {
	testCases := []struct {
		question string
		sql      string
		wantOK   bool
	}{
		{"What is the total kwh for user_1?", "SELECT SUM(kwh) FROM daily WHERE user_id = 'user_1'", true},
		{"Show kwh for user_1", "SELECT SUM(kwh) FROM daily WHERE user_id = 'user_1'", false},
		{"How many rows does user_1 have?", "SELECT COUNT(*) FROM daily WHERE user_id = 'user_1'", true},
		{"Show rows of user_1", "SELECT COUNT(*) FROM daily WHERE user_id = 'user_1'", false},
		{"user_1 的用電量總和?", "SELECT SUM(kwh) FROM daily WHERE user_id = 'user_1'", true},
		{"user_1 有幾筆?", "SELECT COUNT(kwh) FROM daily WHERE user_id = 'user_1'", true},
		{"Show the highest 2 readings", "SELECT kwh FROM daily ORDER BY kwh DESC LIMIT 2", true},
		{"Show readings", "SELECT kwh FROM daily ORDER BY kwh DESC LIMIT 2", false},
	}

	for _, tc := range testCases {
		t.Run(tc.question, func(t *testing.T) {
			gen := mock.NewGenerator(tc.sql)
			_, err := synth.New(gen).Synthesize(context.Background(), input(tc.question, core.DialectSQLite))
			if tc.wantOK {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, core.ErrInvalidSQL)
		})
	}
}

package answer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbask/dbask/adapters"
	"github.com/dbask/dbask/answer"
	"github.com/dbask/dbask/core"
	coremock "github.com/dbask/dbask/core/mock"
	"github.com/dbask/dbask/llm/mock"
	"github.com/dbask/dbask/synth"
)

const totalQuery = "SELECT SUM(kwh) AS total FROM daily WHERE user_id = 'user_1'"

var schema = core.Schema{{Name: "user_id", Type: "TEXT"}, {Name: "kwh", Type: "INTEGER"}}

func validated(t *testing.T, sql string) synth.ValidatedSQL {
	t.Helper()
	v, err := synth.Validate(sql, synth.Policy{Table: "daily", Schema: schema, Dialect: core.DialectSQLite, Intent: synth.Intent{Sum: true}})
	require.NoError(t, err)
	return v
}

func source(t *testing.T, opts ...coremock.AdapterOption) (*adapters.Source, *coremock.Adapter) {
	t.Helper()
	opts = append(opts, coremock.AdapterWithQueryResult(totalQuery, core.Header{"total"}, []core.Row{{int64(30)}}))
	adapter := coremock.NewAdapter(nil, opts...)

	mux := new(adapters.Mux)
	require.NoError(t, mux.AddAdapter(core.DialectSQLite, adapter))
	return adapters.NewSource(mux), adapter
}

func input(t *testing.T, simplify bool) answer.Input {
	return answer.Input{
		Question:       "What is the total kwh for user_1?",
		Table:          "daily",
		SQL:            validated(t, totalQuery),
		SamplesContext: `{"sample_rows":{}}`,
		Config:         core.ConnectionConfig{}.WithDefaults(),
		Simplify:       simplify,
	}
}

func TestAnswer(t *testing.T) {
	r := require.New(t)

	src, adapter := source(t)
	gen := mock.NewGenerator("user_1 used 10 + 20 = 30 kWh in total.")

	res, err := answer.New(src, gen).Answer(context.Background(), input(t, false))
	r.NoError(err)

	r.Equal("user_1 used 10 + 20 = 30 kWh in total.", res.Answer)
	r.Empty(res.Conclusion)
	r.Equal(res.Answer, res.Text())
	r.Equal(1, res.Rows.Len())
	r.Equal([]string{totalQuery}, adapter.Queries())
	r.Zero(adapter.OpenDrivers())

	reqs := gen.Requests()
	r.Len(reqs, 1)
	r.Contains(reqs[0].Prompt, "daily")
	r.Contains(reqs[0].Prompt, "total")
	r.Contains(reqs[0].Prompt, "30")
	r.Contains(reqs[0].Prompt, "What is the total kwh for user_1?")
	r.Contains(reqs[0].SystemPrompt, "step by step")
	r.Equal(`{"sample_rows":{}}`, reqs[0].Info)
}

func TestAnswer_Simplify(t *testing.T) {
	r := require.New(t)

	src, _ := source(t)
	gen := mock.NewGenerator(
		"user_1 used 10 + 20 = 30 kWh in total.",
		"30 kWh",
	)

	res, err := answer.New(src, gen).Answer(context.Background(), input(t, true))
	r.NoError(err)
	r.Equal("30 kWh", res.Conclusion)
	r.False(res.Mismatch)
	r.Equal("30 kWh", res.Text())

	reqs := gen.Requests()
	r.Len(reqs, 2)
	r.Equal("user_1 used 10 + 20 = 30 kWh in total.", reqs[1].Info)
	r.Contains(reqs[1].SystemPrompt, "What is the total kwh for user_1?")
	r.Contains(reqs[1].SystemPrompt, "Do not change any numeric result.")
}

func TestAnswer_ConclusionMismatch(t *testing.T) {
	full := "user_1 used 10 + 20 = 30 kWh in total."

	t.Run("lenient falls back to the answer", func(t *testing.T) {
		r := require.New(t)
		src, _ := source(t)

		res, err := answer.New(src, mock.NewGenerator(full, "about 31 kWh")).
			Answer(context.Background(), input(t, true))
		r.NoError(err)
		r.True(res.Mismatch)
		r.Equal(full, res.Text())
	})

	t.Run("strict fails", func(t *testing.T) {
		src, _ := source(t)

		_, err := answer.New(src, mock.NewGenerator(full, "about 31 kWh"), answer.WithStrictConclusion(true)).
			Answer(context.Background(), input(t, true))
		assert.ErrorIs(t, err, answer.ErrConclusionMismatch)
	})
}

func TestAnswer_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("not validated", func(t *testing.T) {
		src, adapter := source(t)
		in := input(t, false)
		in.SQL = synth.ValidatedSQL{}

		_, err := answer.New(src, mock.NewGenerator()).Answer(context.Background(), in)
		assert.ErrorIs(t, err, core.ErrInvalidSQL)
		assert.Zero(t, adapter.Connects())
	})

	t.Run("query failure", func(t *testing.T) {
		src, _ := source(t, coremock.AdapterWithQuerySideEffect(totalQuery, func(context.Context) error { return boom }))
		gen := mock.NewGenerator()

		_, err := answer.New(src, gen).Answer(context.Background(), input(t, false))
		assert.ErrorIs(t, err, core.ErrQueryExecution)
		assert.Empty(t, gen.Requests())
	})

	t.Run("answer generation", func(t *testing.T) {
		src, _ := source(t)

		_, err := answer.New(src, mock.NewGenerator().ThenFail(boom)).Answer(context.Background(), input(t, false))
		assert.ErrorIs(t, err, core.ErrGenerationService)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("conclusion generation", func(t *testing.T) {
		src, _ := source(t)

		_, err := answer.New(src, mock.NewGenerator("30").ThenFail(boom)).Answer(context.Background(), input(t, true))
		assert.ErrorIs(t, err, core.ErrGenerationService)
	})
}

func TestCheckConclusion(t *testing.T) {
	tests := []struct {
		name       string
		answer     string
		conclusion string
		wantErr    bool
	}{
		{name: "same numbers", answer: "10 + 20 = 30", conclusion: "30"},
		{name: "formatting differs", answer: "total is 1200.50", conclusion: "1,200.5 in total"},
		{name: "no numbers at all", answer: "nobody", conclusion: "nobody"},
		{name: "new number", answer: "10 + 20 = 30", conclusion: "31", wantErr: true},
		{name: "numbers dropped", answer: "30 kWh", conclusion: "thirty kWh", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := answer.CheckConclusion(tt.answer, tt.conclusion)
			if tt.wantErr {
				assert.ErrorIs(t, err, answer.ErrConclusionMismatch)
				return
			}
			assert.NoError(t, err)
		})
	}
}

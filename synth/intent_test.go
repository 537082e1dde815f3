package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbask/dbask/core"
)

func TestDetectIntent(t *testing.T) {
	testCases := []struct {
		give string
		want Intent
	}{
		{give: "What is the total kwh for user_1?", want: Intent{Sum: true}},
		{give: "Sum up the usage of May", want: Intent{Sum: true}},
		{give: "How many readings does user_2 have?", want: Intent{Count: true}},
		{give: "Count the records of user_1", want: Intent{Count: true}},
		{give: "What is the number of users?", want: Intent{Count: true}},
		{give: "Which 3 days had the highest usage?", want: Intent{TopN: true}},
		{give: "Show the top 5 users", want: Intent{TopN: true}},
		{give: "What was the latest report time?", want: Intent{TopN: true}},
		{give: "Show kwh of user_1 on 2024-05-01", want: Intent{}},
		{give: "Is the stopwatch counted?", want: Intent{}},
		{give: "請問user_1在5月的用電量加總是多少?", want: Intent{Sum: true}},
		{give: "user_1 在 5/1 的總用電量是多少?", want: Intent{Sum: true}},
		{give: "user_1 的用電總量?", want: Intent{Sum: true}},
		{give: "user_1 的总量是多少", want: Intent{Sum: true}},
		{give: "user_1 的總金額", want: Intent{Sum: true}},
		{give: "What is the overall kwh for user_1?", want: Intent{Sum: true}},
		{give: "How much energy did user_1 use in all?", want: Intent{Sum: true}},
		{give: "user_1 在 5/1 的用電量是多少?", want: Intent{}},
		{give: "user_2有幾筆資料?", want: Intent{Count: true}},
		{give: "請問user_1在5/1用電量最多及最少的電器分別是誰?", want: Intent{TopN: true}},
		{give: "How many days did user_1 use the most power, and what was the total?", want: Intent{Sum: true, Count: true, TopN: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.give, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectIntent(tc.give))
		})
	}
}

func TestDetectIntent_AllowsSum(t *testing.T) {
	schema := core.Schema{{Name: "user_id", Type: "TEXT"}, {Name: "kwh", Type: "INTEGER"}}
	questions := []string{
		"user_1 在 5/1 的總用電量是多少?",
		"user_1 的用電總量?",
		"What is the overall kwh for user_1?",
	}

	for _, q := range questions {
		t.Run(q, func(t *testing.T) {
			_, err := Validate("SELECT SUM(kwh) FROM daily WHERE user_id = 'user_1'", Policy{
				Table:   "daily",
				Schema:  schema,
				Dialect: core.DialectSQLite,
				Intent:  DetectIntent(q),
			})
			require.NoError(t, err)
		})
	}
}

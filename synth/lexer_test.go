package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbask/dbask/core"
)

func TestLex(t *testing.T) {
	r := require.New(t)

	toks, err := lex(`SELECT "a b", kwh>=1.5 FROM t WHERE x <> 'it''s'`, core.DialectPostgreSQL)
	r.NoError(err)

	type tk struct {
		kind tokenKind
		text string
	}
	var got []tk
	for _, tok := range toks {
		got = append(got, tk{tok.kind, tok.text})
	}

	r.Equal([]tk{
		{tokWord, "SELECT"},
		{tokQuoted, "a b"},
		{tokSymbol, ","},
		{tokWord, "kwh"},
		{tokSymbol, ">="},
		{tokNumber, "1.5"},
		{tokWord, "FROM"},
		{tokWord, "t"},
		{tokWord, "WHERE"},
		{tokWord, "x"},
		{tokSymbol, "<>"},
		{tokString, "it's"},
		{tokEOF, ""},
	}, got)
}

func TestLex_Errors(t *testing.T) {
	testCases := []struct {
		dialect core.Dialect
		give    string
	}{
		{core.DialectSQLite, "SELECT 1 -- c"},
		{core.DialectSQLite, "SELECT /* c */ 1"},
		{core.DialectMySQL, "SELECT 1 # c"},
		{core.DialectSQLite, "SELECT 'open"},
		{core.DialectSQLite, `SELECT ""`},
		{core.DialectPostgreSQL, "SELECT `a`"},
		{core.DialectSQLite, "SELECT a || b"},
		{core.DialectMSSQL, "SELECT @v"},
	}

	for _, tc := range testCases {
		_, err := lex(tc.give, tc.dialect)
		assert.Error(t, err, tc.give)
	}
}

func TestLex_UnicodeIdentifiers(t *testing.T) {
	toks, err := lex("SELECT 用電量 FROM 表", core.DialectSQLite)
	require.NoError(t, err)
	assert.Equal(t, "用電量", toks[1].text)
	assert.Equal(t, tokWord, toks[1].kind)
}

package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	r := require.New(t)
	t.Setenv("DBASK_TEST_PASSWORD", "s3cret")

	testCases := []struct {
		input    string
		expected string
	}{
		{"normal string", "normal string"},
		{"{{ env `DBASK_TEST_PASSWORD` }}", "s3cret"},
		{"pre-{{ env \"DBASK_TEST_PASSWORD\" }}", "pre-s3cret"},
		{"{{ exec `echo \"hello\nbuddy\" | grep buddy` }}", "buddy"},
	}

	for _, tc := range testCases {
		actual, err := Expand(tc.input)
		r.NoError(err)

		r.Equal(tc.expected, actual)
	}
}

func TestExpand_InvalidTemplate(t *testing.T) {
	_, err := Expand("{{ env ")
	require.Error(t, err)

	require.Equal(t, "{{ env ", expandOrDefault("{{ env "))
}

func TestConnectionConfig_Expand(t *testing.T) {
	r := require.New(t)
	t.Setenv("DBASK_TEST_HOST", "db.internal")

	cfg := ConnectionConfig{
		Dialect: DialectPostgreSQL,
		Host:    "{{ env `DBASK_TEST_HOST` }}",
		Options: map[string]string{"sslmode": "disable"},
	}

	got, err := cfg.Expand()
	r.NoError(err)
	r.Equal("db.internal", got.Host)
	r.Equal("disable", got.Options["sslmode"])

	// original is left untouched
	r.Equal("{{ env `DBASK_TEST_HOST` }}", cfg.Host)
}

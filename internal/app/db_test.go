package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDBURL(t *testing.T) {
	const base = "postgres://engine:pw@localhost:5432/competitions?sslmode=disable"

	tests := []struct {
		name    string
		in      string
		disable bool
		check   func(t *testing.T, got string)
	}{
		{"adds pooler flag", base, true, func(t *testing.T, got string) {
			require.Contains(t, got, "disable_prepared_binary_result=yes")
			require.Contains(t, got, "sslmode=disable")
		}},
		{"explicit value wins", base + "&disable_prepared_binary_result=no", true, func(t *testing.T, got string) {
			require.Equal(t, base+"&disable_prepared_binary_result=no", got)
		}},
		{"switch off", base, false, func(t *testing.T, got string) {
			require.Equal(t, base, got)
		}},
		{"unparseable url untouched", "postgres://%zz", true, func(t *testing.T, got string) {
			require.Equal(t, "postgres://%zz", got)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, normalizeDBURL(tt.in, tt.disable))
		})
	}
}

func TestDBNameFromURL(t *testing.T) {
	cases := map[string]string{
		"postgres://engine:pw@db:5432/competitions?sslmode=require": "competitions",
		"host=db user=engine dbname='competitions' sslmode=disable":  "competitions",
		"postgres://engine:pw@db:5432/":                             "",
		"":                                                          "",
	}
	for in, want := range cases {
		require.Equal(t, want, dbNameFromURL(in), in)
	}
}

func TestFormatDBQueryForTrace(t *testing.T) {
	got := formatDBQueryForTrace(" SELECT   payload\nFROM competitions \t WHERE id = $1 ")
	require.Equal(t, "SELECT payload FROM competitions WHERE id = $1", got)

	long := formatDBQueryForTrace("SELECT " + strings.Repeat("x", 2*maxTracedQueryLength))
	require.Len(t, long, maxTracedQueryLength+len("..."))
	require.True(t, strings.HasSuffix(long, "..."))
}

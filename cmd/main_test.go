package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	require.NoError(t, root.ExecuteContext(context.Background()))
	return out.String()
}

func TestSimulateThenHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sim.db")

	out := execute(t, "simulate", "--db", db, "--days", "2", "--day-seconds", "30", "--idle")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[0], "DAY"))
	assert.Contains(t, lines[1], "lost")
	assert.Contains(t, out, "day 1, total revenue 0")

	out = execute(t, "history", "--db", db)
	assert.Equal(t, 2, strings.Count(out, "lost"))
}

func TestHistoryRejectsLimitOutOfRange(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sim.db")
	for _, limit := range []string{"0", "5000"} {
		t.Run(limit, func(t *testing.T) {
			root := newRootCommand()
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetArgs([]string{"history", "--db", db, "--limit", limit})

			var err error
			assert.NotPanics(t, func() { err = root.ExecuteContext(context.Background()) })
			require.Error(t, err)
			assert.Contains(t, err.Error(), "--limit must be between 1 and 999")
		})
	}
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapdb/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generate(cli.NewRootCmd(), dir))

	index, err := os.ReadFile(filepath.Join(dir, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), generatedMarker)
	assert.Contains(t, string(index), "[`apply`](apply.md)")
	assert.Contains(t, string(index), "`--connection`")
	assert.Contains(t, string(index), "LEAPDB_CONNECTIONS__DEV__PASSWORD")

	apply, err := os.ReadFile(filepath.Join(dir, "apply.md"))
	require.NoError(t, err)
	assert.Contains(t, string(apply), "# apply")
	assert.Contains(t, string(apply), "`--dry-run`")
	assert.Contains(t, string(apply), "leapdb apply changes/0001_users.yaml --dry-run")

	for _, name := range []string{"plan", "edit", "history", "ping", "version", "completion"} {
		assert.FileExists(t, filepath.Join(dir, name+".md"))
	}
}

func TestDedent(t *testing.T) {
	assert.Equal(t, "a\n  b", dedent("    a\n      b\n"))
	assert.Equal(t, "a", dedent("a"))
}

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"todo-demo/internal/config"
	"todo-demo/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "demo", "token", "seed"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nTODO_DEMO_A=1\nTODO_DEMO_B=\"quoted value\"\n\nnot-a-pair\nTODO_DEMO_C=from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("TODO_DEMO_A", "")
	t.Setenv("TODO_DEMO_B", "")
	t.Setenv("TODO_DEMO_C", "from-env")
	loadEnvFile(path)

	assert.Equal(t, "1", os.Getenv("TODO_DEMO_A"))
	assert.Equal(t, "quoted value", os.Getenv("TODO_DEMO_B"))
	assert.Equal(t, "from-env", os.Getenv("TODO_DEMO_C"))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	loadEnvFile(filepath.Join(t.TempDir(), "nope"))
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.StoreLatency = 0
	cfg.StrictListRef = true
	be, err := openBackend(ctx, cfg)
	require.NoError(t, err)
	assert.NotNil(t, be.stats)
	assert.Empty(t, be.checks)

	_, err = be.ds.CreateItem(ctx, 1, "orphan", "P2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	cfg.StoreBackend = "sqlite"
	_, err = openBackend(ctx, cfg)
	assert.ErrorContains(t, err, "sqlite")
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.Options{})
	require.NoError(t, seedDemo(ctx, s))

	lists, err := s.Lists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "Groceries", lists[0].Title)

	items, err := s.Items(ctx, lists[0].ID)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, 5, s.Stats().Items)
}

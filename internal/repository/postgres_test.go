package repository

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"todo-demo/internal/database"
	"todo-demo/internal/models"
	"todo-demo/internal/store"
)

// newTestPostgres connects to TEST_DATABASE_URL and truncates both tables.
func newTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Open(url, 4)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, database.MigrateOrCreateSchema(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE lists, items RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return New(db)
}

func TestPostgres_Scenario(t *testing.T) {
	p := newTestPostgres(t)
	ctx := context.Background()

	l, err := p.CreateList(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, int64(1), l.ID)

	milk, err := p.CreateItem(ctx, l.ID, "Milk", models.PriorityP2)
	require.NoError(t, err)
	assert.False(t, milk.Completed)

	toggled, err := p.ToggleItem(ctx, milk.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	_, err = p.CreateItem(ctx, l.ID, "Eggs", models.PriorityP1)
	require.NoError(t, err)

	require.NoError(t, p.DeleteList(ctx, l.ID))
	require.NoError(t, p.DeleteList(ctx, l.ID))

	items, err := p.Items(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	lists, err := p.Lists(ctx)
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestPostgres_NotFound(t *testing.T) {
	p := newTestPostgres(t)
	ctx := context.Background()

	_, err := p.UpdateList(ctx, 999999, "x")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = p.ToggleItem(ctx, 999999)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = p.CreateItem(ctx, 999999, "orphan", models.PriorityP3)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, p.DeleteItem(ctx, 999999))
}

func TestPostgres_UpdateItemPatch(t *testing.T) {
	p := newTestPostgres(t)
	ctx := context.Background()

	l, err := p.CreateList(ctx, "Work")
	require.NoError(t, err)
	it, err := p.CreateItem(ctx, l.ID, "Report", models.PriorityP3)
	require.NoError(t, err)

	prio := models.PriorityP1
	got, err := p.UpdateItem(ctx, it.ID, models.ItemPatch{Priority: &prio})
	require.NoError(t, err)
	assert.Equal(t, "Report", got.Title)
	assert.Equal(t, models.PriorityP1, got.Priority)
}

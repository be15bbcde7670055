package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"todo-demo/internal/models"
)

func TestWithObservers_EmitsOnSuccessOnly(t *testing.T) {
	ctx := context.Background()
	var got []models.ChangeEvent
	ds := WithObservers(New(Options{}), func(_ context.Context, ev models.ChangeEvent) {
		got = append(got, ev)
	})

	l, err := ds.CreateList(ctx, "Groceries")
	require.NoError(t, err)
	it, err := ds.CreateItem(ctx, l.ID, "Milk", models.PriorityP2)
	require.NoError(t, err)
	_, err = ds.ToggleItem(ctx, it.ID)
	require.NoError(t, err)
	_, err = ds.ToggleItem(ctx, 999999)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = ds.Lists(ctx)
	require.NoError(t, err)
	require.NoError(t, ds.DeleteList(ctx, l.ID))

	require.Len(t, got, 4)
	assert.Equal(t, models.EventListCreated, got[0].Kind)
	assert.Equal(t, models.EventItemCreated, got[1].Kind)
	assert.Equal(t, l.ID, got[1].ListID)
	assert.Equal(t, models.EventItemToggled, got[2].Kind)
	assert.Equal(t, it.ID, got[2].EntityID)
	assert.Equal(t, models.EventListDeleted, got[3].Kind)
	for _, ev := range got {
		assert.NotEmpty(t, ev.ID)
	}
}

func TestWithObservers_NoObserversReturnsSameStore(t *testing.T) {
	s := New(Options{})
	assert.Same(t, s, WithObservers(s))
}

func TestWithLatency(t *testing.T) {
	inner := New(Options{})
	ds := WithLatency(inner, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ds.CreateList(ctx, "never")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, inner.Stats().Lists)

	assert.Same(t, inner, WithLatency(inner, 0))
}

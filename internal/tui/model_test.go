package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"todo-demo/internal/models"
	"todo-demo/internal/store"
)

// collect runs cmd and returns the store results it produces. Timer-driven
// commands (spinner, cursor blink) are abandoned after a short wait.
func collect(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(50 * time.Millisecond):
		return nil
	}
	switch msg := msg.(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(t, c)...)
		}
		return out
	case listsMsg, itemsMsg, opMsg, toggledMsg:
		return []tea.Msg{msg}
	}
	return nil
}

// settle feeds cmd's results back into m until no store call is left.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := collect(t, cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		next, c := m.Update(msg)
		m = next.(Model)
		queue = append(queue, collect(t, c)...)
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, cmd := m.Update(msg)
		m = settle(t, next.(Model), cmd)
	}
	return m
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func newTestModel(t *testing.T, s *store.MockStore) Model {
	t.Helper()
	m := New(context.Background(), s, s, Options{})
	return settle(t, m, m.Init())
}

func TestModel_LoadsListsAndItems(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.Options{})
	l, _ := s.CreateList(ctx, "Groceries")
	_, _ = s.CreateItem(ctx, l.ID, "Milk", models.PriorityP2)

	m := newTestModel(t, s)
	require.Len(t, m.lists, 1)
	require.Len(t, m.items, 1)
	assert.Equal(t, l.ID, m.itemsFor)
	assert.Equal(t, 0, m.pending)
	assert.Contains(t, m.View(), "Groceries")
	assert.Contains(t, m.View(), "Milk")
}

func TestModel_AddListAndItemThenToggle(t *testing.T) {
	s := store.New(store.Options{})
	m := newTestModel(t, s)

	m = press(t, m, "a")
	m = typeText(t, m, "Groceries")
	m = press(t, m, "enter")
	require.Len(t, m.lists, 1)
	assert.Equal(t, "create list", m.lastOp)

	m = press(t, m, "tab", "a")
	m = typeText(t, m, "Milk")
	m = press(t, m, "enter")
	require.Len(t, m.items, 1)
	assert.Equal(t, models.PriorityP2, m.items[0].Priority)

	m = press(t, m, " ")
	assert.True(t, m.items[0].Completed)
	assert.Equal(t, 1, s.Stats().Completed)

	m = press(t, m, "p")
	assert.Equal(t, models.PriorityP3, m.items[0].Priority)
	assert.Equal(t, 0, m.pending)
}

// toggleFails passes everything through except ToggleItem.
type toggleFails struct {
	store.DataStore
	err error
}

func (s toggleFails) ToggleItem(context.Context, int64) (models.Item, error) {
	return models.Item{}, s.err
}

func TestModel_FailedToggleReloadsItems(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.Options{})
	l, _ := s.CreateList(ctx, "Work")
	_, _ = s.CreateItem(ctx, l.ID, "Report", models.PriorityP1)

	m := New(ctx, toggleFails{DataStore: s, err: errors.New("store unavailable")}, s, Options{})
	m = settle(t, m, m.Init())
	m = press(t, m, "tab", " ")

	require.Len(t, m.items, 1)
	assert.False(t, m.items[0].Completed, "items are re-read from the store")
	assert.Equal(t, "store unavailable", m.lastErr)
	assert.Equal(t, 0, m.pending)
}

func TestModel_ToggleOfDeletedItem(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.Options{})
	l, _ := s.CreateList(ctx, "Work")
	it, _ := s.CreateItem(ctx, l.ID, "Report", models.PriorityP1)

	m := newTestModel(t, s)
	m = press(t, m, "tab")

	// another client removes the item behind the demo's back
	require.NoError(t, s.DeleteItem(ctx, it.ID))

	m = press(t, m, " ")
	assert.Empty(t, m.items)
	assert.Contains(t, m.lastErr, "not found")
}

func TestModel_ReloadOlderThanToggle(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.Options{})
	l, _ := s.CreateList(ctx, "Groceries")
	it, _ := s.CreateItem(ctx, l.ID, "Milk", models.PriorityP2)

	m := newTestModel(t, s)
	m = press(t, m, "tab")

	// requested before the toggle, delivered after its result
	stale := m.loadItems(l.ID)()
	m = press(t, m, " ")
	require.True(t, m.items[0].Completed)

	next, _ := m.Update(stale)
	m = next.(Model)
	require.Len(t, m.items, 1)
	assert.True(t, m.items[0].Completed)
	stored, err := s.Items(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, stored[0].Completed)

	// a reload requested after the toggle carries the store's state
	done := false
	_, err = s.UpdateItem(ctx, it.ID, models.ItemPatch{Completed: &done})
	require.NoError(t, err)
	next, _ = m.Update(m.loadItems(l.ID)())
	m = next.(Model)
	assert.False(t, m.items[0].Completed)
}

func TestModel_DeleteListCascades(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.Options{})
	l, _ := s.CreateList(ctx, "Groceries")
	_, _ = s.CreateItem(ctx, l.ID, "Milk", models.PriorityP2)

	m := newTestModel(t, s)
	m = press(t, m, "d")
	assert.Empty(t, m.lists)
	assert.Empty(t, m.items)
	assert.Equal(t, 0, s.Stats().Items)
}

func TestModel_BlankTitleRejected(t *testing.T) {
	s := store.New(store.Options{})
	m := newTestModel(t, s)

	m = press(t, m, "a")
	m = typeText(t, m, "   ")
	m = press(t, m, "enter")
	assert.Equal(t, modeAddList, m.mode)
	assert.NotEmpty(t, m.lastErr)
	assert.Equal(t, 0, s.Stats().Lists)

	m = press(t, m, "esc")
	assert.Equal(t, modeBrowse, m.mode)
}

func TestModel_StaleItemsDiscarded(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.Options{})
	a, _ := s.CreateList(ctx, "A")
	b, _ := s.CreateList(ctx, "B")
	_, _ = s.CreateItem(ctx, a.ID, "from A", models.PriorityP2)

	m := newTestModel(t, s)
	m = press(t, m, "down")
	require.Equal(t, b.ID, m.selectedListID())

	next, _ := m.Update(itemsMsg{listID: a.ID, items: []models.Item{{ID: 1, ListID: a.ID, Title: "from A"}}})
	m = next.(Model)
	assert.Empty(t, m.items)
}

func TestModel_CancelledScopeDropsResults(t *testing.T) {
	s := store.New(store.Options{Latency: time.Hour})
	scope, cancel := context.WithCancel(context.Background())
	m := New(scope, s, s, Options{})

	cmd := m.loadLists()
	cancel()
	msg := cmd()
	lm, ok := msg.(listsMsg)
	require.True(t, ok)
	assert.ErrorIs(t, lm.err, context.Canceled)

	next, _ := m.Update(msg)
	m = next.(Model)
	assert.Empty(t, m.lastErr)
}

func TestModel_ThemeAndDebug(t *testing.T) {
	s := store.New(store.Options{})
	m := newTestModel(t, s)
	assert.Equal(t, "classic", m.theme.Name)

	m = press(t, m, "t")
	assert.Equal(t, "neon", m.theme.Name)
	m = press(t, m, "t", "t")
	assert.Equal(t, "classic", m.theme.Name)

	assert.False(t, strings.Contains(m.View(), "Debug"))
	m = press(t, m, "D")
	assert.Contains(t, m.View(), "Debug")
	assert.Contains(t, m.View(), "store: 0 lists")
}

func TestThemeNamed(t *testing.T) {
	assert.Equal(t, "mono", ThemeNamed("MONO").Name)
	assert.Equal(t, "classic", ThemeNamed("unknown").Name)
	assert.Equal(t, "[x]", ThemeNamed("mono").Checked)
}

// Package tui is the interactive terminal demo over a DataStore: two panes
// (lists and the items of the selected list), themes and a debug panel.
//
// Every store call runs as a tea.Cmd bound to the model's scope context. The scope
// is cancelled when the program exits, which aborts calls still waiting out the
// simulated latency; results that arrive for a selection the user has already
// left are dropped by list id.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"todo-demo/internal/models"
	"todo-demo/internal/store"
)

// StatsSource is implemented by stores that can report counts to the debug panel.
type StatsSource interface {
	Stats() store.Stats
}

// Options tune the initial look.
type Options struct {
	Theme string
	Debug bool
}

type pane int

const (
	paneLists pane = iota
	paneItems
)

type mode int

const (
	modeBrowse mode = iota
	modeAddList
	modeAddItem
	modeEditList
	modeEditItem
)

// store results
type (
	listsMsg struct {
		lists []models.List
		err   error
	}
	itemsMsg struct {
		listID int64
		// toggles issued before the request
		epoch uint64
		items []models.Item
		err   error
	}
	opMsg struct {
		op          string
		err         error
		reloadLists bool
		reloadItems bool
	}
	toggledMsg struct {
		id   int64
		item models.Item
		err  error
	}
)

// Model is the Bubble Tea model of the demo.
type Model struct {
	scope context.Context
	ds    store.DataStore
	stats StatsSource

	keys  keyMap
	help  help.Model
	theme Theme
	debug bool

	lists      []models.List
	items      []models.Item
	itemsFor   int64
	listCursor int
	itemCursor int
	focus      pane
	mode       mode
	input      textinput.Model
	spin       spinner.Model

	// toggles counts toggle requests; toggledAt maps an item to the count at its last toggle
	toggles   uint64
	toggledAt map[int64]uint64

	pending int
	ops     int
	lastOp  string
	lastErr string
	width   int
}

// New builds the model. scope bounds every store call the model issues.
func New(scope context.Context, ds store.DataStore, stats StatsSource, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = models.MaxTitleLength

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		scope: scope,
		ds:    ds,
		stats: stats,
		keys:  defaultKeys(),
		help:  help.New(),
		theme: ThemeNamed(opts.Theme),
		debug: opts.Debug,
		input: ti,
		spin:  sp,
		width: 80,
		// Init issues the first Lists call
		pending: 1,
		ops:     1,
	}
}

// Init loads the lists and starts the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadLists())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case listsMsg:
		m.pending--
		if m.discard(msg.err) {
			return m, nil
		}
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.lists = msg.lists
		m.listCursor = clamp(m.listCursor, len(m.lists))
		return m.reloadItems()

	case itemsMsg:
		m.pending--
		if m.discard(msg.err) {
			return m, nil
		}
		if msg.listID != m.selectedListID() {
			// the user moved on while this was in flight
			return m, nil
		}
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.items = m.keepToggles(msg.items, msg.epoch)
		m.itemsFor = msg.listID
		m.itemCursor = clamp(m.itemCursor, len(m.items))
		return m, nil

	case opMsg:
		m.pending--
		if m.discard(msg.err) {
			return m, nil
		}
		m.lastOp = msg.op
		m.lastErr = ""
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		}
		var cmds []tea.Cmd
		if msg.reloadLists {
			m, cmds = m.track(cmds, m.loadLists())
		} else if msg.reloadItems {
			var cmd tea.Cmd
			m, cmd = m.reloadItems()
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case toggledMsg:
		m.pending--
		if m.discard(msg.err) {
			return m, nil
		}
		m.lastOp = "toggle item"
		m.lastErr = ""
		if msg.err != nil {
			// the store decides; a reload may already have replaced the optimistic flip
			m.lastErr = msg.err.Error()
			return m.reloadItems()
		}
		m.replaceLocal(msg.item)
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

// discard reports whether a result belongs to a torn-down scope.
func (m Model) discard(err error) bool {
	return m.scope.Err() != nil || errors.Is(err, context.Canceled)
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Switch):
		if m.focus == paneLists && m.selectedListID() != 0 {
			m.focus = paneItems
		} else {
			m.focus = paneLists
		}
		return m, nil

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		delta := 1
		if key.Matches(msg, m.keys.Up) {
			delta = -1
		}
		if m.focus == paneItems {
			m.itemCursor = clamp(m.itemCursor+delta, len(m.items))
			return m, nil
		}
		before := m.selectedListID()
		m.listCursor = clamp(m.listCursor+delta, len(m.lists))
		if m.selectedListID() == before {
			return m, nil
		}
		m.items = nil
		m.itemCursor = 0
		return m.reloadItems()

	case key.Matches(msg, m.keys.Add):
		if m.focus == paneItems && m.selectedListID() != 0 {
			return m.startInput(modeAddItem, "", "New item title...")
		}
		return m.startInput(modeAddList, "", "New list title...")

	case key.Matches(msg, m.keys.Edit):
		if m.focus == paneItems {
			if it, ok := m.selectedItem(); ok {
				return m.startInput(modeEditItem, it.Title, "Item title...")
			}
			return m, nil
		}
		if l, ok := m.selectedList(); ok {
			return m.startInput(modeEditList, l.Title, "List title...")
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.focus == paneItems {
			if it, ok := m.selectedItem(); ok {
				id := it.ID
				return m.issue(m.op("delete item", false, true, func(ctx context.Context, ds store.DataStore) error {
					return ds.DeleteItem(ctx, id)
				}))
			}
			return m, nil
		}
		if l, ok := m.selectedList(); ok {
			id := l.ID
			return m.issue(m.op("delete list", true, false, func(ctx context.Context, ds store.DataStore) error {
				return ds.DeleteList(ctx, id)
			}))
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		if m.focus != paneItems {
			return m, nil
		}
		it, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		m.flipLocal(it.ID)
		m.toggles++
		toggledAt := make(map[int64]uint64, len(m.toggledAt)+1)
		for k, v := range m.toggledAt {
			toggledAt[k] = v
		}
		toggledAt[it.ID] = m.toggles
		m.toggledAt = toggledAt
		scope, ds, id := m.scope, m.ds, it.ID
		return m.issue(func() tea.Msg {
			got, err := ds.ToggleItem(scope, id)
			return toggledMsg{id: id, item: got, err: err}
		})

	case key.Matches(msg, m.keys.Priority):
		if m.focus != paneItems {
			return m, nil
		}
		it, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		next := it.Priority.Next()
		id := it.ID
		return m.issue(m.op("set priority", false, true, func(ctx context.Context, ds store.DataStore) error {
			_, err := ds.UpdateItem(ctx, id, models.ItemPatch{Priority: &next})
			return err
		}))

	case key.Matches(msg, m.keys.Reload):
		return m.issue(m.loadLists())

	case key.Matches(msg, m.keys.Theme):
		m.theme = m.theme.Next()
		return m, nil

	case key.Matches(msg, m.keys.Debug):
		m.debug = !m.debug
		return m, nil
	}
	return m, nil
}

func (m Model) startInput(md mode, value, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = md
	m.lastErr = ""
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Placeholder = placeholder
	return m, m.input.Focus()
}

func (m Model) stopInput() Model {
	m.mode = modeBrowse
	m.input.SetValue("")
	m.input.Blur()
	return m
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m.stopInput(), nil

	case key.Matches(msg, m.keys.Submit):
		title, err := models.ValidateTitle(m.input.Value())
		if err != nil {
			m.lastErr = err.Error()
			return m, nil
		}
		md := m.mode
		m = m.stopInput()
		switch md {
		case modeAddList:
			return m.issue(m.op("create list", true, false, func(ctx context.Context, ds store.DataStore) error {
				_, err := ds.CreateList(ctx, title)
				return err
			}))
		case modeEditList:
			l, ok := m.selectedList()
			if !ok {
				return m, nil
			}
			id := l.ID
			return m.issue(m.op("rename list", true, false, func(ctx context.Context, ds store.DataStore) error {
				_, err := ds.UpdateList(ctx, id, title)
				return err
			}))
		case modeAddItem:
			listID := m.selectedListID()
			return m.issue(m.op("create item", false, true, func(ctx context.Context, ds store.DataStore) error {
				_, err := ds.CreateItem(ctx, listID, title, models.PriorityP2)
				return err
			}))
		case modeEditItem:
			it, ok := m.selectedItem()
			if !ok {
				return m, nil
			}
			id := it.ID
			return m.issue(m.op("rename item", false, true, func(ctx context.Context, ds store.DataStore) error {
				_, err := ds.UpdateItem(ctx, id, models.ItemPatch{Title: &title})
				return err
			}))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// issue counts cmd as a pending store call.
func (m Model) issue(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.pending++
	m.ops++
	return m, cmd
}

func (m Model) track(cmds []tea.Cmd, cmd tea.Cmd) (Model, []tea.Cmd) {
	m.pending++
	m.ops++
	return m, append(cmds, cmd)
}

func (m Model) op(name string, reloadLists, reloadItems bool, fn func(ctx context.Context, ds store.DataStore) error) tea.Cmd {
	scope, ds := m.scope, m.ds
	return func() tea.Msg {
		return opMsg{op: name, err: fn(scope, ds), reloadLists: reloadLists, reloadItems: reloadItems}
	}
}

func (m Model) loadLists() tea.Cmd {
	scope, ds := m.scope, m.ds
	return func() tea.Msg {
		lists, err := ds.Lists(scope)
		return listsMsg{lists: lists, err: err}
	}
}

func (m Model) loadItems(listID int64) tea.Cmd {
	scope, ds, epoch := m.scope, m.ds, m.toggles
	return func() tea.Msg {
		items, err := ds.Items(scope, listID)
		return itemsMsg{listID: listID, epoch: epoch, items: items, err: err}
	}
}

// keepToggles keeps the local completed flag of items toggled after the
// snapshot was requested. The local flag is either the optimistic flip or the
// toggle result, both newer than the snapshot.
func (m Model) keepToggles(items []models.Item, epoch uint64) []models.Item {
	local := make(map[int64]bool, len(m.items))
	for _, it := range m.items {
		local[it.ID] = it.Completed
	}
	for i := range items {
		if m.toggledAt[items[i].ID] <= epoch {
			continue
		}
		if done, ok := local[items[i].ID]; ok {
			items[i].Completed = done
		}
	}
	return items
}

// reloadItems fetches the items of the selected list, or clears them when no list is selected.
func (m Model) reloadItems() (Model, tea.Cmd) {
	id := m.selectedListID()
	if id == 0 {
		m.items = nil
		m.itemsFor = 0
		m.focus = paneLists
		return m, nil
	}
	m.pending++
	m.ops++
	return m, m.loadItems(id)
}

func (m Model) selectedList() (models.List, bool) {
	if m.listCursor < 0 || m.listCursor >= len(m.lists) {
		return models.List{}, false
	}
	return m.lists[m.listCursor], true
}

func (m Model) selectedListID() int64 {
	l, ok := m.selectedList()
	if !ok {
		return 0
	}
	return l.ID
}

func (m Model) selectedItem() (models.Item, bool) {
	if m.itemCursor < 0 || m.itemCursor >= len(m.items) {
		return models.Item{}, false
	}
	return m.items[m.itemCursor], true
}

// flipLocal toggles the local copy of an item. m.items shares its backing array
// with earlier model values, so it is copied before writing.
func (m *Model) flipLocal(id int64) {
	items := append([]models.Item(nil), m.items...)
	for i := range items {
		if items[i].ID == id {
			items[i].Completed = !items[i].Completed
		}
	}
	m.items = items
}

func (m *Model) replaceLocal(it models.Item) {
	items := append([]models.Item(nil), m.items...)
	for i := range items {
		if items[i].ID == it.ID {
			items[i] = it
		}
	}
	m.items = items
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// View implements tea.Model.
func (m Model) View() string {
	t := m.theme
	var b strings.Builder

	done, total := 0, len(m.items)
	for _, it := range m.items {
		if it.Completed {
			done++
		}
	}
	header := fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Accent.Render("Lists"), len(m.lists),
		t.Success.Render(t.Checked), done,
		t.Pending.Render("•"), total-done,
	)
	if m.pending > 0 {
		header += "  " + m.spin.View() + t.Muted.Render(" loading")
	}
	b.WriteString(header + "\n")

	listPane, itemPane := t.Pane, t.Pane
	if m.focus == paneLists {
		listPane = t.FocusedPane
	} else {
		itemPane = t.FocusedPane
	}
	half := m.width/2 - 4
	if half < 20 {
		half = 20
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		listPane.Width(half).Render(m.renderLists()),
		itemPane.Width(half).Render(m.renderItems()),
	))
	b.WriteString("\n")

	if m.mode != modeBrowse {
		b.WriteString(t.Accent.Render(m.inputTitle()) + "\n" + m.input.View() + "\n")
	}
	if m.lastErr != "" {
		b.WriteString(t.Error.Render("✖ "+m.lastErr) + "\n")
	}
	if m.debug {
		b.WriteString(m.renderDebug() + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) inputTitle() string {
	switch m.mode {
	case modeAddList:
		return "Add list"
	case modeAddItem:
		return "Add item"
	case modeEditList:
		return "Rename list"
	default:
		return "Rename item"
	}
}

func (m Model) renderLists() string {
	t := m.theme
	if len(m.lists) == 0 {
		return t.Muted.Render("No lists yet. Press a to add one.")
	}
	lines := make([]string, 0, len(m.lists))
	for i, l := range m.lists {
		line := l.Title
		if i == m.listCursor {
			line = t.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderItems() string {
	t := m.theme
	if m.selectedListID() == 0 {
		return t.Muted.Render("Select a list.")
	}
	if len(m.items) == 0 {
		return t.Muted.Render("No items. Tab here and press a.")
	}
	lines := make([]string, 0, len(m.items))
	for i, it := range m.items {
		box := t.Muted.Render(t.Unchecked)
		title := it.Title
		if it.Completed {
			box = t.Success.Render(t.Checked)
			title = t.Done.Render(title)
		}
		line := fmt.Sprintf("%s %s %s", box, t.PriorityStyle(it.Priority).Render(string(it.Priority)), title)
		prefix := "  "
		if m.focus == paneItems && i == m.itemCursor {
			prefix = t.Selected.Render(">") + " "
		}
		lines = append(lines, prefix+line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDebug() string {
	t := m.theme
	lines := []string{
		t.Title.Render("Debug"),
		fmt.Sprintf("theme: %s  pending: %d  issued: %d", t.Name, m.pending, m.ops),
		fmt.Sprintf("last op: %s", orDash(m.lastOp)),
		fmt.Sprintf("last error: %s", orDash(m.lastErr)),
	}
	if m.stats != nil {
		st := m.stats.Stats()
		lines = append(lines, fmt.Sprintf("store: %d lists, %d items (%d done), last ids %d/%d, %d ops",
			st.Lists, st.Items, st.Completed, st.LastListID, st.LastItemID, st.Operations))
	}
	return t.Pane.Render(strings.Join(lines, "\n"))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

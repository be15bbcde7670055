package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"todo-demo/internal/models"
	"todo-demo/pkg/logger"
)

// Options configures a MockStore.
type Options struct {
	// Latency is waited before every operation. Zero disables the delay.
	Latency time.Duration
	// StrictListRef makes CreateItem fail with NotFound when the list does not exist.
	StrictListRef bool
	// Now stamps CreatedAt. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the options used by the demo: 500ms latency, permissive list refs.
func DefaultOptions() Options {
	return Options{Latency: DefaultLatency}
}

// Stats is a point-in-time summary of a MockStore, shown by the debug surfaces.
type Stats struct {
	Lists      int   `json:"lists"`
	Items      int   `json:"items"`
	Completed  int   `json:"completed"`
	LastListID int64 `json:"last_list_id"`
	LastItemID int64 `json:"last_item_id"`
	Operations int64 `json:"operations"`
}

// MockStore keeps lists and items in memory, in insertion order. It is safe for
// concurrent use; mutations are serialised under one lock and applied only after
// the simulated latency has elapsed.
type MockStore struct {
	mu         sync.RWMutex
	lists      []models.List
	items      []models.Item
	lastListID int64
	lastItemID int64

	latency time.Duration
	strict  bool
	now     func() time.Time
	ops     atomic.Int64
}

var _ DataStore = (*MockStore)(nil)

// New creates an empty MockStore.
func New(opts Options) *MockStore {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &MockStore{
		lists:   make([]models.List, 0),
		items:   make([]models.Item, 0),
		latency: opts.Latency,
		strict:  opts.StrictListRef,
		now:     now,
	}
}

// begin waits out the simulated latency and counts the operation.
func (s *MockStore) begin(ctx context.Context, op string) (time.Time, error) {
	start := time.Now()
	if err := delay(ctx, s.latency); err != nil {
		logger.Debug(ctx, "Store operation cancelled", "op", op, "error", err)
		return start, err
	}
	s.ops.Add(1)
	return start, nil
}

func (s *MockStore) done(ctx context.Context, op string, start time.Time, args ...interface{}) {
	args = append(args, "op", op, "elapsed_ms", time.Since(start).Milliseconds())
	logger.Debug(ctx, "Store operation", args...)
}

// Lists returns a copy of every list in insertion order.
func (s *MockStore) Lists(ctx context.Context) ([]models.List, error) {
	start, err := s.begin(ctx, "lists")
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]models.List, len(s.lists))
	copy(out, s.lists)
	s.mu.RUnlock()
	s.done(ctx, "lists", start, "count", len(out))
	return out, nil
}

// CreateList appends a new list with the next list id.
func (s *MockStore) CreateList(ctx context.Context, title string) (models.List, error) {
	start, err := s.begin(ctx, "create_list")
	if err != nil {
		return models.List{}, err
	}
	s.mu.Lock()
	s.lastListID++
	l := models.List{ID: s.lastListID, Title: title, CreatedAt: s.now()}
	s.lists = append(s.lists, l)
	s.mu.Unlock()
	s.done(ctx, "create_list", start, "id", l.ID)
	return l, nil
}

// UpdateList replaces the list title.
func (s *MockStore) UpdateList(ctx context.Context, id int64, title string) (models.List, error) {
	start, err := s.begin(ctx, "update_list")
	if err != nil {
		return models.List{}, err
	}
	s.mu.Lock()
	i := s.listIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return models.List{}, &NotFoundError{Kind: KindList, ID: id}
	}
	s.lists[i].Title = title
	l := s.lists[i]
	s.mu.Unlock()
	s.done(ctx, "update_list", start, "id", id)
	return l, nil
}

// DeleteList removes the list and, in the same critical section, all of its items.
func (s *MockStore) DeleteList(ctx context.Context, id int64) error {
	start, err := s.begin(ctx, "delete_list")
	if err != nil {
		return err
	}
	s.mu.Lock()
	removed := 0
	if i := s.listIndex(id); i >= 0 {
		s.lists = append(s.lists[:i], s.lists[i+1:]...)
		kept := s.items[:0]
		for _, it := range s.items {
			if it.ListID == id {
				removed++
				continue
			}
			kept = append(kept, it)
		}
		// clear the tail so removed items are not retained by the backing array
		for j := len(kept); j < len(s.items); j++ {
			s.items[j] = models.Item{}
		}
		s.items = kept
	}
	s.mu.Unlock()
	s.done(ctx, "delete_list", start, "id", id, "cascaded", removed)
	return nil
}

// Items returns a copy of the items whose ListID matches, in insertion order.
func (s *MockStore) Items(ctx context.Context, listID int64) ([]models.Item, error) {
	start, err := s.begin(ctx, "items")
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]models.Item, 0)
	for _, it := range s.items {
		if it.ListID == listID {
			out = append(out, it)
		}
	}
	s.mu.RUnlock()
	s.done(ctx, "items", start, "list_id", listID, "count", len(out))
	return out, nil
}

// CreateItem appends a new, not completed item. The list is only checked to
// exist when the store was built with StrictListRef.
func (s *MockStore) CreateItem(ctx context.Context, listID int64, title string, priority models.Priority) (models.Item, error) {
	start, err := s.begin(ctx, "create_item")
	if err != nil {
		return models.Item{}, err
	}
	s.mu.Lock()
	if s.strict && s.listIndex(listID) < 0 {
		s.mu.Unlock()
		return models.Item{}, &NotFoundError{Kind: KindList, ID: listID}
	}
	s.lastItemID++
	it := models.Item{
		ID:        s.lastItemID,
		ListID:    listID,
		Title:     title,
		Priority:  priority,
		CreatedAt: s.now(),
	}
	s.items = append(s.items, it)
	s.mu.Unlock()
	s.done(ctx, "create_item", start, "id", it.ID, "list_id", listID)
	return it, nil
}

// UpdateItem merges patch into the item.
func (s *MockStore) UpdateItem(ctx context.Context, id int64, patch models.ItemPatch) (models.Item, error) {
	start, err := s.begin(ctx, "update_item")
	if err != nil {
		return models.Item{}, err
	}
	s.mu.Lock()
	i := s.itemIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Item{}, &NotFoundError{Kind: KindItem, ID: id}
	}
	patch.Apply(&s.items[i])
	it := s.items[i]
	s.mu.Unlock()
	s.done(ctx, "update_item", start, "id", id)
	return it, nil
}

// DeleteItem removes the item if present.
func (s *MockStore) DeleteItem(ctx context.Context, id int64) error {
	start, err := s.begin(ctx, "delete_item")
	if err != nil {
		return err
	}
	s.mu.Lock()
	if i := s.itemIndex(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	s.mu.Unlock()
	s.done(ctx, "delete_item", start, "id", id)
	return nil
}

// ToggleItem flips Completed.
func (s *MockStore) ToggleItem(ctx context.Context, id int64) (models.Item, error) {
	start, err := s.begin(ctx, "toggle_item")
	if err != nil {
		return models.Item{}, err
	}
	s.mu.Lock()
	i := s.itemIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Item{}, &NotFoundError{Kind: KindItem, ID: id}
	}
	s.items[i].Completed = !s.items[i].Completed
	it := s.items[i]
	s.mu.Unlock()
	s.done(ctx, "toggle_item", start, "id", id, "completed", it.Completed)
	return it, nil
}

// Stats reports counts without waiting for the simulated latency.
func (s *MockStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Lists:      len(s.lists),
		Items:      len(s.items),
		LastListID: s.lastListID,
		LastItemID: s.lastItemID,
		Operations: s.ops.Load(),
	}
	for _, it := range s.items {
		if it.Completed {
			st.Completed++
		}
	}
	return st
}

func (s *MockStore) listIndex(id int64) int {
	for i := range s.lists {
		if s.lists[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MockStore) itemIndex(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

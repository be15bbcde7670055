package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"todo-demo/internal/models"
)

// Observer is told about every successful mutation. It runs on the caller's goroutine
// after the mutation has been applied.
type Observer func(ctx context.Context, ev models.ChangeEvent)

// WithObservers wraps ds so that each successful mutation is reported to obs.
// Failed operations and reads report nothing.
func WithObservers(ds DataStore, obs ...Observer) DataStore {
	if len(obs) == 0 {
		return ds
	}
	return &observedStore{next: ds, obs: obs}
}

type observedStore struct {
	next DataStore
	obs  []Observer
}

func (s *observedStore) emit(ctx context.Context, kind models.EventKind, entityID, listID int64) {
	ev := models.ChangeEvent{
		ID:       uuid.New().String(),
		Kind:     kind,
		EntityID: entityID,
		ListID:   listID,
		At:       time.Now(),
	}
	for _, o := range s.obs {
		o(ctx, ev)
	}
}

func (s *observedStore) Lists(ctx context.Context) ([]models.List, error) {
	return s.next.Lists(ctx)
}

func (s *observedStore) CreateList(ctx context.Context, title string) (models.List, error) {
	l, err := s.next.CreateList(ctx, title)
	if err == nil {
		s.emit(ctx, models.EventListCreated, l.ID, l.ID)
	}
	return l, err
}

func (s *observedStore) UpdateList(ctx context.Context, id int64, title string) (models.List, error) {
	l, err := s.next.UpdateList(ctx, id, title)
	if err == nil {
		s.emit(ctx, models.EventListUpdated, l.ID, l.ID)
	}
	return l, err
}

func (s *observedStore) DeleteList(ctx context.Context, id int64) error {
	err := s.next.DeleteList(ctx, id)
	if err == nil {
		s.emit(ctx, models.EventListDeleted, id, id)
	}
	return err
}

func (s *observedStore) Items(ctx context.Context, listID int64) ([]models.Item, error) {
	return s.next.Items(ctx, listID)
}

func (s *observedStore) CreateItem(ctx context.Context, listID int64, title string, priority models.Priority) (models.Item, error) {
	it, err := s.next.CreateItem(ctx, listID, title, priority)
	if err == nil {
		s.emit(ctx, models.EventItemCreated, it.ID, it.ListID)
	}
	return it, err
}

func (s *observedStore) UpdateItem(ctx context.Context, id int64, patch models.ItemPatch) (models.Item, error) {
	it, err := s.next.UpdateItem(ctx, id, patch)
	if err == nil {
		s.emit(ctx, models.EventItemUpdated, it.ID, it.ListID)
	}
	return it, err
}

// DeleteItem reports with ListID 0 because the owning list is unknown once the item is gone.
func (s *observedStore) DeleteItem(ctx context.Context, id int64) error {
	err := s.next.DeleteItem(ctx, id)
	if err == nil {
		s.emit(ctx, models.EventItemDeleted, id, 0)
	}
	return err
}

func (s *observedStore) ToggleItem(ctx context.Context, id int64) (models.Item, error) {
	it, err := s.next.ToggleItem(ctx, id)
	if err == nil {
		s.emit(ctx, models.EventItemToggled, it.ID, it.ListID)
	}
	return it, err
}

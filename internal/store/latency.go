package store

import (
	"context"
	"time"

	"todo-demo/internal/models"
)

// DefaultLatency is the simulated round-trip time applied to every operation.
const DefaultLatency = 500 * time.Millisecond

// delay blocks for d or until ctx is done. It returns ctx.Err() when cancelled.
func delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WithLatency wraps ds so that every call first waits d. A call cancelled during
// the wait never reaches ds.
func WithLatency(ds DataStore, d time.Duration) DataStore {
	if d <= 0 {
		return ds
	}
	return &latencyStore{next: ds, d: d}
}

type latencyStore struct {
	next DataStore
	d    time.Duration
}

func (s *latencyStore) Lists(ctx context.Context) ([]models.List, error) {
	if err := delay(ctx, s.d); err != nil {
		return nil, err
	}
	return s.next.Lists(ctx)
}

func (s *latencyStore) CreateList(ctx context.Context, title string) (models.List, error) {
	if err := delay(ctx, s.d); err != nil {
		return models.List{}, err
	}
	return s.next.CreateList(ctx, title)
}

func (s *latencyStore) UpdateList(ctx context.Context, id int64, title string) (models.List, error) {
	if err := delay(ctx, s.d); err != nil {
		return models.List{}, err
	}
	return s.next.UpdateList(ctx, id, title)
}

func (s *latencyStore) DeleteList(ctx context.Context, id int64) error {
	if err := delay(ctx, s.d); err != nil {
		return err
	}
	return s.next.DeleteList(ctx, id)
}

func (s *latencyStore) Items(ctx context.Context, listID int64) ([]models.Item, error) {
	if err := delay(ctx, s.d); err != nil {
		return nil, err
	}
	return s.next.Items(ctx, listID)
}

func (s *latencyStore) CreateItem(ctx context.Context, listID int64, title string, priority models.Priority) (models.Item, error) {
	if err := delay(ctx, s.d); err != nil {
		return models.Item{}, err
	}
	return s.next.CreateItem(ctx, listID, title, priority)
}

func (s *latencyStore) UpdateItem(ctx context.Context, id int64, patch models.ItemPatch) (models.Item, error) {
	if err := delay(ctx, s.d); err != nil {
		return models.Item{}, err
	}
	return s.next.UpdateItem(ctx, id, patch)
}

func (s *latencyStore) DeleteItem(ctx context.Context, id int64) error {
	if err := delay(ctx, s.d); err != nil {
		return err
	}
	return s.next.DeleteItem(ctx, id)
}

func (s *latencyStore) ToggleItem(ctx context.Context, id int64) (models.Item, error) {
	if err := delay(ctx, s.d); err != nil {
		return models.Item{}, err
	}
	return s.next.ToggleItem(ctx, id)
}

// Package store holds the list/item data-access contract and its in-memory
// implementation with simulated network latency.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"todo-demo/internal/models"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("not found")

// DataStore is the asynchronous create/read/update/delete contract over lists and items.
// Every call may block for the backend's latency and honours ctx cancellation.
type DataStore interface {
	Lists(ctx context.Context) ([]models.List, error)
	CreateList(ctx context.Context, title string) (models.List, error)
	UpdateList(ctx context.Context, id int64, title string) (models.List, error)
	// DeleteList removes the list and every item in it. Deleting a missing list is a no-op.
	DeleteList(ctx context.Context, id int64) error

	Items(ctx context.Context, listID int64) ([]models.Item, error)
	CreateItem(ctx context.Context, listID int64, title string, priority models.Priority) (models.Item, error)
	UpdateItem(ctx context.Context, id int64, patch models.ItemPatch) (models.Item, error)
	// DeleteItem removes the item. Deleting a missing item is a no-op.
	DeleteItem(ctx context.Context, id int64) error
	ToggleItem(ctx context.Context, id int64) (models.Item, error)
}

// Entity kinds carried by NotFoundError.
const (
	KindList = "list"
	KindItem = "item"
)

// NotFoundError is returned when an id matches no list or item.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) true.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StatusCode returns the HTTP status code for this error.
func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *NotFoundError) Hint() string {
	if e.Kind == KindItem {
		return fmt.Sprintf("Item %d does not exist. List the items of its list to see valid ids.", e.ID)
	}
	return fmt.Sprintf("List %d does not exist. Use GET /lists to see valid ids.", e.ID)
}

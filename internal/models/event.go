package models

import "time"

// EventKind names a store mutation.
type EventKind string

const (
	EventListCreated EventKind = "list.created"
	EventListUpdated EventKind = "list.updated"
	EventListDeleted EventKind = "list.deleted"
	EventItemCreated EventKind = "item.created"
	EventItemUpdated EventKind = "item.updated"
	EventItemDeleted EventKind = "item.deleted"
	EventItemToggled EventKind = "item.toggled"
)

// ChangeEvent is emitted after every successful mutation and published to Kafka.
type ChangeEvent struct {
	ID       string    `json:"id"`
	Kind     EventKind `json:"kind"`
	EntityID int64     `json:"entity_id"`
	ListID   int64     `json:"list_id"`
	At       time.Time `json:"at"`
}

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority ranks an item. P1 is the highest.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// Priorities lists every priority from highest to lowest.
var Priorities = []Priority{PriorityP1, PriorityP2, PriorityP3}

// ParsePriority accepts "P1".."P3" in any case.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", s)}
	}
	return p, nil
}

// UnmarshalJSON accepts what ParsePriority accepts, so request bodies are case-insensitive.
func (p *Priority) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Valid reports whether p is one of Priorities.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank returns 1 for the highest priority, 3 for the lowest and 0 for an invalid value.
func (p Priority) Rank() int {
	for i, v := range Priorities {
		if v == p {
			return i + 1
		}
	}
	return 0
}

// Next cycles P1 -> P2 -> P3 -> P1.
func (p Priority) Next() Priority {
	r := p.Rank()
	if r == 0 {
		return PriorityP1
	}
	return Priorities[r%len(Priorities)]
}

// Item is a todo entry belonging to exactly one list.
type Item struct {
	ID        int64     `json:"id"`
	ListID    int64     `json:"list_id"`
	Title     string    `json:"title"`
	Priority  Priority  `json:"priority"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemPatch lists the item fields a partial update may change. Nil fields are left as they are.
type ItemPatch struct {
	Title     *string   `json:"title,omitempty"`
	Priority  *Priority `json:"priority,omitempty"`
	Completed *bool     `json:"completed,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Title == nil && p.Priority == nil && p.Completed == nil
}

// Validate normalizes the title and checks the priority.
func (p *ItemPatch) Validate() error {
	if p.Title != nil {
		t, err := ValidateTitle(*p.Title)
		if err != nil {
			return err
		}
		p.Title = &t
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", *p.Priority)}
	}
	return nil
}

// Apply merges the patch into it.
func (p ItemPatch) Apply(it *Item) {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Priority != nil {
		it.Priority = *p.Priority
	}
	if p.Completed != nil {
		it.Completed = *p.Completed
	}
}

package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength bounds list and item titles, in runes.
const MaxTitleLength = 200

// List is a named collection of items.
type List struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateTitle trims the title and checks it is non-empty and within MaxTitleLength.
func ValidateTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(t) > MaxTitleLength {
		return "", &ValidationError{Field: "title", Message: "too long"}
	}
	return t, nil
}

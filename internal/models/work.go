package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Work represents a single portfolio item.
// IsFavorite is relative to the user the list was fetched for.
type Work struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	IsFavorite  bool      `json:"is_favorite"`
	CreatedAt   Timestamp `json:"created_at"`
}

// NewWork holds the fields of a work to be created
type NewWork struct {
	UserID      int    `json:"user_id" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url" validate:"required"`
}

// WorkInput is the add-work form as submitted by a user
type WorkInput struct {
	Title       string
	Description string
	ImageURL    string // data URL of the uploaded image, empty when none was chosen
}

// timestampLayouts are tried in order when decoding created_at.
// The portfolio service emits naive ISO-8601 timestamps without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is a time.Time that accepts both RFC 3339 and zone-less ISO-8601 input.
// Zone-less values are interpreted as UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// MarshalJSON encodes the timestamp as RFC 3339, or null when zero
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON decodes any of the supported layouts; null and "" leave the zero value
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp: %q", raw)
}

package model

import "time"

// Document is the server's document record. Timestamps stay in the
// server's format; use Updated to parse.
type Document struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	OwnerID   int    `json:"owner_id,omitempty"`
	UserID    int    `json:"user_id,omitempty"`
}

// Owner returns the owning user's id under either field name the backend
// has used.
func (d Document) Owner() int {
	if d.OwnerID != 0 {
		return d.OwnerID
	}
	return d.UserID
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
}

// Updated parses UpdatedAt. Naive timestamps are read as UTC.
func (d Document) Updated() (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, d.UpdatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type CreateDocRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type SaveDocRequest struct {
	Content string `json:"content"`
}

type AssistRequest struct {
	CurrentText string `json:"current_text"`
	UserPrompt  string `json:"user_prompt"`
}

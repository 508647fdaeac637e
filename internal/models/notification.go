package models

import "time"

// Notification is a best-effort message delivered to a user's inbox.
// Dispatch failures never propagate to the business operation that
// produced them.
type Notification struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Type      string     `db:"type" json:"type"`
	Title     string     `db:"title" json:"title"`
	Message   string     `db:"message" json:"message"`
	ActionURL string     `db:"action_url" json:"action_url,omitempty"`
	IsRead    bool       `db:"is_read" json:"is_read"`
	ReadAt    *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// NotificationFilter constrains inbox queries.
type NotificationFilter struct {
	UserID string
	Unread *bool
	Limit  int
	Offset int
}

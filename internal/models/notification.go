package models

import "time"

// NotificationCategory tags the event that produced a notification.
type NotificationCategory string

const (
	NotificationSessionRequest   NotificationCategory = "session_request"
	NotificationSessionScheduled NotificationCategory = "session_scheduled"
	NotificationSessionApproved  NotificationCategory = "session_approved"
	NotificationSessionRejected  NotificationCategory = "session_rejected"
	NotificationSessionUpdated   NotificationCategory = "session_updated"
)

// Notification is an in-app message for a single recipient.
type Notification struct {
	ID          string               `db:"id" json:"id"`
	RecipientID string               `db:"recipient_id" json:"recipientId"`
	Title       string               `db:"title" json:"title"`
	Message     string               `db:"message" json:"message"`
	Category    NotificationCategory `db:"category" json:"category"`
	Link        *string              `db:"link" json:"link,omitempty"`
	IsRead      bool                 `db:"is_read" json:"isRead"`
	CreatedAt   time.Time            `db:"created_at" json:"createdAt"`
}

// NotificationPayload is the shared content of one fan-out batch.
type NotificationPayload struct {
	Title    string
	Message  string
	Category NotificationCategory
	Link     string
}

// NotificationFilter constrains a recipient's notification listing.
type NotificationFilter struct {
	RecipientID string
	UnreadOnly  bool
	Page        int
	PageSize    int
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// SessionStatus is the lifecycle state of a scheduled session.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusUpcoming  SessionStatus = "upcoming"
	SessionStatusOngoing   SessionStatus = "ongoing"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Valid reports whether the status is one of the known values.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusPending, SessionStatusUpcoming, SessionStatusOngoing, SessionStatusCompleted, SessionStatusCancelled:
		return true
	}
	return false
}

// Session is a concrete scheduled mentoring event.
type Session struct {
	ID                string         `db:"id" json:"id"`
	Title             string         `db:"title" json:"title"`
	Description       string         `db:"description" json:"description"`
	Date              time.Time      `db:"session_date" json:"date"`
	Time              string         `db:"session_time" json:"time"`
	Venue             string         `db:"venue" json:"venue"`
	HostID            string         `db:"host_id" json:"hostId"`
	Participants      pq.StringArray `db:"participants" json:"participants"`
	SessionRequestID  *string        `db:"session_request_id" json:"sessionRequestId,omitempty"`
	Status            SessionStatus  `db:"status" json:"status"`
	ManuallyCompleted bool           `db:"manually_completed" json:"manuallyCompleted"`
	TargetAudience    pq.StringArray `db:"target_audience" json:"targetAudience"`
	TargetDepartments pq.StringArray `db:"target_departments" json:"targetDepartments"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updatedAt"`
}

// Filter returns the session's eligibility filter with wildcard defaults.
func (s Session) Filter() AudienceFilter {
	return AudienceFilter{Audience: s.TargetAudience, Departments: s.TargetDepartments}.WithDefaults()
}

// SessionFilter constrains session listings.
type SessionFilter struct {
	HostID   string
	Status   SessionStatus
	Page     int
	PageSize int
}

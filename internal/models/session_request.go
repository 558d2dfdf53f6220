package models

import (
	"time"

	"github.com/lib/pq"
)

// SessionRequestStatus captures workflow states for session proposals.
type SessionRequestStatus string

const (
	SessionRequestPending  SessionRequestStatus = "pending"
	SessionRequestReviewed SessionRequestStatus = "reviewed"
	SessionRequestApproved SessionRequestStatus = "approved"
	SessionRequestRejected SessionRequestStatus = "rejected"
)

// Terminal reports whether no further forward transition is possible.
func (s SessionRequestStatus) Terminal() bool {
	return s == SessionRequestApproved || s == SessionRequestRejected
}

// Valid reports whether the status is one of the known values.
func (s SessionRequestStatus) Valid() bool {
	switch s {
	case SessionRequestPending, SessionRequestReviewed, SessionRequestApproved, SessionRequestRejected:
		return true
	}
	return false
}

// SessionRequest is a proposal awaiting administrative approval.
type SessionRequest struct {
	ID                string               `db:"id" json:"id"`
	RequestedBy       string               `db:"requested_by" json:"requestedBy"`
	RequesterRole     UserRole             `db:"requester_role" json:"requesterRole"`
	Title             string               `db:"title" json:"title"`
	Description       string               `db:"description" json:"description"`
	SessionType       string               `db:"session_type" json:"sessionType"`
	TargetAudience    pq.StringArray       `db:"target_audience" json:"targetAudience"`
	TargetDepartments pq.StringArray       `db:"target_departments" json:"targetDepartments"`
	PreferredDate     *time.Time           `db:"preferred_date" json:"preferredDate,omitempty"`
	PreferredTime     *string              `db:"preferred_time" json:"preferredTime,omitempty"`
	PreferredMode     *string              `db:"preferred_mode" json:"preferredMode,omitempty"`
	Status            SessionRequestStatus `db:"status" json:"status"`
	ReviewedBy        *string              `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt        *time.Time           `db:"reviewed_at" json:"reviewedAt,omitempty"`
	RejectionReason   *string              `db:"rejection_reason" json:"rejectionReason,omitempty"`
	CreatedAt         time.Time            `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time            `db:"updated_at" json:"updatedAt"`
}

// Filter returns the request's eligibility filter with wildcard defaults.
func (r SessionRequest) Filter() AudienceFilter {
	return AudienceFilter{Audience: r.TargetAudience, Departments: r.TargetDepartments}.WithDefaults()
}

// SessionRequestFilter constrains request listings.
type SessionRequestFilter struct {
	RequestedBy string
	Status      []SessionRequestStatus
	Page        int
	PageSize    int
}

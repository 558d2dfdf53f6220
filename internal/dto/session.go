package dto

import (
	"time"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

// SubmitSessionRequest is the proposer payload for POST /sessions.
type SubmitSessionRequest struct {
	Title             string   `json:"title" validate:"required,max=200"`
	Description       string   `json:"description" validate:"max=5000"`
	SessionType       string   `json:"sessionType" validate:"omitempty,max=50"`
	TargetAudience    []string `json:"targetAudience" validate:"omitempty,dive,required,max=20"`
	TargetDepartments []string `json:"targetDepartments" validate:"omitempty,dive,required,max=20"`
	PreferredDate     string   `json:"preferredDate" validate:"omitempty,ymd"`
	PreferredTime     string   `json:"preferredTime" validate:"omitempty,hhmm"`
	PreferredMode     string   `json:"preferredMode" validate:"omitempty,oneof=online offline hybrid"`
}

// CreateSessionRequest is the administrator payload for POST /sessions.
type CreateSessionRequest struct {
	Title             string   `json:"title" validate:"required,max=200"`
	Description       string   `json:"description" validate:"max=5000"`
	Venue             string   `json:"venue" validate:"required,max=200"`
	Date              string   `json:"date" validate:"required,ymd"`
	Time              string   `json:"time" validate:"required,hhmm"`
	HostID            string   `json:"hostId" validate:"omitempty,max=64"`
	Participants      []string `json:"participants" validate:"omitempty,dive,required"`
	TargetAudience    []string `json:"targetAudience" validate:"omitempty,dive,required,max=20"`
	TargetDepartments []string `json:"targetDepartments" validate:"omitempty,dive,required,max=20"`
}

// ApproveSessionRequest carries the concrete schedule fixed at approval time.
type ApproveSessionRequest struct {
	Venue        string   `json:"venue" validate:"required,max=200"`
	Date         string   `json:"date" validate:"required,ymd"`
	Time         string   `json:"time" validate:"required,hhmm"`
	Participants []string `json:"participants" validate:"omitempty,dive,required"`
}

// RejectSessionRequest carries an optional rejection reason.
type RejectSessionRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// UpdateSessionRequest is a partial edit of a scheduled session.
type UpdateSessionRequest struct {
	Title             *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Description       *string  `json:"description" validate:"omitempty,max=5000"`
	Venue             *string  `json:"venue" validate:"omitempty,min=1,max=200"`
	Date              *string  `json:"date" validate:"omitempty,ymd"`
	Time              *string  `json:"time" validate:"omitempty,hhmm"`
	TargetAudience    []string `json:"targetAudience" validate:"omitempty,dive,required,max=20"`
	TargetDepartments []string `json:"targetDepartments" validate:"omitempty,dive,required,max=20"`
}

// UpdateSessionStatusRequest is the administrator status override.
type UpdateSessionStatusRequest struct {
	Status models.SessionStatus `json:"status" validate:"required,oneof=pending upcoming ongoing completed cancelled"`
}

// SessionQuery mirrors listing parameters for sessions.
type SessionQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// SessionRequestQuery mirrors listing parameters for session requests.
type SessionRequestQuery struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// SessionResponse renders a session with its effective status.
type SessionResponse struct {
	ID                string               `json:"id"`
	Title             string               `json:"title"`
	Description       string               `json:"description"`
	Date              string               `json:"date"`
	Time              string               `json:"time"`
	Venue             string               `json:"venue"`
	HostID            string               `json:"hostId"`
	Participants      []string             `json:"participants"`
	SessionRequestID  *string              `json:"sessionRequestId,omitempty"`
	Status            models.SessionStatus `json:"status"`
	ManuallyCompleted bool                 `json:"manuallyCompleted"`
	TargetAudience    []string             `json:"targetAudience"`
	TargetDepartments []string             `json:"targetDepartments"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

// NewSessionResponse maps a session model. The status is taken as-is, so callers apply
// status derivation first.
func NewSessionResponse(s models.Session) SessionResponse {
	filter := s.Filter()
	participants := []string(s.Participants)
	if participants == nil {
		participants = []string{}
	}
	return SessionResponse{
		ID:                s.ID,
		Title:             s.Title,
		Description:       s.Description,
		Date:              s.Date.Format(DateLayout),
		Time:              s.Time,
		Venue:             s.Venue,
		HostID:            s.HostID,
		Participants:      participants,
		SessionRequestID:  s.SessionRequestID,
		Status:            s.Status,
		ManuallyCompleted: s.ManuallyCompleted,
		TargetAudience:    filter.Audience,
		TargetDepartments: filter.Departments,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// NewSessionResponses maps a list of sessions.
func NewSessionResponses(sessions []models.Session) []SessionResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, NewSessionResponse(s))
	}
	return out
}

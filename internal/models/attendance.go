package models

import "time"

const (
	MinFeedbackRating = 1
	MaxFeedbackRating = 5
)

// SessionAttendance is the single per-(session, student) record of intent and feedback.
type SessionAttendance struct {
	ID                string     `db:"id" json:"id"`
	SessionID         string     `db:"session_id" json:"sessionId"`
	StudentID         string     `db:"student_id" json:"studentId"`
	WillAttend        *bool      `db:"will_attend" json:"willAttend"`
	RespondedAt       *time.Time `db:"responded_at" json:"respondedAt,omitempty"`
	Feedback          *string    `db:"feedback" json:"feedback,omitempty"`
	Rating            *int       `db:"rating" json:"rating,omitempty"`
	FeedbackSubmitted bool       `db:"feedback_submitted" json:"feedbackSubmitted"`
	FeedbackAt        *time.Time `db:"feedback_at" json:"feedbackAt,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

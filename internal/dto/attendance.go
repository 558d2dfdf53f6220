package dto

import "github.com/noah-isme/alumni-connect-api/internal/models"

// AttendanceIntentRequest sets whether the student will attend.
type AttendanceIntentRequest struct {
	WillAttend *bool `json:"willAttend" validate:"required"`
}

// FeedbackRequest carries post-session feedback.
type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,max=5000"`
	Rating   *int   `json:"rating" validate:"omitempty,min=1,max=5"`
}

// AttendanceResponse wraps the caller's attendance record, which may be absent.
type AttendanceResponse struct {
	SessionID  string                    `json:"sessionId"`
	Attendance *models.SessionAttendance `json:"attendance"`
}

// AttendanceStats summarises a session's attendance against its eligible audience.
type AttendanceStats struct {
	SessionID     string               `json:"sessionId"`
	Status        models.SessionStatus `json:"status"`
	EligibleCount int                  `json:"eligibleCount"`
	ResponseCount int                  `json:"responseCount"`
	Attending     int                  `json:"attending"`
	NotAttending  int                  `json:"notAttending"`
	NoResponse    int                  `json:"noResponse"`
	ResponseRate  float64              `json:"responseRate"`
	FeedbackCount int                  `json:"feedbackCount"`
	FeedbackRate  float64              `json:"feedbackRate"`
	RatingCount   int                  `json:"ratingCount"`
	AverageRating *float64             `json:"averageRating"`
}

// AttendanceReportQuery selects the report format.
type AttendanceReportQuery struct {
	Format string `form:"format"`
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/internal/service"
	"github.com/noah-isme/alumni-connect-api/pkg/response"
)

type attendanceService interface {
	SetIntent(ctx context.Context, actor *models.JWTClaims, sessionID string, req dto.AttendanceIntentRequest) (*models.SessionAttendance, error)
	GetMine(ctx context.Context, actor *models.JWTClaims, sessionID string) (*dto.AttendanceResponse, error)
	SubmitFeedback(ctx context.Context, actor *models.JWTClaims, sessionID string, req dto.FeedbackRequest) (*models.SessionAttendance, error)
	Stats(ctx context.Context, sessionID string) (*dto.AttendanceStats, error)
	Report(ctx context.Context, sessionID string, query dto.AttendanceReportQuery) (*service.AttendanceReport, error)
}

// AttendanceHandler exposes attendance intent, feedback and reporting endpoints.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// SetIntent godoc
// @Summary Record attendance intent
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.AttendanceIntentRequest true "Intent"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sessions/{id}/attendance [post]
func (h *AttendanceHandler) SetIntent(c *gin.Context) {
	var req dto.AttendanceIntentRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	record, err := h.service.SetIntent(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// GetMine godoc
// @Summary Get own attendance record
// @Tags Attendance
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/attendance [get]
func (h *AttendanceHandler) GetMine(c *gin.Context) {
	record, err := h.service.GetMine(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// SubmitFeedback godoc
// @Summary Submit post-session feedback
// @Description Accepted only once the session has completed
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.FeedbackRequest true "Feedback"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/{id}/feedback [post]
func (h *AttendanceHandler) SubmitFeedback(c *gin.Context) {
	var req dto.FeedbackRequest
	if !bindJSON(c, &req, "invalid feedback payload") {
		return
	}
	record, err := h.service.SubmitFeedback(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// Stats godoc
// @Summary Attendance statistics
// @Tags Attendance
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/attendance-stats [get]
func (h *AttendanceHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// Report godoc
// @Summary Download attendance report
// @Tags Attendance
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Session ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /sessions/{id}/attendance-report [get]
func (h *AttendanceHandler) Report(c *gin.Context) {
	var query dto.AttendanceReportQuery
	if !bindQuery(c, &query) {
		return
	}
	report, err := h.service.Report(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, report.Filename, report.ContentType, report.Body)
}

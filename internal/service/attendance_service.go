package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	appErrors "github.com/noah-isme/alumni-connect-api/pkg/errors"
	"github.com/noah-isme/alumni-connect-api/pkg/export"
)

type attendanceStore interface {
	Get(ctx context.Context, sessionID, studentID string) (*models.SessionAttendance, error)
	UpsertIntent(ctx context.Context, sessionID, studentID string, willAttend bool, at time.Time) (*models.SessionAttendance, error)
	UpsertFeedback(ctx context.Context, sessionID, studentID, feedback string, rating *int, at time.Time) (*models.SessionAttendance, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.SessionAttendance, error)
}

type sessionReader interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
}

type cohortDirectory interface {
	ListStudentsByCohort(ctx context.Context, filter models.AudienceFilter) ([]models.StudentProfile, error)
}

// AttendanceReport is a rendered attendance export.
type AttendanceReport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// AttendanceService records attendance intent and feedback from eligible students and
// aggregates them for administrators.
type AttendanceService struct {
	store     attendanceStore
	sessions  sessionReader
	students  cohortDirectory
	status    statusApplier
	renderers export.Registry
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(store attendanceStore, sessions sessionReader, students cohortDirectory, status statusApplier, renderers export.Registry, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderers == nil {
		renderers = export.DefaultRegistry()
	}
	return &AttendanceService{
		store:     store,
		sessions:  sessions,
		students:  students,
		status:    status,
		renderers: renderers,
		validator: validate,
		logger:    logger,
	}
}

// SetIntent records whether the student will attend. Repeated calls overwrite the answer.
func (s *AttendanceService) SetIntent(ctx context.Context, actor *models.JWTClaims, sessionID string, req dto.AttendanceIntentRequest) (*models.SessionAttendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "willAttend is required")
	}
	session, err := s.eligibleSession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session has been cancelled")
	}

	record, err := s.store.UpsertIntent(ctx, session.ID, actor.UserID, *req.WillAttend, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return record, nil
}

// GetMine returns the caller's attendance record, which is nil before the first response.
func (s *AttendanceService) GetMine(ctx context.Context, actor *models.JWTClaims, sessionID string) (*dto.AttendanceResponse, error) {
	session, err := s.eligibleSession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	record, err := s.store.Get(ctx, session.ID, actor.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return &dto.AttendanceResponse{SessionID: session.ID, Attendance: record}, nil
}

// SubmitFeedback stores feedback once the session has effectively completed.
func (s *AttendanceService) SubmitFeedback(ctx context.Context, actor *models.JWTClaims, sessionID string, req dto.FeedbackRequest) (*models.SessionAttendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "feedback is required and rating must be between 1 and 5")
	}
	feedback := strings.TrimSpace(req.Feedback)
	if feedback == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "feedback is required")
	}
	if req.Rating != nil && (*req.Rating < models.MinFeedbackRating || *req.Rating > models.MaxFeedbackRating) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rating must be between 1 and 5")
	}
	session, err := s.eligibleSession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "feedback opens once the session has completed")
	}

	record, err := s.store.UpsertFeedback(ctx, session.ID, actor.UserID, feedback, req.Rating, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record feedback")
	}
	return record, nil
}

// Stats joins the eligible audience with the stored responses. Records of students who
// are no longer eligible are ignored.
func (s *AttendanceService) Stats(ctx context.Context, sessionID string) (*dto.AttendanceStats, error) {
	session, eligible, records, err := s.audience(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	stats := &dto.AttendanceStats{SessionID: session.ID, Status: session.Status, EligibleCount: len(eligible)}
	ratingSum := 0
	for _, student := range eligible {
		record, ok := records[student.ID]
		if !ok {
			continue
		}
		if record.WillAttend != nil {
			stats.ResponseCount++
			if *record.WillAttend {
				stats.Attending++
			} else {
				stats.NotAttending++
			}
		}
		if record.FeedbackSubmitted {
			stats.FeedbackCount++
			if record.Rating != nil {
				stats.RatingCount++
				ratingSum += *record.Rating
			}
		}
	}
	stats.NoResponse = stats.EligibleCount - stats.ResponseCount
	stats.ResponseRate = percentage(stats.ResponseCount, stats.EligibleCount)
	stats.FeedbackRate = percentage(stats.FeedbackCount, stats.EligibleCount)
	if stats.RatingCount > 0 {
		avg := round2(float64(ratingSum) / float64(stats.RatingCount))
		stats.AverageRating = &avg
	}
	return stats, nil
}

// Report renders one row per eligible student in the requested format.
func (s *AttendanceService) Report(ctx context.Context, sessionID string, query dto.AttendanceReportQuery) (*AttendanceReport, error) {
	format, err := export.ParseFormat(query.Format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	renderer, err := s.renderers.For(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format not available")
	}
	session, eligible, records, err := s.audience(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Title:    "Attendance: " + session.Title,
		Subtitle: fmt.Sprintf("%s %s, %s (%s)", session.Date.Format(dto.DateLayout), session.Time, session.Venue, session.Status),
		Headers:  []string{"Student", "Email", "Batch", "Department", "Attending", "Responded At", "Rating", "Feedback"},
		Rows:     make([]map[string]string, 0, len(eligible)),
	}
	for _, student := range eligible {
		row := map[string]string{
			"Student":    student.FullName,
			"Email":      student.Email,
			"Batch":      student.Batch,
			"Department": student.Department,
			"Attending":  "no response",
		}
		if record, ok := records[student.ID]; ok {
			if record.WillAttend != nil {
				row["Attending"] = yesNo(*record.WillAttend)
			}
			if record.RespondedAt != nil {
				row["Responded At"] = record.RespondedAt.UTC().Format(time.RFC3339)
			}
			if record.Rating != nil {
				row["Rating"] = strconv.Itoa(*record.Rating)
			}
			if record.Feedback != nil {
				row["Feedback"] = *record.Feedback
			}
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render attendance report")
	}
	s.logger.Info("attendance report rendered",
		zap.String("session_id", session.ID),
		zap.String("format", string(format)),
		zap.Int("rows", len(dataset.Rows)),
	)
	return &AttendanceReport{
		Filename:    fmt.Sprintf("attendance-%s.%s", session.ID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// eligibleSession loads the session with its effective status and applies the eligibility gate.
func (s *AttendanceService) eligibleSession(ctx context.Context, actor *models.JWTClaims, sessionID string) (*models.Session, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !IsEligible(actor.Cohort(), session.Filter()) {
		return nil, appErrors.ErrNotEligible
	}
	return session, nil
}

func (s *AttendanceService) loadSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	s.status.Apply(ctx, session)
	return session, nil
}

func (s *AttendanceService) audience(ctx context.Context, sessionID string) (*models.Session, []models.StudentProfile, map[string]models.SessionAttendance, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, err
	}
	filter := session.Filter()
	students, err := s.students.ListStudentsByCohort(ctx, filter)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve eligible students")
	}
	rows, err := s.store.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	records := make(map[string]models.SessionAttendance, len(rows))
	for _, row := range rows {
		records[row.StudentID] = row
	}
	return session, FilterEligible(students, filter), records, nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) * 100 / float64(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

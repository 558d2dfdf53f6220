package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

const attendanceColumns = `id, session_id, student_id, will_attend, responded_at, feedback, rating,
       feedback_submitted, feedback_at, created_at, updated_at`

// AttendanceRepository stores per-(session, student) intent and feedback. Writes are upserts
// on the (session_id, student_id) unique key so concurrent submissions converge on one row.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Get returns the student's record for a session.
func (r *AttendanceRepository) Get(ctx context.Context, sessionID, studentID string) (*models.SessionAttendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM session_attendance WHERE session_id = $1 AND student_id = $2`
	var record models.SessionAttendance
	if err := r.db.GetContext(ctx, &record, query, sessionID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return &record, nil
}

// UpsertIntent records whether the student will attend, overwriting a previous answer.
func (r *AttendanceRepository) UpsertIntent(ctx context.Context, sessionID, studentID string, willAttend bool, at time.Time) (*models.SessionAttendance, error) {
	query := `INSERT INTO session_attendance (id, session_id, student_id, will_attend, responded_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $5, $5)
	ON CONFLICT (session_id, student_id) DO UPDATE
	SET will_attend = EXCLUDED.will_attend, responded_at = EXCLUDED.responded_at, updated_at = EXCLUDED.updated_at
	RETURNING ` + attendanceColumns
	var record models.SessionAttendance
	if err := r.db.GetContext(ctx, &record, query, uuid.NewString(), sessionID, studentID, willAttend, at); err != nil {
		return nil, fmt.Errorf("upsert attendance intent: %w", err)
	}
	return &record, nil
}

// UpsertFeedback stores post-session feedback, overwriting a previous submission.
func (r *AttendanceRepository) UpsertFeedback(ctx context.Context, sessionID, studentID, feedback string, rating *int, at time.Time) (*models.SessionAttendance, error) {
	query := `INSERT INTO session_attendance (id, session_id, student_id, feedback, rating, feedback_submitted, feedback_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6, $6)
	ON CONFLICT (session_id, student_id) DO UPDATE
	SET feedback = EXCLUDED.feedback, rating = EXCLUDED.rating, feedback_submitted = TRUE,
	    feedback_at = EXCLUDED.feedback_at, updated_at = EXCLUDED.updated_at
	RETURNING ` + attendanceColumns
	var record models.SessionAttendance
	if err := r.db.GetContext(ctx, &record, query, uuid.NewString(), sessionID, studentID, feedback, rating, at); err != nil {
		return nil, fmt.Errorf("upsert attendance feedback: %w", err)
	}
	return &record, nil
}

// ListBySession returns every attendance record of a session.
func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID string) ([]models.SessionAttendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM session_attendance WHERE session_id = $1 ORDER BY created_at`
	var records []models.SessionAttendance
	if err := r.db.SelectContext(ctx, &records, query, sessionID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

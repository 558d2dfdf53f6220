package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/pkg/database"
)

const (
	sessionRequestColumns = `id, requested_by, requester_role, title, description, session_type, target_audience,
       target_departments, preferred_date, preferred_time, preferred_mode, status, reviewed_by, reviewed_at,
       rejection_reason, created_at, updated_at`
	sessionColumns = `id, title, description, session_date, session_time, venue, host_id, participants,
       session_request_id, status, manually_completed, target_audience, target_departments, created_at, updated_at`
)

// SessionRepository persists session requests and scheduled sessions. State transitions are
// conditional updates; a miss on the guard is reported as sql.ErrNoRows.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateRequest inserts a new pending session request.
func (r *SessionRepository) CreateRequest(ctx context.Context, req *models.SessionRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.SessionRequestPending
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	const query = `INSERT INTO session_requests
	(id, requested_by, requester_role, title, description, session_type, target_audience, target_departments,
	 preferred_date, preferred_time, preferred_mode, status, created_at, updated_at)
	VALUES (:id, :requested_by, :requester_role, :title, :description, :session_type, :target_audience, :target_departments,
	 :preferred_date, :preferred_time, :preferred_mode, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create session request: %w", err)
	}
	return nil
}

// GetRequest fetches a session request by identifier.
func (r *SessionRepository) GetRequest(ctx context.Context, id string) (*models.SessionRequest, error) {
	query := `SELECT ` + sessionRequestColumns + ` FROM session_requests WHERE id = $1`
	var req models.SessionRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get session request: %w", err)
	}
	return &req, nil
}

// ListRequests returns requests matching the filter, newest first, plus the total count.
func (r *SessionRepository) ListRequests(ctx context.Context, filter models.SessionRequestFilter) ([]models.SessionRequest, int, error) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if filter.RequestedBy != "" {
		args = append(args, filter.RequestedBy)
		conditions = append(conditions, fmt.Sprintf("requested_by = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s FROM session_requests%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		sessionRequestColumns, where, pageSize, (page-1)*pageSize)

	var requests []models.SessionRequest
	if err := r.db.SelectContext(ctx, &requests, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list session requests: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM session_requests"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count session requests: %w", err)
	}
	return requests, total, nil
}

// MarkRequestReviewed moves a pending request to reviewed.
func (r *SessionRepository) MarkRequestReviewed(ctx context.Context, id, reviewerID string, at time.Time) error {
	const query = `UPDATE session_requests SET status = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $4
	WHERE id = $1 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, id, models.SessionRequestReviewed, reviewerID, at, models.SessionRequestPending)
	if err != nil {
		return fmt.Errorf("review session request: %w", err)
	}
	return requireAffected(result, "review session request")
}

// ApproveParams groups the approval transition inputs.
type ApproveParams struct {
	RequestID  string
	ReviewerID string
	ReviewedAt time.Time
	Session    *models.Session
}

// ApproveRequest atomically flips an open request to approved and inserts its session.
// Nothing is written when the request is no longer pending or reviewed.
func (r *SessionRepository) ApproveRequest(ctx context.Context, params ApproveParams) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const approve = `UPDATE session_requests SET status = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $4
		WHERE id = $1 AND status IN ($5, $6)`
		result, err := tx.ExecContext(ctx, approve, params.RequestID, models.SessionRequestApproved, params.ReviewerID,
			params.ReviewedAt, models.SessionRequestPending, models.SessionRequestReviewed)
		if err != nil {
			return fmt.Errorf("approve session request: %w", err)
		}
		if err := requireAffected(result, "approve session request"); err != nil {
			return err
		}
		return insertSession(ctx, tx, params.Session)
	})
}

// RejectParams groups the rejection transition inputs.
type RejectParams struct {
	RequestID  string
	ReviewerID string
	ReviewedAt time.Time
	Reason     *string
}

// RejectRequest marks a request rejected and cancels any linked session that is not
// already cancelled. It returns the number of sessions cancelled.
func (r *SessionRepository) RejectRequest(ctx context.Context, params RejectParams) (int64, error) {
	var cancelled int64
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const reject = `UPDATE session_requests SET status = $2, reviewed_by = $3, reviewed_at = $4, rejection_reason = $5, updated_at = $4
		WHERE id = $1 AND status <> $2`
		result, err := tx.ExecContext(ctx, reject, params.RequestID, models.SessionRequestRejected, params.ReviewerID,
			params.ReviewedAt, params.Reason)
		if err != nil {
			return fmt.Errorf("reject session request: %w", err)
		}
		if err := requireAffected(result, "reject session request"); err != nil {
			return err
		}

		const cascade = `UPDATE sessions SET status = $2, updated_at = $3 WHERE session_request_id = $1 AND status <> $2`
		result, err = tx.ExecContext(ctx, cascade, params.RequestID, models.SessionStatusCancelled, params.ReviewedAt)
		if err != nil {
			return fmt.Errorf("cancel linked sessions: %w", err)
		}
		cancelled, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("check cancelled sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cancelled, nil
}

// CreateSession inserts a session without a backing request.
func (r *SessionRepository) CreateSession(ctx context.Context, session *models.Session) error {
	return insertSession(ctx, r.db, session)
}

// GetSession fetches a session by identifier.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

// ListSessions returns sessions ordered by date, optionally restricted to a host.
func (r *SessionRepository) ListSessions(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if filter.HostID != "" {
		args = append(args, filter.HostID)
		conditions = append(conditions, fmt.Sprintf("host_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	return r.listSessions(ctx, where, args, filter.Page, filter.PageSize)
}

// ListSessionsForCohort returns sessions whose target lists admit the cohort, using the
// same exact-match and wildcard rules as the eligibility evaluator.
func (r *SessionRepository) ListSessionsForCohort(ctx context.Context, cohort models.Cohort, page, pageSize int) ([]models.Session, int, error) {
	where := ` WHERE (cardinality(target_audience) = 0 OR $1 = ANY(target_audience) OR $2 = ANY(target_audience))
	AND (cardinality(target_departments) = 0 OR $3 = ANY(target_departments) OR $4 = ANY(target_departments))`
	args := []interface{}{models.AudienceAll, cohort.Batch, models.DepartmentAll, cohort.Department}
	return r.listSessions(ctx, where, args, page, pageSize)
}

func (r *SessionRepository) listSessions(ctx context.Context, where string, args []interface{}, page, pageSize int) ([]models.Session, int, error) {
	page, pageSize = normalizePage(page, pageSize)
	listQuery := fmt.Sprintf("SELECT %s FROM sessions%s ORDER BY session_date DESC, session_time DESC LIMIT %d OFFSET %d",
		sessionColumns, where, pageSize, (page-1)*pageSize)

	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM sessions"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}
	return sessions, total, nil
}

// UpdateSession edits the descriptive fields of a session that is still mutable.
func (r *SessionRepository) UpdateSession(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	query := `UPDATE sessions SET title = :title, description = :description, session_date = :session_date,
	session_time = :session_time, venue = :venue, target_audience = :target_audience,
	target_departments = :target_departments, updated_at = :updated_at
	WHERE id = :id AND manually_completed = FALSE AND status <> '` + string(models.SessionStatusCancelled) + `'`
	result, err := r.db.NamedExecContext(ctx, query, session)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireAffected(result, "update session")
}

// SetStatusParams groups an administrative status edit.
type SetStatusParams struct {
	SessionID string
	Status    models.SessionStatus
	At        time.Time
}

// SetStatus applies an administrative status edit. Completing a session pins it as manually
// completed and deletes the request it came from, in the same transaction. Sessions already
// manually completed are never moved.
func (r *SessionRepository) SetStatus(ctx context.Context, params SetStatusParams) (deletedRequestID *string, err error) {
	err = database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var requestID sql.NullString
		const lock = `SELECT session_request_id FROM sessions WHERE id = $1 AND manually_completed = FALSE FOR UPDATE`
		if err := tx.GetContext(ctx, &requestID, lock, params.SessionID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("lock session: %w", err)
		}

		if params.Status != models.SessionStatusCompleted {
			const update = `UPDATE sessions SET status = $2, updated_at = $3 WHERE id = $1`
			if _, err := tx.ExecContext(ctx, update, params.SessionID, params.Status, params.At); err != nil {
				return fmt.Errorf("update session status: %w", err)
			}
			return nil
		}

		const complete = `UPDATE sessions SET status = $2, manually_completed = TRUE, session_request_id = NULL, updated_at = $3 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, complete, params.SessionID, models.SessionStatusCompleted, params.At); err != nil {
			return fmt.Errorf("complete session: %w", err)
		}
		if !requestID.Valid {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM session_requests WHERE id = $1`, requestID.String); err != nil {
			return fmt.Errorf("delete completed session request: %w", err)
		}
		id := requestID.String
		deletedRequestID = &id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deletedRequestID, nil
}

// WriteBackStatus persists a time-derived status if the stored row still holds the status the
// derivation was based on. It reports whether a row changed.
func (r *SessionRepository) WriteBackStatus(ctx context.Context, id string, from, to models.SessionStatus) (bool, error) {
	const query = `UPDATE sessions SET status = $3, updated_at = $4
	WHERE id = $1 AND status = $2 AND manually_completed = FALSE AND status <> $5`
	result, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC(), models.SessionStatusCancelled)
	if err != nil {
		return false, fmt.Errorf("write back session status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check session status rows: %w", err)
	}
	return rows > 0, nil
}

func insertSession(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.Participants == nil {
		session.Participants = pq.StringArray{}
	}
	const query = `INSERT INTO sessions
	(id, title, description, session_date, session_time, venue, host_id, participants, session_request_id, status,
	 manually_completed, target_audience, target_departments, created_at, updated_at)
	VALUES (:id, :title, :description, :session_date, :session_time, :venue, :host_id, :participants, :session_request_id,
	 :status, :manually_completed, :target_audience, :target_departments, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func requireAffected(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

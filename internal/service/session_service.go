package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/internal/repository"
	appErrors "github.com/noah-isme/alumni-connect-api/pkg/errors"
	"github.com/noah-isme/alumni-connect-api/pkg/mailer"
)

type sessionStore interface {
	CreateRequest(ctx context.Context, req *models.SessionRequest) error
	GetRequest(ctx context.Context, id string) (*models.SessionRequest, error)
	ListRequests(ctx context.Context, filter models.SessionRequestFilter) ([]models.SessionRequest, int, error)
	MarkRequestReviewed(ctx context.Context, id, reviewerID string, at time.Time) error
	ApproveRequest(ctx context.Context, params repository.ApproveParams) error
	RejectRequest(ctx context.Context, params repository.RejectParams) (int64, error)
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	ListSessionsForCohort(ctx context.Context, cohort models.Cohort, page, pageSize int) ([]models.Session, int, error)
	UpdateSession(ctx context.Context, session *models.Session) error
	SetStatus(ctx context.Context, params repository.SetStatusParams) (*string, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListIDsByRole(ctx context.Context, role models.UserRole) ([]string, error)
	ListStudentsByCohort(ctx context.Context, filter models.AudienceFilter) ([]models.StudentProfile, error)
}

type sessionNotifier interface {
	Notify(ctx context.Context, recipients []string, payload models.NotificationPayload)
}

type emailDispatcher interface {
	Send(ctx context.Context, msg mailer.Message)
}

type statusApplier interface {
	Apply(ctx context.Context, sessions ...*models.Session)
	ApplyAll(ctx context.Context, sessions []models.Session)
	Now() time.Time
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// SessionService runs the session request workflow and serves sessions with their
// effective status. Notifications, email and audit entries are side effects of a committed
// transition and never fail it.
type SessionService struct {
	store     sessionStore
	users     userDirectory
	status    statusApplier
	notifier  sessionNotifier
	email     emailDispatcher
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
	linkBase  string
}

// SessionServiceOption configures the service.
type SessionServiceOption func(*SessionService)

// WithSessionNotifier sets the notification fan-out.
func WithSessionNotifier(n sessionNotifier) SessionServiceOption {
	return func(s *SessionService) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithSessionEmail sets the email dispatcher.
func WithSessionEmail(e emailDispatcher) SessionServiceOption {
	return func(s *SessionService) {
		if e != nil {
			s.email = e
		}
	}
}

// WithSessionAudit sets the audit trail writer.
func WithSessionAudit(a auditLogger) SessionServiceOption {
	return func(s *SessionService) {
		s.audit = a
	}
}

// WithSessionLinkBase prefixes deep links in notifications.
func WithSessionLinkBase(base string) SessionServiceOption {
	return func(s *SessionService) {
		s.linkBase = strings.TrimRight(base, "/")
	}
}

// NewSessionService constructs the service.
func NewSessionService(store sessionStore, users userDirectory, status statusApplier, validate *validator.Validate, logger *zap.Logger, opts ...SessionServiceOption) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = dto.NewValidator()
	}
	svc := &SessionService{
		store:     store,
		users:     users,
		status:    status,
		notifier:  noopNotifier{},
		email:     noopEmail{},
		validator: validate,
		logger:    logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// SubmitRequest records a proposal from a faculty or alumni member and alerts administrators.
func (s *SessionService) SubmitRequest(ctx context.Context, actor *models.JWTClaims, req dto.SubmitSessionRequest) (*models.SessionRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.Role.IsProposer() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only faculty and alumni can propose sessions")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session request payload")
	}

	filter := models.AudienceFilter{Audience: cleanList(req.TargetAudience), Departments: cleanList(req.TargetDepartments)}.WithDefaults()
	request := &models.SessionRequest{
		RequestedBy:       actor.UserID,
		RequesterRole:     actor.Role,
		Title:             strings.TrimSpace(req.Title),
		Description:       strings.TrimSpace(req.Description),
		SessionType:       strings.TrimSpace(req.SessionType),
		TargetAudience:    filter.Audience,
		TargetDepartments: filter.Departments,
		PreferredTime:     optionalString(req.PreferredTime),
		PreferredMode:     optionalString(req.PreferredMode),
		Status:            models.SessionRequestPending,
	}
	if req.PreferredDate != "" {
		date, _ := time.Parse(dto.DateLayout, req.PreferredDate)
		request.PreferredDate = &date
	}
	if err := s.store.CreateRequest(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session request")
	}

	admins, err := s.users.ListIDsByRole(ctx, models.RoleAdmin)
	if err != nil {
		s.logger.Warn("failed to resolve administrators for notification", zap.String("request_id", request.ID), zap.Error(err))
	} else {
		s.notifier.Notify(ctx, admins, models.NotificationPayload{
			Title:    "New session request",
			Message:  fmt.Sprintf("%s proposed %q", displayName(actor), request.Title),
			Category: models.NotificationSessionRequest,
			Link:     s.link("/admin/session-requests/" + request.ID),
		})
	}
	return request, nil
}

// CreateSession schedules a session directly without a proposal.
func (s *SessionService) CreateSession(ctx context.Context, actor *models.JWTClaims, req dto.CreateSessionRequest) (*models.Session, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	hostID := strings.TrimSpace(req.HostID)
	if hostID == "" {
		hostID = actor.UserID
	} else if _, err := s.users.FindByID(ctx, hostID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "host not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load host")
	}

	date, _ := time.Parse(dto.DateLayout, req.Date)
	filter := models.AudienceFilter{Audience: cleanList(req.TargetAudience), Departments: cleanList(req.TargetDepartments)}.WithDefaults()
	session := &models.Session{
		Title:             strings.TrimSpace(req.Title),
		Description:       strings.TrimSpace(req.Description),
		Date:              date,
		Time:              req.Time,
		Venue:             strings.TrimSpace(req.Venue),
		HostID:            hostID,
		Participants:      cleanList(req.Participants),
		Status:            models.SessionStatusUpcoming,
		TargetAudience:    filter.Audience,
		TargetDepartments: filter.Departments,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	s.notifyEligible(ctx, session, models.NotificationPayload{
		Title:    "New session scheduled",
		Message:  scheduleMessage(session),
		Category: models.NotificationSessionScheduled,
		Link:     s.link("/sessions/" + session.ID),
	})
	s.emitAudit(ctx, actor, models.AuditActionSessionCreate, "session", session.ID, nil, session)
	s.status.Apply(ctx, session)
	return session, nil
}

// ListRequests returns every request to administrators and their own requests to proposers.
func (s *SessionService) ListRequests(ctx context.Context, actor *models.JWTClaims, query dto.SessionRequestQuery) ([]models.SessionRequest, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.SessionRequestFilter{Page: query.Page, PageSize: query.PageSize}
	switch {
	case actor.IsAdmin():
	case actor.Role.IsProposer():
		filter.RequestedBy = actor.UserID
	default:
		return nil, nil, appErrors.ErrForbidden
	}
	if raw := strings.TrimSpace(query.Status); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := models.SessionRequestStatus(strings.ToLower(strings.TrimSpace(part)))
			if !status.Valid() {
				return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", part))
			}
			filter.Status = append(filter.Status, status)
		}
	}
	requests, total, err := s.store.ListRequests(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list session requests")
	}
	if requests == nil {
		requests = []models.SessionRequest{}
	}
	return requests, pagination(query.Page, query.PageSize, total), nil
}

// ReviewRequest annotates a pending request as reviewed. It has no effect on approval.
func (s *SessionService) ReviewRequest(ctx context.Context, actor *models.JWTClaims, id string) (*models.SessionRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.SessionRequestPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("session request is %s", request.Status))
	}
	now := time.Now().UTC()
	if err := s.store.MarkRequestReviewed(ctx, id, actor.UserID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "session request already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review session request")
	}
	request.Status = models.SessionRequestReviewed
	request.ReviewedBy = &actor.UserID
	request.ReviewedAt = &now
	s.emitAudit(ctx, actor, models.AuditActionSessionRequestReview, "session_request", id, nil, request)
	return request, nil
}

// ApproveRequest promotes an open request into a scheduled session. The status flip and the
// session insert commit together; fan-out to eligible students and the requester follows.
func (s *SessionService) ApproveRequest(ctx context.Context, actor *models.JWTClaims, id string, req dto.ApproveSessionRequest) (*models.Session, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "venue, date (YYYY-MM-DD) and time (HH:MM) are required")
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("session request already %s", request.Status))
	}

	date, _ := time.Parse(dto.DateLayout, req.Date)
	filter := request.Filter()
	session := &models.Session{
		Title:             request.Title,
		Description:       request.Description,
		Date:              date,
		Time:              req.Time,
		Venue:             strings.TrimSpace(req.Venue),
		HostID:            request.RequestedBy,
		Participants:      cleanList(req.Participants),
		SessionRequestID:  &request.ID,
		Status:            models.SessionStatusUpcoming,
		TargetAudience:    filter.Audience,
		TargetDepartments: filter.Departments,
	}
	now := time.Now().UTC()
	err = s.store.ApproveRequest(ctx, repository.ApproveParams{
		RequestID:  request.ID,
		ReviewerID: actor.UserID,
		ReviewedAt: now,
		Session:    session,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "session request already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve session request")
	}
	previous := request.Status
	request.Status = models.SessionRequestApproved

	s.notifyEligible(ctx, session, models.NotificationPayload{
		Title:    "New session scheduled",
		Message:  scheduleMessage(session),
		Category: models.NotificationSessionScheduled,
		Link:     s.link("/sessions/" + session.ID),
	})
	s.notifier.Notify(ctx, []string{request.RequestedBy}, models.NotificationPayload{
		Title:    "Session request approved",
		Message:  fmt.Sprintf("Your request %q was approved. %s", request.Title, scheduleMessage(session)),
		Category: models.NotificationSessionApproved,
		Link:     s.link("/sessions/" + session.ID),
	})
	s.sendEmail(ctx, request.RequestedBy, mailer.TemplateSessionApproved, map[string]string{
		"title": session.Title,
		"date":  req.Date,
		"time":  session.Time,
		"venue": session.Venue,
		"link":  s.link("/sessions/" + session.ID),
	})
	s.emitAudit(ctx, actor, models.AuditActionSessionRequestApprove, "session_request", request.ID,
		map[string]interface{}{"status": previous},
		map[string]interface{}{"status": request.Status, "sessionId": session.ID})

	s.status.Apply(ctx, session)
	return session, nil
}

// RejectRequest closes a request and cancels any session already scheduled from it.
func (s *SessionService) RejectRequest(ctx context.Context, actor *models.JWTClaims, id string, req dto.RejectSessionRequest) (*models.SessionRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rejection payload")
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status == models.SessionRequestRejected {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "session request already rejected")
	}

	now := time.Now().UTC()
	reason := optionalString(req.Reason)
	cancelled, err := s.store.RejectRequest(ctx, repository.RejectParams{
		RequestID:  request.ID,
		ReviewerID: actor.UserID,
		ReviewedAt: now,
		Reason:     reason,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "session request already rejected")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject session request")
	}
	previous := request.Status
	request.Status = models.SessionRequestRejected
	request.ReviewedBy = &actor.UserID
	request.ReviewedAt = &now
	request.RejectionReason = reason

	message := fmt.Sprintf("Your request %q was not approved.", request.Title)
	if reason != nil {
		message += " Reason: " + *reason
	}
	s.notifier.Notify(ctx, []string{request.RequestedBy}, models.NotificationPayload{
		Title:    "Session request rejected",
		Message:  message,
		Category: models.NotificationSessionRejected,
		Link:     s.link("/session-requests/" + request.ID),
	})
	s.sendEmail(ctx, request.RequestedBy, mailer.TemplateSessionRejected, map[string]string{
		"title":  request.Title,
		"reason": req.Reason,
	})
	s.emitAudit(ctx, actor, models.AuditActionSessionRequestReject, "session_request", request.ID,
		map[string]interface{}{"status": previous},
		map[string]interface{}{"status": request.Status, "cancelledSessions": cancelled})
	return request, nil
}

// ListAllSessions returns every session. Administrator variant.
func (s *SessionService) ListAllSessions(ctx context.Context, query dto.SessionQuery) ([]models.Session, *models.Pagination, error) {
	sessions, total, err := s.store.ListSessions(ctx, models.SessionFilter{Page: query.Page, PageSize: query.PageSize})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	s.status.ApplyAll(ctx, sessions)
	return nonNilSessions(sessions), pagination(query.Page, query.PageSize, total), nil
}

// ListEligibleSessions returns the sessions the student may attend. Student variant.
func (s *SessionService) ListEligibleSessions(ctx context.Context, actor *models.JWTClaims, query dto.SessionQuery) ([]models.Session, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	cohort := actor.Cohort()
	sessions, total, err := s.store.ListSessionsForCohort(ctx, cohort, query.Page, query.PageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	eligible := sessions[:0]
	for _, session := range sessions {
		if IsEligible(cohort, session.Filter()) {
			eligible = append(eligible, session)
		}
	}
	s.status.ApplyAll(ctx, eligible)
	return nonNilSessions(eligible), pagination(query.Page, query.PageSize, total), nil
}

// ListHostedSessions returns the sessions hosted by the caller. Faculty and alumni variant.
func (s *SessionService) ListHostedSessions(ctx context.Context, actor *models.JWTClaims, query dto.SessionQuery) ([]models.Session, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	sessions, total, err := s.store.ListSessions(ctx, models.SessionFilter{HostID: actor.UserID, Page: query.Page, PageSize: query.PageSize})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	s.status.ApplyAll(ctx, sessions)
	return nonNilSessions(sessions), pagination(query.Page, query.PageSize, total), nil
}

// GetSession returns any session. Administrator variant.
func (s *SessionService) GetSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	s.status.Apply(ctx, session)
	return session, nil
}

// GetEligibleSession returns a session the student is eligible for. Student variant.
func (s *SessionService) GetEligibleSession(ctx context.Context, actor *models.JWTClaims, id string) (*models.Session, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsEligible(actor.Cohort(), session.Filter()) {
		return nil, appErrors.ErrNotEligible
	}
	s.status.Apply(ctx, session)
	return session, nil
}

// GetHostedSession returns a session hosted by the caller. Faculty and alumni variant.
func (s *SessionService) GetHostedSession(ctx context.Context, actor *models.JWTClaims, id string) (*models.Session, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.HostID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not host this session")
	}
	s.status.Apply(ctx, session)
	return session, nil
}

// EvaluatedAt reports the instant effective statuses are derived against.
func (s *SessionService) EvaluatedAt() time.Time {
	return s.status.Now()
}

// UpdateSession edits schedule and audience details of a session that is neither
// manually completed nor cancelled.
func (s *SessionService) UpdateSession(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateSessionRequest) (*models.Session, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.ManuallyCompleted || session.Status == models.SessionStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "completed or cancelled sessions cannot be edited")
	}
	before := *session

	if req.Title != nil {
		session.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		session.Description = strings.TrimSpace(*req.Description)
	}
	if req.Venue != nil {
		session.Venue = strings.TrimSpace(*req.Venue)
	}
	if req.Date != nil {
		session.Date, _ = time.Parse(dto.DateLayout, *req.Date)
	}
	if req.Time != nil {
		session.Time = *req.Time
	}
	if req.TargetAudience != nil {
		session.TargetAudience = models.AudienceFilter{Audience: cleanList(req.TargetAudience)}.WithDefaults().Audience
	}
	if req.TargetDepartments != nil {
		session.TargetDepartments = models.AudienceFilter{Departments: cleanList(req.TargetDepartments)}.WithDefaults().Departments
	}

	if err := s.store.UpdateSession(ctx, session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "session can no longer be edited")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}

	s.notifyEligible(ctx, session, models.NotificationPayload{
		Title:    "Session updated",
		Message:  scheduleMessage(session),
		Category: models.NotificationSessionUpdated,
		Link:     s.link("/sessions/" + session.ID),
	})
	s.emitAudit(ctx, actor, models.AuditActionSessionUpdate, "session", session.ID, before, session)
	s.status.Apply(ctx, session)
	return session, nil
}

// SetSessionStatus applies an administrator's status override. Completing a session is
// permanent and removes the proposal it was scheduled from.
func (s *SessionService) SetSessionStatus(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateSessionStatusRequest) (*models.Session, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.ManuallyCompleted {
		if req.Status == models.SessionStatusCompleted {
			return session, nil
		}
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "manually completed sessions cannot change status")
	}

	previous := session.Status
	deletedRequest, err := s.store.SetStatus(ctx, repository.SetStatusParams{
		SessionID: session.ID,
		Status:    req.Status,
		At:        time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "session was completed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session status")
	}
	session.Status = req.Status
	if req.Status == models.SessionStatusCompleted {
		session.ManuallyCompleted = true
		session.SessionRequestID = nil
	}

	newValues := map[string]interface{}{"status": session.Status, "manuallyCompleted": session.ManuallyCompleted}
	if deletedRequest != nil {
		newValues["deletedRequestId"] = *deletedRequest
	}
	s.emitAudit(ctx, actor, models.AuditActionSessionStatus, "session", session.ID, map[string]interface{}{"status": previous}, newValues)
	s.status.Apply(ctx, session)
	return session, nil
}

func (s *SessionService) loadRequest(ctx context.Context, id string) (*models.SessionRequest, error) {
	request, err := s.store.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session request")
	}
	return request, nil
}

func (s *SessionService) loadSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// notifyEligible fans out to every student admitted by the session's filters.
func (s *SessionService) notifyEligible(ctx context.Context, session *models.Session, payload models.NotificationPayload) {
	filter := session.Filter()
	students, err := s.users.ListStudentsByCohort(ctx, filter)
	if err != nil {
		s.logger.Warn("failed to resolve eligible students", zap.String("session_id", session.ID), zap.Error(err))
		return
	}
	s.notifier.Notify(ctx, studentIDs(FilterEligible(students, filter)), payload)
}

func (s *SessionService) sendEmail(ctx context.Context, userID string, kind mailer.TemplateKind, params map[string]string) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to resolve email recipient", zap.String("user_id", userID), zap.Error(err))
		return
	}
	params["name"] = user.FullName
	s.email.Send(ctx, mailer.Message{To: user.Email, Kind: kind, Params: params})
}

func (s *SessionService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, resource, resourceID string, oldValues, newValues interface{}) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  "session-service",
	}
	if actor != nil {
		entry.UserID = &actor.UserID
	}
	if oldValues != nil {
		entry.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		entry.NewValues, _ = json.Marshal(newValues)
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *SessionService) link(path string) string {
	return s.linkBase + path
}

func requireAdmin(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "administrator access required")
	}
	return nil
}

func scheduleMessage(session *models.Session) string {
	return fmt.Sprintf("%q on %s at %s, %s", session.Title, session.Date.Format(dto.DateLayout), session.Time, session.Venue)
}

func displayName(actor *models.JWTClaims) string {
	if strings.TrimSpace(actor.FullName) != "" {
		return actor.FullName
	}
	return actor.Email
}

func cleanList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func optionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}

func nonNilSessions(sessions []models.Session) []models.Session {
	if sessions == nil {
		return []models.Session{}
	}
	return sessions
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, []string, models.NotificationPayload) {}

type noopEmail struct{}

func (noopEmail) Send(context.Context, mailer.Message) {}

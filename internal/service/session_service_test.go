package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/internal/repository"
	appErrors "github.com/noah-isme/alumni-connect-api/pkg/errors"
	"github.com/noah-isme/alumni-connect-api/pkg/mailer"
)

// sessionStoreStub keeps requests and sessions in memory and mirrors the repository's
// conditional-update semantics.
type sessionStoreStub struct {
	requests    map[string]*models.SessionRequest
	sessions    map[string]*models.Session
	approveErr  error
	createCount int
}

func newSessionStoreStub() *sessionStoreStub {
	return &sessionStoreStub{requests: map[string]*models.SessionRequest{}, sessions: map[string]*models.Session{}}
}

func (s *sessionStoreStub) CreateRequest(ctx context.Context, req *models.SessionRequest) error {
	s.createCount++
	if req.ID == "" {
		req.ID = "req-new"
	}
	stored := *req
	s.requests[req.ID] = &stored
	return nil
}

func (s *sessionStoreStub) GetRequest(ctx context.Context, id string) (*models.SessionRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	stored := *req
	return &stored, nil
}

func (s *sessionStoreStub) ListRequests(ctx context.Context, filter models.SessionRequestFilter) ([]models.SessionRequest, int, error) {
	var out []models.SessionRequest
	for _, r := range s.requests {
		if filter.RequestedBy != "" && r.RequestedBy != filter.RequestedBy {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (s *sessionStoreStub) MarkRequestReviewed(ctx context.Context, id, reviewerID string, at time.Time) error {
	req, ok := s.requests[id]
	if !ok || req.Status != models.SessionRequestPending {
		return sql.ErrNoRows
	}
	req.Status = models.SessionRequestReviewed
	return nil
}

func (s *sessionStoreStub) ApproveRequest(ctx context.Context, params repository.ApproveParams) error {
	if s.approveErr != nil {
		return s.approveErr
	}
	req, ok := s.requests[params.RequestID]
	if !ok || (req.Status != models.SessionRequestPending && req.Status != models.SessionRequestReviewed) {
		return sql.ErrNoRows
	}
	req.Status = models.SessionRequestApproved
	if params.Session.ID == "" {
		params.Session.ID = "sess-" + params.RequestID
	}
	stored := *params.Session
	s.sessions[stored.ID] = &stored
	return nil
}

func (s *sessionStoreStub) RejectRequest(ctx context.Context, params repository.RejectParams) (int64, error) {
	req, ok := s.requests[params.RequestID]
	if !ok || req.Status == models.SessionRequestRejected {
		return 0, sql.ErrNoRows
	}
	req.Status = models.SessionRequestRejected
	var cancelled int64
	for _, sess := range s.sessions {
		if sess.SessionRequestID != nil && *sess.SessionRequestID == params.RequestID && sess.Status != models.SessionStatusCancelled {
			sess.Status = models.SessionStatusCancelled
			sess.UpdatedAt = params.ReviewedAt
			cancelled++
		}
	}
	return cancelled, nil
}

func (s *sessionStoreStub) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = "sess-direct"
	}
	stored := *session
	s.sessions[session.ID] = &stored
	return nil
}

func (s *sessionStoreStub) GetSession(ctx context.Context, id string) (*models.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	stored := *sess
	return &stored, nil
}

func (s *sessionStoreStub) ListSessions(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	var out []models.Session
	for _, sess := range s.sessions {
		if filter.HostID != "" && sess.HostID != filter.HostID {
			continue
		}
		out = append(out, *sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (s *sessionStoreStub) ListSessionsForCohort(ctx context.Context, cohort models.Cohort, page, pageSize int) ([]models.Session, int, error) {
	// unfiltered; the service re-checks eligibility
	return s.ListSessions(ctx, models.SessionFilter{})
}

func (s *sessionStoreStub) UpdateSession(ctx context.Context, session *models.Session) error {
	stored, ok := s.sessions[session.ID]
	if !ok || stored.ManuallyCompleted || stored.Status == models.SessionStatusCancelled {
		return sql.ErrNoRows
	}
	updated := *session
	s.sessions[session.ID] = &updated
	return nil
}

func (s *sessionStoreStub) SetStatus(ctx context.Context, params repository.SetStatusParams) (*string, error) {
	sess, ok := s.sessions[params.SessionID]
	if !ok || sess.ManuallyCompleted {
		return nil, sql.ErrNoRows
	}
	sess.Status = params.Status
	if params.Status != models.SessionStatusCompleted {
		return nil, nil
	}
	sess.ManuallyCompleted = true
	deleted := sess.SessionRequestID
	sess.SessionRequestID = nil
	if deleted != nil {
		delete(s.requests, *deleted)
	}
	return deleted, nil
}

type userDirectoryStub struct {
	users    map[string]*models.User
	admins   []string
	students []models.StudentProfile
	err      error
}

func (u *userDirectoryStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := u.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (u *userDirectoryStub) ListIDsByRole(ctx context.Context, role models.UserRole) ([]string, error) {
	return u.admins, u.err
}

func (u *userDirectoryStub) ListStudentsByCohort(ctx context.Context, filter models.AudienceFilter) ([]models.StudentProfile, error) {
	if u.err != nil {
		return nil, u.err
	}
	return u.students, nil
}

type notification struct {
	recipients []string
	payload    models.NotificationPayload
}

type notifierRecorder struct {
	calls []notification
}

func (n *notifierRecorder) Notify(ctx context.Context, recipients []string, payload models.NotificationPayload) {
	n.calls = append(n.calls, notification{recipients: recipients, payload: payload})
}

func (n *notifierRecorder) recipients() []string {
	var out []string
	for _, c := range n.calls {
		out = append(out, c.recipients...)
	}
	sort.Strings(out)
	return out
}

type emailRecorder struct {
	sent []mailer.Message
}

func (e *emailRecorder) Send(ctx context.Context, msg mailer.Message) {
	e.sent = append(e.sent, msg)
}

type auditStub struct {
	logs []*models.AuditLog
	err  error
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return a.err
}

type sessionFixture struct {
	svc      *SessionService
	store    *sessionStoreStub
	users    *userDirectoryStub
	notifier *notifierRecorder
	email    *emailRecorder
	audit    *auditStub
	now      time.Time
}

var (
	adminClaims   = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	alumniClaims  = &models.JWTClaims{UserID: "alumni-1", Role: models.RoleAlumni, FullName: "Alex Alumni"}
	studentAClaim = &models.JWTClaims{UserID: "A", Role: models.RoleStudent, Batch: "E-2", Department: "CSE"}
	studentBClaim = &models.JWTClaims{UserID: "B", Role: models.RoleStudent, Batch: "E-3", Department: "CSE"}
)

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	f := &sessionFixture{
		store: newSessionStoreStub(),
		users: &userDirectoryStub{
			users: map[string]*models.User{
				"alumni-1": {ID: "alumni-1", Email: "alex@example.com", FullName: "Alex Alumni", Role: models.RoleAlumni},
			},
			admins: []string{"admin-1", "admin-2"},
			students: []models.StudentProfile{
				{ID: "A", Batch: "E-2", Department: "CSE"},
				{ID: "B", Batch: "E-3", Department: "CSE"},
			},
		},
		notifier: &notifierRecorder{},
		email:    &emailRecorder{},
		audit:    &auditStub{},
		now:      now,
	}
	status := NewStatusRefresher(nil, nil, time.UTC, nil, WithStatusClock(func() time.Time { return now }))
	f.svc = NewSessionService(f.store, f.users, status, nil, nil,
		WithSessionNotifier(f.notifier),
		WithSessionEmail(f.email),
		WithSessionAudit(f.audit),
		WithSessionLinkBase("https://connect.example.edu/"),
	)
	return f
}

func (f *sessionFixture) seedRequest(id string, status models.SessionRequestStatus) {
	f.store.requests[id] = &models.SessionRequest{
		ID:                id,
		RequestedBy:       "alumni-1",
		RequesterRole:     models.RoleAlumni,
		Title:             "Careers in ML",
		TargetAudience:    pq.StringArray{"E-2"},
		TargetDepartments: pq.StringArray{"CSE"},
		Status:            status,
	}
}

func validApproval(f *sessionFixture) dto.ApproveSessionRequest {
	return dto.ApproveSessionRequest{Venue: "Hall A", Date: f.now.AddDate(0, 0, 1).Format(dto.DateLayout), Time: "10:00"}
}

func TestSubmitRequestNotifiesAdmins(t *testing.T) {
	f := newSessionFixture(t)

	req, err := f.svc.SubmitRequest(context.Background(), alumniClaims, dto.SubmitSessionRequest{
		Title:          " Careers in ML ",
		TargetAudience: []string{"E-2", "E-2", " "},
		PreferredDate:  "2026-04-01",
		PreferredTime:  "14:30",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionRequestPending, req.Status)
	assert.Equal(t, "Careers in ML", req.Title)
	assert.Equal(t, pq.StringArray{"E-2"}, req.TargetAudience)
	assert.Equal(t, pq.StringArray{models.DepartmentAll}, req.TargetDepartments)
	require.NotNil(t, req.PreferredDate)

	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, []string{"admin-1", "admin-2"}, f.notifier.calls[0].recipients)
	assert.Equal(t, models.NotificationSessionRequest, f.notifier.calls[0].payload.Category)
	assert.Equal(t, "https://connect.example.edu/admin/session-requests/"+req.ID, f.notifier.calls[0].payload.Link)
}

func TestSubmitRequestRejectsStudentsAndBadPayloads(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.svc.SubmitRequest(context.Background(), studentAClaim, dto.SubmitSessionRequest{Title: "x"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.svc.SubmitRequest(context.Background(), alumniClaims, dto.SubmitSessionRequest{Title: "x", PreferredTime: "25:00"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.SubmitRequest(context.Background(), alumniClaims, dto.SubmitSessionRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, f.store.createCount)
}

func TestSubmitRequestSurvivesAdminLookupFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.users.err = errors.New("db down")

	_, err := f.svc.SubmitRequest(context.Background(), alumniClaims, dto.SubmitSessionRequest{Title: "x"})
	require.NoError(t, err)
	assert.Empty(t, f.notifier.calls)
}

func TestApproveRequestNotifiesEligibleStudentsAndRequester(t *testing.T) {
	f := newSessionFixture(t)
	f.seedRequest("req-1", models.SessionRequestPending)

	session, err := f.svc.ApproveRequest(context.Background(), adminClaims, "req-1", validApproval(f))
	require.NoError(t, err)

	assert.Equal(t, "Hall A", session.Venue)
	assert.Equal(t, "10:00", session.Time)
	assert.Equal(t, "alumni-1", session.HostID)
	assert.Equal(t, models.SessionStatusUpcoming, session.Status)
	require.NotNil(t, session.SessionRequestID)
	assert.Equal(t, "req-1", *session.SessionRequestID)
	assert.Equal(t, pq.StringArray{"E-2"}, session.TargetAudience)
	assert.Equal(t, models.SessionRequestApproved, f.store.requests["req-1"].Status)

	assert.Equal(t, []string{"A", "alumni-1"}, f.notifier.recipients())
	require.Len(t, f.notifier.calls, 2)
	assert.Equal(t, models.NotificationSessionScheduled, f.notifier.calls[0].payload.Category)
	assert.Equal(t, models.NotificationSessionApproved, f.notifier.calls[1].payload.Category)

	require.Len(t, f.email.sent, 1)
	assert.Equal(t, "alex@example.com", f.email.sent[0].To)
	assert.Equal(t, mailer.TemplateSessionApproved, f.email.sent[0].Kind)
	assert.Equal(t, "Alex Alumni", f.email.sent[0].Params["name"])

	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, models.AuditActionSessionRequestApprove, f.audit.logs[0].Action)
}

func TestApproveRequestDefaultsFiltersToWildcards(t *testing.T) {
	f := newSessionFixture(t)
	f.seedRequest("req-1", models.SessionRequestReviewed)
	f.store.requests["req-1"].TargetAudience = nil
	f.store.requests["req-1"].TargetDepartments = pq.StringArray{}

	session, err := f.svc.ApproveRequest(context.Background(), adminClaims, "req-1", validApproval(f))
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{models.AudienceAll}, session.TargetAudience)
	assert.Equal(t, pq.StringArray{models.DepartmentAll}, session.TargetDepartments)
	assert.Equal(t, []string{"A", "B", "alumni-1"}, f.notifier.recipients())
}

func TestApproveRequestTwiceIsInvalidTransition(t *testing.T) {
	f := newSessionFixture(t)
	f.seedRequest("req-1", models.SessionRequestPending)

	_, err := f.svc.ApproveRequest(context.Background(), adminClaims, "req-1", validApproval(f))
	require.NoError(t, err)
	notified := len(f.notifier.calls)

	_, err = f.svc.ApproveRequest(context.Background(), adminClaims, "req-1", validApproval(f))
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
	assert.Len(t, f.notifier.calls, notified)
	assert.Len(t, f.store.sessions, 1)
}

func TestApproveRequestLosingRaceIsInvalidTransition(t *testing.T) {
	f := newSessionFixture(t)
	f.seedRequest("req-1", models.SessionRequestPending)
	f.store.approveErr = sql.ErrNoRows

	_, err := f.svc.ApproveRequest(context.Background(), adminClaims, "req-1", validApproval(f))
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Empty(t, f.notifier.calls)
	assert.Empty(t, f.email.sent)
}

func TestApproveRequestRejectedRequestIsInvalidTransition(t *testing.T) {
	f := newSessionFixture(t)
	f.seedRequest("req-1", models.SessionRequestRejected)

	_, err := f.svc.ApproveRequest(context.Background(), adminClaims, "req-1", validApproval(f))
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestApproveRequestValidationAndLookup(t *testing.T) {
	f := newSessionFixture(t)
	f.seedRequest("req-1", models.SessionRequestPending)

	_, err := f.svc.ApproveRequest(context.Background(), adminClaims, "req-1", dto.ApproveSessionRequest{Date: "2026-03-11", Time: "10:00"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.ApproveRequest(context.Background(), adminClaims, "req-1", dto.ApproveSessionRequest{Venue: "Hall A", Date: "11/03/2026", Time: "10:00"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.ApproveRequest(context.Background(), adminClaims, "missing", validApproval(f))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.svc.ApproveRequest(context.Background(), alumniClaims, "req-1", validApproval(f))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestApproveRequestSucceedsWhenFanoutFails(t *testing.T) {
	f := newSessionFixture(t)
	f.seedRequest("req-1", models.SessionRequestPending)
	failing := NewNotificationService(&notificationStoreStub{insertErr: errors.New("db down")}, nil, nil)
	f.svc = NewSessionService(f.store, f.users, NewStatusRefresher(nil, nil, time.UTC, nil), nil, nil,
		WithSessionNotifier(failing), WithSessionAudit(&auditStub{err: errors.New("audit down")}))

	session, err := f.svc.ApproveRequest(context.Background(), adminClaims, "req-1", validApproval(f))
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, models.SessionRequestApproved, f.store.requests["req-1"].Status)
}

func TestRejectRequestCancelsOnlyLinkedLiveSessions(t *testing.T) {
	f := newSessionFixture(t)
	f.seedRequest("req-1", models.SessionRequestApproved)
	f.seedRequest("req-2", models.SessionRequestApproved)
	req1, req2 := "req-1", "req-2"
	untouched := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.store.sessions["s1"] = &models.Session{ID: "s1", SessionRequestID: &req1, Status: models.SessionStatusUpcoming, Date: f.now}
	f.store.sessions["s2"] = &models.Session{ID: "s2", SessionRequestID: &req2, Status: models.SessionStatusCancelled, UpdatedAt: untouched}

	req, err := f.svc.RejectRequest(context.Background(), adminClaims, "req-1", dto.RejectSessionRequest{Reason: "speaker unavailable"})
	require.NoError(t, err)
	assert.Equal(t, models.SessionRequestRejected, req.Status)
	require.NotNil(t, req.RejectionReason)

	assert.Equal(t, models.SessionStatusCancelled, f.store.sessions["s1"].Status)
	assert.Equal(t, models.SessionStatusCancelled, f.store.sessions["s2"].Status)
	assert.Equal(t, untouched, f.store.sessions["s2"].UpdatedAt)

	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, []string{"alumni-1"}, f.notifier.calls[0].recipients)
	assert.Equal(t, models.NotificationSessionRejected, f.notifier.calls[0].payload.Category)
	assert.Contains(t, f.notifier.calls[0].payload.Message, "speaker unavailable")
	require.Len(t, f.email.sent, 1)
	assert.Equal(t, mailer.TemplateSessionRejected, f.email.sent[0].Kind)
}

func TestRejectRequestTwiceIsInvalidTransition(t *testing.T) {
	f := newSessionFixture(t)
	f.seedRequest("req-1", models.SessionRequestRejected)

	_, err := f.svc.RejectRequest(context.Background(), adminClaims, "req-1", dto.RejectSessionRequest{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Empty(t, f.notifier.calls)
}

func TestReviewRequest(t *testing.T) {
	f := newSessionFixture(t)
	f.seedRequest("req-1", models.SessionRequestPending)

	req, err := f.svc.ReviewRequest(context.Background(), adminClaims, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionRequestReviewed, req.Status)

	_, err = f.svc.ReviewRequest(context.Background(), adminClaims, "req-1")
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestListRequestsScopesProposers(t *testing.T) {
	f := newSessionFixture(t)
	f.seedRequest("req-1", models.SessionRequestPending)
	f.store.requests["req-x"] = &models.SessionRequest{ID: "req-x", RequestedBy: "someone-else"}

	mine, _, err := f.svc.ListRequests(context.Background(), alumniClaims, dto.SessionRequestQuery{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "req-1", mine[0].ID)

	all, page, err := f.svc.ListRequests(context.Background(), adminClaims, dto.SessionRequestQuery{Status: "pending,reviewed"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, page.TotalCount)

	_, _, err = f.svc.ListRequests(context.Background(), adminClaims, dto.SessionRequestQuery{Status: "done"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = f.svc.ListRequests(context.Background(), studentAClaim, dto.SessionRequestQuery{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestCreateSessionDirectNotifiesEligible(t *testing.T) {
	f := newSessionFixture(t)

	session, err := f.svc.CreateSession(context.Background(), adminClaims, dto.CreateSessionRequest{
		Title:             "Alumni meetup",
		Venue:             "Hall B",
		Date:              "2026-03-10",
		Time:              "08:30",
		TargetDepartments: []string{"CSE"},
	})
	require.NoError(t, err)
	assert.Equal(t, "admin-1", session.HostID)
	assert.Nil(t, session.SessionRequestID)
	assert.Equal(t, models.SessionStatusOngoing, session.Status)
	assert.Equal(t, []string{"A", "B"}, f.notifier.recipients())

	_, err = f.svc.CreateSession(context.Background(), adminClaims, dto.CreateSessionRequest{
		Title: "x", Venue: "v", Date: "2026-03-10", Time: "08:30", HostID: "ghost",
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSetSessionStatusCompletedIsPermanent(t *testing.T) {
	f := newSessionFixture(t)
	f.seedRequest("req-1", models.SessionRequestApproved)
	reqID := "req-1"
	f.store.sessions["s1"] = &models.Session{ID: "s1", SessionRequestID: &reqID, Status: models.SessionStatusUpcoming, Date: f.now.AddDate(0, 0, 7), Time: "10:00"}

	session, err := f.svc.SetSessionStatus(context.Background(), adminClaims, "s1", dto.UpdateSessionStatusRequest{Status: models.SessionStatusCompleted})
	require.NoError(t, err)
	assert.True(t, session.ManuallyCompleted)
	assert.Equal(t, models.SessionStatusCompleted, session.Status)
	assert.Nil(t, session.SessionRequestID)
	_, stillThere := f.store.requests["req-1"]
	assert.False(t, stillThere)
	require.Len(t, f.audit.logs, 1)
	assert.Contains(t, string(f.audit.logs[0].NewValues), "deletedRequestId")

	_, err = f.svc.SetSessionStatus(context.Background(), adminClaims, "s1", dto.UpdateSessionStatusRequest{Status: models.SessionStatusUpcoming})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	got, err := f.svc.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, got.Status)
}

func TestSetSessionStatusValidation(t *testing.T) {
	f := newSessionFixture(t)
	f.store.sessions["s1"] = &models.Session{ID: "s1", Status: models.SessionStatusUpcoming}

	_, err := f.svc.SetSessionStatus(context.Background(), adminClaims, "s1", dto.UpdateSessionStatusRequest{Status: "finished"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.SetSessionStatus(context.Background(), adminClaims, "nope", dto.UpdateSessionStatusRequest{Status: models.SessionStatusCancelled})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUpdateSessionRejectsCancelled(t *testing.T) {
	f := newSessionFixture(t)
	f.store.sessions["s1"] = &models.Session{ID: "s1", Status: models.SessionStatusCancelled}
	title := "New title"

	_, err := f.svc.UpdateSession(context.Background(), adminClaims, "s1", dto.UpdateSessionRequest{Title: &title})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestUpdateSessionAppliesPartialChanges(t *testing.T) {
	f := newSessionFixture(t)
	f.store.sessions["s1"] = &models.Session{ID: "s1", Title: "Old", Venue: "Hall A", Status: models.SessionStatusUpcoming,
		Date: f.now.AddDate(0, 0, 3), Time: "10:00", TargetAudience: pq.StringArray{"all"}, TargetDepartments: pq.StringArray{"ALL"}}
	venue := "Hall C"

	session, err := f.svc.UpdateSession(context.Background(), adminClaims, "s1", dto.UpdateSessionRequest{Venue: &venue, TargetAudience: []string{"E-2"}})
	require.NoError(t, err)
	assert.Equal(t, "Old", session.Title)
	assert.Equal(t, "Hall C", session.Venue)
	assert.Equal(t, pq.StringArray{"E-2"}, session.TargetAudience)
	assert.Equal(t, []string{"A"}, f.notifier.recipients())
}

func TestSessionReadsByRole(t *testing.T) {
	f := newSessionFixture(t)
	f.store.sessions["s1"] = &models.Session{ID: "s1", HostID: "alumni-1", Status: models.SessionStatusUpcoming, Date: f.now.AddDate(0, 0, -1),
		TargetAudience: pq.StringArray{"E-2"}, TargetDepartments: pq.StringArray{"CSE"}}
	f.store.sessions["s2"] = &models.Session{ID: "s2", HostID: "faculty-1", Status: models.SessionStatusCancelled, Date: f.now,
		TargetAudience: pq.StringArray{"all"}, TargetDepartments: pq.StringArray{"ALL"}}

	all, _, err := f.svc.ListAllSessions(context.Background(), dto.SessionQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.SessionStatusCompleted, all[0].Status)
	assert.Equal(t, models.SessionStatusCancelled, all[1].Status)

	forB, _, err := f.svc.ListEligibleSessions(context.Background(), studentBClaim, dto.SessionQuery{})
	require.NoError(t, err)
	require.Len(t, forB, 1)
	assert.Equal(t, "s2", forB[0].ID)

	hosted, _, err := f.svc.ListHostedSessions(context.Background(), alumniClaims, dto.SessionQuery{})
	require.NoError(t, err)
	require.Len(t, hosted, 1)
	assert.Equal(t, "s1", hosted[0].ID)

	_, err = f.svc.GetEligibleSession(context.Background(), studentBClaim, "s1")
	assert.ErrorIs(t, err, appErrors.ErrNotEligible)
	got, err := f.svc.GetEligibleSession(context.Background(), studentAClaim, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, got.Status)

	_, err = f.svc.GetHostedSession(context.Background(), alumniClaims, "s2")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

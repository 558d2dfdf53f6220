package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/middleware"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/pkg/response"
)

type sessionService interface {
	SubmitRequest(ctx context.Context, actor *models.JWTClaims, req dto.SubmitSessionRequest) (*models.SessionRequest, error)
	CreateSession(ctx context.Context, actor *models.JWTClaims, req dto.CreateSessionRequest) (*models.Session, error)
	ListRequests(ctx context.Context, actor *models.JWTClaims, query dto.SessionRequestQuery) ([]models.SessionRequest, *models.Pagination, error)
	ReviewRequest(ctx context.Context, actor *models.JWTClaims, id string) (*models.SessionRequest, error)
	ApproveRequest(ctx context.Context, actor *models.JWTClaims, id string, req dto.ApproveSessionRequest) (*models.Session, error)
	RejectRequest(ctx context.Context, actor *models.JWTClaims, id string, req dto.RejectSessionRequest) (*models.SessionRequest, error)
	ListAllSessions(ctx context.Context, query dto.SessionQuery) ([]models.Session, *models.Pagination, error)
	ListEligibleSessions(ctx context.Context, actor *models.JWTClaims, query dto.SessionQuery) ([]models.Session, *models.Pagination, error)
	ListHostedSessions(ctx context.Context, actor *models.JWTClaims, query dto.SessionQuery) ([]models.Session, *models.Pagination, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetEligibleSession(ctx context.Context, actor *models.JWTClaims, id string) (*models.Session, error)
	GetHostedSession(ctx context.Context, actor *models.JWTClaims, id string) (*models.Session, error)
	UpdateSession(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateSessionRequest) (*models.Session, error)
	SetSessionStatus(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateSessionStatusRequest) (*models.Session, error)
	EvaluatedAt() time.Time
}

// SessionHandler exposes session and session request endpoints. Reads are dispatched to a
// per-role variant.
type SessionHandler struct {
	service sessionService

	create gin.HandlerFunc
	list   gin.HandlerFunc
	get    gin.HandlerFunc
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(svc sessionService) *SessionHandler {
	h := &SessionHandler{service: svc}
	h.create = byRole(map[models.UserRole]gin.HandlerFunc{
		models.RoleAdmin:   h.createDirect,
		models.RoleFaculty: h.submitRequest,
		models.RoleAlumni:  h.submitRequest,
	})
	h.list = byRole(map[models.UserRole]gin.HandlerFunc{
		models.RoleAdmin:   h.listAll,
		models.RoleStudent: h.listEligible,
		models.RoleFaculty: h.listHosted,
		models.RoleAlumni:  h.listHosted,
	})
	h.get = byRole(map[models.UserRole]gin.HandlerFunc{
		models.RoleAdmin:   h.getAny,
		models.RoleStudent: h.getEligible,
		models.RoleFaculty: h.getHosted,
		models.RoleAlumni:  h.getHosted,
	})
	return h
}

// Create godoc
// @Summary Propose or schedule a session
// @Description Faculty and alumni submit a session request; administrators schedule a session directly
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.SubmitSessionRequest true "Request payload (faculty/alumni) or dto.CreateSessionRequest (admin)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	h.create(c)
}

func (h *SessionHandler) submitRequest(c *gin.Context) {
	var req dto.SubmitSessionRequest
	if !bindJSON(c, &req, "invalid session request payload") {
		return
	}
	created, err := h.service.SubmitRequest(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

func (h *SessionHandler) createDirect(c *gin.Context) {
	var req dto.CreateSessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}
	session, err := h.service.CreateSession(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewSessionResponse(*session))
}

// List godoc
// @Summary List sessions
// @Description Administrators see every session, students the sessions they are eligible for, faculty and alumni the sessions they host
// @Tags Sessions
// @Produce json
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	h.list(c)
}

func (h *SessionHandler) listAll(c *gin.Context) {
	h.respondList(c, func(query dto.SessionQuery) ([]models.Session, *models.Pagination, error) {
		return h.service.ListAllSessions(c.Request.Context(), query)
	})
}

func (h *SessionHandler) listEligible(c *gin.Context) {
	h.respondList(c, func(query dto.SessionQuery) ([]models.Session, *models.Pagination, error) {
		return h.service.ListEligibleSessions(c.Request.Context(), claimsFromContext(c), query)
	})
}

func (h *SessionHandler) listHosted(c *gin.Context) {
	h.respondList(c, func(query dto.SessionQuery) ([]models.Session, *models.Pagination, error) {
		return h.service.ListHostedSessions(c.Request.Context(), claimsFromContext(c), query)
	})
}

func (h *SessionHandler) respondList(c *gin.Context, load func(dto.SessionQuery) ([]models.Session, *models.Pagination, error)) {
	var query dto.SessionQuery
	if !bindQuery(c, &query) {
		return
	}
	sessions, pagination, err := load(query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "evaluatedAt", h.service.EvaluatedAt().UTC().Format(time.RFC3339))
	response.JSON(c, http.StatusOK, dto.NewSessionResponses(sessions), pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get a session
// @Description Returns the session with its effective status; students receive 403 for sessions they are not eligible for
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	h.get(c)
}

func (h *SessionHandler) getAny(c *gin.Context) {
	h.respondOne(c, func() (*models.Session, error) {
		return h.service.GetSession(c.Request.Context(), c.Param("id"))
	})
}

func (h *SessionHandler) getEligible(c *gin.Context) {
	h.respondOne(c, func() (*models.Session, error) {
		return h.service.GetEligibleSession(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	})
}

func (h *SessionHandler) getHosted(c *gin.Context) {
	h.respondOne(c, func() (*models.Session, error) {
		return h.service.GetHostedSession(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	})
}

func (h *SessionHandler) respondOne(c *gin.Context, load func() (*models.Session, error)) {
	session, err := load()
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "evaluatedAt", h.service.EvaluatedAt().UTC().Format(time.RFC3339))
	response.JSON(c, http.StatusOK, dto.NewSessionResponse(*session), nil, middleware.ExtractMeta(c))
}

// ListRequests godoc
// @Summary List session requests
// @Description Administrators see every request, faculty and alumni their own
// @Tags Session Requests
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sessions/requests [get]
func (h *SessionHandler) ListRequests(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var query dto.SessionRequestQuery
	if !bindQuery(c, &query) {
		return
	}
	requests, pagination, err := h.service.ListRequests(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination, middleware.ExtractMeta(c))
}

// ReviewRequest godoc
// @Summary Mark a session request as reviewed
// @Tags Session Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/requests/{id}/review [patch]
func (h *SessionHandler) ReviewRequest(c *gin.Context) {
	request, err := h.service.ReviewRequest(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, request)
}

// ApproveRequest godoc
// @Summary Approve a session request
// @Description Schedules the session and notifies eligible students and the requester
// @Tags Session Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ApproveSessionRequest true "Schedule"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/requests/{id}/approve [patch]
func (h *SessionHandler) ApproveRequest(c *gin.Context) {
	var req dto.ApproveSessionRequest
	if !bindJSON(c, &req, "invalid approval payload") {
		return
	}
	session, err := h.service.ApproveRequest(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewSessionResponse(*session))
}

// RejectRequest godoc
// @Summary Reject a session request
// @Description Cancels any session scheduled from the request
// @Tags Session Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RejectSessionRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/requests/{id}/reject [patch]
func (h *SessionHandler) RejectRequest(c *gin.Context) {
	var req dto.RejectSessionRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "invalid rejection payload") {
		return
	}
	request, err := h.service.RejectRequest(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, request)
}

// Update godoc
// @Summary Edit a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateSessionRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/{id} [put]
func (h *SessionHandler) Update(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}
	session, err := h.service.UpdateSession(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewSessionResponse(*session))
}

// SetStatus godoc
// @Summary Override a session status
// @Description Completing a session is permanent and removes its originating request
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateSessionStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/{id}/status [patch]
func (h *SessionHandler) SetStatus(c *gin.Context) {
	var req dto.UpdateSessionStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	session, err := h.service.SetSessionStatus(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewSessionResponse(*session))
}

package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/podhive/access-engine/internal/apperr"
	"github.com/podhive/access-engine/internal/application/service"
	"github.com/podhive/access-engine/internal/application/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine        workflow.Engine
	notifications service.NotificationService
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(engine workflow.Engine, notifications service.NotificationService, logger Logger) *Handlers {
	return &Handlers{
		engine:        engine,
		notifications: notifications,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// RequestAccessRequest is the body for POST /api/v1/requests
type RequestAccessRequest struct {
	PodID           string    `json:"pod_id"`
	AccessCode      string    `json:"access_code"`
	Role            string    `json:"role" binding:"required"`
	PeriodMs        int64     `json:"period_ms"`
	CheckIn         time.Time `json:"check_in"`
	PermissionSetID string    `json:"permission_set_id"`
}

func (r RequestAccessRequest) toInput() workflow.RequestAccessInput {
	return workflow.RequestAccessInput{
		PodID:           r.PodID,
		AccessCode:      r.AccessCode,
		Role:            r.Role,
		PeriodMs:        r.PeriodMs,
		CheckIn:         r.CheckIn,
		PermissionSetID: r.PermissionSetID,
	}
}

// SignupRequest is the body for POST /api/v1/signup
type SignupRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Phone     string `json:"phone"`
	Password  string `json:"password" binding:"required"`
	PushToken string `json:"push_token"`
	RequestAccessRequest
}

// InvitationRequest is the body for POST /api/v1/invitations
type InvitationRequest struct {
	PodID           string    `json:"pod_id" binding:"required"`
	InviteeEmail    string    `json:"invitee_email" binding:"required"`
	Role            string    `json:"role" binding:"required"`
	PeriodMs        int64     `json:"period_ms"`
	CheckIn         time.Time `json:"check_in"`
	PermissionSetID string    `json:"permission_set_id"`
}

// AcceptRequestBody is the body for accepting a request
type AcceptRequestBody struct {
	Role            string `json:"role"`
	PermissionSetID string `json:"permission_set_id"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// RequestAccess handles POST /api/v1/requests
func (h *Handlers) RequestAccess(c *gin.Context) {
	var req RequestAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	view, err := h.engine.RequestAccess(c.Request.Context(), actorID(c), req.toInput())
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: view})
}

// RegisterAndRequestAccess handles POST /api/v1/signup
func (h *Handlers) RegisterAndRequestAccess(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	view, err := h.engine.RegisterAndRequestAccess(c.Request.Context(),
		workflow.RegisterInput{
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			Password:  req.Password,
			PushToken: req.PushToken,
		},
		req.toInput(),
	)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: view})
}

// SendInvitation handles POST /api/v1/invitations
func (h *Handlers) SendInvitation(c *gin.Context) {
	var req InvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	view, err := h.engine.SendInvitation(c.Request.Context(), actorID(c), workflow.InvitationInput{
		PodID:           req.PodID,
		InviteeEmail:    req.InviteeEmail,
		Role:            req.Role,
		PeriodMs:        req.PeriodMs,
		CheckIn:         req.CheckIn,
		PermissionSetID: req.PermissionSetID,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: view})
}

// CancelRequest handles POST /api/v1/requests/:id/cancel
func (h *Handlers) CancelRequest(c *gin.Context) {
	view, err := h.engine.CancelRequest(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// RejectRequest handles POST /api/v1/requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	view, err := h.engine.RejectRequest(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// AcceptRequest handles POST /api/v1/requests/:id/accept
func (h *Handlers) AcceptRequest(c *gin.Context) {
	var body AcceptRequestBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			h.badRequest(c, err)
			return
		}
	}

	view, err := h.engine.AcceptRequest(c.Request.Context(), actorID(c), c.Param("id"), workflow.AcceptInput{
		Role:            body.Role,
		PermissionSetID: body.PermissionSetID,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// CancelInvitation handles POST /api/v1/invitations/:id/cancel
func (h *Handlers) CancelInvitation(c *gin.Context) {
	view, err := h.engine.CancelInvitation(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// RejectInvitation handles POST /api/v1/invitations/:id/reject
func (h *Handlers) RejectInvitation(c *gin.Context) {
	view, err := h.engine.RejectInvitation(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// AcceptInvitation handles POST /api/v1/invitations/:id/accept
func (h *Handlers) AcceptInvitation(c *gin.Context) {
	view, err := h.engine.AcceptInvitation(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// GetProposal handles GET /api/v1/proposals/:id
func (h *Handlers) GetProposal(c *gin.Context) {
	view, err := h.engine.GetProposal(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// ListUserProposals handles GET /api/v1/proposals
func (h *Handlers) ListUserProposals(c *gin.Context) {
	requests, invitations, err := h.engine.ListUserProposals(c.Request.Context(), actorID(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"requests":    requests,
		"invitations": invitations,
	}})
}

// ListPodProposals handles GET /api/v1/pods/:id/proposals
func (h *Handlers) ListPodProposals(c *gin.Context) {
	views, err := h.engine.ListPodProposals(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: views})
}

// ListNotifications handles GET /api/v1/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.notifications.ListInbox(c.Request.Context(), actorID(c), limit, offset)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: items})
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	h.logger.Error("Invalid request body", "error", err, "path", c.Request.URL.Path)
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   "invalid request body",
		Code:    string(apperr.KindValidation),
	})
}

// renderError maps the error taxonomy onto HTTP status codes
func (h *Handlers) renderError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError

	switch kind {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnauthorized:
		status = http.StatusForbidden
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindTransaction:
		status = http.StatusServiceUnavailable
	}

	if status >= 500 {
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
	}

	c.JSON(status, Response{
		Success: false,
		Error:   err.Error(),
		Code:    string(kind),
	})
}

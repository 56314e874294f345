package sessions

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venuepilot/backend/internal/middleware"
	"github.com/venuepilot/backend/internal/models"
	"github.com/venuepilot/backend/internal/schedule"
	"github.com/venuepilot/backend/pkg/response"
)

// TimeRangeRequest is the wire shape of a candidate interval.
type TimeRangeRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// CreateRequest is the body for POST /sessions.
type CreateRequest struct {
	EventID     *uuid.UUID       `json:"event_id"`
	Title       string           `json:"title" binding:"required"`
	Description *string          `json:"description"`
	Status      string           `json:"status"`
	SpaceID     uuid.UUID        `json:"space_id" binding:"required"`
	TimeRange   TimeRangeRequest `json:"time_range" binding:"required"`
	Capacity    *int             `json:"capacity"`
}

// UpdateRequest is the body for PUT /sessions/:id; absent fields are unchanged.
type UpdateRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Status      *string           `json:"status"`
	SpaceID     *uuid.UUID        `json:"space_id"`
	TimeRange   *TimeRangeRequest `json:"time_range"`
	Capacity    *int              `json:"capacity"`
}

// Handler handles session HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a session handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var vErr *schedule.ValidationError
	var cErr *schedule.ConflictError
	switch {
	case errors.Is(err, models.ErrNotFound):
		response.NotFound(c, "not found")
	case errors.Is(err, models.ErrForbidden):
		response.Forbidden(c, models.ErrForbidden.Error())
	case errors.As(err, &vErr):
		response.BadRequest(c, vErr.Error())
	case errors.As(err, &cErr):
		response.Conflict(c, cErr.Error())
	default:
		h.logger.Error("session request failed", zap.Error(err))
		response.Internal(c, "internal error")
	}
}

// Create handles POST /sessions.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	tr, err := schedule.ParseTimeRange(req.TimeRange.Start, req.TimeRange.End)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	caller := middleware.CallerIdentity(c)
	sess, err := h.svc.Create(c.Request.Context(), caller, CreateParams{
		EventID:     req.EventID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.EventStatus(req.Status),
		SpaceID:     req.SpaceID,
		TimeRange:   tr,
		Capacity:    req.Capacity,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, sess)
}

// Get handles GET /sessions/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	sess, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, sess)
}

// Update handles PUT /sessions/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	var tr *schedule.TimeRange
	if req.TimeRange != nil {
		parsed, err := schedule.ParseTimeRange(req.TimeRange.Start, req.TimeRange.End)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		tr = &parsed
	}
	var status *models.EventStatus
	if req.Status != nil {
		s := models.EventStatus(*req.Status)
		status = &s
	}

	caller := middleware.CallerIdentity(c)
	sess, err := h.svc.Update(c.Request.Context(), caller, id, UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		SpaceID:     req.SpaceID,
		TimeRange:   tr,
		Capacity:    req.Capacity,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, sess)
}

// Delete handles DELETE /sessions/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	caller := middleware.CallerIdentity(c)
	sess, err := h.svc.Delete(c.Request.Context(), caller, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, sess)
}

// ListByEvent handles GET /sessions/event/:id.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.svc.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Session{}
	}
	response.OK(c, list)
}

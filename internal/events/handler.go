package events

import (
	"errors"
	"strconv"

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

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title       string            `json:"title" binding:"required"`
	Description *string           `json:"description"`
	Status      string            `json:"status"`
	SpaceID     *uuid.UUID        `json:"space_id"`
	TimeRange   *TimeRangeRequest `json:"time_range"`
	Capacity    *int              `json:"capacity"`
}

// UpdateRequest is the body for PUT /events/:id; absent fields are unchanged.
type UpdateRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Status      *string           `json:"status"`
	SpaceID     *uuid.UUID        `json:"space_id"`
	TimeRange   *TimeRangeRequest `json:"time_range"`
	Capacity    *int              `json:"capacity"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an event handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func parseRange(req *TimeRangeRequest) (*schedule.TimeRange, error) {
	if req == nil {
		return nil, nil
	}
	r, err := schedule.ParseTimeRange(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// respondError maps domain errors onto the response envelope.
func (h *Handler) respondError(c *gin.Context, err error) {
	var vErr *schedule.ValidationError
	var cErr *schedule.ConflictError
	switch {
	case errors.Is(err, models.ErrNotFound):
		response.NotFound(c, "event not found")
	case errors.Is(err, models.ErrForbidden):
		response.Forbidden(c, models.ErrForbidden.Error())
	case errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrAlreadyRegistered),
		errors.Is(err, models.ErrCapacityExceeded):
		response.BadRequest(c, err.Error())
	case errors.As(err, &vErr):
		response.BadRequest(c, vErr.Error())
	case errors.As(err, &cErr):
		response.Conflict(c, cErr.Error())
	default:
		h.logger.Error("event request failed", zap.Error(err))
		response.Internal(c, "internal error")
	}
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	tr, err := parseRange(req.TimeRange)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	caller := middleware.CallerIdentity(c)
	e, err := h.svc.Create(c.Request.Context(), caller, CreateParams{
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
	response.Created(c, e)
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, e)
}

// Update handles PUT /events/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	tr, err := parseRange(req.TimeRange)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var status *models.EventStatus
	if req.Status != nil {
		s := models.EventStatus(*req.Status)
		status = &s
	}

	caller := middleware.CallerIdentity(c)
	e, err := h.svc.Update(c.Request.Context(), caller, id, UpdateParams{
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
	response.OK(c, e)
}

// Delete handles DELETE /events/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	caller := middleware.CallerIdentity(c)
	e, err := h.svc.Delete(c.Request.Context(), caller, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, e)
}

// List handles GET /events with search, status filter, and pagination.
// start_date/end_date are accepted but not applied.
func (h *Handler) List(c *gin.Context) {
	opts := ListOptions{
		Search: c.Query("q"),
		Page:   intQuery(c, "page", 1),
		Size:   intQuery(c, "size", 10),
	}
	if v := c.Query("start_date"); v != "" {
		opts.StartDate = &v
	}
	if v := c.Query("end_date"); v != "" {
		opts.EndDate = &v
	}
	if s := c.Query("status"); s != "" {
		status := models.EventStatus(s)
		if !models.ValidEventStatus(status) {
			response.BadRequest(c, "invalid status")
			return
		}
		opts.Status = &status
	}

	caller := middleware.CallerIdentity(c)
	page, err := h.svc.List(c.Request.Context(), caller, opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, page)
}

// Register handles POST /events/:id/register.
func (h *Handler) Register(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	caller := middleware.CallerIdentity(c)
	reg, err := h.svc.Register(c.Request.Context(), caller, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, reg)
}

// Unregister handles DELETE /events/:id/register.
func (h *Handler) Unregister(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	caller := middleware.CallerIdentity(c)
	reg, err := h.svc.Unregister(c.Request.Context(), caller, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "registration not found")
			return
		}
		h.respondError(c, err)
		return
	}
	response.OK(c, reg)
}

// MyRegistrations handles GET /registrations/me.
func (h *Handler) MyRegistrations(c *gin.Context) {
	caller := middleware.CallerIdentity(c)
	regs, err := h.svc.MyRegistrations(c.Request.Context(), caller)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	response.OK(c, regs)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return n
}

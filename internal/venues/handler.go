package venues

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venuepilot/backend/internal/models"
	"github.com/venuepilot/backend/pkg/response"
)

// CreateVenueRequest is the body for POST /venues.
type CreateVenueRequest struct {
	Name      string   `json:"name" binding:"required"`
	Address   *string  `json:"address"`
	City      *string  `json:"city"`
	Country   *string  `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CreateSpaceRequest is the body for POST /venues/:id/spaces.
type CreateSpaceRequest struct {
	Name     string `json:"name" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,min=1"`
}

// Handler handles venue and space HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a venue handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// CreateVenue handles POST /venues (admin only, enforced at the router).
func (h *Handler) CreateVenue(c *gin.Context) {
	var req CreateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	v := &models.Venue{
		Name:      req.Name,
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := h.repo.CreateVenue(c.Request.Context(), v); err != nil {
		if errors.Is(err, ErrDuplicate) {
			response.BadRequest(c, "venue already exists")
			return
		}
		h.logger.Error("create venue", zap.Error(err))
		response.Internal(c, "failed to create venue")
		return
	}
	response.Created(c, v)
}

// GetVenue handles GET /venues/:id.
func (h *Handler) GetVenue(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	v, err := h.repo.GetVenue(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "venue not found")
			return
		}
		h.logger.Error("get venue", zap.Error(err))
		response.Internal(c, "failed to load venue")
		return
	}
	response.OK(c, v)
}

// ListVenues handles GET /venues.
func (h *Handler) ListVenues(c *gin.Context) {
	list, err := h.repo.ListVenues(c.Request.Context())
	if err != nil {
		h.logger.Error("list venues", zap.Error(err))
		response.Internal(c, "failed to list venues")
		return
	}
	if list == nil {
		list = []models.Venue{}
	}
	response.OK(c, list)
}

// CreateSpace handles POST /venues/:id/spaces (admin only, enforced at the
// router).
func (h *Handler) CreateSpace(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	var req CreateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	s := &models.Space{VenueID: venueID, Name: req.Name, Capacity: req.Capacity}
	if err := h.repo.CreateSpace(c.Request.Context(), s); err != nil {
		switch {
		case errors.Is(err, ErrDuplicate):
			response.BadRequest(c, "space already exists")
		case errors.Is(err, models.ErrNotFound):
			response.NotFound(c, "venue not found")
		default:
			h.logger.Error("create space", zap.Error(err))
			response.Internal(c, "failed to create space")
		}
		return
	}
	response.Created(c, s)
}

// ListSpaces handles GET /venues/:id/spaces.
func (h *Handler) ListSpaces(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return
	}
	list, err := h.repo.ListSpaces(c.Request.Context(), venueID)
	if err != nil {
		h.logger.Error("list spaces", zap.Error(err))
		response.Internal(c, "failed to list spaces")
		return
	}
	if list == nil {
		list = []models.Space{}
	}
	response.OK(c, list)
}

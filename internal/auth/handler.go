package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/venuepilot/backend/internal/middleware"
	"github.com/venuepilot/backend/internal/models"
	"github.com/venuepilot/backend/pkg/response"
	"github.com/venuepilot/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role"` // optional: organizer or customer; admin is seeded
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo     *Repository
	jwt      *JWTService
	sessions *SessionStore
	logger   *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, sessions *SessionStore, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, sessions: sessions, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	role := models.RoleCustomer
	switch req.Role {
	case "", models.RoleCustomer:
	case models.RoleOrganizer:
		role = models.RoleOrganizer
	default:
		response.BadRequest(c, "invalid role")
		return
	}

	if _, err := h.repo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.BadRequest(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName, []string{role})
	if err != nil {
		h.logger.Error("create user", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, jti, err := h.jwt.Generate(user.ID, user.Email, user.Roles)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	if err := h.sessions.Save(c.Request.Context(), jti, user.ID, h.jwt.TTL()); err != nil {
		h.logger.Error("save session", zap.Error(err))
		response.Internal(c, "failed to start session")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.logger.Error("get user", zap.Error(err))
		}
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !user.IsActive || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, jti, err := h.jwt.Generate(user.ID, user.Email, user.Roles)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	if err := h.sessions.Save(c.Request.Context(), jti, user.ID, h.jwt.TTL()); err != nil {
		h.logger.Error("save session", zap.Error(err))
		response.Internal(c, "failed to start session")
		return
	}
	_ = h.repo.TouchLastLogin(c.Request.Context(), user.ID)

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Logout handles POST /auth/logout: revokes the current token's jti.
func (h *Handler) Logout(c *gin.Context) {
	jti := c.GetString(middleware.ContextTokenJTI)
	if jti == "" {
		response.Unauthorized(c, "missing session")
		return
	}
	if err := h.sessions.Revoke(c.Request.Context(), jti); err != nil {
		h.logger.Error("revoke session", zap.Error(err))
		response.Internal(c, "failed to log out")
		return
	}
	response.OK(c, gin.H{"logged_out": true})
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	users, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, users)
}

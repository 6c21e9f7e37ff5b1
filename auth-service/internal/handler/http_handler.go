package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bigseized/rksp-final/auth-service/internal/domain"
	"github.com/bigseized/rksp-final/auth-service/internal/repository"
	"github.com/bigseized/rksp-final/auth-service/internal/service"
	"github.com/bigseized/rksp-final/pkg/log"
	"github.com/bigseized/rksp-final/pkg/middleware"
	"github.com/bigseized/rksp-final/pkg/response"
)

// Handler handles HTTP requests for the identity service.
type Handler struct {
	accounts       service.AccountService
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(accounts service.AccountService, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		accounts:       accounts,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/validate", h.Validate)
		auth.POST("/logout", h.authMiddleware.RequireAuth(), h.Logout)
		auth.GET("/me", h.authMiddleware.RequireAuth(), h.Me)
	}
}

// Register handles account registration.
func (h *Handler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid register request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.accounts.Register(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			response.Conflict(c, "email already exists")
		case errors.Is(err, service.ErrWeakPassword), errors.Is(err, service.ErrBlankUsername):
			response.Error(c, http.StatusBadRequest, response.CodeValidation, err.Error())
		default:
			l.Error().Err(err).Msg("register failed")
			response.InternalError(c, "failed to register account")
		}
		return
	}

	response.Created(c, result)
}

// Login handles password login.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid login request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.accounts.Login(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		l.Error().Err(err).Msg("login failed")
		response.InternalError(c, "failed to login")
		return
	}

	response.Success(c, result)
}

// Refresh handles token refresh.
func (h *Handler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.accounts.Refresh(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			response.Unauthorized(c, "invalid or expired refresh token")
			return
		}
		l.Error().Err(err).Msg("refresh failed")
		response.InternalError(c, "failed to refresh token")
		return
	}

	response.Success(c, result)
}

type validateRequest struct {
	Token string `json:"token" binding:"required"`
}

type validateResponse struct {
	Valid    bool   `json:"valid"`
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Validate is the REST twin of the ValidateToken RPC. A rejected token is a
// 200 with valid=false.
func (h *Handler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res := h.accounts.Validate(c.Request.Context(), req.Token)
	response.Success(c, validateResponse{
		Valid:    res.Valid,
		ID:       res.UserID,
		Username: res.Username,
		Error:    res.Error,
	})
}

// Logout revokes the caller's tokens.
func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	if err := h.accounts.Logout(ctx, userID); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("logout failed")
		response.InternalError(c, "failed to logout")
		return
	}

	response.NoContent(c)
}

// Me returns the caller's account.
func (h *Handler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	account, err := h.accounts.Me(ctx, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			response.NotFound(c, "account not found")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to load account")
		response.InternalError(c, "failed to load account")
		return
	}

	response.Success(c, account)
}

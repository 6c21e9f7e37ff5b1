package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bigseized/rksp-final/chat-service/internal/domain"
	"github.com/bigseized/rksp-final/chat-service/internal/service"
	"github.com/bigseized/rksp-final/pkg/log"
	"github.com/bigseized/rksp-final/pkg/middleware"
	"github.com/bigseized/rksp-final/pkg/response"
)

// selfAlias addresses the caller in user path parameters.
const selfAlias = "me"

// Handler serves the chat REST API.
type Handler struct {
	chats          service.ChatService
	users          service.UserService
	authMiddleware *middleware.AuthMiddleware
	maxUploadBytes int64
}

// NewHandler creates a new HTTP handler.
func NewHandler(chats service.ChatService, users service.UserService, authMiddleware *middleware.AuthMiddleware, maxUploadBytes int64) *Handler {
	return &Handler{
		chats:          chats,
		users:          users,
		authMiddleware: authMiddleware,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(h.authMiddleware.RequireAuth())

	chats := api.Group("/chats")
	{
		chats.POST("", h.CreateChat)
		chats.GET("", h.ListChats)
		chats.POST("/personal", h.CreatePersonalChat)
		chats.GET("/:chatId/messages", h.History)
		chats.POST("/:chatId/messages", h.SendMessage)
		chats.GET("/:chatId/members", h.ListMembers)
		chats.POST("/:chatId/users/:userId", h.AddMember)
		chats.DELETE("/:chatId/users/:userId", h.RemoveMember)
		chats.POST("/:chatId/users/:userId/promote", h.Promote)
		chats.POST("/:chatId/users/:userId/demote", h.Demote)
	}

	users := api.Group("/users")
	{
		users.GET("/search", h.SearchUsers)
		users.GET("/:userId", h.GetUser)
		users.PUT("/:userId/username", h.UpdateUsername)
		users.POST("/:userId/avatar", h.UploadAvatar)
		users.GET("/:userId/avatar", h.GetAvatar)
		users.DELETE("/:userId/avatar", h.DeleteAvatar)
	}
}

// principal builds the sender identity of a REST request.
func principal(c *gin.Context) domain.SessionPrincipal {
	return domain.SessionPrincipal{
		UserID:      middleware.GetUserID(c),
		DisplayName: middleware.GetUsername(c),
		Email:       middleware.GetEmail(c),
	}
}

// resolveUser maps the "me" alias to the caller's id.
func resolveUser(c *gin.Context) string {
	id := c.Param("userId")
	if id == selfAlias {
		return middleware.GetUserID(c)
	}
	return id
}

// requireSelf rejects writes to another user's profile.
func requireSelf(c *gin.Context) (string, bool) {
	target := resolveUser(c)
	if target != middleware.GetUserID(c) {
		response.Forbidden(c, "you can only modify your own profile")
		return "", false
	}
	return target, true
}

// writeError maps a service error onto the response envelope. Unclassified
// errors are logged and reported as a generic 500.
func writeError(c *gin.Context, err error, op string) {
	msg := domain.PublicMessage(err)

	switch domain.KindOf(err) {
	case domain.KindNotFound:
		response.NotFound(c, msg)
	case domain.KindConflict:
		response.Conflict(c, msg, asError(err).ChatIDs...)
	case domain.KindIllegalState:
		response.Error(c, http.StatusBadRequest, response.CodeIllegalState, msg)
	case domain.KindAuthenticationRequired:
		response.Unauthorized(c, msg)
	case domain.KindForbidden:
		response.Forbidden(c, msg)
	case domain.KindValidation:
		response.Error(c, http.StatusBadRequest, response.CodeValidation, msg)
	case domain.KindBadRequest:
		response.BadRequest(c, msg)
	case domain.KindUpstreamUnavailable:
		response.BadGateway(c, msg)
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Str("op", op).Msg("request failed")
		response.InternalError(c, "internal server error")
		return
	}

	l := log.Ctx(c.Request.Context())
	l.Debug().Err(err).Str("op", op).Msg("request rejected")
}

func asError(err error) *domain.Error {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return derr
	}
	return nil
}

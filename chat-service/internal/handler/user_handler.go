package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bigseized/rksp-final/chat-service/internal/domain"
	"github.com/bigseized/rksp-final/pkg/log"
	"github.com/bigseized/rksp-final/pkg/response"
)

const avatarFormField = "file"

func (h *Handler) SearchUsers(c *gin.Context) {
	users, err := h.users.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		writeError(c, err, "search users")
		return
	}
	response.Success(c, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), resolveUser(c))
	if err != nil {
		writeError(c, err, "get user")
		return
	}
	response.Success(c, user)
}

// UpdateUsername accepts the new name as JSON {"username"} or, for older
// clients, as the username query parameter.
func (h *Handler) UpdateUsername(c *gin.Context) {
	ctx := c.Request.Context()
	self, ok := requireSelf(c)
	if !ok {
		return
	}

	username := c.Query("username")
	if username == "" {
		var req domain.UpdateUsernameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeValidation, "username must be between 3 and 50 characters")
			return
		}
		username = req.Username
	}

	user, err := h.users.UpdateUsername(ctx, self, username)
	if err != nil {
		writeError(c, err, "update username")
		return
	}
	response.Success(c, user)
}

func (h *Handler) UploadAvatar(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	self, ok := requireSelf(c)
	if !ok {
		return
	}

	if h.maxUploadBytes > 0 {
		// Multipart framing needs headroom beyond the image limit.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+64<<10)
	}
	fh, err := c.FormFile(avatarFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "avatar too large")
			return
		}
		l.Warn().Err(err).Msg("missing avatar file")
		response.BadRequest(c, "multipart field \"file\" is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, err, "open avatar upload")
		return
	}
	defer f.Close()

	if err := h.users.UploadAvatar(ctx, self, f); err != nil {
		writeError(c, err, "upload avatar")
		return
	}
	response.NoContent(c)
}

func (h *Handler) GetAvatar(c *gin.Context) {
	obj, err := h.users.Avatar(c.Request.Context(), resolveUser(c))
	if err != nil {
		writeError(c, err, "get avatar")
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, nil)
}

func (h *Handler) DeleteAvatar(c *gin.Context) {
	self, ok := requireSelf(c)
	if !ok {
		return
	}
	if err := h.users.DeleteAvatar(c.Request.Context(), self); err != nil {
		writeError(c, err, "delete avatar")
		return
	}
	response.NoContent(c)
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bigseized/rksp-final/chat-service/internal/domain"
	"github.com/bigseized/rksp-final/pkg/log"
	"github.com/bigseized/rksp-final/pkg/middleware"
	"github.com/bigseized/rksp-final/pkg/response"
)

// personalChatView is a created personal chat with its other participant.
type personalChatView struct {
	*domain.Chat
	TargetUserID string `json:"targetUserId"`
}

func (h *Handler) CreateChat(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid create chat request")
		response.BadRequest(c, err.Error())
		return
	}

	chat, err := h.chats.CreateChat(ctx, middleware.GetUserID(c), req)
	if err != nil {
		writeError(c, err, "create chat")
		return
	}
	response.Created(c, chat)
}

func (h *Handler) CreatePersonalChat(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.CreatePersonalChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid create personal chat request")
		response.BadRequest(c, err.Error())
		return
	}

	chat, err := h.chats.CreatePersonalChat(ctx, middleware.GetUserID(c), req)
	if err != nil {
		writeError(c, err, "create personal chat")
		return
	}
	response.Created(c, personalChatView{Chat: chat, TargetUserID: req.TargetUserID})
}

func (h *Handler) ListChats(c *gin.Context) {
	chats, err := h.chats.ListChats(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err, "list chats")
		return
	}
	response.Success(c, chats)
}

func (h *Handler) History(c *gin.Context) {
	msgs, err := h.chats.History(c.Request.Context(), middleware.GetUserID(c), c.Param("chatId"))
	if err != nil {
		writeError(c, err, "history")
		return
	}
	response.Success(c, msgs)
}

func (h *Handler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid message body")
		return
	}

	msg, err := h.chats.SendMessage(ctx, principal(c), c.Param("chatId"), req.Content)
	if err != nil {
		writeError(c, err, "send message")
		return
	}
	response.Created(c, msg)
}

func (h *Handler) ListMembers(c *gin.Context) {
	members, err := h.chats.ListMembers(c.Request.Context(), middleware.GetUserID(c), c.Param("chatId"))
	if err != nil {
		writeError(c, err, "list members")
		return
	}
	response.Success(c, members)
}

func (h *Handler) AddMember(c *gin.Context) {
	if err := h.chats.AddMember(c.Request.Context(), middleware.GetUserID(c), c.Param("chatId"), resolveUser(c)); err != nil {
		writeError(c, err, "add member")
		return
	}
	response.NoContent(c)
}

// RemoveMember removes another member, or leaves the chat when the target
// is the caller.
func (h *Handler) RemoveMember(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.GetUserID(c)
	chatID := c.Param("chatId")

	var err error
	if c.Param("userId") == selfAlias {
		err = h.chats.Leave(ctx, actor, chatID)
	} else {
		err = h.chats.RemoveMember(ctx, actor, chatID, c.Param("userId"))
	}
	if err != nil {
		writeError(c, err, "remove member")
		return
	}
	response.NoContent(c)
}

func (h *Handler) Promote(c *gin.Context) {
	if err := h.chats.Promote(c.Request.Context(), middleware.GetUserID(c), c.Param("chatId"), resolveUser(c)); err != nil {
		writeError(c, err, "promote")
		return
	}
	response.NoContent(c)
}

func (h *Handler) Demote(c *gin.Context) {
	if err := h.chats.Demote(c.Request.Context(), middleware.GetUserID(c), c.Param("chatId"), resolveUser(c)); err != nil {
		writeError(c, err, "demote")
		return
	}
	response.NoContent(c)
}

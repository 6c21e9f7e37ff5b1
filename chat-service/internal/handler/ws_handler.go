package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bigseized/rksp-final/chat-service/internal/audit"
	"github.com/bigseized/rksp-final/chat-service/internal/config"
	"github.com/bigseized/rksp-final/chat-service/internal/domain"
	"github.com/bigseized/rksp-final/chat-service/internal/hub"
	"github.com/bigseized/rksp-final/chat-service/internal/metrics"
	"github.com/bigseized/rksp-final/chat-service/internal/registry"
	"github.com/bigseized/rksp-final/chat-service/internal/service"
	"github.com/bigseized/rksp-final/chat-service/internal/stomp"
	"github.com/bigseized/rksp-final/pkg/authn"
	"github.com/bigseized/rksp-final/pkg/log"
)

// WSHandler is the STOMP-over-WebSocket gateway. Identity is established
// once, at CONNECT, and looked up by session id for every later frame.
type WSHandler struct {
	hub       *hub.Hub
	chats     service.ChatService
	users     service.UserService
	validator authn.Validator
	registry  *registry.SessionRegistry
	wsCfg     config.WebSocketConfig
	upgrader  websocket.Upgrader
	metrics   *metrics.Metrics
}

func NewWSHandler(
	h *hub.Hub,
	chats service.ChatService,
	users service.UserService,
	validator authn.Validator,
	reg *registry.SessionRegistry,
	wsCfg config.WebSocketConfig,
) *WSHandler {
	allowed := make(map[string]bool, len(wsCfg.AllowedOrigins))
	for _, o := range wsCfg.AllowedOrigins {
		allowed[o] = true
	}
	return &WSHandler{
		hub:       h,
		chats:     chats,
		users:     users,
		validator: validator,
		registry:  reg,
		wsCfg:     wsCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			Subprotocols:    []string{"v12.stomp", "v11.stomp", "v10.stomp"},
			CheckOrigin: func(r *http.Request) bool {
				return len(allowed) == 0 || allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// WithMetrics attaches collectors and returns h.
func (h *WSHandler) WithMetrics(m *metrics.Metrics) *WSHandler {
	h.metrics = m
	return h
}

// wsSession is per-connection gateway state, touched only by the
// connection's read goroutine.
type wsSession struct {
	client   *hub.Client
	ctx      context.Context
	errorSub string
	closed   bool
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	path := h.wsCfg.Path
	if path == "" {
		path = "/ws"
	}
	r.GET(path, h.HandleWebSocket)
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)
	sess := &wsSession{
		client: client,
		ctx:    log.With(context.Background(), log.FieldSessionID, client.ID),
	}

	h.hub.Register(client)
	h.metrics.SessionOpened()

	go client.WritePump()
	go client.ReadPump(func(_ *hub.Client, data []byte) {
		h.handleMessage(sess, data)
	}, func(*hub.Client) {
		h.closeSession(sess)
	})
}

func (h *WSHandler) handleMessage(sess *wsSession, data []byte) {
	frames, err := stomp.Decode(data)
	if err != nil {
		l := log.Ctx(sess.ctx)
		l.Warn().Err(err).Msg("malformed stomp frame")
		sess.client.SendFrame(stomp.Error("malformed frame"))
		sess.client.Close()
		return
	}

	for _, f := range frames {
		if !h.handleFrame(sess, f) {
			return
		}
		if receipt := f.Header.Get(stomp.HeaderReceipt); receipt != "" && f.Command != frame.CONNECT && f.Command != frame.STOMP {
			sess.client.SendFrame(stomp.Receipt(receipt))
		}
	}
}

// handleFrame dispatches one frame. It returns false once the connection
// is being torn down.
func (h *WSHandler) handleFrame(sess *wsSession, f *frame.Frame) bool {
	switch f.Command {
	case frame.CONNECT, frame.STOMP:
		return h.handleConnect(sess, f)
	case frame.SEND:
		h.handleSend(sess, f)
	case frame.SUBSCRIBE:
		h.handleSubscribe(sess, f)
	case frame.UNSUBSCRIBE:
		id := f.Header.Get(stomp.HeaderID)
		if id == sess.errorSub {
			sess.errorSub = ""
		}
		h.hub.Unsubscribe(sess.client, id)
	case frame.DISCONNECT:
		if receipt := f.Header.Get(stomp.HeaderReceipt); receipt != "" {
			sess.client.SendFrame(stomp.Receipt(receipt))
		}
		h.closeSession(sess)
		sess.client.Close()
		return false
	default:
		h.sendError(sess, domain.BadRequest("unsupported frame %s", f.Command))
	}
	return true
}

// handleConnect always answers CONNECTED. A missing or rejected token
// leaves the session unauthenticated instead of failing the socket.
func (h *WSHandler) handleConnect(sess *wsSession, f *frame.Frame) bool {
	l := log.Ctx(sess.ctx)

	if !stomp.SupportsVersion(f.Header.Get(stomp.HeaderAcceptVersion)) {
		sess.client.SendFrame(stomp.Error("supported protocol version is " + stomp.Version))
		sess.client.Close()
		return false
	}

	header := f.Header.Get(stomp.HeaderAuthorization)
	if header == "" {
		header = f.Header.Get("authorization")
	}

	if token, ok := authn.BearerToken(header); ok {
		res := h.validator.Validate(sess.ctx, token)
		if res.Valid {
			h.registry.Put(domain.SessionPrincipal{
				SessionID:   sess.client.ID,
				UserID:      res.UserID,
				DisplayName: res.Username,
				Email:       res.Email,
			})
			sess.ctx = log.With(sess.ctx, log.FieldUserID, res.UserID)
			if err := h.users.Sync(sess.ctx, res); err != nil {
				l.Warn().Err(err).Msg("failed to sync user projection")
			}
			audit.Log(sess.ctx, audit.ActionConnect, res.UserID, "stomp session authenticated")
			h.metrics.Connect("authenticated")
		} else {
			audit.LogWithDetail(sess.ctx, audit.ActionConnectFailed, "", res.Error, "stomp connect rejected")
			h.metrics.Connect("rejected")
		}
	} else {
		l.Debug().Msg("stomp connect without bearer token")
		h.metrics.Connect("anonymous")
	}

	sess.client.SendFrame(stomp.Connected(sess.client.ID))
	return true
}

func (h *WSHandler) handleSend(sess *wsSession, f *frame.Frame) {
	dest := f.Header.Get(stomp.HeaderDestination)
	chatID, ok := stomp.ParseSendDestination(dest)
	if !ok {
		h.sendError(sess, domain.BadRequest("unknown destination %q", dest))
		return
	}

	p, ok := h.registry.Get(sess.client.ID)
	if !ok {
		h.sendError(sess, domain.AuthenticationRequired("authentication required"))
		return
	}

	var req domain.SendMessageRequest
	if err := json.Unmarshal(f.Body, &req); err != nil {
		h.sendError(sess, domain.BadRequest("message body must be JSON {\"content\": ...}"))
		return
	}

	ctx := log.With(sess.ctx, log.FieldChatID, chatID)
	if _, err := h.chats.SendMessage(ctx, p, chatID, req.Content); err != nil {
		h.sendError(sess, err)
	}
}

func (h *WSHandler) handleSubscribe(sess *wsSession, f *frame.Frame) {
	dest := f.Header.Get(stomp.HeaderDestination)
	subID := f.Header.Get(stomp.HeaderID)
	if subID == "" {
		h.sendError(sess, domain.BadRequest("subscription id is required"))
		return
	}

	if stomp.IsErrorQueue(dest) {
		sess.errorSub = subID
		return
	}

	chatID, ok := stomp.ParseChatTopic(dest)
	if !ok {
		h.sendError(sess, domain.BadRequest("unknown destination %q", dest))
		return
	}

	p, ok := h.registry.Get(sess.client.ID)
	if !ok {
		h.sendError(sess, domain.AuthenticationRequired("authentication required"))
		return
	}
	ctx := log.With(sess.ctx, log.FieldChatID, chatID)
	if err := h.chats.CanSubscribe(ctx, p.UserID, chatID); err != nil {
		h.sendError(sess, err)
		return
	}
	h.hub.Subscribe(sess.client, subID, dest)
}

type errorPayload struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	IDs     []string `json:"ids,omitempty"`
}

// sendError delivers a business error to the session's error queue. The
// connection stays open.
func (h *WSHandler) sendError(sess *wsSession, err error) {
	l := log.Ctx(sess.ctx)
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		l.Error().Err(err).Msg("stomp frame failed")
	} else {
		l.Debug().Err(err).Msg("stomp frame rejected")
	}

	h.metrics.FrameError(kind.String())

	payload := errorPayload{Code: kind.String(), Message: domain.PublicMessage(err)}
	if derr := asError(err); derr != nil {
		payload.IDs = derr.ChatIDs
	}
	body, _ := json.Marshal(payload)

	subID := sess.errorSub
	if subID == "" {
		subID = "errors"
	}
	sess.client.SendFrame(stomp.Message(stomp.ErrorQueue, subID, uuid.New().String(), stomp.JSONContent, body))
}

// closeSession evicts the principal. Safe to call repeatedly; only the
// read goroutine calls it.
func (h *WSHandler) closeSession(sess *wsSession) {
	if p, ok := h.registry.Get(sess.client.ID); ok {
		audit.Log(sess.ctx, audit.ActionDisconnect, p.UserID, "stomp session closed")
	}
	h.registry.Remove(sess.client.ID)
	if !sess.closed {
		sess.closed = true
		h.metrics.SessionClosed()
	}
}

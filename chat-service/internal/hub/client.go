package hub

import (
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/gorilla/websocket"

	"github.com/bigseized/rksp-final/chat-service/internal/config"
	"github.com/bigseized/rksp-final/chat-service/internal/stomp"
	"github.com/bigseized/rksp-final/pkg/log"
)

// Client is one WebSocket connection. ID doubles as the STOMP session id.
type Client struct {
	ID     string
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	config config.WebSocketConfig

	closed    chan struct{}
	closeOnce sync.Once
}

func NewClient(id string, hub *Hub, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	buf := cfg.SendBuffer
	if buf <= 0 {
		buf = 256
	}
	return &Client{
		ID:     id,
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, buf),
		config: cfg,
		closed: make(chan struct{}),
	}
}

// ReadPump feeds every inbound text message to handler until the socket
// fails or closes. onClose runs before the client is unregistered.
func (c *Client) ReadPump(handler func(*Client, []byte), onClose func(*Client)) {
	defer func() {
		if onClose != nil {
			onClose(c)
		}
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Warn().Err(err).Str(log.FieldSessionID, c.ID).Msg("websocket read error")
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		handler(c, message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			c.flush()
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-c.Hub.done:
			return

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush writes frames queued before the client was closed.
func (c *Client) flush() {
	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

// SendFrame queues f for the write pump. Frames are dropped when the send
// buffer is full or the client is closed.
func (c *Client) SendFrame(f *frame.Frame) error {
	data, err := stomp.Encode(f)
	if err != nil {
		return err
	}

	select {
	case <-c.closed:
	case c.Send <- data:
	default:
		l := log.L()
		l.Warn().Str(log.FieldSessionID, c.ID).Str(log.FieldCommand, f.Command).Msg("send buffer full, frame dropped")
	}
	return nil
}

// Close stops the write pump. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// Closed is done once the client has been closed.
func (c *Client) Closed() <-chan struct{} {
	return c.closed
}

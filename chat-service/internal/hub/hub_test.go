package hub

import (
	"context"
	"testing"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigseized/rksp-final/chat-service/internal/config"
	"github.com/bigseized/rksp-final/chat-service/internal/stomp"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub()
	go h.Run(ctx)
	return h
}

func newTestClient(h *Hub, id string) *Client {
	cfg := config.DefaultWebSocket()
	cfg.SendBuffer = 4
	c := NewClient(id, h, nil, cfg)
	h.Register(c)
	return c
}

func receive(t *testing.T, c *Client) *frame.Frame {
	t.Helper()
	select {
	case data := <-c.Send:
		frames, err := stomp.Decode(data)
		require.NoError(t, err)
		require.Len(t, frames, 1)
		return frames[0]
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
		return nil
	}
}

func TestPublishReachesSubscribersOnly(t *testing.T) {
	h := startHub(t)
	a := newTestClient(h, "a")
	b := newTestClient(h, "b")

	h.Subscribe(a, "sub-7", stomp.ChatTopic("1"))
	h.Subscribe(b, "sub-1", stomp.ChatTopic("2"))
	assert.Equal(t, 1, h.SubscriberCount(stomp.ChatTopic("1")))

	h.Publish(stomp.ChatTopic("1"), []byte(`{"content":"hi"}`))

	f := receive(t, a)
	assert.Equal(t, frame.MESSAGE, f.Command)
	assert.Equal(t, "sub-7", f.Header.Get(stomp.HeaderSubscription))
	assert.Equal(t, stomp.ChatTopic("1"), f.Header.Get(stomp.HeaderDestination))
	assert.NotEmpty(t, f.Header.Get(stomp.HeaderMessageID))
	assert.JSONEq(t, `{"content":"hi"}`, string(f.Body))

	select {
	case <-b.Send:
		t.Fatal("unexpected frame for b")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	h := startHub(t)
	a := newTestClient(h, "a")

	h.Subscribe(a, "s1", stomp.ChatTopic("1"))
	h.Unsubscribe(a, "other")
	assert.Equal(t, 1, h.SubscriberCount(stomp.ChatTopic("1")))
	h.Unsubscribe(a, "s1")
	assert.Equal(t, 0, h.SubscriberCount(stomp.ChatTopic("1")))
}

func TestUnregisterClosesClientAndDropsSubscriptions(t *testing.T) {
	h := startHub(t)
	a := newTestClient(h, "a")
	h.Subscribe(a, "s1", stomp.ChatTopic("1"))

	h.Unregister(a)

	select {
	case <-a.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("client not closed")
	}
	assert.Eventually(t, func() bool {
		return h.SubscriberCount(stomp.ChatTopic("1")) == 0 && h.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)

	// Sending to a closed client is a no-op.
	assert.NoError(t, a.SendFrame(stomp.Receipt("r-1")))
}

func TestSlowConsumerIsClosed(t *testing.T) {
	h := startHub(t)
	a := newTestClient(h, "a")
	h.Subscribe(a, "s1", stomp.ChatTopic("1"))

	for i := 0; i < 10; i++ {
		h.Publish(stomp.ChatTopic("1"), []byte(`{}`))
	}

	select {
	case <-a.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("slow consumer not closed")
	}
}

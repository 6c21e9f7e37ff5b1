package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.MessageSent()
		m.MessageRelayed()
		m.SessionOpened()
		m.SessionClosed()
		m.Connect("anonymous")
		m.FrameError("FORBIDDEN")
	})
}

func TestCounters(t *testing.T) {
	m := New()
	m.MessageSent()
	m.MessageSent()
	m.MessageRelayed()
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.FrameError("FORBIDDEN")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.messagesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesRelayed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.frameErrors.WithLabelValues("FORBIDDEN")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.MessageSent()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "chat_messages_sent_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}

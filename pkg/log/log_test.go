package log

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}

func TestNewAddsServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", ServiceName: "chat-service", Output: &buf})
	l.Info().Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "chat-service", entry[FieldService])
	assert.Equal(t, "hello", entry["message"])
}

func TestFileOutputGetsJSON(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "chat.log")
	l, closer := build(Config{Level: "info", Pretty: true, Output: &console, File: FileConfig{Path: path, MaxSizeMB: 1}})
	require.NotNil(t, closer)
	l.Info().Str("k", "v").Msg("to both")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "to both")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "v", entry["k"])
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(Config{Output: &buf}))
	ctx = With(ctx, FieldChatID, "c-1")

	l := Ctx(ctx)
	l.Info().Msg("scoped")
	assert.Contains(t, buf.String(), `"chat_id":"c-1"`)

	assert.NotPanics(t, func() {
		l := Ctx(context.Background())
		l.Debug().Msg("global")
	})
}

func TestStrSkipsContextFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(Config{Output: &buf}))
	ctx = With(ctx, FieldUserID, "u-1")
	ctx = With(ctx, FieldUserID, "u-1")

	v, ok := Field(ctx, FieldUserID)
	require.True(t, ok)
	assert.Equal(t, "u-1", v)

	l := Ctx(ctx)
	e := l.Info()
	e = Str(ctx, e, FieldUserID, "u-1")
	e = Str(ctx, e, FieldChatID, "c-1")
	e.Msg("once")

	line := buf.String()
	assert.Equal(t, 1, strings.Count(line, `"user_id"`))
	assert.Contains(t, line, `"chat_id":"c-1"`)

	_, ok = Field(WithLogger(ctx, New(Config{Output: &buf})), FieldUserID)
	assert.False(t, ok)
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	r := gin.New()
	r.Use(GinMiddleware(New(Config{Output: &buf}), "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/things", func(c *gin.Context) {
		c.Set(FieldUserID, "u-1")
		assert.NotEmpty(t, RequestID(c.Request.Context()))
		c.Status(http.StatusNotFound)
	})

	t.Run("echoes request id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/api/things", nil)
		req.Header.Set("X-Request-ID", "req-42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
		assert.Contains(t, buf.String(), `"request_id":"req-42"`)
		assert.Contains(t, buf.String(), `"user_id":"u-1"`)
		assert.Contains(t, buf.String(), `"level":"warn"`)
	})

	t.Run("quiet path is not logged", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Empty(t, buf.String())
	})
}

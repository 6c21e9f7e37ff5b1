package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigseized/rksp-final/pkg/authn"
	"github.com/bigseized/rksp-final/pkg/response"
)

func newRouter(v authn.Validator, calls *int32) *gin.Engine {
	gin.SetMode(gin.TestMode)
	mw := NewAuthMiddleware(v)
	mw.OnAuthenticated(func(c *gin.Context, res authn.Result) {
		atomic.AddInt32(calls, 1)
	})

	r := gin.New()
	r.GET("/private", mw.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  GetUserID(c),
			"username": GetUsername(c),
			"email":    GetEmail(c),
			"roles":    GetRoles(c),
		})
	})
	return r
}

func validator(_ context.Context, token string) authn.Result {
	switch token {
	case "good":
		return authn.Result{Valid: true, UserID: "u-1", Username: "alice", Email: "a@b.c", Roles: []string{"user"}}
	case "down":
		return authn.Result{Unavailable: true, Error: "connection refused"}
	default:
		return authn.Invalid("token is malformed")
	}
}

func TestRequireAuth(t *testing.T) {
	var hookCalls int32
	r := newRouter(authn.ValidatorFunc(validator), &hookCalls)

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, response.CodeUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, response.CodeUnauthorized},
		{"rejected token", "Bearer bad", http.StatusUnauthorized, response.CodeUnauthorized},
		{"upstream down", "Bearer down", http.StatusBadGateway, response.CodeUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tc.status, w.Code)
			var body response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.code, body.Error.Code)
		})
	}
	assert.Zero(t, atomic.LoadInt32(&hookCalls))

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "u-1", body["user_id"])
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "a@b.c", body["email"])
		assert.Equal(t, []interface{}{"user"}, body["roles"])
		assert.Equal(t, int32(1), atomic.LoadInt32(&hookCalls))
	})
}

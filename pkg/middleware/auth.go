package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/bigseized/rksp-final/pkg/authn"
	"github.com/bigseized/rksp-final/pkg/log"
	"github.com/bigseized/rksp-final/pkg/response"
)

const (
	UserIDKey   = log.FieldUserID
	EmailKey    = "email"
	UsernameKey = log.FieldUsername
	RolesKey    = "roles"
)

// AuthMiddleware validates the bearer token of every request it guards. No
// result is cached between requests.
type AuthMiddleware struct {
	validator       authn.Validator
	onAuthenticated []func(c *gin.Context, res authn.Result)
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(v authn.Validator) *AuthMiddleware {
	return &AuthMiddleware{validator: v}
}

// OnAuthenticated registers a hook run after a token validates and before the
// handler. Hooks must not abort the request.
func (m *AuthMiddleware) OnAuthenticated(fn func(c *gin.Context, res authn.Result)) {
	m.onAuthenticated = append(m.onAuthenticated, fn)
}

// RequireAuth rejects requests without a valid bearer token: 401 when the
// token is missing or rejected, 502 when the identity service is unreachable.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		l := log.Ctx(ctx)

		header := c.GetHeader(authn.HeaderAuthorization)
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			return
		}

		token, ok := authn.BearerToken(header)
		if !ok {
			response.Unauthorized(c, "invalid authorization format")
			return
		}

		res := m.validator.Validate(ctx, token)
		if res.Unavailable {
			l.Warn().Str("reason", res.Error).Msg("token validation unavailable")
			response.BadGateway(c, "authentication service unavailable")
			return
		}
		if !res.Valid {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(UserIDKey, res.UserID)
		c.Set(EmailKey, res.Email)
		c.Set(UsernameKey, res.Username)
		c.Set(RolesKey, res.Roles)
		c.Request = c.Request.WithContext(log.With(ctx, log.FieldUserID, res.UserID))

		for _, fn := range m.onAuthenticated {
			fn(c, res)
		}

		c.Next()
	}
}

// GetUserID extracts user ID from Gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetUsername extracts username from Gin context.
func GetUsername(c *gin.Context) string {
	return c.GetString(UsernameKey)
}

// GetEmail extracts email from Gin context.
func GetEmail(c *gin.Context) string {
	return c.GetString(EmailKey)
}

// GetRoles extracts roles from Gin context.
func GetRoles(c *gin.Context) []string {
	return c.GetStringSlice(RolesKey)
}

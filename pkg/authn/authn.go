// Package authn defines the bearer-token validation contract shared by REST
// middleware and the WebSocket gateway.
package authn

import (
	"context"
	"strings"
)

const (
	HeaderAuthorization = "Authorization"
	BearerPrefix        = "Bearer "
)

// Result is the outcome of validating a token. A failed validation is a
// value, never an error: Unavailable marks transport failures so callers can
// tell "rejected" from "could not ask".
type Result struct {
	Valid       bool
	UserID      string
	Username    string
	Email       string
	Roles       []string
	Error       string
	Unavailable bool
}

// Invalid builds a rejected result.
func Invalid(reason string) Result {
	return Result{Error: reason}
}

// Validator checks a bearer token against the identity authority.
type Validator interface {
	Validate(ctx context.Context, token string) Result
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, token string) Result

func (f ValidatorFunc) Validate(ctx context.Context, token string) Result {
	return f(ctx, token)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	if len(header) < len(BearerPrefix) || !strings.EqualFold(header[:len(BearerPrefix)], BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(BearerPrefix):])
	return token, token != ""
}

// Package auth holds the identity-service RPC contract described in
// auth.proto: message types, the client stub and the server registration.
package auth

type GenerateTokensRequest struct {
	UserId   string   `json:"user_id,omitempty"`
	Email    string   `json:"email,omitempty"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

type GenerateTokensResponse struct {
	AccessToken      string `json:"access_token,omitempty"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	AccessExpiresAt  int64  `json:"access_expires_at,omitempty"`
	RefreshExpiresAt int64  `json:"refresh_expires_at,omitempty"`
}

type ValidateTokenRequest struct {
	AccessToken string `json:"access_token,omitempty"`
}

type ValidateTokenResponse struct {
	Valid        bool     `json:"valid,omitempty"`
	UserId       string   `json:"user_id,omitempty"`
	Email        string   `json:"email,omitempty"`
	Username     string   `json:"username,omitempty"`
	Roles        []string `json:"roles,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

func (x *ValidateTokenResponse) GetValid() bool {
	if x != nil {
		return x.Valid
	}
	return false
}

func (x *ValidateTokenResponse) GetErrorMessage() string {
	if x != nil {
		return x.ErrorMessage
	}
	return ""
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type RefreshTokenResponse struct {
	AccessToken      string `json:"access_token,omitempty"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	AccessExpiresAt  int64  `json:"access_expires_at,omitempty"`
	RefreshExpiresAt int64  `json:"refresh_expires_at,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

type RevokeTokensRequest struct {
	UserId string `json:"user_id,omitempty"`
}

type RevokeTokensResponse struct {
	Success bool `json:"success,omitempty"`
}

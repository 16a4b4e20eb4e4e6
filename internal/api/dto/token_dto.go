package dto

import "time"

// TokenResponse is returned by the issue endpoint.
type TokenResponse struct {
	Token string `json:"token"`
}

// ExchangeRequest carries the exchange endpoint payload.
type ExchangeRequest struct {
	Token  string `json:"token"`
	TestID string `json:"testId"`
}

// ExchangeResponse carries the issued access code. Dev is set only in mock
// mode so callers can always tell a placeholder from a real code.
type ExchangeResponse struct {
	AccessCode string `json:"accessCode"`
	Dev        bool   `json:"_dev,omitempty"`
}

// AdminLoginRequest carries the shared admin password.
type AdminLoginRequest struct {
	Password string `json:"password"`
}

// AdminLoginResponse carries a short-lived admin session token.
type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTokenIssued      EventType = "token_issued"
	EventAccessCodeIssued EventType = "access_code_issued"
	EventExchangeFailed   EventType = "exchange_failed"
)

// Event represents a lifecycle event emitted by services. Tokens never appear
// in payloads in full; only a short prefix is carried for correlation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TokenIssuedPayload payload.
type TokenIssuedPayload struct {
	TokenPrefix string `json:"token_prefix"`
	ExpiresAt   int64  `json:"expires_at"`
}

// AccessCodeIssuedPayload payload.
type AccessCodeIssuedPayload struct {
	TestID  string `json:"test_id"`
	DevMode bool   `json:"dev_mode"`
}

// ExchangeFailedPayload payload.
type ExchangeFailedPayload struct {
	TestID string `json:"test_id,omitempty"`
	Reason string `json:"reason"`
}

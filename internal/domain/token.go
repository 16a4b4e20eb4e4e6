package domain

import "time"

// TokenRecord is the sole persisted entity: an opaque short-lived token with
// its fixed validity window. Timestamps are epoch seconds to match the store
// layout used by native TTL eviction.
type TokenRecord struct {
	Token     string `json:"token"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Expired reports whether the record's window has closed. The window is fixed
// at issuance and never extended; a record at exactly ExpiresAt is expired.
func (r *TokenRecord) Expired(now time.Time) bool {
	return now.Unix() >= r.ExpiresAt
}

// TTL returns the remaining lifetime relative to now, zero if already expired.
func (r *TokenRecord) TTL(now time.Time) time.Duration {
	remaining := time.Unix(r.ExpiresAt, 0).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/exam-access-service/internal/domain"
	"github.com/spec-kit/exam-access-service/internal/repository"
)

// memoryTokenStore is an in-memory TokenStore fake tracking call counts.
type memoryTokenStore struct {
	records map[string]*domain.TokenRecord
	saveErr error
	getErr  error
	gets    int
	saves   int
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{records: map[string]*domain.TokenRecord{}}
}

func (m *memoryTokenStore) Save(_ context.Context, rec *domain.TokenRecord) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *rec
	m.records[rec.Token] = &copied
	return nil
}

func (m *memoryTokenStore) Get(_ context.Context, token string) (*domain.TokenRecord, error) {
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[token]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}
	return rec, nil
}

func newTestTokenService(store repository.TokenStore) *TokenService {
	return NewTokenService(store, 15*time.Minute, nil, zap.NewNop())
}

func TestIssueStoresRecordBeforeReturning(t *testing.T) {
	store := newMemoryTokenStore()
	svc := newTestTokenService(store)

	rec, err := svc.Issue(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Len(t, rec.Token, 32)
	assert.NotContains(t, rec.Token, "-")
	assert.Equal(t, int64(900), rec.ExpiresAt-rec.CreatedAt)

	stored, ok := store.records[rec.Token]
	require.True(t, ok, "record must be durably written before the token is returned")
	assert.Equal(t, rec.Token, stored.Token)
}

func TestIssueFailsWhenStoreWriteFails(t *testing.T) {
	store := newMemoryTokenStore()
	store.saveErr = errors.New("store down")
	svc := newTestTokenService(store)

	rec, err := svc.Issue(context.Background())
	assert.Error(t, err)
	assert.Nil(t, rec, "no token may be handed out without a stored record")
	assert.Equal(t, 1, store.saves, "issuer performs no retries")
}

func TestIssuedTokensAreUnique(t *testing.T) {
	store := newMemoryTokenStore()
	svc := newTestTokenService(store)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		rec, err := svc.Issue(context.Background())
		require.NoError(t, err)
		assert.False(t, seen[rec.Token])
		seen[rec.Token] = true
	}
}

func TestValidateFreshTokenRepeatedly(t *testing.T) {
	store := newMemoryTokenStore()
	svc := newTestTokenService(store)

	rec, err := svc.Issue(context.Background())
	require.NoError(t, err)

	// validation is a point-in-time predicate, not single-use
	for i := 0; i < 5; i++ {
		assert.True(t, svc.Validate(context.Background(), rec.Token))
	}
}

func TestValidateExpiredToken(t *testing.T) {
	store := newMemoryTokenStore()
	svc := newTestTokenService(store)

	rec, err := svc.Issue(context.Background())
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Unix(rec.ExpiresAt, 0) }
	assert.False(t, svc.Validate(context.Background(), rec.Token), "invalid exactly at expiry")

	svc.now = func() time.Time { return time.Unix(rec.ExpiresAt, 0).Add(time.Hour) }
	assert.False(t, svc.Validate(context.Background(), rec.Token))
}

func TestValidateChecksExpiryDespiteEvictionLag(t *testing.T) {
	// Simulate a store that has not yet physically evicted an expired record.
	store := newMemoryTokenStore()
	svc := newTestTokenService(store)

	now := time.Now()
	store.records["stale"] = &domain.TokenRecord{
		Token:     "stale",
		CreatedAt: now.Add(-20 * time.Minute).Unix(),
		ExpiresAt: now.Add(-5 * time.Minute).Unix(),
	}

	assert.False(t, svc.Validate(context.Background(), "stale"))
}

func TestValidateUnknownToken(t *testing.T) {
	svc := newTestTokenService(newMemoryTokenStore())
	assert.False(t, svc.Validate(context.Background(), "c0ffee00c0ffee00c0ffee00c0ffee00"))
}

func TestValidateEmptyTokenSkipsLookup(t *testing.T) {
	store := newMemoryTokenStore()
	svc := newTestTokenService(store)

	assert.False(t, svc.Validate(context.Background(), ""))
	assert.Equal(t, 0, store.gets)
}

func TestValidateRecoversLookupFailure(t *testing.T) {
	store := newMemoryTokenStore()
	store.getErr = errors.New("store unreachable")
	svc := newTestTokenService(store)

	assert.False(t, svc.Validate(context.Background(), "sometoken"))
}

func TestValidateIsReadOnly(t *testing.T) {
	store := newMemoryTokenStore()
	svc := newTestTokenService(store)

	rec, err := svc.Issue(context.Background())
	require.NoError(t, err)

	before := *store.records[rec.Token]
	svc.Validate(context.Background(), rec.Token)
	svc.Validate(context.Background(), rec.Token)
	assert.Equal(t, before, *store.records[rec.Token], "validation never mutates the record")
}

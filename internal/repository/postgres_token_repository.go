package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/exam-access-service/internal/domain"
)

// PostgresTokenStore backs the token store with a table lacking native TTL.
// A purge worker handles physical eviction; validity is still decided by the
// expiry check at read time.
type PostgresTokenStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresTokenStore constructs the postgres-backed store.
func NewPostgresTokenStore(pool *pgxpool.Pool, table string) *PostgresTokenStore {
	return &PostgresTokenStore{pool: pool, table: table}
}

func (s *PostgresTokenStore) Save(ctx context.Context, rec *domain.TokenRecord) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (token, created_at, expires_at) VALUES ($1,$2,$3)`, s.table)
	if _, err := s.pool.Exec(ctx, query, rec.Token, rec.CreatedAt, rec.ExpiresAt); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

func (s *PostgresTokenStore) Get(ctx context.Context, token string) (*domain.TokenRecord, error) {
	query := fmt.Sprintf(
		`SELECT token, created_at, expires_at FROM %s WHERE token=$1`, s.table)

	var rec domain.TokenRecord
	err := s.pool.QueryRow(ctx, query, token).Scan(&rec.Token, &rec.CreatedAt, &rec.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch token: %w", err)
	}
	return &rec, nil
}

// Purge deletes rows whose expiry has passed, returning the number removed.
func (s *PostgresTokenStore) Purge(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

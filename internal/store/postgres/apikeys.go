package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/narvanalabs/domain-registry/internal/store"
)

// APIKeyStore implements store.APIKeyStore using PostgreSQL.
type APIKeyStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *APIKeyStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Create stores a new API key hash.
func (s *APIKeyStore) Create(ctx context.Context, key *store.APIKey) error {
	if key.ID == "" {
		key.ID = uuid.New().String()
	}

	query := `INSERT INTO api_keys (id, user_id, key_hash, name) VALUES ($1, $2, $3, $4)`
	if _, err := s.conn().ExecContext(ctx, query, key.ID, key.UserID, key.KeyHash, key.Name); err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("inserting api key: %w", err)
	}
	return nil
}

// GetByHash retrieves an API key by its hash.
func (s *APIKeyStore) GetByHash(ctx context.Context, hash string) (*store.APIKey, error) {
	query := `SELECT id, user_id, key_hash, name FROM api_keys WHERE key_hash = $1`

	var key store.APIKey
	err := s.conn().QueryRowContext(ctx, query, hash).Scan(&key.ID, &key.UserID, &key.KeyHash, &key.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying api key: %w", err)
	}
	return &key, nil
}

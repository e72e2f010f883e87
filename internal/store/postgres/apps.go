package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/narvanalabs/domain-registry/internal/models"
	"github.com/narvanalabs/domain-registry/internal/store"
)

// AppStore implements store.AppStore using PostgreSQL.
type AppStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

// conn returns the queryable connection (transaction or database).
func (s *AppStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Create registers an application.
func (s *AppStore) Create(ctx context.Context, app *models.App) error {
	query := `
		INSERT INTO apps (id, org_id, owner_id, collaborators, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	if app.UpdatedAt.IsZero() {
		app.UpdatedAt = now
	}

	// Handle nullable org_id
	var orgID interface{}
	if app.OrgID != "" {
		orgID = app.OrgID
	}

	collaborators := app.Collaborators
	if collaborators == nil {
		collaborators = []string{}
	}

	_, err := s.conn().ExecContext(ctx, query,
		app.ID,
		orgID,
		app.OwnerID,
		pq.Array(collaborators),
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("inserting app: %w", err)
	}

	return nil
}

// Get retrieves an application by ID.
func (s *AppStore) Get(ctx context.Context, id string) (*models.App, error) {
	query := `
		SELECT id, COALESCE(org_id, ''), owner_id, collaborators, created_at, updated_at
		FROM apps
		WHERE id = $1`

	app := &models.App{}
	err := s.conn().QueryRowContext(ctx, query, id).Scan(
		&app.ID,
		&app.OrgID,
		&app.OwnerID,
		pq.Array(&app.Collaborators),
		&app.CreatedAt,
		&app.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("querying app: %w", err)
	}

	return app, nil
}

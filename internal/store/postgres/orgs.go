package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/narvanalabs/domain-registry/internal/models"
)

// OrgStore implements store.OrgStore using PostgreSQL.
type OrgStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

// conn returns the queryable connection (transaction or database).
func (s *OrgStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// AddMember adds a user to an organization with a role.
func (s *OrgStore) AddMember(ctx context.Context, orgID, userID string, role models.Role) error {
	query := `
		INSERT INTO org_memberships (org_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (org_id, user_id) DO UPDATE SET role = $3`

	_, err := s.conn().ExecContext(ctx, query, orgID, userID, string(role), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("adding member to organization: %w", err)
	}

	return nil
}

// IsMember checks if a user is a member of an organization.
func (s *OrgStore) IsMember(ctx context.Context, orgID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM org_memberships WHERE org_id = $1 AND user_id = $2)`

	var exists bool
	err := s.conn().QueryRowContext(ctx, query, orgID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking organization membership: %w", err)
	}

	return exists, nil
}

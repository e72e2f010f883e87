package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/narvanalabs/domain-registry/internal/models"
	"github.com/narvanalabs/domain-registry/internal/store"
)

// DomainStore implements store.DomainStore using PostgreSQL.
type DomainStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

// conn returns the queryable connection (transaction or database).
func (s *DomainStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const domainColumns = `id, app_id, domain, owner_id, created_at, updated_at`

// Create claims the hostname for the domain's application. The unique
// constraint on domain makes the insert itself the admission check: a
// concurrent claim of the same hostname either wins or returns no row.
func (s *DomainStore) Create(ctx context.Context, domain *models.Domain) error {
	query := `
		INSERT INTO domains (id, app_id, domain, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (domain) DO NOTHING
		RETURNING id, created_at, updated_at`

	if domain.UUID == "" {
		domain.UUID = uuid.New().String()
	}
	now := time.Now().UTC()

	err := s.conn().QueryRowContext(ctx, query,
		domain.UUID,
		domain.App,
		domain.Domain,
		domain.Owner,
		now,
		now,
	).Scan(&domain.UUID, &domain.CreatedAt, &domain.UpdatedAt)

	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
			return store.ErrConflict
		case isForeignKeyViolation(err):
			return store.ErrNotFound
		}
		return fmt.Errorf("creating domain: %w", err)
	}

	return nil
}

// List retrieves an application's custom domains in creation order. seq is
// assigned at insert, so rows stamped with the same created_at keep their
// order.
func (s *DomainStore) List(ctx context.Context, appID string) ([]*models.Domain, error) {
	query := `
		SELECT ` + domainColumns + `
		FROM domains
		WHERE app_id = $1
		ORDER BY seq ASC`

	return s.query(ctx, query, appID)
}

// ListAll retrieves every custom domain ordered by hostname.
func (s *DomainStore) ListAll(ctx context.Context) ([]*models.Domain, error) {
	query := `
		SELECT ` + domainColumns + `
		FROM domains
		ORDER BY domain ASC`

	return s.query(ctx, query)
}

// Delete removes exactly one domain row, scoped to its application.
func (s *DomainStore) Delete(ctx context.Context, appID, hostname string) error {
	query := `DELETE FROM domains WHERE app_id = $1 AND domain = $2`
	result, err := s.conn().ExecContext(ctx, query, appID, hostname)
	if err != nil {
		return fmt.Errorf("deleting domain: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}

	return nil
}

// GetByDomain retrieves a domain by hostname.
func (s *DomainStore) GetByDomain(ctx context.Context, hostname string) (*models.Domain, error) {
	query := `
		SELECT ` + domainColumns + `
		FROM domains
		WHERE domain = $1`

	domain, err := scanDomain(s.conn().QueryRowContext(ctx, query, hostname))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("getting domain by name: %w", err)
	}

	return domain, nil
}

// Count returns the number of custom domains for an application.
func (s *DomainStore) Count(ctx context.Context, appID string) (int, error) {
	query := `SELECT COUNT(*) FROM domains WHERE app_id = $1`

	var count int
	if err := s.conn().QueryRowContext(ctx, query, appID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting domains: %w", err)
	}
	return count, nil
}

func (s *DomainStore) query(ctx context.Context, query string, args ...any) ([]*models.Domain, error) {
	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying domains: %w", err)
	}
	defer rows.Close()

	domains := []*models.Domain{}
	for rows.Next() {
		domain, err := scanDomain(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning domain: %w", err)
		}
		domains = append(domains, domain)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating domains: %w", err)
	}

	return domains, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDomain(row rowScanner) (*models.Domain, error) {
	domain := &models.Domain{}
	err := row.Scan(
		&domain.UUID,
		&domain.App,
		&domain.Domain,
		&domain.Owner,
		&domain.CreatedAt,
		&domain.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return domain, nil
}

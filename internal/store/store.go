// Package store provides database access interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/narvanalabs/domain-registry/internal/models"
)

// Common store errors. Implementations return these, optionally wrapped.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("resource already exists")
)

// AppStore reads application records. Applications are created and deleted by
// the platform's app lifecycle; Create exists for seeding and tests.
type AppStore interface {
	// Get retrieves an application by ID. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*models.App, error)
	// Create registers an application.
	Create(ctx context.Context, app *models.App) error
}

// DomainStore defines operations for custom domain records.
type DomainStore interface {
	// Create inserts the domain if its hostname is not yet claimed by any
	// application. The uniqueness check and insert are a single atomic step.
	// Returns ErrConflict if the hostname is taken and ErrNotFound if the
	// application does not exist.
	Create(ctx context.Context, domain *models.Domain) error
	// List retrieves an application's custom domains in creation order.
	List(ctx context.Context, appID string) ([]*models.Domain, error)
	// ListAll retrieves every custom domain ordered by hostname.
	ListAll(ctx context.Context) ([]*models.Domain, error)
	// Delete removes exactly the named domain from the application.
	// Returns ErrNotFound if the application has no such domain.
	Delete(ctx context.Context, appID, hostname string) error
	// GetByDomain retrieves a domain by hostname. Returns ErrNotFound if unclaimed.
	GetByDomain(ctx context.Context, hostname string) (*models.Domain, error)
	// Count returns the number of custom domains for an application.
	Count(ctx context.Context, appID string) (int, error)
}

// User represents a user in the system.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"is_admin"`
	CreatedAt int64  `json:"created_at"`
}

// UserStore defines operations for user lookup.
type UserStore interface {
	// Create creates a user with the given ID.
	Create(ctx context.Context, user *User) error
	// GetByID retrieves a user by ID. Returns ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*User, error)
}

// OrgStore defines the organization membership lookups used for visibility.
type OrgStore interface {
	// AddMember adds a user to an organization with a role.
	AddMember(ctx context.Context, orgID, userID string, role models.Role) error
	// IsMember reports whether the user belongs to the organization.
	IsMember(ctx context.Context, orgID, userID string) (bool, error)
}

// APIKey represents a stored API key.
type APIKey struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	KeyHash string `json:"-"` // SHA256 hash of the key
	Name    string `json:"name"`
}

// APIKeyStore defines operations for API key lookup.
type APIKeyStore interface {
	// Create stores a new API key.
	Create(ctx context.Context, key *APIKey) error
	// GetByHash retrieves an API key by its hash. Returns ErrNotFound if unknown.
	GetByHash(ctx context.Context, hash string) (*APIKey, error)
}

// Store is the main interface for database operations.
type Store interface {
	// Apps returns the AppStore for application lookups.
	Apps() AppStore
	// Domains returns the DomainStore for custom domain operations.
	Domains() DomainStore
	// Users returns the UserStore for user operations.
	Users() UserStore
	// Orgs returns the OrgStore for organization membership.
	Orgs() OrgStore
	// APIKeys returns the APIKeyStore for API key lookups.
	APIKeys() APIKeyStore

	// WithTx executes the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// Otherwise, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

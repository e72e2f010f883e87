// Package postgres provides PostgreSQL implementation of the store interfaces.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/narvanalabs/domain-registry/internal/store"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db      *sql.DB
	logger  *slog.Logger
	apps    *AppStore
	domains *DomainStore
	users   *UserStore
	orgs    *OrgStore
	apiKeys *APIKeyStore
}

// Config holds PostgreSQL connection configuration.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(dsn string) *Config {
	return &Config{
		DSN:             dsn,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// NewPostgresStore creates a new PostgreSQL store with the given configuration.
func NewPostgresStore(cfg *Config, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := NewFromDB(db, logger)
	s.logger.Info("connected to PostgreSQL database")
	return s, nil
}

// NewFromDB wraps an already opened database handle.
func NewFromDB(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		db:      db,
		logger:  logger,
		apps:    &AppStore{db: db, logger: logger},
		domains: &DomainStore{db: db, logger: logger},
		users:   &UserStore{db: db, logger: logger},
		orgs:    &OrgStore{db: db, logger: logger},
		apiKeys: &APIKeyStore{db: db, logger: logger},
	}
}

// Apps returns the AppStore.
func (s *PostgresStore) Apps() store.AppStore {
	return s.apps
}

// Domains returns the DomainStore.
func (s *PostgresStore) Domains() store.DomainStore {
	return s.domains
}

// Users returns the UserStore.
func (s *PostgresStore) Users() store.UserStore {
	return s.users
}

// Orgs returns the OrgStore.
func (s *PostgresStore) Orgs() store.OrgStore {
	return s.orgs
}

// APIKeys returns the APIKeyStore.
func (s *PostgresStore) APIKeys() store.APIKeyStore {
	return s.apiKeys
}

// WithTx executes the given function within a database transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	// Create a transaction-scoped store
	txStore := &txStore{
		tx:     tx,
		logger: s.logger,
	}

	// Execute the function
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	// Commit the transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Ping verifies database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	s.logger.Info("closing PostgreSQL connection")
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// txStore wraps a transaction and implements the Store interface.
type txStore struct {
	tx      *sql.Tx
	logger  *slog.Logger
	apps    *AppStore
	domains *DomainStore
	users   *UserStore
	orgs    *OrgStore
	apiKeys *APIKeyStore
}

func (s *txStore) Apps() store.AppStore {
	if s.apps == nil {
		s.apps = &AppStore{tx: s.tx, logger: s.logger}
	}
	return s.apps
}

func (s *txStore) Domains() store.DomainStore {
	if s.domains == nil {
		s.domains = &DomainStore{tx: s.tx, logger: s.logger}
	}
	return s.domains
}

func (s *txStore) Users() store.UserStore {
	if s.users == nil {
		s.users = &UserStore{tx: s.tx, logger: s.logger}
	}
	return s.users
}

func (s *txStore) Orgs() store.OrgStore {
	if s.orgs == nil {
		s.orgs = &OrgStore{tx: s.tx, logger: s.logger}
	}
	return s.orgs
}

func (s *txStore) APIKeys() store.APIKeyStore {
	if s.apiKeys == nil {
		s.apiKeys = &APIKeyStore{tx: s.tx, logger: s.logger}
	}
	return s.apiKeys
}

func (s *txStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	// Already in a transaction, just execute the function
	return fn(s)
}

func (s *txStore) Ping(ctx context.Context) error {
	return nil
}

func (s *txStore) Close() error {
	// No-op for transaction store
	return nil
}

// queryable is an interface that both *sql.DB and *sql.Tx implement.
type queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

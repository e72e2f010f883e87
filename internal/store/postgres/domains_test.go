package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/narvanalabs/domain-registry/internal/models"
	"github.com/narvanalabs/domain-registry/internal/store"
)

func TestDomainStore_Unit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	s := NewFromDB(db, nil).Domains()
	ctx := context.Background()
	now := time.Now().UTC()
	columns := []string{"id", "app_id", "domain", "owner_id", "created_at", "updated_at"}

	t.Run("Create", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO domains (.+) ON CONFLICT \(domain\) DO NOTHING RETURNING id, created_at, updated_at`).
			WithArgs(sqlmock.AnyArg(), "myapp", "www.example.com", "alice", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow("7d9c1f0e-8a8b-4a43-9d1e-2f3a4b5c6d7e", now, now))

		domain := &models.Domain{App: "myapp", Domain: "www.example.com", Owner: "alice"}
		if err := s.Create(ctx, domain); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if domain.UUID != "7d9c1f0e-8a8b-4a43-9d1e-2f3a4b5c6d7e" || !domain.CreatedAt.Equal(now) {
			t.Errorf("unexpected domain after create: %+v", domain)
		}
	})

	t.Run("CreateConflict", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO domains`).
			WithArgs(sqlmock.AnyArg(), "otherapp", "www.example.com", "bob", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))

		err := s.Create(ctx, &models.Domain{App: "otherapp", Domain: "www.example.com", Owner: "bob"})
		if !errors.Is(err, store.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("CreateUnknownApp", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO domains`).
			WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})

		err := s.Create(ctx, &models.Domain{App: "ghost", Domain: "ghost.example.com", Owner: "bob"})
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow("d1", "myapp", "a.example.com", "alice", now, now).
			AddRow("d2", "myapp", "b.example.com", "alice", now.Add(time.Second), now.Add(time.Second))

		mock.ExpectQuery(`SELECT (.+) FROM domains WHERE app_id = \$1 ORDER BY seq ASC`).
			WithArgs("myapp").
			WillReturnRows(rows)

		domains, err := s.List(ctx, "myapp")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(domains) != 2 || domains[0].Domain != "a.example.com" || domains[1].Domain != "b.example.com" {
			t.Errorf("unexpected domains: %+v", domains)
		}
	})

	t.Run("ListEmpty", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM domains WHERE app_id = \$1`).
			WithArgs("emptyapp").
			WillReturnRows(sqlmock.NewRows(columns))

		domains, err := s.List(ctx, "emptyapp")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if domains == nil || len(domains) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", domains)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM domains WHERE app_id = \$1 AND domain = \$2`).
			WithArgs("myapp", "a.example.com").
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := s.Delete(ctx, "myapp", "a.example.com"); err != nil {
			t.Errorf("Delete failed: %v", err)
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM domains WHERE app_id = \$1 AND domain = \$2`).
			WithArgs("myapp", "missing.example.com").
			WillReturnResult(sqlmock.NewResult(0, 0))

		if err := s.Delete(ctx, "myapp", "missing.example.com"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GetByDomainMissing", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM domains WHERE domain = \$1`).
			WithArgs("nobody.example.com").
			WillReturnRows(sqlmock.NewRows(columns))

		if _, err := s.GetByDomain(ctx, "nobody.example.com"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Count", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM domains WHERE app_id = \$1`).
			WithArgs("myapp").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		count, err := s.Count(ctx, "myapp")
		if err != nil || count != 2 {
			t.Errorf("Count = %d, %v; want 2, nil", count, err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %s", err)
	}
}

func TestAppStore_Unit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	s := NewFromDB(db, nil).Apps()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM apps WHERE id = \$1`).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "owner_id", "collaborators", "created_at", "updated_at"}))

		if _, err := s.Get(ctx, "ghost"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectQuery(`SELECT (.+) FROM apps WHERE id = \$1`).
			WithArgs("myapp").
			WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "owner_id", "collaborators", "created_at", "updated_at"}).
				AddRow("myapp", "", "alice", "{bob,carol}", now, now))

		app, err := s.Get(ctx, "myapp")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if app.OwnerID != "alice" || !app.IsCollaborator("bob") || !app.IsCollaborator("carol") {
			t.Errorf("unexpected app: %+v", app)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %s", err)
	}
}
